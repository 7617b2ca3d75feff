package client

import (
	"testing"

	"taskboard/entity"

	"github.com/stretchr/testify/assert"
)

func due(ids ...string) []entity.ReminderWithTask {
	out := make([]entity.ReminderWithTask, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.ReminderWithTask{Reminder: entity.Reminder{ID: id, Fired: true}})
	}
	return out
}

func TestDueTracker(t *testing.T) {
	tr := NewDueTracker()

	alert, ok := tr.Observe(due("r1"))
	assert.True(t, ok)
	assert.Len(t, alert, 1)

	_, ok = tr.Observe(due("r1"))
	assert.False(t, ok, "same ids must not alert again")

	alert, ok = tr.Observe(due("r1", "r2"))
	assert.True(t, ok)
	assert.Len(t, alert, 2, "alert carries every due reminder")

	_, ok = tr.Observe(due("r2"))
	assert.False(t, ok, "a dismissed reminder disappearing is not news")

	_, ok = tr.Observe(nil)
	assert.False(t, ok)

	_, ok = tr.Observe(due("r2"))
	assert.True(t, ok, "state resets once nothing is due")
}
