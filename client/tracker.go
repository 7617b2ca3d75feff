package client

import "taskboard/entity"

// DueTracker remembers which due reminders have already been announced.
type DueTracker struct {
	seen map[string]struct{}
}

func NewDueTracker() *DueTracker {
	return &DueTracker{seen: map[string]struct{}{}}
}

// Observe takes the latest due reminders and reports whether any of them is
// new since the previous call. When it is, every currently due reminder is
// returned so they can be shown together. An empty poll resets the state.
func (t *DueTracker) Observe(reminders []entity.ReminderWithTask) ([]entity.ReminderWithTask, bool) {
	if len(reminders) == 0 {
		clear(t.seen)
		return nil, false
	}

	current := make(map[string]struct{}, len(reminders))
	fresh := false
	for _, r := range reminders {
		current[r.ID] = struct{}{}
		if _, ok := t.seen[r.ID]; !ok {
			fresh = true
		}
	}
	t.seen = current
	if !fresh {
		return nil, false
	}
	return reminders, true
}
