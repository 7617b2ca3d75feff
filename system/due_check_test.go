package system_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard/entity"
	"taskboard/storage/sqlite"
	"taskboard/system"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store   *sqlite.Store
	clock   *fakeClock
	checker *system.DueChecker
	alice   *entity.User
	bob     *entity.User
	board   *entity.Board
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db, zap.NewNop()))

	clock := &fakeClock{t: time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC)}
	store := sqlite.New(db, sqlite.WithClock(clock.Now))
	checker := system.NewDueChecker(store, zap.NewNop(), nil)
	checker.Now = clock.Now

	ctx := context.Background()
	alice, err := store.CreateUser(ctx, &entity.User{Username: "alice", Password: "x"})
	require.NoError(t, err)
	bob, err := store.CreateUser(ctx, &entity.User{Username: "bob", Password: "x"})
	require.NoError(t, err)
	board, err := store.CreateBoard(ctx, &entity.Board{Name: "Team", Type: entity.BoardWorkplace, OwnerID: alice.ID})
	require.NoError(t, err)

	return &fixture{store: store, clock: clock, checker: checker, alice: alice, bob: bob, board: board}
}

func (f *fixture) task(t *testing.T, title string, due time.Time, assignee *string) *entity.Task {
	t.Helper()
	task, err := f.store.CreateTask(context.Background(), &entity.Task{
		Title:      title,
		BoardID:    f.board.ID,
		Column:     entity.ColumnTodo,
		Priority:   entity.PriorityMedium,
		CreatorID:  f.alice.ID,
		AssigneeID: assignee,
		Status:     entity.StatusPending,
		DueDate:    &due,
	})
	require.NoError(t, err)
	return task
}

func notificationsOf(t *testing.T, f *fixture, userID string, typ entity.NotificationType) []entity.Notification {
	t.Helper()
	all, err := f.store.ListNotifications(context.Background(), userID)
	require.NoError(t, err)
	var out []entity.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func TestDueChecker_NotifiesOncePerWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.task(t, "Ship release", f.clock.Now().Add(3*time.Hour), &f.bob.ID)
	f.task(t, "File taxes", f.clock.Now().Add(-time.Hour), nil)

	report := f.checker.Run(ctx)
	assert.Equal(t, 1, report.DueSoonCreated)
	assert.Equal(t, 1, report.OverdueCreated)
	assert.Empty(t, report.Errors)

	dueSoon := notificationsOf(t, f, f.bob.ID, entity.NotificationTaskDueSoon)
	require.Len(t, dueSoon, 1)
	assert.Equal(t, `Task "Ship release" is due soon`, dueSoon[0].Message)

	overdue := notificationsOf(t, f, f.alice.ID, entity.NotificationTaskOverdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, `Task "File taxes" is overdue!`, overdue[0].Message)

	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Minute)
		report = f.checker.Run(ctx)
		assert.Zero(t, report.DueSoonCreated)
		assert.Zero(t, report.OverdueCreated)
	}
	assert.Len(t, notificationsOf(t, f, f.bob.ID, entity.NotificationTaskDueSoon), 1)
	assert.Len(t, notificationsOf(t, f, f.alice.ID, entity.NotificationTaskOverdue), 1)

	// A day later the first task is overdue too and the old overdue
	// notification no longer suppresses a repeat.
	f.clock.Advance(25 * time.Hour)
	report = f.checker.Run(ctx)
	assert.Zero(t, report.DueSoonCreated)
	assert.Equal(t, 2, report.OverdueCreated)
	assert.Len(t, notificationsOf(t, f, f.bob.ID, entity.NotificationTaskOverdue), 1)
	assert.Len(t, notificationsOf(t, f, f.alice.ID, entity.NotificationTaskOverdue), 2)
}

func TestDueChecker_SkipsDoneTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, "Old chore", f.clock.Now().Add(-time.Hour), nil)
	_, err := f.store.UpdateTask(ctx, task.ID, entity.TaskPatch{Column: entity.Some(entity.ColumnDone)})
	require.NoError(t, err)

	report := f.checker.Run(ctx)
	assert.Zero(t, report.OverdueCreated)
	assert.Empty(t, notificationsOf(t, f, f.alice.ID, entity.NotificationTaskOverdue))
}

func TestDueChecker_FiresRemindersOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, "Standup", f.clock.Now().Add(72*time.Hour), nil)
	reminder, err := f.store.CreateReminder(ctx, f.alice.ID, task.ID, f.clock.Now().Add(time.Minute))
	require.NoError(t, err)

	report := f.checker.Run(ctx)
	assert.Zero(t, report.RemindersFired)

	f.clock.Advance(2 * time.Minute)
	report = f.checker.Run(ctx)
	assert.Equal(t, 1, report.RemindersFired)

	got, err := f.store.GetReminder(ctx, reminder.ID)
	require.NoError(t, err)
	assert.True(t, got.Fired)
	assert.False(t, got.Dismissed)

	pending, err := f.store.RemindersBecameDue(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, pending)

	report = f.checker.Run(ctx)
	assert.Zero(t, report.RemindersFired)

	due, err := f.store.DueReminders(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, reminder.ID, due[0].ID)
}

func TestDueChecker_SweepsAreIndependent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC)
	reg := prometheus.NewRegistry()
	metrics := system.NewSweepMetrics(reg)
	checker := system.NewDueChecker(sqlite.New(db), zap.NewNop(), metrics)
	checker.Now = func() time.Time { return now }

	taskCols := []string{"id", "title", "description", "board_id", "column_name", "priority", "assignee_id", "creator_id", "status", "due_date", "reminder_date", "position"}
	reminderCols := []string{"id", "user_id", "task_id", "reminder_time", "fired", "dismissed", "created_at"}

	mock.ExpectQuery("FROM tasks WHERE due_date >").WillReturnError(errors.New("database is locked"))
	mock.ExpectQuery("FROM tasks WHERE due_date <").WillReturnRows(sqlmock.NewRows(taskCols))
	mock.ExpectQuery("FROM reminders WHERE fired = 0").
		WillReturnRows(sqlmock.NewRows(reminderCols).
			AddRow("r1", "u1", "t1", "2025-06-13T08:59:00.000000Z", int64(0), int64(0), "2025-06-13T08:00:00.000000Z"))
	mock.ExpectExec("UPDATE reminders SET fired = 1").WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))

	report := checker.Run(context.Background())

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error(), "due_soon")
	assert.Equal(t, 1, report.RemindersFired)
	assert.NoError(t, mock.ExpectationsWereMet())

	count, err := testutil.GatherAndCount(reg, "taskboard_due_check_sweeps_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
