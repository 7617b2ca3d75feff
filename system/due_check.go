package system

import (
	"context"
	"fmt"
	"time"

	"taskboard/entity"
	"taskboard/storage"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// dedupWindow is how long a due-soon or overdue notification suppresses a
// repeat for the same user and task.
const dedupWindow = 24 * time.Hour

type SweepReport struct {
	DueSoonCreated int
	OverdueCreated int
	RemindersFired int
	Errors         []error
}

type SweepMetrics struct {
	sweeps         *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	remindersFired prometheus.Counter
}

func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	m := &SweepMetrics{
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_due_check_sweeps_total",
			Help: "Due-check sweeps by sweep name and result.",
		}, []string{"sweep", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_due_check_notifications_total",
			Help: "Notifications created by the due-check job.",
		}, []string{"type"}),
		remindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_reminders_fired_total",
			Help: "Reminders marked fired by the due-check job.",
		}),
	}
	reg.MustRegister(m.sweeps, m.notifications, m.remindersFired)
	return m
}

func (m *SweepMetrics) sweep(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sweeps.WithLabelValues(name, result).Inc()
}

func (m *SweepMetrics) notified(typ entity.NotificationType) {
	if m != nil {
		m.notifications.WithLabelValues(string(typ)).Inc()
	}
}

func (m *SweepMetrics) fired() {
	if m != nil {
		m.remindersFired.Inc()
	}
}

// DueChecker turns approaching and past due dates into notifications and
// marks reminders whose time has come as fired.
type DueChecker struct {
	Store   storage.Store
	Logger  *zap.Logger
	Now     func() time.Time
	Metrics *SweepMetrics
}

func NewDueChecker(store storage.Store, logger *zap.Logger, metrics *SweepMetrics) *DueChecker {
	return &DueChecker{
		Store:   store,
		Logger:  logger,
		Now:     time.Now,
		Metrics: metrics,
	}
}

func (d *DueChecker) Name() string {
	return "due-check"
}

func (d *DueChecker) Tick(ctx context.Context) {
	report := d.Run(ctx)
	d.Logger.Debug("due check finished",
		zap.Int("due_soon", report.DueSoonCreated),
		zap.Int("overdue", report.OverdueCreated),
		zap.Int("reminders_fired", report.RemindersFired),
		zap.Int("errors", len(report.Errors)),
	)
}

// Run performs one pass. The three sweeps are independent: a failure in one
// is logged and recorded in the report, and the others still run.
func (d *DueChecker) Run(ctx context.Context) SweepReport {
	now := d.Now()
	var report SweepReport

	report.DueSoonCreated = d.sweepTasks(ctx, &report, "due_soon", entity.NotificationTaskDueSoon, now,
		d.Store.TasksDueSoon, func(title string) string { return fmt.Sprintf(`Task "%s" is due soon`, title) })

	report.OverdueCreated = d.sweepTasks(ctx, &report, "overdue", entity.NotificationTaskOverdue, now,
		d.Store.OverdueTasks, func(title string) string { return fmt.Sprintf(`Task "%s" is overdue!`, title) })

	report.RemindersFired = d.fireReminders(ctx, &report, now)
	return report
}

func (d *DueChecker) fail(report *SweepReport, sweep string, err error, fields ...zap.Field) {
	report.Errors = append(report.Errors, fmt.Errorf("%s: %w", sweep, err))
	d.Logger.Error("due check sweep failed", append(fields, zap.String("sweep", sweep), zap.Error(err))...)
}

func (d *DueChecker) sweepTasks(
	ctx context.Context,
	report *SweepReport,
	sweep string,
	typ entity.NotificationType,
	now time.Time,
	query func(context.Context, time.Time) ([]entity.Task, error),
	message func(title string) string,
) int {
	tasks, err := query(ctx, now)
	d.Metrics.sweep(sweep, err)
	if err != nil {
		d.fail(report, sweep, err)
		return 0
	}

	created := 0
	since := now.Add(-dedupWindow)
	for _, task := range tasks {
		target := task.NotifyTarget()
		seen, err := d.Store.HasRecentNotification(ctx, target, task.ID, typ, since)
		if err != nil {
			d.fail(report, sweep, err, zap.String("task_id", task.ID))
			continue
		}
		if seen {
			continue
		}
		taskID := task.ID
		_, err = d.Store.CreateNotification(ctx, &entity.Notification{
			UserID:  target,
			TaskID:  &taskID,
			Type:    typ,
			Message: message(task.Title),
		})
		if err != nil {
			d.fail(report, sweep, err, zap.String("task_id", task.ID))
			continue
		}
		d.Metrics.notified(typ)
		created++
	}
	return created
}

func (d *DueChecker) fireReminders(ctx context.Context, report *SweepReport, now time.Time) int {
	const sweep = "reminders"
	reminders, err := d.Store.RemindersBecameDue(ctx, now)
	d.Metrics.sweep(sweep, err)
	if err != nil {
		d.fail(report, sweep, err)
		return 0
	}

	fired := 0
	for _, rem := range reminders {
		if err := d.Store.MarkReminderFired(ctx, rem.ID); err != nil {
			d.fail(report, sweep, err, zap.String("reminder_id", rem.ID))
			continue
		}
		d.Metrics.fired()
		fired++
	}
	return fired
}
