package client

import (
	"context"
	"time"

	"taskboard/entity"

	"go.uber.org/zap"
)

const DefaultPollInterval = 15 * time.Second

// Watcher polls the due reminders endpoint and calls OnAlert whenever a new
// reminder shows up.
type Watcher struct {
	Client   *Client
	Interval time.Duration
	OnAlert  func(due []entity.ReminderWithTask)
	Logger   *zap.Logger

	tracker *DueTracker
}

func NewWatcher(c *Client, onAlert func([]entity.ReminderWithTask), logger *zap.Logger) *Watcher {
	return &Watcher{
		Client:   c,
		Interval: DefaultPollInterval,
		OnAlert:  onAlert,
		Logger:   logger,
		tracker:  NewDueTracker(),
	}
}

// Poll runs a single check. Errors leave the tracker untouched.
func (w *Watcher) Poll(ctx context.Context) error {
	due, err := w.Client.DueReminders(ctx)
	if err != nil {
		return err
	}
	if alert, ok := w.tracker.Observe(due); ok && w.OnAlert != nil {
		w.OnAlert(alert)
	}
	return nil
}

// Run polls immediately and then every Interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		if err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			w.Logger.Warn("poll due reminders failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
