package sqlite

import (
	"context"
	"fmt"
	"time"

	"taskboard/entity"

	"github.com/google/uuid"
)

const reminderColumns = `id, user_id, task_id, reminder_time, fired, dismissed, created_at`

func scanReminder(row scanner) (*entity.Reminder, error) {
	var (
		r                       entity.Reminder
		reminderTime, createdAt string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.TaskID, &reminderTime, &r.Fired, &r.Dismissed, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if r.ReminderTime, err = parseTime(reminderTime); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) queryReminders(ctx context.Context, op, query string, args ...any) ([]entity.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE `+query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reminders := []entity.Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		reminders = append(reminders, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reminders, nil
}

func (s *Store) CreateReminder(ctx context.Context, userID, taskID string, at time.Time) (*entity.Reminder, error) {
	r := &entity.Reminder{
		ID:           uuid.NewString(),
		UserID:       userID,
		TaskID:       taskID,
		ReminderTime: at.UTC().Truncate(time.Microsecond),
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (`+reminderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.TaskID, formatTime(r.ReminderTime), r.Fired, r.Dismissed, formatTime(r.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return r, nil
}

// ListReminders returns the user's undismissed reminders, soonest first.
func (s *Store) ListReminders(ctx context.Context, userID string) ([]entity.Reminder, error) {
	return s.queryReminders(ctx, "list reminders",
		`user_id = ? AND dismissed = 0 ORDER BY reminder_time ASC, rowid ASC`, userID)
}

func (s *Store) DueReminders(ctx context.Context, userID string) ([]entity.Reminder, error) {
	return s.queryReminders(ctx, "due reminders",
		`user_id = ? AND fired = 1 AND dismissed = 0 ORDER BY reminder_time ASC, rowid ASC`, userID)
}

func (s *Store) RemindersBecameDue(ctx context.Context, now time.Time) ([]entity.Reminder, error) {
	return s.queryReminders(ctx, "reminders became due",
		`fired = 0 AND dismissed = 0 AND reminder_time <= ? ORDER BY reminder_time ASC, rowid ASC`, formatTime(now))
}

func (s *Store) GetReminder(ctx context.Context, id string) (*entity.Reminder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

func (s *Store) DismissReminder(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE reminders SET dismissed = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("dismiss reminder: %w", err)
	}
	return nil
}

func (s *Store) DeleteReminder(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// MarkReminderFired leaves dismissed reminders untouched.
func (s *Store) MarkReminderFired(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE reminders SET fired = 1 WHERE id = ? AND dismissed = 0`, id); err != nil {
		return fmt.Errorf("mark reminder fired: %w", err)
	}
	return nil
}
