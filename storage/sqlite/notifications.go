package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskboard/entity"

	"github.com/google/uuid"
)

// notificationListLimit caps the per-user listing to the most recent rows.
const notificationListLimit = 50

const notificationColumns = `id, user_id, task_id, type, message, read, created_at`

func scanNotification(row scanner) (*entity.Notification, error) {
	var (
		n         entity.Notification
		taskID    sql.NullString
		createdAt string
	)
	if err := row.Scan(&n.ID, &n.UserID, &taskID, &n.Type, &n.Message, &n.Read, &createdAt); err != nil {
		return nil, err
	}
	n.TaskID = stringPtr(taskID)
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]entity.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		userID, notificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []entity.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *Store) GetNotification(ctx context.Context, id string) (*entity.Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *Store) CreateNotification(ctx context.Context, n *entity.Notification) (*entity.Notification, error) {
	created := *n
	created.ID = uuid.NewString()
	created.Read = false
	created.CreatedAt = s.now().UTC().Truncate(time.Microsecond)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.UserID, nullableString(created.TaskID), created.Type, created.Message,
		created.Read, formatTime(created.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return &created, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// HasRecentNotification guards the due-check sweep against repeating the
// same (user, task, type) notification.
func (s *Store) HasRecentNotification(ctx context.Context, userID, taskID string, typ entity.NotificationType, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = ? AND task_id = ? AND type = ? AND created_at > ?
		)`,
		userID, taskID, typ, formatTime(since)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return exists, nil
}
