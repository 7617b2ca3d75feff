package storage

import (
	"context"
	"errors"
	"time"

	"taskboard/entity"
)

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// Store is the relational repository behind the API and the due-check sweep.
// Lookups return a nil value with a nil error when the row does not exist.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)

	ListBoards(ctx context.Context, userID string) ([]entity.Board, error)
	GetBoard(ctx context.Context, id string) (*entity.Board, error)
	CreateBoard(ctx context.Context, board *entity.Board) (*entity.Board, error)
	DeleteBoard(ctx context.Context, id string) error

	ListBoardMembers(ctx context.Context, boardID string) ([]entity.User, error)
	AddBoardMember(ctx context.Context, boardID, userID string) (*entity.BoardMember, error)
	// IsBoardMember is true for the owner and for users with a membership
	// row. A missing board yields false, not an error.
	IsBoardMember(ctx context.Context, boardID, userID string) (bool, error)

	ListTasks(ctx context.Context, boardID string) ([]entity.Task, error)
	ListMyTasks(ctx context.Context, userID string) ([]entity.Task, error)
	GetTask(ctx context.Context, id string) (*entity.Task, error)
	CreateTask(ctx context.Context, task *entity.Task) (*entity.Task, error)
	UpdateTask(ctx context.Context, id string, patch entity.TaskPatch) (*entity.Task, error)
	DeleteTask(ctx context.Context, id string) error
	// TasksDueSoon returns unfinished tasks due in (now, now+24h).
	TasksDueSoon(ctx context.Context, now time.Time) ([]entity.Task, error)
	// OverdueTasks returns unfinished tasks due strictly before now.
	OverdueTasks(ctx context.Context, now time.Time) ([]entity.Task, error)

	ListNotifications(ctx context.Context, userID string) ([]entity.Notification, error)
	GetNotification(ctx context.Context, id string) (*entity.Notification, error)
	CreateNotification(ctx context.Context, n *entity.Notification) (*entity.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	HasRecentNotification(ctx context.Context, userID, taskID string, typ entity.NotificationType, since time.Time) (bool, error)

	CreateReminder(ctx context.Context, userID, taskID string, at time.Time) (*entity.Reminder, error)
	ListReminders(ctx context.Context, userID string) ([]entity.Reminder, error)
	// DueReminders returns fired reminders still waiting to be dismissed.
	DueReminders(ctx context.Context, userID string) ([]entity.Reminder, error)
	GetReminder(ctx context.Context, id string) (*entity.Reminder, error)
	DismissReminder(ctx context.Context, id string) error
	DeleteReminder(ctx context.Context, id string) error
	MarkReminderFired(ctx context.Context, id string) error
	// RemindersBecameDue returns pending reminders whose time is at or before now.
	RemindersBecameDue(ctx context.Context, now time.Time) ([]entity.Reminder, error)

	RevokeSession(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
}
