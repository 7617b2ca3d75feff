package entity

import "time"

type NotificationType string

const (
	NotificationTaskAssigned NotificationType = "task_assigned"
	NotificationTaskAccepted NotificationType = "task_accepted"
	NotificationTaskDeclined NotificationType = "task_declined"
	NotificationTaskDueSoon  NotificationType = "task_due_soon"
	NotificationTaskOverdue  NotificationType = "task_overdue"
	NotificationReminder     NotificationType = "reminder"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	TaskID    *string          `json:"taskId"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
