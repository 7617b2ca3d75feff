package entity

import "time"

// Reminder moves pending -> fired (scheduler) and pending|fired -> dismissed
// (owner). Nothing leaves dismissed.
type Reminder struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	TaskID       string    `json:"taskId"`
	ReminderTime time.Time `json:"reminderTime"`
	Fired        bool      `json:"fired"`
	Dismissed    bool      `json:"dismissed"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ReminderWithTask is the listing shape; Task is nil once the task is gone.
type ReminderWithTask struct {
	Reminder
	Task *Task `json:"task"`
}
