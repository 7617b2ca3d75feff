package entity

import "time"

type Column string

const (
	ColumnTodo       Column = "todo"
	ColumnInProgress Column = "in_progress"
	ColumnDone       Column = "done"
)

func (c Column) Valid() bool {
	switch c {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// AssignmentStatus tracks the assignee's answer to an assignment.
type AssignmentStatus string

const (
	StatusPending  AssignmentStatus = "pending"
	StatusAccepted AssignmentStatus = "accepted"
	StatusDeclined AssignmentStatus = "declined"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// IsAnswer reports whether the status is one only the assignee may set.
func (s AssignmentStatus) IsAnswer() bool {
	return s == StatusAccepted || s == StatusDeclined
}

type Task struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  *string          `json:"description"`
	BoardID      string           `json:"boardId"`
	Column       Column           `json:"column"`
	Priority     Priority         `json:"priority"`
	AssigneeID   *string          `json:"assigneeId"`
	CreatorID    string           `json:"creatorId"`
	Status       AssignmentStatus `json:"status"`
	DueDate      *time.Time       `json:"dueDate"`
	ReminderDate *time.Time       `json:"reminderDate"`
	Position     int              `json:"position"`
}

// NotifyTarget is the user due-date notifications go to: the assignee when
// there is one, otherwise the creator.
func (t *Task) NotifyTarget() string {
	if t.AssigneeID != nil && *t.AssigneeID != "" {
		return *t.AssigneeID
	}
	return t.CreatorID
}

// TaskPatch carries the updatable task fields. Unset fields are left alone.
type TaskPatch struct {
	Title        Optional[string]           `json:"title"`
	Description  Optional[string]           `json:"description"`
	Column       Optional[Column]           `json:"column"`
	Priority     Optional[Priority]         `json:"priority"`
	AssigneeID   Optional[string]           `json:"assigneeId"`
	Status       Optional[AssignmentStatus] `json:"status"`
	DueDate      Optional[time.Time]        `json:"dueDate"`
	ReminderDate Optional[time.Time]        `json:"reminderDate"`
	Position     Optional[int]              `json:"position"`
}
