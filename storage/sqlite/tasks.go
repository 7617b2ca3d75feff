package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"taskboard/entity"

	"github.com/google/uuid"
)

const taskColumns = `id, title, description, board_id, column_name, priority, assignee_id, creator_id, status, due_date, reminder_date, position`

func scanTask(row scanner) (*entity.Task, error) {
	var (
		t                     entity.Task
		description, assignee sql.NullString
		dueDate, reminderDate sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &description, &t.BoardID, &t.Column, &t.Priority,
		&assignee, &t.CreatorID, &t.Status, &dueDate, &reminderDate, &t.Position)
	if err != nil {
		return nil, err
	}
	t.Description = stringPtr(description)
	t.AssigneeID = stringPtr(assignee)
	if t.DueDate, err = parseNullTime(dueDate); err != nil {
		return nil, err
	}
	if t.ReminderDate, err = parseNullTime(reminderDate); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) queryTasks(ctx context.Context, op, where string, args ...any) ([]entity.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+where+` ORDER BY rowid ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tasks, nil
}

func (s *Store) ListTasks(ctx context.Context, boardID string) ([]entity.Task, error) {
	return s.queryTasks(ctx, "list tasks", `board_id = ?`, boardID)
}

func (s *Store) ListMyTasks(ctx context.Context, userID string) ([]entity.Task, error) {
	return s.queryTasks(ctx, "list my tasks", `creator_id = ? OR assignee_id = ?`, userID, userID)
}

func (s *Store) TasksDueSoon(ctx context.Context, now time.Time) ([]entity.Task, error) {
	return s.queryTasks(ctx, "tasks due soon",
		`due_date > ? AND due_date < ? AND column_name <> ?`,
		formatTime(now), formatTime(now.Add(24*time.Hour)), entity.ColumnDone)
}

func (s *Store) OverdueTasks(ctx context.Context, now time.Time) ([]entity.Task, error) {
	return s.queryTasks(ctx, "overdue tasks",
		`due_date < ? AND column_name <> ?`,
		formatTime(now), entity.ColumnDone)
}

func (s *Store) GetTask(ctx context.Context, id string) (*entity.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, task.Title, nullableString(task.Description), task.BoardID, task.Column, task.Priority,
		nullableString(task.AssigneeID), task.CreatorID, task.Status,
		nullableTime(task.DueDate), nullableTime(task.ReminderDate), task.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// UpdateTask applies the supplied patch fields and returns the updated row,
// or nil when the task does not exist.
func (s *Store) UpdateTask(ctx context.Context, id string, patch entity.TaskPatch) (*entity.Task, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title.Set && patch.Title.Value != nil {
		set("title", *patch.Title.Value)
	}
	if patch.Description.Set {
		set("description", nullableString(patch.Description.Value))
	}
	if patch.Column.Set && patch.Column.Value != nil {
		set("column_name", *patch.Column.Value)
	}
	if patch.Priority.Set && patch.Priority.Value != nil {
		set("priority", *patch.Priority.Value)
	}
	if patch.AssigneeID.Set {
		set("assignee_id", nullableString(patch.AssigneeID.Value))
	}
	if patch.Status.Set && patch.Status.Value != nil {
		set("status", *patch.Status.Value)
	}
	if patch.DueDate.Set {
		set("due_date", nullableTime(patch.DueDate.Value))
	}
	if patch.ReminderDate.Set {
		set("reminder_date", nullableTime(patch.ReminderDate.Value))
	}
	if patch.Position.Set && patch.Position.Value != nil {
		set("position", *patch.Position.Value)
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("update task: %w", err)
		}
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes the task with its notifications and reminders in one
// transaction.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	statements := []string{
		`DELETE FROM notifications WHERE task_id = ?`,
		`DELETE FROM reminders WHERE task_id = ?`,
		`DELETE FROM tasks WHERE id = ?`,
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete task: %w", err)
			}
		}
		return nil
	})
}
