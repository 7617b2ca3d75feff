package system

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskboard/common"
	"taskboard/entity"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// unassigned is the sentinel the board UI sends for "nobody".
const unassigned = "none"

type createTaskRequest struct {
	Title        string          `json:"title"`
	Description  *string         `json:"description"`
	BoardID      string          `json:"boardId"`
	Column       entity.Column   `json:"column"`
	Priority     entity.Priority `json:"priority"`
	AssigneeID   *string         `json:"assigneeId"`
	DueDate      *time.Time      `json:"dueDate"`
	ReminderDate *time.Time      `json:"reminderDate"`
}

func normalizeAssignee(id *string) *string {
	if id == nil || *id == "" || *id == unassigned {
		return nil
	}
	return id
}

func (h *Handler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	tasks, err := h.Store.ListMyTasks(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch tasks", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	task, ok := h.loadTaskForMember(w, r, userID, "Failed to fetch task")
	if !ok {
		return
	}
	common.WriteJSON(w, http.StatusOK, task)
}

// loadTaskForMember resolves the {id} task and checks board membership,
// writing the error response itself when it returns false.
func (h *Handler) loadTaskForMember(w http.ResponseWriter, r *http.Request, userID, failure string) (*entity.Task, bool) {
	ctx := r.Context()
	task, err := h.Store.GetTask(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.internalError(w, r, failure, err)
		return nil, false
	}
	if task == nil {
		common.WriteError(w, http.StatusNotFound, "Task not found")
		return nil, false
	}
	member, err := h.Store.IsBoardMember(ctx, task.BoardID, userID)
	if err != nil {
		h.internalError(w, r, failure, err)
		return nil, false
	}
	if !member {
		common.WriteError(w, http.StatusForbidden, "Not a member of this board")
		return nil, false
	}
	return task, true
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.BoardID == "" {
		common.WriteError(w, http.StatusBadRequest, "Title and boardId are required")
		return
	}
	if req.Column == "" {
		req.Column = entity.ColumnTodo
	}
	if req.Priority == "" {
		req.Priority = entity.PriorityMedium
	}
	if !req.Column.Valid() {
		common.WriteError(w, http.StatusBadRequest, "Invalid column")
		return
	}
	if !req.Priority.Valid() {
		common.WriteError(w, http.StatusBadRequest, "Invalid priority")
		return
	}

	ctx := r.Context()
	member, err := h.Store.IsBoardMember(ctx, req.BoardID, userID)
	if err != nil {
		h.internalError(w, r, "Failed to create task", err)
		return
	}
	if !member {
		common.WriteError(w, http.StatusForbidden, "Not a member of this board")
		return
	}

	task, err := h.Store.CreateTask(ctx, &entity.Task{
		Title:        req.Title,
		Description:  emptyToNil(req.Description),
		BoardID:      req.BoardID,
		Column:       req.Column,
		Priority:     req.Priority,
		AssigneeID:   normalizeAssignee(req.AssigneeID),
		CreatorID:    userID,
		Status:       entity.StatusPending,
		DueDate:      req.DueDate,
		ReminderDate: req.ReminderDate,
		Position:     0,
	})
	if err != nil {
		h.internalError(w, r, "Failed to create task", err)
		return
	}
	h.invalidateBoardTasks(r, task.BoardID)

	if task.AssigneeID != nil && *task.AssigneeID != userID {
		h.notify(ctx, *task.AssigneeID, task, entity.NotificationTaskAssigned,
			fmt.Sprintf(`You've been assigned a new task: "%s"`, task.Title))
	}
	common.WriteJSON(w, http.StatusOK, task)
}

// validatePatch rejects enum values outside their set, nulls for
// non-nullable fields and negative positions.
func validatePatch(p *entity.TaskPatch) string {
	switch {
	case p.Title.Set && (p.Title.Value == nil || *p.Title.Value == ""):
		return "Title cannot be empty"
	case p.Column.Set && (p.Column.Value == nil || !p.Column.Value.Valid()):
		return "Invalid column"
	case p.Priority.Set && (p.Priority.Value == nil || !p.Priority.Value.Valid()):
		return "Invalid priority"
	case p.Status.Set && (p.Status.Value == nil || !p.Status.Value.Valid()):
		return "Invalid status"
	case p.Position.Set && (p.Position.Value == nil || *p.Position.Value < 0):
		return "Invalid position"
	}
	return ""
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var patch entity.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validatePatch(&patch); msg != "" {
		common.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if patch.AssigneeID.Set {
		patch.AssigneeID.Value = normalizeAssignee(patch.AssigneeID.Value)
	}

	task, ok := h.loadTaskForMember(w, r, userID, "Failed to update task")
	if !ok {
		return
	}

	answer := patch.Status.Set && patch.Status.Value.IsAnswer()
	if answer && (task.AssigneeID == nil || *task.AssigneeID != userID) {
		common.WriteError(w, http.StatusForbidden, "Only the assignee can accept or decline")
		return
	}

	ctx := r.Context()
	updated, err := h.Store.UpdateTask(ctx, task.ID, patch)
	if err != nil {
		h.internalError(w, r, "Failed to update task", err)
		return
	}
	if updated == nil {
		common.WriteError(w, http.StatusNotFound, "Task not found")
		return
	}
	h.invalidateBoardTasks(r, task.BoardID)

	if answer && task.CreatorID != userID {
		switch *patch.Status.Value {
		case entity.StatusAccepted:
			h.notify(ctx, task.CreatorID, task, entity.NotificationTaskAccepted,
				fmt.Sprintf(`Your task "%s" has been accepted`, task.Title))
		case entity.StatusDeclined:
			h.notify(ctx, task.CreatorID, task, entity.NotificationTaskDeclined,
				fmt.Sprintf(`Your task "%s" has been declined`, task.Title))
		}
	}
	common.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	task, err := h.Store.GetTask(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.internalError(w, r, "Failed to delete task", err)
		return
	}
	if task == nil {
		common.WriteError(w, http.StatusNotFound, "Task not found")
		return
	}

	if task.CreatorID != userID {
		board, err := h.Store.GetBoard(ctx, task.BoardID)
		if err != nil {
			h.internalError(w, r, "Failed to delete task", err)
			return
		}
		if board == nil || board.OwnerID != userID {
			common.WriteError(w, http.StatusForbidden, "Not authorized to delete this task")
			return
		}
	}

	if err := h.Store.DeleteTask(ctx, task.ID); err != nil {
		h.internalError(w, r, "Failed to delete task", err)
		return
	}
	h.invalidateBoardTasks(r, task.BoardID)
	common.WriteSuccess(w)
}

// notify records a mutation side effect. The mutation has already been
// committed, so a failure here is logged and not reported to the caller.
func (h *Handler) notify(ctx context.Context, userID string, task *entity.Task, typ entity.NotificationType, message string) {
	_, err := h.Store.CreateNotification(ctx, &entity.Notification{
		UserID:  userID,
		TaskID:  &task.ID,
		Type:    typ,
		Message: message,
	})
	if err != nil {
		h.Logger.Error("create notification failed",
			zap.String("user_id", userID),
			zap.String("task_id", task.ID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}
