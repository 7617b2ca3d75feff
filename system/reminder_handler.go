package system

import (
	"context"
	"net/http"
	"time"

	"taskboard/common"
	"taskboard/entity"

	"github.com/gorilla/mux"
)

type createReminderRequest struct {
	TaskID       string `json:"taskId"`
	ReminderTime string `json:"reminderTime"`
}

// withTasks embeds each reminder's task; the task is nil once deleted.
func (h *Handler) withTasks(ctx context.Context, reminders []entity.Reminder) ([]entity.ReminderWithTask, error) {
	out := make([]entity.ReminderWithTask, 0, len(reminders))
	for _, rem := range reminders {
		task, err := h.Store.GetTask(ctx, rem.TaskID)
		if err != nil {
			return nil, err
		}
		out = append(out, entity.ReminderWithTask{Reminder: rem, Task: task})
	}
	return out, nil
}

func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	reminders, err := h.Store.ListReminders(ctx, userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch reminders", err)
		return
	}
	out, err := h.withTasks(ctx, reminders)
	if err != nil {
		h.internalError(w, r, "Failed to fetch reminders", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, out)
}

// ListDueReminders returns reminders that fired and are waiting to be
// dismissed. Clients poll it to decide when to ring.
func (h *Handler) ListDueReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	reminders, err := h.Store.DueReminders(ctx, userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch due reminders", err)
		return
	}
	out, err := h.withTasks(ctx, reminders)
	if err != nil {
		h.internalError(w, r, "Failed to fetch due reminders", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req createReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TaskID == "" || req.ReminderTime == "" {
		common.WriteError(w, http.StatusBadRequest, "taskId and reminderTime are required")
		return
	}
	at, err := time.Parse(time.RFC3339, req.ReminderTime)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid reminderTime")
		return
	}

	ctx := r.Context()
	task, err := h.Store.GetTask(ctx, req.TaskID)
	if err != nil {
		h.internalError(w, r, "Failed to create reminder", err)
		return
	}
	if task == nil {
		common.WriteError(w, http.StatusNotFound, "Task not found")
		return
	}
	member, err := h.Store.IsBoardMember(ctx, task.BoardID, userID)
	if err != nil {
		h.internalError(w, r, "Failed to create reminder", err)
		return
	}
	if !member {
		common.WriteError(w, http.StatusForbidden, "Not a member of this board")
		return
	}

	reminder, err := h.Store.CreateReminder(ctx, userID, task.ID, at)
	if err != nil {
		h.internalError(w, r, "Failed to create reminder", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, reminder)
}

// ownReminder loads the {id} reminder and checks it belongs to userID.
func (h *Handler) ownReminder(w http.ResponseWriter, r *http.Request, userID, failure string) (*entity.Reminder, bool) {
	reminder, err := h.Store.GetReminder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.internalError(w, r, failure, err)
		return nil, false
	}
	if reminder == nil {
		common.WriteError(w, http.StatusNotFound, "Reminder not found")
		return nil, false
	}
	if reminder.UserID != userID {
		common.WriteError(w, http.StatusForbidden, "Not authorized")
		return nil, false
	}
	return reminder, true
}

func (h *Handler) DismissReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	reminder, ok := h.ownReminder(w, r, userID, "Failed to dismiss reminder")
	if !ok {
		return
	}
	if err := h.Store.DismissReminder(r.Context(), reminder.ID); err != nil {
		h.internalError(w, r, "Failed to dismiss reminder", err)
		return
	}
	common.WriteSuccess(w)
}

func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	reminder, ok := h.ownReminder(w, r, userID, "Failed to delete reminder")
	if !ok {
		return
	}
	if err := h.Store.DeleteReminder(r.Context(), reminder.ID); err != nil {
		h.internalError(w, r, "Failed to delete reminder", err)
		return
	}
	common.WriteSuccess(w)
}
