package system

import (
	"net/http"

	"taskboard/common"

	"github.com/gorilla/mux"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	notifications, err := h.Store.ListNotifications(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch notifications", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	n, err := h.Store.GetNotification(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.internalError(w, r, "Failed to mark notification read", err)
		return
	}
	if n == nil {
		common.WriteError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if n.UserID != userID {
		common.WriteError(w, http.StatusForbidden, "Not authorized")
		return
	}
	if err := h.Store.MarkNotificationRead(ctx, n.ID); err != nil {
		h.internalError(w, r, "Failed to mark notification read", err)
		return
	}
	common.WriteSuccess(w)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := h.Store.MarkAllNotificationsRead(r.Context(), userID); err != nil {
		h.internalError(w, r, "Failed to mark notifications read", err)
		return
	}
	common.WriteSuccess(w)
}
