package system

import (
	"errors"
	"net/http"

	"taskboard/common"
	"taskboard/entity"
	"taskboard/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type createBoardRequest struct {
	Name        string           `json:"name"`
	Type        entity.BoardType `json:"type"`
	Description *string          `json:"description"`
}

type addMemberRequest struct {
	Email string `json:"email"`
}

func boardTasksCacheKey(boardID string) string {
	return "board:" + boardID + ":tasks"
}

func (h *Handler) invalidateBoardTasks(r *http.Request, boardID string) {
	if err := h.Cache.Delete(r.Context(), boardTasksCacheKey(boardID)); err != nil {
		h.Logger.Warn("cache invalidation failed", zap.String("board_id", boardID), zap.Error(err))
	}
}

func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	boards, err := h.Store.ListBoards(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch boards", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, boards)
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	board, err := h.Store.GetBoard(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.internalError(w, r, "Failed to fetch board", err)
		return
	}
	if board == nil {
		common.WriteError(w, http.StatusNotFound, "Board not found")
		return
	}
	member, err := h.Store.IsBoardMember(ctx, board.ID, userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch board", err)
		return
	}
	if !member {
		common.WriteError(w, http.StatusForbidden, "Not a member of this board")
		return
	}
	common.WriteJSON(w, http.StatusOK, board)
}

func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req createBoardRequest
	if err := decodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Type == "" {
		common.WriteError(w, http.StatusBadRequest, "Name and type are required")
		return
	}
	if !req.Type.Valid() {
		common.WriteError(w, http.StatusBadRequest, "Invalid board type")
		return
	}

	board, err := h.Store.CreateBoard(r.Context(), &entity.Board{
		Name:        req.Name,
		Type:        req.Type,
		OwnerID:     userID,
		Description: emptyToNil(req.Description),
	})
	if err != nil {
		h.internalError(w, r, "Failed to create board", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, board)
}

func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	board, err := h.Store.GetBoard(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.internalError(w, r, "Failed to delete board", err)
		return
	}
	if board == nil {
		common.WriteError(w, http.StatusNotFound, "Board not found")
		return
	}
	if board.OwnerID != userID {
		common.WriteError(w, http.StatusForbidden, "Not the owner")
		return
	}
	if err := h.Store.DeleteBoard(ctx, board.ID); err != nil {
		h.internalError(w, r, "Failed to delete board", err)
		return
	}
	h.invalidateBoardTasks(r, board.ID)
	h.Logger.Info("board deleted", zap.String("board_id", board.ID), zap.String("user_id", userID))
	common.WriteSuccess(w)
}

// ListBoardTasks serves the board's tasks, from the cache when possible.
func (h *Handler) ListBoardTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	boardID := mux.Vars(r)["id"]
	member, err := h.Store.IsBoardMember(ctx, boardID, userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch tasks", err)
		return
	}
	if !member {
		common.WriteError(w, http.StatusForbidden, "Not a member")
		return
	}

	key := boardTasksCacheKey(boardID)
	var tasks []entity.Task
	hit, err := h.Cache.GetJSON(ctx, key, &tasks)
	if err != nil {
		h.Logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		common.WriteJSON(w, http.StatusOK, tasks)
		return
	}

	tasks, err = h.Store.ListTasks(ctx, boardID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch tasks", err)
		return
	}
	if err := h.Cache.SetJSON(ctx, key, tasks, h.TaskCacheTTL); err != nil {
		h.Logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	common.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListBoardMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	boardID := mux.Vars(r)["id"]
	member, err := h.Store.IsBoardMember(ctx, boardID, userID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch members", err)
		return
	}
	if !member {
		common.WriteError(w, http.StatusForbidden, "Not a member")
		return
	}
	members, err := h.Store.ListBoardMembers(ctx, boardID)
	if err != nil {
		h.internalError(w, r, "Failed to fetch members", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) AddBoardMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	board, err := h.Store.GetBoard(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.internalError(w, r, "Failed to add member", err)
		return
	}
	if board == nil {
		common.WriteError(w, http.StatusNotFound, "Board not found")
		return
	}
	if board.OwnerID != userID {
		common.WriteError(w, http.StatusForbidden, "Only owner can add members")
		return
	}

	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		common.WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}
	target, err := h.Store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		h.internalError(w, r, "Failed to add member", err)
		return
	}
	if target == nil {
		common.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	already, err := h.Store.IsBoardMember(ctx, board.ID, target.ID)
	if err != nil {
		h.internalError(w, r, "Failed to add member", err)
		return
	}
	if already {
		common.WriteError(w, http.StatusBadRequest, "Already a member")
		return
	}

	member, err := h.Store.AddBoardMember(ctx, board.ID, target.ID)
	if errors.Is(err, storage.ErrConflict) {
		common.WriteError(w, http.StatusBadRequest, "Already a member")
		return
	}
	if err != nil {
		h.internalError(w, r, "Failed to add member", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, member)
}
