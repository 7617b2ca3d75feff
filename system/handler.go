package system

import (
	"encoding/json"
	"net/http"
	"time"

	"taskboard/cache"
	"taskboard/common"
	"taskboard/storage"

	"go.uber.org/zap"
)

type Handler struct {
	Store        storage.Store
	Cache        *cache.Cache
	Sessions     *common.SessionManager
	Logger       *zap.Logger
	TaskCacheTTL time.Duration
}

func NewHandler(store storage.Store, c *cache.Cache, sessions *common.SessionManager, logger *zap.Logger, taskCacheTTL time.Duration) *Handler {
	return &Handler{
		Store:        store,
		Cache:        c,
		Sessions:     sessions,
		Logger:       logger,
		TaskCacheTTL: taskCacheTTL,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		http.Error(w, "Database not reachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// internalError logs the cause and answers with a generic message.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.Logger.Error(message,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	common.WriteError(w, http.StatusInternalServerError, message)
}

func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// emptyToNil treats "" like an absent optional string.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
