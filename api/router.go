package api

import (
	"net/http"
	"time"

	"taskboard/cache"
	"taskboard/middleware"
	handler "taskboard/system"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handler  *handler.Handler
	Logger   *zap.Logger
	Registry *prometheus.Registry
	// Limiter is nil when Redis is not configured.
	Limiter *middleware.RateLimiter
}

func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(cfg.Logger), middleware.NewMetrics(cfg.Registry).Middleware)

	//  Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods("GET")

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", h.Register).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")

	//  Protected routes
	requireSession := middleware.JWTMiddleware(h.Sessions)
	if cfg.Limiter != nil {
		// Registered ahead of the /api subrouter so it skips the limiter.
		status := handler.RateLimitStatusHandler(cfg.Limiter.RedisClient, cfg.Limiter.Limit, cfg.Logger)
		r.Handle("/api/rate-limit", requireSession(status)).Methods("GET")
	}

	s := r.PathPrefix("/api").Subrouter()
	s.Use(requireSession)
	if cfg.Limiter != nil {
		s.Use(cfg.Limiter.Middleware)
	}

	s.HandleFunc("/auth/user", h.CurrentUser).Methods("GET")

	s.HandleFunc("/boards", h.ListBoards).Methods("GET")
	s.HandleFunc("/boards", h.CreateBoard).Methods("POST")
	s.HandleFunc("/boards/{id}", h.GetBoard).Methods("GET")
	s.HandleFunc("/boards/{id}", h.DeleteBoard).Methods("DELETE")
	s.HandleFunc("/boards/{id}/tasks", h.ListBoardTasks).Methods("GET")
	s.HandleFunc("/boards/{id}/members", h.ListBoardMembers).Methods("GET")
	s.HandleFunc("/boards/{id}/members", h.AddBoardMember).Methods("POST")

	s.HandleFunc("/tasks/my", h.ListMyTasks).Methods("GET")
	s.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	s.HandleFunc("/tasks/{id}", h.GetTask).Methods("GET")
	s.HandleFunc("/tasks/{id}", h.UpdateTask).Methods("PATCH")
	s.HandleFunc("/tasks/{id}", h.DeleteTask).Methods("DELETE")

	s.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	s.HandleFunc("/notifications/read-all", h.MarkAllNotificationsRead).Methods("POST")
	s.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods("POST")

	s.HandleFunc("/reminders", h.ListReminders).Methods("GET")
	s.HandleFunc("/reminders", h.CreateReminder).Methods("POST")
	s.HandleFunc("/reminders/due", h.ListDueReminders).Methods("GET")
	s.HandleFunc("/reminders/{id}/dismiss", h.DismissReminder).Methods("POST")
	s.HandleFunc("/reminders/{id}", h.DeleteReminder).Methods("DELETE")

	return r
}

// NewLimiter builds the per-user limiter, or nil without Redis.
func NewLimiter(c *cache.Cache, limit int, window time.Duration, logger *zap.Logger) *middleware.RateLimiter {
	if !c.Enabled() {
		return nil
	}
	return middleware.NewRateLimiter(c.Client(), limit, window, logger)
}
