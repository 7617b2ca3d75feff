package system

import (
	"errors"
	"net/http"

	"taskboard/cache"
	"taskboard/common"
	"taskboard/middleware"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type RateLimitStatus struct {
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"` // seconds until the window resets
}

// RateLimitStatusHandler reports the caller's position in the current
// rate limit window. It only reads the limiter's keys; the router mounts it
// outside the limiter so the check itself is free.
func RateLimitStatusHandler(redisClient cache.RedisClientInterface, limit int, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		ctx := r.Context()
		key := middleware.RemainingKey(userID)

		remaining, err := redisClient.Get(ctx, key).Int()
		if errors.Is(err, redis.Nil) {
			common.WriteJSON(w, http.StatusOK, RateLimitStatus{Remaining: limit})
			return
		}
		if err != nil {
			logger.Error("read rate limit failed", zap.String("user_id", userID), zap.Error(err))
			common.WriteError(w, http.StatusInternalServerError, "Failed to read rate limit")
			return
		}

		ttl, err := redisClient.TTL(ctx, key).Result()
		if err != nil {
			logger.Error("read rate limit ttl failed", zap.String("user_id", userID), zap.Error(err))
			common.WriteError(w, http.StatusInternalServerError, "Failed to read TTL")
			return
		}

		if remaining < 0 {
			remaining = 0
		}
		reset := int64(ttl.Seconds())
		if reset < 0 {
			reset = 0
		}
		common.WriteJSON(w, http.StatusOK, RateLimitStatus{Remaining: remaining, Reset: reset})
	}
}
