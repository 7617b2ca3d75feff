package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taskboard/cache"
	"taskboard/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RateLimiter is a per-user fixed window limiter backed by Redis. It must be
// mounted after JWTMiddleware.
type RateLimiter struct {
	RedisClient cache.RedisClientInterface
	Limit       int
	Window      time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

func NewRateLimiter(redisClient cache.RedisClientInterface, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		RedisClient: redisClient,
		Limit:       limit,
		Window:      window,
		Logger:      logger,
		Now:         time.Now,
	}
}

func RemainingKey(userID string) string {
	return "rate_limit:" + userID + ":remaining"
}

func ResetKey(userID string) string {
	return "rate_limit:" + userID + ":reset"
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		userID, ok := common.UserIDFromContext(ctx)
		if !ok {
			common.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		remainingKey := RemainingKey(userID)
		resetKey := ResetKey(userID)

		remaining, err := r.RedisClient.Get(ctx, remainingKey).Int()
		if errors.Is(err, redis.Nil) {
			reset := r.Now().Add(r.Window).Unix()
			r.RedisClient.Set(ctx, remainingKey, r.Limit-1, r.Window)
			r.RedisClient.Set(ctx, resetKey, reset, r.Window)

			w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(r.Limit-1))
			w.Header().Set("X-Rate-Limit-Reset", strconv.FormatInt(reset, 10))
			next.ServeHTTP(w, req)
			return
		} else if err != nil {
			r.Logger.Error("rate limit lookup failed", zap.String("user_id", userID), zap.Error(err))
			common.WriteError(w, http.StatusInternalServerError, "Rate limit error")
			return
		}

		reset, _ := r.RedisClient.Get(ctx, resetKey).Result()
		if remaining <= 0 {
			w.Header().Set("X-Rate-Limit-Remaining", "0")
			w.Header().Set("X-Rate-Limit-Reset", reset)
			common.WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		r.RedisClient.Decr(ctx, remainingKey)
		w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(remaining-1))
		w.Header().Set("X-Rate-Limit-Reset", reset)
		next.ServeHTTP(w, req)
	})
}
