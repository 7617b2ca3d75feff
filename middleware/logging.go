package middleware

import (
	"net/http"
	"time"

	"taskboard/common"

	"go.uber.org/zap"
)

// RequestLogger logs one line per request. The user id is only known for
// requests that passed JWTMiddleware, so it is read from a holder the auth
// layer fills in further down the chain.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			holder := &common.RequestUser{}
			next.ServeHTTP(rec, r.WithContext(common.WithRequestUser(r.Context(), holder)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", routeTemplate(r)),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			}
			if holder.ID != "" {
				fields = append(fields, zap.String("user_id", holder.ID))
			}
			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Error("request", fields...)
			case rec.status >= http.StatusBadRequest:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
