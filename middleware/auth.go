package middleware

import (
	"net/http"

	"taskboard/common"
)

// JWTMiddleware rejects requests without a valid session and stores the
// authenticated user id in the request context.
func JWTMiddleware(sessions *common.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := common.TokenFromRequest(r)
			if token == "" {
				common.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := sessions.Validate(r.Context(), token)
			if err != nil {
				common.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if holder := common.RequestUserFromContext(r.Context()); holder != nil {
				holder.ID = claims.UserID
			}
			ctx := common.WithUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
