package middleware

import (
	"net/http"

	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity reads the pre-validated user identity from the X-User-ID header
// and puts it on the request context. Authentication itself happens upstream
// (gateway or auth service); this service only trusts the forwarded id.
func Identity(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-ID")
			if raw == "" {
				utils.ResponseUnauthorized(w, "Missing user identity")
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				log.Warn("Rejected request with malformed user id",
					zap.String("path", r.URL.Path),
					zap.String("user_id", raw),
				)
				utils.ResponseUnauthorized(w, "Invalid user identity")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
