package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"gitlab.com/yelinaung/expense-splitter/internal/logger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// UserUpserter records the identity asserted by a token.
type UserUpserter interface {
	Upsert(ctx context.Context, user *models.User) error
}

// Middleware rejects requests without a valid bearer token with 401. The
// verified user is upserted into users (when non-nil) and stored in the
// request context.
func Middleware(v *Verifier, users UserUpserter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.FromContext(ctx)

			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenString) == "" {
				log.Debug().Msg("Missing or invalid Authorization header")
				unauthorized(w, "missing or invalid authorization header")
				return
			}

			user, err := v.Verify(strings.TrimSpace(tokenString))
			if err != nil {
				log.Debug().Err(err).Msg("Rejected bearer token")
				unauthorized(w, "invalid token")
				return
			}

			if users != nil {
				if err := users.Upsert(ctx, &user); err != nil {
					log.Error().Err(err).Str("user_hash", logger.HashUserID(user.ID)).Msg("Failed to upsert user")
					writeError(w, http.StatusInternalServerError, "internal server error")
					return
				}
			}

			l := log.With().Str("user_hash", logger.HashUserID(user.ID)).Logger()
			ctx = l.WithContext(WithUser(ctx, user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// UserID returns the authenticated user's id.
func UserID(ctx context.Context) (int64, bool) {
	user, ok := UserFromContext(ctx)
	return user.ID, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer`)
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
