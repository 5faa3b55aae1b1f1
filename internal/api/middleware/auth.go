package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/storyverse/internal/api/respond"
	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/service"
)

type contextKey string

const (
	UserKey contextKey = "user"
)

// Require resolves the bearer token through the gate and stores the user in
// the request context. Requests that fail any check never reach next.
func Require(gate *service.Gate, level service.Level, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := gate.Authorize(r.Context(), BearerToken(r), level)
			if err != nil {
				log.Debug("authorization rejected",
					slog.String("op", "middleware.Require"),
					slog.String("path", r.URL.Path),
					slog.Any("error", err),
				)
				respond.Error(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively. It returns "" when absent.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func CurrentUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}
