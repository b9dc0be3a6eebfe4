package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	resp "event_service/internal/lib/api/response"
	"event_service/internal/models"

	"github.com/go-chi/render"
)

type userContextKey struct{}

// UserResolver resolves an opaque bearer token to its owner.
type UserResolver interface {
	UserByToken(ctx context.Context, value string) (models.User, error)
}

// New returns a middleware that authenticates requests by bearer token and
// stores the resolved user in the request context.
func New(log *slog.Logger, resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, r)
				return
			}

			user, err := resolver.UserByToken(r.Context(), token)
			if err != nil {
				log.Warn("token resolution failed", slog.String("op", "middleware.authn"))

				unauthorized(w, r)
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			ctx = ContextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRecruiter rejects requests whose authenticated user is not a
// recruiter. Must run after New.
func RequireRecruiter() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !user.Recruiter {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("recruiter role required"))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}

func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(models.User)
	return user, ok
}

type tokenContextKey struct{}

func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error("invalid or missing token"))
}
