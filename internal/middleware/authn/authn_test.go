package authn_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"event_service/internal/auth"
	"event_service/internal/middleware/authn"
	"event_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubResolver struct {
	users map[string]models.User
}

func (s *stubResolver) UserByToken(ctx context.Context, value string) (models.User, error) {
	if u, ok := s.users[value]; ok {
		return u, nil
	}
	return models.User{}, auth.ErrInvalidToken
}

func newStack(t *testing.T, resolver authn.UserResolver, recruiterOnly bool) (http.Handler, *models.User) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen models.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := authn.UserFromContext(r.Context())
		require.True(t, ok)
		seen = user
		w.WriteHeader(http.StatusOK)
	})

	var h http.Handler = inner
	if recruiterOnly {
		h = authn.RequireRecruiter()(h)
	}
	h = authn.New(log, resolver)(h)

	return h, &seen
}

func TestMissingToken(t *testing.T) {
	h, _ := newStack(t, &stubResolver{}, false)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestUnknownToken(t *testing.T) {
	h, _ := newStack(t, &stubResolver{}, false)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestValidToken(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "a@x.com"}
	resolver := &stubResolver{users: map[string]models.User{"good": user}}
	h, seen := newStack(t, resolver, false)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, user.ID, seen.ID)
}

func TestRequireRecruiter(t *testing.T) {
	member := models.User{ID: primitive.NewObjectID()}
	admin := models.User{ID: primitive.NewObjectID(), Recruiter: true}
	resolver := &stubResolver{users: map[string]models.User{
		"member": member,
		"admin":  admin,
	}}

	h, _ := newStack(t, resolver, true)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer member")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer admin")
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, authn.BearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, authn.BearerToken(req))

	req.Header.Set("Authorization", "Bearer some-token")
	assert.Equal(t, "some-token", authn.BearerToken(req))
}
