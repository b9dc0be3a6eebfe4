package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"event_service/internal/auth"
	"event_service/internal/models"
	"event_service/internal/storage"
	redisRepo "event_service/internal/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory stand-in for the mongo repository.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*models.User)}
}

func (s *fakeStore) SaveUser(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Email]; ok {
		return primitive.NilObjectID, storage.ErrUserExists
	}

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	s.users[user.Email] = &user

	return user.ID, nil
}

func (s *fakeStore) SaveOTP(ctx context.Context, email string, code models.OTP) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		u = &models.User{
			ID:        primitive.NewObjectID(),
			Email:     email,
			CreatedAt: time.Now(),
		}
		s.users[email] = u
	}

	u.OTP = &code

	return *u, nil
}

func (s *fakeStore) ConsumeCode(ctx context.Context, code string, token models.SessionToken) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.OTP != nil && u.OTP.Code == code && !u.OTP.Used {
			u.OTP.Used = true
			u.Tokens = append(u.Tokens, token)
			return *u, nil
		}
	}

	return models.User{}, storage.ErrCodeNotFound
}

func (s *fakeStore) RemoveToken(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		for i, tok := range u.Tokens {
			if tok.Value == value {
				u.Tokens = append(u.Tokens[:i], u.Tokens[i+1:]...)
				return nil
			}
		}
	}

	return storage.ErrTokenNotFound
}

func (s *fakeStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[email]; ok {
		return *u, nil
	}

	return models.User{}, storage.ErrUserNotFound
}

func (s *fakeStore) UserByCode(ctx context.Context, code string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.OTP != nil && u.OTP.Code == code && !u.OTP.Used {
			return *u, nil
		}
	}

	return models.User{}, storage.ErrCodeNotFound
}

func (s *fakeStore) UserByToken(ctx context.Context, value string, now time.Time) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		for _, tok := range u.Tokens {
			if tok.Value == value && tok.ExpiresAt.After(now) {
				return *u, nil
			}
		}
	}

	return models.User{}, storage.ErrTokenNotFound
}

func (s *fakeStore) Users(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.User
	for _, u := range s.users {
		list = append(list, *u)
	}

	return list, nil
}

// fakePublisher records published email jobs.
type fakePublisher struct {
	mu       sync.Mutex
	messages []models.Message
	fail     bool
}

func (p *fakePublisher) SendMessage(ctx context.Context, msg models.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail {
		return errors.New("broker down")
	}

	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) last(t *testing.T) models.Message {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()

	require.NotEmpty(t, p.messages)
	return p.messages[len(p.messages)-1]
}

func newAuth(t *testing.T, store *fakeStore, pub *fakePublisher) (*auth.Auth, *redisRepo.RedisRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	guard := redisRepo.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return auth.New(log, store, store, guard, pub, 5*time.Minute, 6, time.Hour), guard
}

func TestRequestCodeCreatesUserAndPublishes(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	a, _ := newAuth(t, store, pub)
	ctx := context.Background()

	require.NoError(t, a.RequestCode(ctx, "A@X.com"))

	// Email is lowercased before anything touches the store.
	user, err := store.UserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user.OTP)
	assert.False(t, user.OTP.Used)
	assert.True(t, user.OTP.ExpiresAt.After(time.Now()))

	msg := pub.last(t)
	assert.Equal(t, "a@x.com", msg.Email)
	assert.Equal(t, user.OTP.Code, msg.Code)
	assert.Len(t, msg.Code, 6)
}

func TestVerifyCodeOnceThenReplayFails(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	a, _ := newAuth(t, store, pub)
	ctx := context.Background()

	require.NoError(t, a.RequestCode(ctx, "a@x.com"))
	code := pub.last(t).Code

	user, token, err := a.VerifyCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEmpty(t, token)

	resolved, err := a.UserByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	// A consumed code behaves as if it never existed.
	_, _, err = a.VerifyCode(ctx, code)
	assert.ErrorIs(t, err, auth.ErrCodeNotFound)
}

func TestVerifyCodeUnknown(t *testing.T) {
	store := newFakeStore()
	a, _ := newAuth(t, store, &fakePublisher{})

	_, _, err := a.VerifyCode(context.Background(), "000000")
	assert.ErrorIs(t, err, auth.ErrCodeNotFound)
}

func TestVerifyCodeExpired(t *testing.T) {
	store := newFakeStore()
	a, _ := newAuth(t, store, &fakePublisher{})
	ctx := context.Background()

	_, err := store.SaveOTP(ctx, "a@x.com", models.OTP{
		Code:      "654321",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, _, err = a.VerifyCode(ctx, "654321")
	assert.ErrorIs(t, err, auth.ErrCodeExpired)
}

func TestVerifyCodeGuardBlocksReplay(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	a, guard := newAuth(t, store, pub)
	ctx := context.Background()

	require.NoError(t, a.RequestCode(ctx, "a@x.com"))
	code := pub.last(t).Code

	// Another verify already claimed the code at the guard level.
	first, err := guard.MarkCodeUsed(ctx, code, 5*time.Minute)
	require.NoError(t, err)
	require.True(t, first)

	_, _, err = a.VerifyCode(ctx, code)
	assert.ErrorIs(t, err, auth.ErrCodeUsed)
}

func TestRequestCodeSupersedesPriorCode(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	a, _ := newAuth(t, store, pub)
	ctx := context.Background()

	require.NoError(t, a.RequestCode(ctx, "a@x.com"))
	oldCode := pub.last(t).Code

	require.NoError(t, a.RequestCode(ctx, "a@x.com"))
	newCode := pub.last(t).Code

	if oldCode != newCode {
		_, _, err := a.VerifyCode(ctx, oldCode)
		assert.ErrorIs(t, err, auth.ErrCodeNotFound)
	}

	_, token, err := a.VerifyCode(ctx, newCode)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRequestCodeDeliveryFailure(t *testing.T) {
	store := newFakeStore()
	a, _ := newAuth(t, store, &fakePublisher{fail: true})

	err := a.RequestCode(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, auth.ErrDeliveryFailed)
}

func TestRegisterRecruiter(t *testing.T) {
	store := newFakeStore()
	a, _ := newAuth(t, store, &fakePublisher{})
	ctx := context.Background()

	user, token, err := a.RegisterRecruiter(ctx, "R", "R@X.com")
	require.NoError(t, err)
	assert.True(t, user.Recruiter)
	assert.Equal(t, "r@x.com", user.Email)
	assert.NotEmpty(t, token)

	resolved, err := a.UserByToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, resolved.Recruiter)

	// Second registration with the same email never creates a duplicate.
	_, _, err = a.RegisterRecruiter(ctx, "R", "r@x.com")
	assert.ErrorIs(t, err, auth.ErrUserExists)

	all, err := a.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLogoutRevokesToken(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	a, _ := newAuth(t, store, pub)
	ctx := context.Background()

	require.NoError(t, a.RequestCode(ctx, "a@x.com"))
	_, token, err := a.VerifyCode(ctx, pub.last(t).Code)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, token))

	_, err = a.UserByToken(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Token is gone from the sequence, a second logout is rejected.
	assert.ErrorIs(t, a.Logout(ctx, token), auth.ErrInvalidToken)
}

func TestLogoutKeepsOtherSessions(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	a, _ := newAuth(t, store, pub)
	ctx := context.Background()

	require.NoError(t, a.RequestCode(ctx, "a@x.com"))
	_, token1, err := a.VerifyCode(ctx, pub.last(t).Code)
	require.NoError(t, err)

	require.NoError(t, a.RequestCode(ctx, "a@x.com"))
	_, token2, err := a.VerifyCode(ctx, pub.last(t).Code)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, token1))

	_, err = a.UserByToken(ctx, token2)
	assert.NoError(t, err)
}
