package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sl "event_service/internal/lib/logger"
	"event_service/internal/lib/otp"
	"event_service/internal/models"
	"event_service/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCodeNotFound   = errors.New("code not found")
	ErrCodeExpired    = errors.New("code expired")
	ErrCodeUsed       = errors.New("code already used")
	ErrUserExists     = errors.New("user already exists")
	ErrInvalidToken   = errors.New("invalid token")
	ErrDeliveryFailed = errors.New("code delivery failed")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	guard       CodeGuard
	publisher   Publisher
	otpTTL      time.Duration
	otpLength   int
	tokenTTL    time.Duration
}

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) (primitive.ObjectID, error)
	SaveOTP(ctx context.Context, email string, code models.OTP) (models.User, error)
	ConsumeCode(ctx context.Context, code string, token models.SessionToken) (models.User, error)
	RemoveToken(ctx context.Context, value string) error
}

type UserProvider interface {
	UserByCode(ctx context.Context, code string) (models.User, error)
	UserByToken(ctx context.Context, value string, now time.Time) (models.User, error)
	Users(ctx context.Context) ([]models.User, error)
}

type CodeGuard interface {
	MarkCodeUsed(ctx context.Context, code string, ttl time.Duration) (bool, error)
	RevokeToken(ctx context.Context, value string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, value string) (bool, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	guard CodeGuard,
	publisher Publisher,
	otpTTL time.Duration,
	otpLength int,
	tokenTTL time.Duration,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		guard:       guard,
		publisher:   publisher,
		otpTTL:      otpTTL,
		otpLength:   otpLength,
		tokenTTL:    tokenTTL,
	}
}

// RequestCode generates a fresh one-time code for the given email and hands
// it to the mail queue. The user document is created on first request. The
// new code replaces any prior one, so an unverified old code stops working.
func (a *Auth) RequestCode(ctx context.Context, email string) error {
	const op = "auth.RequestCode"

	log := a.log.With(slog.String("op", op))

	email = normalizeEmail(email)

	code, err := otp.NewCode(a.otpLength)
	if err != nil {
		log.Error("failed to generate code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = a.usrSaver.SaveOTP(ctx, email, models.OTP{
		Code:      code,
		ExpiresAt: time.Now().Add(a.otpTTL),
		Used:      false,
	})
	if err != nil {
		log.Error("failed to save otp", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Message{
		Email:   email,
		Code:    code,
		Purpose: "login",
	}

	if err := a.publisher.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish code email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrDeliveryFailed)
	}

	log.Info("entry code sent")

	return nil
}

// VerifyCode checks a submitted code and, when valid, consumes it and issues
// a session token. Exactly one terminal outcome per call:
// unknown/consumed code, expired code, replayed code, or success.
func (a *Auth) VerifyCode(ctx context.Context, code string) (models.User, string, error) {
	const op = "auth.VerifyCode"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			log.Warn("no user with unused code")
			return models.User{}, "", ErrCodeNotFound
		}

		log.Error("failed to look up code", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if user.OTP == nil || user.OTP.IsExpired() {
		log.Warn("code expired")
		return models.User{}, "", ErrCodeExpired
	}

	// SETNX guard closes the race between two concurrent verifies of the
	// same code before the document write lands.
	first, err := a.guard.MarkCodeUsed(ctx, code, a.otpTTL)
	if err != nil {
		log.Error("failed to mark code used", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}
	if !first {
		log.Warn("code already used")
		return models.User{}, "", ErrCodeUsed
	}

	token, err := a.newSessionToken()
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err = a.usrSaver.ConsumeCode(ctx, code, token)
	if err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			// Lost the store-level race after passing the guard.
			return models.User{}, "", ErrCodeUsed
		}

		log.Error("failed to consume code", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("entry code verified", slog.String("uid", user.ID.Hex()))

	return user, token.Value, nil
}

// RegisterRecruiter creates a recruiter-flagged user and issues a session
// token right away. Recruiters bypass the one-time code flow entirely.
func (a *Auth) RegisterRecruiter(ctx context.Context, name, email string) (models.User, string, error) {
	const op = "auth.RegisterRecruiter"

	log := a.log.With(slog.String("op", op))

	email = normalizeEmail(email)

	token, err := a.newSessionToken()
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:     email,
		Name:      name,
		Recruiter: true,
		Tokens:    []models.SessionToken{token},
	}

	id, err := a.usrSaver.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("recruiter email already registered")
			return models.User{}, "", ErrUserExists
		}

		log.Error("failed to save recruiter", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user.ID = id

	log.Info("recruiter registered", slog.String("uid", id.Hex()))

	return user, token.Value, nil
}

// UserByToken resolves a bearer token to its owner. Revoked and expired
// tokens do not resolve.
func (a *Auth) UserByToken(ctx context.Context, value string) (models.User, error) {
	const op = "auth.UserByToken"

	revoked, err := a.guard.IsTokenRevoked(ctx, value)
	if err != nil {
		a.log.Error("failed to check blocklist", slog.String("op", op), sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return models.User{}, ErrInvalidToken
	}

	user, err := a.usrProvider.UserByToken(ctx, value, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return models.User{}, ErrInvalidToken
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Logout revokes the given session token: it is pulled from the owner's
// token sequence and blocklisted for the remainder of its lifetime.
func (a *Auth) Logout(ctx context.Context, value string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	err := a.usrSaver.RemoveToken(ctx, value)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Warn("token not found")
			return ErrInvalidToken
		}

		log.Error("failed to remove token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.guard.RevokeToken(ctx, value, a.tokenTTL); err != nil {
		log.Warn("failed to blocklist token", sl.Err(err))
	}

	log.Info("logout successful")

	return nil
}

func (a *Auth) Users(ctx context.Context) ([]models.User, error) {
	const op = "auth.Users"

	users, err := a.usrProvider.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// TokenTTLSeconds is the expiry hint returned alongside issued tokens.
func (a *Auth) TokenTTLSeconds() int {
	return int(a.tokenTTL.Seconds())
}

func (a *Auth) newSessionToken() (models.SessionToken, error) {
	value, err := otp.NewTokenValue()
	if err != nil {
		return models.SessionToken{}, err
	}

	now := time.Now()

	return models.SessionToken{
		Value:     value,
		ExpiresAt: now.Add(a.tokenTTL),
		CreatedAt: now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
