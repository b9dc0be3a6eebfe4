package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// NewWithClient wraps an existing client. Used in tests.
func NewWithClient(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

// * MarkCodeUsed помечает код как использованный (атомарно через SETNX)
// Возвращает true если код был использован первый раз
// Возвращает false если код уже был использован ранее
func (r *RedisRepo) MarkCodeUsed(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	const op = "storage.redis.MarkCodeUsed"

	key := fmt.Sprintf("otp:used:%s", hash(code))

	success, err := r.client.SetNX(ctx, key, "used", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return success, nil
}

// * RevokeToken добавляет токен в blocklist до истечения его TTL
func (r *RedisRepo) RevokeToken(ctx context.Context, value string, ttl time.Duration) error {
	const op = "storage.redis.RevokeToken"

	key := fmt.Sprintf("session:revoked:%s", hash(value))

	err := r.client.Set(ctx, key, "revoked", ttl).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) IsTokenRevoked(ctx context.Context, value string) (bool, error) {
	const op = "storage.redis.IsTokenRevoked"

	key := fmt.Sprintf("session:revoked:%s", hash(value))

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// * Close закрывает соединение с базой данных.
func (r *RedisRepo) Close() {
	r.client.Close()
}

// * hash создает SHA256 хеш значения, чтобы не хранить секреты в ключах
func hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
