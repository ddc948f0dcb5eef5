package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"library_api/internal/config"
	"library_api/internal/models"
	"library_api/internal/storage"
)

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, cfg config.Redis) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(client), nil
}

func NewWithClient(client *redis.Client) *RedisRepo {
	return &RedisRepo{
		client: client,
	}
}

func resetKey(email string) string {
	return "pwreset:" + models.NormalizeEmail(email)
}

func throttleKey(email string) string {
	return "pwreset:throttle:" + models.NormalizeEmail(email)
}

// * SaveReset сохраняет запрос на сброс пароля, перезаписывая предыдущий
func (r *RedisRepo) SaveReset(ctx context.Context, reset models.PasswordReset, ttl time.Duration) error {
	const op = "storage.redis.SaveReset"

	key := resetKey(reset.Email)

	data := map[string]interface{}{
		"token_hash": reset.TokenHash,
		"created_at": reset.CreatedAt.Unix(),
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * Reset возвращает активный запрос на сброс пароля
func (r *RedisRepo) Reset(ctx context.Context, email string) (models.PasswordReset, error) {
	const op = "storage.redis.Reset"

	fields, err := r.client.HGetAll(ctx, resetKey(email)).Result()
	if err != nil {
		return models.PasswordReset{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, ok := fields["token_hash"]
	if !ok || hash == "" {
		return models.PasswordReset{}, storage.ErrResetNotFound
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return models.PasswordReset{}, fmt.Errorf("%s: bad created_at: %w", op, err)
	}

	return models.PasswordReset{
		Email:     models.NormalizeEmail(email),
		TokenHash: hash,
		CreatedAt: time.Unix(createdAt, 0),
	}, nil
}

// * ConsumeReset удаляет запрос на сброс.
// Возвращает true только для того вызова, который действительно удалил ключ
func (r *RedisRepo) ConsumeReset(ctx context.Context, email string) (bool, error) {
	const op = "storage.redis.ConsumeReset"

	n, err := r.client.Del(ctx, resetKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n == 1, nil
}

// * AcquireResetThrottle занимает окно throttle для email (атомарно через SETNX).
// Возвращает false, если окно уже занято
func (r *RedisRepo) AcquireResetThrottle(ctx context.Context, email string, window time.Duration) (bool, error) {
	const op = "storage.redis.AcquireResetThrottle"

	ok, err := r.client.SetNX(ctx, throttleKey(email), "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// Ping checks that redis is reachable.
func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// * Close закрывает соединение с Redis.
func (r *RedisRepo) Close() {
	r.client.Close()
}
