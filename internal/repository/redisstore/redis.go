// Package redisstore keeps short-lived auth state in Redis.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"parking_console/internal/config"
	"parking_console/internal/repository"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

const revokedKeyPrefix = "parking:revoked:"

type tokenRevocationRepository struct {
	client redis.Cmdable
}

func NewTokenRevocationRepository(client redis.Cmdable) repository.TokenRevocationRepository {
	return &tokenRevocationRepository{client: client}
}

func (r *tokenRevocationRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("TokenRevocationRepository.Revoke: %w", err)
	}
	return nil
}

func (r *tokenRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("TokenRevocationRepository.IsRevoked: %w", err)
	}
	return n > 0, nil
}
