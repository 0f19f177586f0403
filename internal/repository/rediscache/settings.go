package rediscache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/settings"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "settings:"

// Options configures the connection used by the settings cache.
type Options struct {
	Address  string
	Password string
	DB       int
}

func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

type cachedSettingsRepository struct {
	client *redis.Client
	next   settings.Repository
	ttl    time.Duration
}

// NewCachedSettingsRepository reads through Redis before falling back to next.
// A Redis outage degrades to direct reads; it never fails the lookup.
func NewCachedSettingsRepository(client *redis.Client, next settings.Repository, ttl time.Duration) settings.Repository {
	return &cachedSettingsRepository{client: client, next: next, ttl: ttl}
}

// Get implements settings.Repository.
func (r *cachedSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, keyPrefix+key).Result()
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, redis.Nil):
		// miss
	default:
		slog.Warn("Settings cache read failed", "key", key, "error", err)
	}

	value, err = r.next.Get(ctx, key)
	if err != nil {
		return "", err
	}

	if err := r.client.Set(ctx, keyPrefix+key, value, r.ttl).Err(); err != nil {
		slog.Warn("Settings cache write failed", "key", key, "error", err)
	}

	return value, nil
}
