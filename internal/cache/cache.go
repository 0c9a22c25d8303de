package cache

import (
	"context"
	"errors"
	"time"

	"github.com/tidehaven/authportal/internal/config"
)

var ErrNotFound = errors.New("key not found")

// Cache is the keyed byte store backing session persistence. Values expire
// after their TTL; expired keys read as missing.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(cfg.Redis)
	default:
		return nil, errors.New("unsupported cache type: " + cfg.Type)
	}
}
