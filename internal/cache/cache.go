// Package cache keeps one snapshot of fetched upstream data per day and
// namespace, so repeated runs on the same day do not hit the remote APIs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salofyi/internal/config"
	appLog "salofyi/internal/log"
)

// ErrMiss is returned by Store.Get when nothing is cached under the key.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// Key returns the cache key of namespace on day, e.g. "2026-10-19_swimmi".
func Key(day time.Time, namespace string) string {
	return day.Format("2006-01-02") + "_" + namespace
}

// New opens the store selected by cfg.Backend.
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Dir), nil
	case "redis":
		return NewRedisStore(cfg.Redis, time.Duration(cfg.TTLHours)*time.Hour), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Load returns the value cached under key, or calls fetch and caches its
// result. With ignore set the cached value is only used when fetch fails.
// The boolean reports whether the value came from the cache.
func Load[T any](ctx context.Context, store Store, key string, ignore bool, fetch func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	haveCached := false

	data, err := store.Get(ctx, key)
	switch {
	case err == nil:
		if uerr := json.Unmarshal(data, &cached); uerr != nil {
			appLog.Warn("cache entry unreadable, refetching", "key", key, "err", uerr)
		} else {
			haveCached = true
		}
	case !errors.Is(err, ErrMiss):
		appLog.Warn("cache read failed", "key", key, "err", err)
	}

	if haveCached && !ignore {
		appLog.Debug("cache hit", "key", key)
		return cached, true, nil
	}

	fresh, err := fetch(ctx)
	if err != nil {
		if haveCached {
			appLog.Error("fetch failed, using cached snapshot", err, "key", key)
			return cached, true, nil
		}
		var zero T
		return zero, false, err
	}

	data, err = json.Marshal(fresh)
	if err != nil {
		return fresh, false, fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := store.Put(ctx, key, data); err != nil {
		// The fresh value is still good.
		appLog.Error("cache save failed", err, "key", key)
	}
	return fresh, false, nil
}

// Read returns the value cached under key without fetching anything.
func Read[T any](ctx context.Context, store Store, key string) (T, error) {
	var v T
	data, err := store.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return v, nil
}
