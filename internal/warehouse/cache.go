package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	locationKeyPrefix = "warehouse:location:"
	listKey           = "warehouse:list"
)

// CachedDirectory fronts another Directory with Redis. Only resolved
// locations are cached so a newly added warehouse is visible immediately.
// Redis failures fall through to the wrapped directory.
type CachedDirectory struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedDirectory wraps next. A non-positive ttl caches for 10 minutes.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

// Location resolves code, consulting Redis first.
func (c *CachedDirectory) Location(ctx context.Context, code string) (string, error) {
	if c.client == nil || code == "" {
		return c.next.Location(ctx, code)
	}
	key := locationKeyPrefix + code
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("warehouse cache read", slog.String("code", code), slog.Any("error", err))
	}
	location, err := c.next.Location(ctx, code)
	if err != nil {
		return "", err
	}
	if location != "" {
		if err := c.client.Set(ctx, key, location, c.ttl).Err(); err != nil {
			c.logger.Warn("warehouse cache write", slog.String("code", code), slog.Any("error", err))
		}
	}
	return location, nil
}

// List returns the warehouse master, cached as JSON.
func (c *CachedDirectory) List(ctx context.Context) ([]Warehouse, error) {
	if c.client == nil {
		return c.next.List(ctx)
	}
	if payload, err := c.client.Get(ctx, listKey).Bytes(); err == nil {
		var out []Warehouse
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
	}
	out, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(out); err == nil {
		if err := c.client.Set(ctx, listKey, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("warehouse list cache write", slog.Any("error", err))
		}
	}
	return out, nil
}

// Forget drops cached entries for code, or everything when code is empty.
func (c *CachedDirectory) Forget(ctx context.Context, code string) error {
	if c.client == nil {
		return nil
	}
	keys := []string{listKey}
	if code != "" {
		keys = append(keys, locationKeyPrefix+code)
	} else {
		found, err := c.client.Keys(ctx, locationKeyPrefix+"*").Result()
		if err != nil {
			return err
		}
		keys = append(keys, found...)
	}
	return c.client.Del(ctx, keys...).Err()
}
