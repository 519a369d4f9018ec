package receiving

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dashboardKey    = "receiving:dashboard"
	cacheVersionKey = "receiving:version"
	bumpChannel     = "receiving.bump"
)

// DefaultCacheTTL bounds how long a snapshot survives without a bump.
const DefaultCacheTTL = 2 * time.Minute

// Cache keeps the reconciled snapshot in Redis behind a version counter.
// A nil Cache or client disables caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration

	// latest is the highest version this process has observed, through its
	// own reads and bumps or the bump channel.
	latest atomic.Int64
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

func (c *Cache) observe(ver int64) {
	for {
		cur := c.latest.Load()
		if ver <= cur || c.latest.CompareAndSwap(cur, ver) {
			return
		}
	}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		// SETNX so a concurrent Bump is never overwritten.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		ver, err = c.client.Get(ctx, cacheVersionKey).Int64()
	case err == nil && ver <= 0:
		ver, err = 1, c.client.Set(ctx, cacheVersionKey, 1, 0).Err()
	}
	if err != nil {
		return 0, err
	}
	c.observe(ver)
	return ver, nil
}

// Superseded reports whether a newer version than ver has been seen.
func (c *Cache) Superseded(ver int64) bool {
	return c.enabled() && ver < c.latest.Load()
}

func snapshotKey(ver int64) string {
	return fmt.Sprintf("%s:%d", dashboardKey, ver)
}

// LoadAt returns the snapshot cached for ver. ok is false on a miss.
func (c *Cache) LoadAt(ctx context.Context, ver int64) (snap Snapshot, ok bool, err error) {
	if !c.enabled() || ver <= 0 {
		return Snapshot{}, false, nil
	}
	payload, err := c.client.Get(ctx, snapshotKey(ver)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// StoreAt caches snap under ver, the version read before snap was built.
// A snapshot for a superseded version is dropped.
func (c *Cache) StoreAt(ctx context.Context, ver int64, snap Snapshot) error {
	if !c.enabled() || ver <= 0 || c.Superseded(ver) {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(ver), raw, c.ttl).Err()
}

// Bump invalidates the snapshot by incrementing the version and publishing it.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	c.observe(ver)
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows version bumps published by other processes
// until ctx is cancelled, so loads of this process started before a remote
// bump do not write their snapshot. It returns once the subscription is live.
func (c *Cache) ListenForInvalidation(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("receiving: subscribe %s: %w", bumpChannel, err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if ver, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil {
					c.observe(ver)
				}
			}
		}
	}()
	return nil
}
