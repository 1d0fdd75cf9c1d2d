package snapshotcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/travigo/vvs/pkg/departures"
)

const defaultExpiration = 30 * time.Minute

// CachedSnapshot is the last successful snapshot of an entry as seen by
// other processes
type CachedSnapshot struct {
	EntryID   string              `json:"entry_id"`
	State     string              `json:"state"`
	Snapshot  departures.Snapshot `json:"snapshot"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type Cache struct {
	Cache *cache.Cache[string]
}

func New(client *redis.Client) *Cache {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(defaultExpiration))

	return &Cache{
		Cache: cache.New[string](redisStore),
	}
}

func cacheKey(entryID string) string {
	return fmt.Sprintf("vvs:snapshot:%s", entryID)
}

func (c *Cache) Store(ctx context.Context, cachedSnapshot CachedSnapshot) error {
	snapshotJSON, err := json.Marshal(cachedSnapshot)
	if err != nil {
		return err
	}

	return c.Cache.Set(ctx, cacheKey(cachedSnapshot.EntryID), string(snapshotJSON))
}

func (c *Cache) Load(ctx context.Context, entryID string) (*CachedSnapshot, error) {
	snapshotJSON, err := c.Cache.Get(ctx, cacheKey(entryID))
	if err != nil {
		return nil, err
	}

	var cachedSnapshot CachedSnapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &cachedSnapshot); err != nil {
		return nil, err
	}

	return &cachedSnapshot, nil
}

func (c *Cache) Delete(ctx context.Context, entryID string) error {
	return c.Cache.Delete(ctx, cacheKey(entryID))
}
