package snapshotcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/vvs/pkg/departures"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client), server
}

func TestStoreAndLoad(t *testing.T) {
	ctx := context.Background()
	c, server := setupCache(t)

	updated := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	cachedSnapshot := CachedSnapshot{
		EntryID: "entry-1",
		State:   "10:04",
		Snapshot: departures.Snapshot{Trips: []departures.Trip{
			{Departure: "10:04", Arrival: "10:31", Duration: 27, Transports: []string{"S1"}, Via: []string{"Vaihingen"}},
		}},
		UpdatedAt: updated,
	}

	require.NoError(t, c.Store(ctx, cachedSnapshot))
	assert.True(t, server.Exists("vvs:snapshot:entry-1"))
	assert.Equal(t, defaultExpiration, server.TTL("vvs:snapshot:entry-1"))

	loaded, err := c.Load(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, cachedSnapshot, *loaded)

	require.NoError(t, c.Delete(ctx, "entry-1"))
	assert.False(t, server.Exists("vvs:snapshot:entry-1"))
}

func TestLoadMissing(t *testing.T) {
	c, _ := setupCache(t)

	_, err := c.Load(context.Background(), "missing")
	assert.Error(t, err)
}
