package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

var (
	_ services.SnapshotCache = (*MemoryCache)(nil)
	_ services.SnapshotCache = (*RedisCache)(nil)
)

func sampleSnapshot() []employee.Employee {
	boss := int64(1)
	return []employee.Employee{
		{ID: 1, Name: "Boss", Email: "boss@example.com", PositionName: "CEO", PositionLevel: position.LevelDirector},
		{ID: 2, Name: "Dev", Email: "dev@example.com", ManagerID: &boss, HireDate: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	snap := sampleSnapshot()
	require.NoError(t, c.Set(ctx, snap))
	*snap[1].ManagerID = 99

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), *got[1].ManagerID, "cache keeps its own copy")

	*got[1].ManagerID = 77
	again, _, _ := c.Get(ctx)
	require.Equal(t, int64(1), *again[1].ManagerID, "readers get their own copy")

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCache_EmptySnapshotIsAHit(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	require.NoError(t, c.Set(ctx, nil))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, got)
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, sampleSnapshot()))
	now = now.Add(30 * time.Second)
	_, ok, _ := c.Get(ctx)
	require.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx)
	require.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("ORGCHART_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ORGCHART_TEST_REDIS_URL is not set; skipping redis cache test")
	}
	ctx := context.Background()
	client, err := NewRedisClient(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client, time.Minute)
	c.key = "orgchart:test:" + t.Name()
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, sampleSnapshot()))
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	require.Equal(t, position.LevelDirector, got[0].PositionLevel)
	require.Equal(t, int64(1), *got[1].ManagerID)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
