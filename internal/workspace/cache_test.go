package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivohq/rivo/pkg/logging"
)

type countingRepository struct {
	*InMemoryRepository
	gets int
}

func (c *countingRepository) Get(ctx context.Context, id string) (*Workspace, error) {
	c.gets++
	return c.InMemoryRepository.Get(ctx, id)
}

func newCached(t *testing.T) (*CachedRepository, *countingRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	inner := &countingRepository{InMemoryRepository: NewInMemoryRepository()}
	return NewCachedRepository(inner, client, time.Minute, logging.New("error")), inner, mr
}

func TestCachedRepository_ReadsThroughOnce(t *testing.T) {
	cache, inner, mr := newCached(t)
	ctx := context.Background()
	ws, err := cache.Create(ctx, CreateRequest{Name: "Shine"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := cache.Get(ctx, ws.ID)
		require.NoError(t, err)
		assert.Equal(t, "Shine", got.Name)
	}
	assert.Equal(t, 1, inner.gets)
	assert.True(t, mr.Exists("workspace:"+ws.ID))
	assert.Equal(t, time.Minute, mr.TTL("workspace:"+ws.ID))
}

func TestCachedRepository_UpdateInvalidates(t *testing.T) {
	cache, inner, mr := newCached(t)
	ctx := context.Background()
	ws, err := cache.Create(ctx, CreateRequest{Name: "Shine"})
	require.NoError(t, err)
	_, err = cache.Get(ctx, ws.ID)
	require.NoError(t, err)

	_, err = cache.Update(ctx, ws.ID, UpdateRequest{Name: "Shine 2", Timezone: "Europe/Paris"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("workspace:"+ws.ID))

	got, err := cache.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", got.Timezone)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedRepository_CorruptEntryFallsThrough(t *testing.T) {
	cache, inner, mr := newCached(t)
	ctx := context.Background()
	ws, err := cache.Create(ctx, CreateRequest{Name: "Shine"})
	require.NoError(t, err)
	require.NoError(t, mr.Set("workspace:"+ws.ID, "{not json"))

	got, err := cache.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shine", got.Name)
	assert.Equal(t, 1, inner.gets)
}

func TestCachedRepository_NilClient(t *testing.T) {
	inner := &countingRepository{InMemoryRepository: NewInMemoryRepository()}
	cache := NewCachedRepository(inner, nil, 0, nil)
	ws, err := cache.Create(context.Background(), CreateRequest{Name: "Shine"})
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), ws.ID)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), ws.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedRepository_NotFoundIsNotCached(t *testing.T) {
	cache, _, mr := newCached(t)
	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("workspace:missing"))
}
