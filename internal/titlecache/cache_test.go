package titlecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func countingFetcher(titles []string, calls *int) Fetcher {
	return func(ctx context.Context) ([]string, error) {
		*calls++
		return titles, nil
	}
}

func TestCache_LoadsOnce(t *testing.T) {
	calls := 0
	cache := New(countingFetcher([]string{"Naruto", "Bleach"}, &calls), nil, quietLogger())

	assert.False(t, cache.Loaded())
	assert.Empty(t, cache.Titles())

	require.NoError(t, cache.Load(context.Background()))
	require.NoError(t, cache.Load(context.Background()))

	assert.Equal(t, 1, calls)
	assert.True(t, cache.Loaded())
	assert.Equal(t, []string{"Naruto", "Bleach"}, cache.Titles())
}

func TestCache_FailedLoadCanRetry(t *testing.T) {
	calls := 0
	cache := New(func(ctx context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("backend down")
		}
		return []string{"Monster"}, nil
	}, nil, quietLogger())

	err := cache.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
	assert.False(t, cache.Loaded())

	require.NoError(t, cache.Load(context.Background()))
	assert.Equal(t, []string{"Monster"}, cache.Titles())
}

func TestCache_IndependentInstances(t *testing.T) {
	first := New(func(ctx context.Context) ([]string, error) { return []string{"A"}, nil }, nil, quietLogger())
	second := New(func(ctx context.Context) ([]string, error) { return []string{"B"}, nil }, nil, quietLogger())

	require.NoError(t, first.Load(context.Background()))
	assert.Equal(t, []string{"A"}, first.Titles())
	assert.False(t, second.Loaded())
}

func TestCache_UsesSharedStore(t *testing.T) {
	_, client := setupRedis(t)
	store := NewRedisStore(client, "titles", 0)

	calls := 0
	first := New(countingFetcher([]string{"Naruto", "One Piece"}, &calls), store, quietLogger())
	require.NoError(t, first.Load(context.Background()))
	assert.Equal(t, 1, calls)

	second := New(countingFetcher([]string{"stale"}, &calls), store, quietLogger())
	require.NoError(t, second.Load(context.Background()))
	assert.Equal(t, 1, calls, "second cache should be filled from redis")
	assert.Equal(t, []string{"Naruto", "One Piece"}, second.Titles())
}

func TestCache_StoreFailureFallsBackToFetch(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "titles", 0)
	mr.Close()

	calls := 0
	cache := New(countingFetcher([]string{"Bleach"}, &calls), store, quietLogger())
	require.NoError(t, cache.Load(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"Bleach"}, cache.Titles())
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "titles", time.Minute)

	_, ok, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(context.Background(), []string{"Trigun"}))
	assert.Equal(t, time.Minute, mr.TTL("titles"))

	titles, ok, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"Trigun"}, titles)

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Ping(context.Background()))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set("titles", "not json"))

	_, _, err := NewRedisStore(client, "titles", 0).Get(context.Background())
	assert.Error(t, err)
}
