package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/circuitbreaker"
)

// unreachable returns a client whose every command fails fast.
func unreachable(t *testing.T) *goredis.Client {
	t.Helper()
	c := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConfig_Options(t *testing.T) {
	opts, err := Config{URL: "redis://:secret@cache:6380/2", PoolSize: 7, DialTimeout: time.Second}.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	_, err = Config{URL: "http://nope"}.Options()
	assert.ErrorIs(t, err, ErrCacheConnection)
}

func TestCache_OpensBreakerWhenRedisIsDown(t *testing.T) {
	breaker := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(2), circuitbreaker.WithTimeout(time.Minute))
	cache := NewCache(unreachable(t), 0, breaker)
	ctx := context.Background()

	var dst map[string]int
	for range 2 {
		hit, err := cache.Get(ctx, "k", &dst)
		assert.False(t, hit)
		assert.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())

	hit, err := cache.Get(ctx, "k", &dst)
	assert.False(t, hit)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, cache.Set(ctx, "k", 1), circuitbreaker.ErrCircuitOpen)
}

func TestCache_RejectsEmptyKey(t *testing.T) {
	cache := NewCache(unreachable(t), time.Minute, nil)
	_, err := cache.Get(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrCacheKeyEmpty)
	assert.ErrorIs(t, cache.Set(context.Background(), "", 1), ErrCacheKeyEmpty)
}

func TestSortNewestFirst(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []*notification.Notification{
		{ID: "a", CreatedAt: t0},
		{ID: "c", CreatedAt: t0.Add(time.Minute)},
		{ID: "b", CreatedAt: t0},
	}
	sortNewestFirst(list)

	var ids []notification.NotificationID
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []notification.NotificationID{"c", "b", "a"}, ids)
	assert.Equal(t, "ecolead:notifications:s1", NotificationKey("s1"))
}

func TestNotificationStore_SurfacesRedisErrors(t *testing.T) {
	store := NewNotificationStore(unreachable(t), nil)
	_, err := store.ListByStudent(context.Background(), "s1")
	assert.Error(t, err)
}
