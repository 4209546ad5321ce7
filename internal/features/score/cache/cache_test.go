package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veyra-backend/internal/features/score/models"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "0xabcdef", Key("0xABCdef"))
	assert.Equal(t, "So1anaCaseMatters", Key("So1anaCaseMatters"))
}

func TestMemoryTTL(t *testing.T) {
	now := time.Now()
	m := NewMemory(5*time.Minute, 10)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, "0xABC", &models.Score{Wallet: "0xABC", Fairscore: 10})

	e, ok := m.Get(ctx, "0xabc")
	require.True(t, ok, "EVM lookups ignore case")
	assert.Equal(t, 10.0, e.Score.Fairscore)

	now = now.Add(5 * time.Minute)
	_, ok = m.Get(ctx, "0xabc")
	assert.True(t, ok, "entry at exactly the TTL is still fresh")

	now = now.Add(time.Millisecond)
	_, ok = m.Get(ctx, "0xabc")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemoryEvictsOldestTen(t *testing.T) {
	now := time.Now()
	m := NewMemory(time.Hour, 20)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		now = now.Add(time.Second)
		m.Set(ctx, "wallet"+strconv.Itoa(i), &models.Score{})
	}
	require.Equal(t, 20, m.Len())

	now = now.Add(time.Second)
	m.Set(ctx, "newest", &models.Score{})
	assert.Equal(t, 11, m.Len())

	for i := 0; i < 10; i++ {
		_, ok := m.Get(ctx, "wallet"+strconv.Itoa(i))
		assert.False(t, ok, "wallet%d should be evicted", i)
	}
	for i := 10; i < 20; i++ {
		_, ok := m.Get(ctx, "wallet"+strconv.Itoa(i))
		assert.True(t, ok)
	}

	// overwriting an existing key never evicts
	m.Set(ctx, "newest", &models.Score{Fairscore: 2})
	assert.Equal(t, 11, m.Len())
}

func TestMemoryConcurrent(t *testing.T) {
	m := NewMemory(time.Minute, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := "w" + strconv.Itoa(g*1000+i)
				m.Set(ctx, key, &models.Score{})
				m.Get(ctx, key)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, m.Len(), 50)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c := NewRedis(rdb, 5*time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, "0xABC")
	assert.False(t, ok)

	c.Set(ctx, "0xABC", &models.Score{Wallet: "0xABC", Fairscore: 12.5, Tier: models.TierGold})
	assert.True(t, mr.Exists("score:0xabc"))

	e, ok := c.Get(ctx, "0xabc")
	require.True(t, ok)
	assert.Equal(t, models.TierGold, e.Score.Tier)
	assert.False(t, e.FetchedAt.IsZero())

	mr.FastForward(6 * time.Minute)
	_, ok = c.Get(ctx, "0xabc")
	assert.False(t, ok)
}

func TestRedisCacheDownIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	c := NewRedis(rdb, time.Minute)
	c.Set(context.Background(), "0xabc", &models.Score{})
	_, ok := c.Get(context.Background(), "0xabc")
	assert.False(t, ok)
}
