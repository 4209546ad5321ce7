package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
)

const (
	RateLimitHeader          = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

// rateLimitScript increments the window counter and reports {allowed, remaining, ttl}.
var rateLimitScript = redis.NewScript(`
	local current = tonumber(redis.call("GET", KEYS[1]) or "0")
	local limit = tonumber(ARGV[1])
	if current >= limit then
		return {0, 0, redis.call("TTL", KEYS[1])}
	end
	current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("EXPIRE", KEYS[1], ARGV[2])
	end
	return {1, limit - current, redis.call("TTL", KEYS[1])}
`)

type RateLimitConfig struct {
	// Name is used in the key prefix and error message.
	Name     string
	Requests int
	Window   time.Duration
	KeyFunc  func(*gin.Context) string
}

// RateLimiter counts requests per key in Redis, or in process memory when no
// Redis client is configured.
type RateLimiter struct {
	config RateLimitConfig
	redis  redis.Scripter

	mu       sync.Mutex
	localMap map[string]*rateLimitEntry
	now      func() time.Time
}

type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter accepts a nil redis client.
func NewRateLimiter(config RateLimitConfig, redisClient redis.Scripter) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.Name == "" {
		config.Name = "api"
	}
	return &RateLimiter{
		config:   config,
		redis:    redisClient,
		localMap: make(map[string]*rateLimitEntry),
		now:      time.Now,
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.config.KeyFunc(c)

		allowed, remaining, resetTime, err := rl.checkAndUpdate(c.Request.Context(), key)
		if err != nil {
			// fail open
			logger.Error().Err(err).Str("key", key).Msg("Rate limit check failed")
			c.Next()
			return
		}

		c.Header(RateLimitHeader, strconv.Itoa(rl.config.Requests))
		c.Header(RateLimitRemainingHeader, strconv.Itoa(remaining))
		c.Header(RateLimitResetHeader, strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			Abort(c, errors.NewRateLimitError(rl.config.Name, resetTime.Sub(rl.now()).Round(time.Second)))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) checkAndUpdate(ctx context.Context, key string) (bool, int, time.Time, error) {
	if rl.redis != nil {
		return rl.checkAndUpdateRedis(ctx, key)
	}
	return rl.checkAndUpdateLocal(key)
}

func (rl *RateLimiter) checkAndUpdateRedis(ctx context.Context, key string) (bool, int, time.Time, error) {
	redisKey := "ratelimit:" + rl.config.Name + ":" + key
	windowSeconds := int(rl.config.Window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	values, err := rateLimitScript.Run(ctx, rl.redis, []string{redisKey}, rl.config.Requests, windowSeconds).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, err
	}
	if len(values) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected rate limit reply: %v", values)
	}

	ttl := time.Duration(values[2]) * time.Second
	if ttl < 0 {
		ttl = rl.config.Window
	}
	return values[0] == 1, int(values[1]), rl.now().Add(ttl), nil
}

func (rl *RateLimiter) checkAndUpdateLocal(key string) (bool, int, time.Time, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	if len(rl.localMap) > 1000 {
		for k, entry := range rl.localMap {
			if now.After(entry.resetTime) {
				delete(rl.localMap, k)
			}
		}
	}

	entry, exists := rl.localMap[key]
	if !exists || now.After(entry.resetTime) {
		entry = &rateLimitEntry{resetTime: now.Add(rl.config.Window)}
		rl.localMap[key] = entry
	}

	if entry.count >= rl.config.Requests {
		return false, 0, entry.resetTime, nil
	}

	entry.count++
	return true, rl.config.Requests - entry.count, entry.resetTime, nil
}
