package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/features/score/models"
)

const keyPrefix = "score:"

// Redis shares cached scores between instances.
type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, now: time.Now}
}

func (r *Redis) Get(ctx context.Context, wallet string) (Entry, bool) {
	data, err := r.rdb.Get(ctx, keyPrefix+Key(wallet)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Msg("Score cache read failed")
		}
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || e.Score == nil {
		return Entry{}, false
	}
	return e, true
}

func (r *Redis) Set(ctx context.Context, wallet string, score *models.Score) {
	data, err := json.Marshal(Entry{Score: score, FetchedAt: r.now()})
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, keyPrefix+Key(wallet), data, r.ttl).Err(); err != nil {
		logger.Warn().Err(err).Msg("Score cache write failed")
	}
}
