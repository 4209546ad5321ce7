package cache

import (
	"context"
	"strings"
	"time"

	"veyra-backend/internal/features/score/models"
)

// Entry is a cached score and when it was fetched.
type Entry struct {
	Score     *models.Score `json:"score"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Cache stores recent score lookups. Implementations never fail a lookup:
// backend errors read as a miss.
type Cache interface {
	Get(ctx context.Context, wallet string) (Entry, bool)
	Set(ctx context.Context, wallet string, score *models.Score)
}

// Key folds EVM addresses to lower case; Solana addresses are case-sensitive.
func Key(wallet string) string {
	if strings.HasPrefix(wallet, "0x") {
		return strings.ToLower(wallet)
	}
	return wallet
}
