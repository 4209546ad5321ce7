package repository

import (
	"context"
	"time"

	"veyra-backend/internal/features/event/models"
)

type EventRepository interface {
	Log(ctx context.Context, telegramUserID int64, kind string, meta map[string]interface{}) error
	// LatestSince returns the newest event of kind at or after since, or nil.
	LatestSince(ctx context.Context, telegramUserID int64, kind string, since time.Time) (*models.Event, error)
}
