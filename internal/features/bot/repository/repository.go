package repository

import (
	"context"

	"veyra-backend/internal/features/bot/models"
)

type StateRepository interface {
	// Get returns nil, nil when the user has no state.
	Get(ctx context.Context, telegramUserID int64) (*models.State, error)
	// Set replaces whatever state the user had.
	Set(ctx context.Context, telegramUserID int64, key string, data interface{}) error
	Clear(ctx context.Context, telegramUserID int64) error
}
