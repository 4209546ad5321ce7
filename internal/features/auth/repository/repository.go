package repository

import (
	"context"
	"time"

	"veyra-backend/internal/features/auth/models"
)

// SessionRepository persists app_sessions. Get returns nil, nil for unknown ids.
type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByOwner(ctx context.Context, telegramUserID int64, kind string) (int64, error)
}

// FormSessionRepository persists form_sessions. Get returns nil, nil for unknown ids.
type FormSessionRepository interface {
	Create(ctx context.Context, s *models.FormSession) error
	Get(ctx context.Context, id string) (*models.FormSession, error)
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
	ClearUsed(ctx context.Context, id string) error
}
