package repository

import (
	"context"

	"veyra-backend/internal/features/project/models"
)

type ProjectRepository interface {
	IsProjectAdmin(ctx context.Context, projectID string, telegramUserID int64) (bool, error)
	ListForAdmin(ctx context.Context, telegramUserID int64) ([]models.Project, error)
	// GetOrCreateByName returns the project with that name, creating it first if needed.
	GetOrCreateByName(ctx context.Context, name string) (*models.Project, error)
	// AddAdmin is idempotent.
	AddAdmin(ctx context.Context, projectID string, telegramUserID int64) error

	// GetInvite returns nil, nil for unknown codes.
	GetInvite(ctx context.Context, code string) (*models.InviteCode, error)
	// ClaimInvite consumes one use if the code is still valid at the database; false otherwise.
	ClaimInvite(ctx context.Context, code string) (bool, error)
}
