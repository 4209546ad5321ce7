package repository

import (
	"context"
	"errors"

	"veyra-backend/internal/features/user/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	// Upsert creates the row or refreshes the profile; empty names never overwrite known ones.
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SaveWallet(ctx context.Context, id int64, wallet, tier string, fairscore float64) error
	UpdateLastKnown(ctx context.Context, id int64, tier string, fairscore float64) error
}
