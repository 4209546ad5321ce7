package service

import (
	"context"
	"errors"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/features/user/models"
	"veyra-backend/internal/features/user/repository"
)

type UserService interface {
	// Touch upserts the profile seen on an authenticated request.
	Touch(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// GetOrCreateUser touches the profile and returns the stored row.
	GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error)
	SaveWallet(ctx context.Context, id int64, wallet, tier string, fairscore float64) error
	UpdateLastKnown(ctx context.Context, id int64, tier string, fairscore float64) error
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Touch(ctx context.Context, user *models.User) error {
	if user == nil || user.TelegramUserID == 0 {
		return apperrors.NewValidationError("telegram_user_id", "Missing Telegram user id")
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return apperrors.NewStorageError("upsert_user", err)
	}
	return nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user", id)
		}
		return nil, apperrors.NewStorageError("get_user", err)
	}
	return user, nil
}

func (s *userService) GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error) {
	if err := s.Touch(ctx, &models.User{
		TelegramUserID: telegramID,
		Username:       username,
		FirstName:      firstName,
		LastName:       lastName,
	}); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, telegramID)
}

func (s *userService) SaveWallet(ctx context.Context, id int64, wallet, tier string, fairscore float64) error {
	if err := s.repo.SaveWallet(ctx, id, wallet, tier, fairscore); err != nil {
		return apperrors.NewStorageError("save_wallet", err)
	}
	return nil
}

func (s *userService) UpdateLastKnown(ctx context.Context, id int64, tier string, fairscore float64) error {
	if err := s.repo.UpdateLastKnown(ctx, id, tier, fairscore); err != nil {
		return apperrors.NewStorageError("update_last_known", err)
	}
	return nil
}
