package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/features/user/models"
	"veyra-backend/internal/features/user/repository"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Upsert(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockRepo) SaveWallet(ctx context.Context, id int64, wallet, tier string, fairscore float64) error {
	return m.Called(ctx, id, wallet, tier, fairscore).Error(0)
}

func (m *mockRepo) UpdateLastKnown(ctx context.Context, id int64, tier string, fairscore float64) error {
	return m.Called(ctx, id, tier, fairscore).Error(0)
}

func TestGetOrCreateUser(t *testing.T) {
	repo := new(mockRepo)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("Upsert", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.TelegramUserID == 12345 && u.Username == "ada"
	})).Return(nil)
	repo.On("GetByID", ctx, int64(12345)).Return(&models.User{TelegramUserID: 12345, Username: "ada", SavedWallet: "0xabc"}, nil)

	user, err := svc.GetOrCreateUser(ctx, 12345, "ada", "Ada", "")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", user.SavedWallet)
	repo.AssertExpectations(t)
}

func TestTouchRejectsZeroID(t *testing.T) {
	svc := NewUserService(new(mockRepo))
	err := svc.Touch(context.Background(), &models.User{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestTouchStorageError(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := NewUserService(repo).Touch(context.Background(), &models.User{TelegramUserID: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorage))
}

func TestGetUserNotFound(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, repository.ErrUserNotFound)

	_, err := NewUserService(repo).GetUser(context.Background(), 9)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestSaveWallet(t *testing.T) {
	repo := new(mockRepo)
	repo.On("SaveWallet", mock.Anything, int64(1), "0xabc", "gold", 80.0).Return(nil)

	require.NoError(t, NewUserService(repo).SaveWallet(context.Background(), 1, "0xabc", "gold", 80.0))
	repo.AssertExpectations(t)
}
