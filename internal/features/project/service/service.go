package service

import (
	"context"
	"strings"
	"time"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/features/project/models"
	"veyra-backend/internal/features/project/repository"
)

type ProjectService interface {
	IsProjectAdmin(ctx context.Context, projectID string, telegramUserID int64) (bool, error)
	AdminStatus(ctx context.Context, telegramUserID int64) (*models.AdminStatus, error)
	RedeemInvite(ctx context.Context, telegramUserID int64, code string) (*models.Project, error)
	EnsureDefaultProject(ctx context.Context, name string) (*models.Project, error)
	EnsureAdmin(ctx context.Context, projectID string, telegramUserID int64) error
}

type projectService struct {
	repo repository.ProjectRepository
	now  func() time.Time
}

func NewProjectService(repo repository.ProjectRepository) ProjectService {
	return &projectService{repo: repo, now: time.Now}
}

func (s *projectService) IsProjectAdmin(ctx context.Context, projectID string, telegramUserID int64) (bool, error) {
	return s.repo.IsProjectAdmin(ctx, projectID, telegramUserID)
}

func (s *projectService) AdminStatus(ctx context.Context, telegramUserID int64) (*models.AdminStatus, error) {
	projects, err := s.repo.ListForAdmin(ctx, telegramUserID)
	if err != nil {
		return nil, apperrors.NewStorageError("list_projects", err)
	}
	return &models.AdminStatus{
		OK:             true,
		TelegramUserID: telegramUserID,
		IsAdmin:        len(projects) > 0,
		Projects:       projects,
	}, nil
}

// RedeemInvite validates the code, consumes one use and makes the user an
// admin of the project the code names.
func (s *projectService) RedeemInvite(ctx context.Context, telegramUserID int64, code string) (*models.Project, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("inviteCode", "missing inviteCode")
	}

	inv, err := s.repo.GetInvite(ctx, code)
	if err != nil {
		return nil, apperrors.NewStorageError("get_invite", err)
	}
	switch {
	case inv == nil:
		return nil, apperrors.NewBadRequestError("Invalid invite code")
	case inv.ExpiredAt(s.now()):
		return nil, apperrors.NewBadRequestError("Invite code expired")
	case inv.Exhausted():
		return nil, apperrors.NewBadRequestError("Invite code max uses reached")
	}

	claimed, err := s.repo.ClaimInvite(ctx, code)
	if err != nil {
		return nil, apperrors.NewStorageError("claim_invite", err)
	}
	if !claimed {
		// lost a race with another redemption
		return nil, apperrors.NewBadRequestError("Invite code max uses reached")
	}

	project, err := s.repo.GetOrCreateByName(ctx, inv.ProjectName)
	if err != nil {
		return nil, apperrors.NewStorageError("get_or_create_project", err)
	}
	if err := s.repo.AddAdmin(ctx, project.ID, telegramUserID); err != nil {
		return nil, apperrors.NewStorageError("add_project_admin", err)
	}

	logger.Info().
		Int64("user_id", telegramUserID).
		Str("project", project.Name).
		Msg("Invite code redeemed")

	return project, nil
}

func (s *projectService) EnsureDefaultProject(ctx context.Context, name string) (*models.Project, error) {
	project, err := s.repo.GetOrCreateByName(ctx, name)
	if err != nil {
		return nil, apperrors.NewStorageError("ensure_default_project", err)
	}
	return project, nil
}

func (s *projectService) EnsureAdmin(ctx context.Context, projectID string, telegramUserID int64) error {
	if err := s.repo.AddAdmin(ctx, projectID, telegramUserID); err != nil {
		return apperrors.NewStorageError("ensure_project_admin", err)
	}
	return nil
}
