package service

import (
	"context"
	"time"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/features/auth/models"
	eventmodels "veyra-backend/internal/features/event/models"
)

// ProjectMembership answers project_admins lookups.
type ProjectMembership interface {
	IsProjectAdmin(ctx context.Context, projectID string, telegramUserID int64) (bool, error)
}

// CampaignOwnershipLookup returns nil, nil for unknown campaigns.
type CampaignOwnershipLookup interface {
	GetOwnership(ctx context.Context, campaignID string) (*models.CampaignOwnership, error)
}

// UnlockEvents reads the bot event log.
type UnlockEvents interface {
	LatestSince(ctx context.Context, telegramUserID int64, kind string, since time.Time) (*eventmodels.Event, error)
}

type Authorizer struct {
	projects  ProjectMembership
	campaigns CampaignOwnershipLookup
	events    UnlockEvents
	now       Clock
}

func NewAuthorizer(projects ProjectMembership, campaigns CampaignOwnershipLookup, events UnlockEvents, clock Clock) *Authorizer {
	return &Authorizer{
		projects:  projects,
		campaigns: campaigns,
		events:    events,
		now:       clock,
	}
}

func (a *Authorizer) RequireProjectAdmin(ctx context.Context, p *models.Principal, projectID string) error {
	ok, err := a.projects.IsProjectAdmin(ctx, projectID, p.TelegramUserID)
	if err != nil {
		return apperrors.NewStorageError("check_project_admin", err)
	}
	if !ok {
		return apperrors.NewForbiddenError("Not a project admin").WithUserID(p.TelegramUserID)
	}
	return nil
}

// RequireCampaignAdmin resolves the campaign first so a missing campaign is a
// 404 and not a 403. Campaigns without a project fall back to creator checks.
func (a *Authorizer) RequireCampaignAdmin(ctx context.Context, p *models.Principal, campaignID string) (*models.CampaignOwnership, error) {
	own, err := a.lookup(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if own.ProjectID == "" {
		if own.CreatedBy != p.TelegramUserID {
			return nil, apperrors.NewForbiddenError("Not campaign owner").WithUserID(p.TelegramUserID)
		}
		return own, nil
	}
	if err := a.RequireProjectAdmin(ctx, p, own.ProjectID); err != nil {
		return nil, err
	}
	return own, nil
}

func (a *Authorizer) RequireOwnership(ctx context.Context, p *models.Principal, campaignID string) (*models.CampaignOwnership, error) {
	own, err := a.lookup(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if own.CreatedBy != p.TelegramUserID {
		return nil, apperrors.NewForbiddenError("Not campaign owner").WithUserID(p.TelegramUserID)
	}
	return own, nil
}

// RequireRecentUnlock needs an admin_start event inside window.
func (a *Authorizer) RequireRecentUnlock(ctx context.Context, p *models.Principal, window time.Duration) error {
	ev, err := a.events.LatestSince(ctx, p.TelegramUserID, models.UnlockEventKind, a.now().Add(-window))
	if err != nil {
		return apperrors.NewStorageError("get_unlock_event", err)
	}
	if ev == nil {
		return apperrors.NewAdminNotUnlockedError().WithUserID(p.TelegramUserID)
	}
	return nil
}

func (a *Authorizer) RequireSessionOwnerMatches(s *models.Session, p *models.Principal) error {
	if s == nil || s.TelegramUserID != p.TelegramUserID {
		return apperrors.NewPrincipalMismatchError().WithUserID(p.TelegramUserID)
	}
	return nil
}

func (a *Authorizer) lookup(ctx context.Context, campaignID string) (*models.CampaignOwnership, error) {
	own, err := a.campaigns.GetOwnership(ctx, campaignID)
	if err != nil {
		return nil, apperrors.NewStorageError("get_campaign", err)
	}
	if own == nil {
		return nil, apperrors.NewNotFoundError("campaign", campaignID)
	}
	return own, nil
}
