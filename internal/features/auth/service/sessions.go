package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/auth/repository"
)

type SessionConfig struct {
	AdminTTL     time.Duration
	FormTTL      time.Duration
	UnlockWindow time.Duration
}

type SessionService struct {
	sessions repository.SessionRepository
	forms    repository.FormSessionRepository
	authz    *Authorizer
	cfg      SessionConfig
	now      Clock
}

func NewSessionService(sessions repository.SessionRepository, forms repository.FormSessionRepository, authz *Authorizer, cfg SessionConfig, clock Clock) *SessionService {
	return &SessionService{
		sessions: sessions,
		forms:    forms,
		authz:    authz,
		cfg:      cfg,
		now:      clock,
	}
}

// MintAdminSession issues an admin session after a recent /admin unlock.
func (s *SessionService) MintAdminSession(ctx context.Context, p *models.Principal, sctx models.SessionContext) (*models.MintResult, error) {
	if err := s.authz.RequireRecentUnlock(ctx, p, s.cfg.UnlockWindow); err != nil {
		return nil, err
	}

	now := s.now()
	state := map[string]interface{}{"admin": true}
	if p.Username != "" {
		state["username"] = p.Username
	}

	session := &models.Session{
		ID:             uuid.New().String(),
		TelegramUserID: p.TelegramUserID,
		Kind:           models.SessionKindAdmin,
		SessionKey:     models.SessionKeyAdmin,
		State:          state,
		ChatID:         sctx.ChatID,
		MessageID:      sctx.MessageID,
		Wallet:         firstNonEmpty(sctx.Wallet, p.Wallet),
		ExpiresAt:      now.Add(s.cfg.AdminTTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.NewStorageError("create_session", err)
	}

	logger.Info().
		Int64("user_id", p.TelegramUserID).
		Str("via", string(p.Via)).
		Time("expires_at", session.ExpiresAt).
		Msg("Admin session minted")

	return &models.MintResult{
		SessionID:      session.ID,
		ExpiresAt:      session.ExpiresAt,
		TelegramUserID: p.TelegramUserID,
		Username:       p.Username,
	}, nil
}

// Revoke deletes one session owned by p.
func (s *SessionService) Revoke(ctx context.Context, p *models.Principal, sid string) error {
	session, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return apperrors.NewStorageError("get_session", err)
	}
	if session == nil {
		return apperrors.NewNotFoundError("session", sid)
	}
	if err := s.authz.RequireSessionOwnerMatches(session, p); err != nil {
		return err
	}
	if _, err := s.sessions.Delete(ctx, sid); err != nil {
		return apperrors.NewStorageError("delete_session", err)
	}
	return nil
}

// RevokeAll deletes every admin session of p.
func (s *SessionService) RevokeAll(ctx context.Context, p *models.Principal) (int64, error) {
	n, err := s.sessions.DeleteByOwner(ctx, p.TelegramUserID, models.SessionKindAdmin)
	if err != nil {
		return 0, apperrors.NewStorageError("delete_sessions", err)
	}
	return n, nil
}

func (s *SessionService) OpenFormSession(ctx context.Context, p *models.Principal, campaignID string) (*models.FormSession, error) {
	now := s.now()
	fs := &models.FormSession{
		ID:             uuid.New().String(),
		CampaignID:     campaignID,
		TelegramUserID: p.TelegramUserID,
		ExpiresAt:      now.Add(s.cfg.FormTTL),
		CreatedAt:      now,
	}
	if err := s.forms.Create(ctx, fs); err != nil {
		return nil, apperrors.NewStorageError("create_form_session", err)
	}
	return fs, nil
}

// ValidateFormSession checks existence, owner, single use and expiry, in that order.
func (s *SessionService) ValidateFormSession(ctx context.Context, id string, p *models.Principal) (*models.FormSession, error) {
	fs, err := s.forms.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewStorageError("get_form_session", err)
	}
	switch {
	case fs == nil:
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "session not found")
	case fs.TelegramUserID != p.TelegramUserID:
		return nil, apperrors.NewForbiddenError("wrong user for session").WithUserID(p.TelegramUserID)
	case fs.UsedAt != nil:
		return nil, apperrors.NewBadRequestError("session already used")
	case !s.now().Before(fs.ExpiresAt):
		return nil, apperrors.NewBadRequestError("session expired")
	}
	return fs, nil
}

// ConsumeFormSession marks the session used; a concurrent submit loses.
func (s *SessionService) ConsumeFormSession(ctx context.Context, id string) error {
	ok, err := s.forms.MarkUsed(ctx, id, s.now())
	if err != nil {
		return apperrors.NewStorageError("mark_form_session_used", err)
	}
	if !ok {
		return apperrors.NewBadRequestError("session already used")
	}
	return nil
}

// ReleaseFormSession undoes ConsumeFormSession when the submit that claimed
// the session did not store an entry.
func (s *SessionService) ReleaseFormSession(ctx context.Context, id string) error {
	if err := s.forms.ClearUsed(ctx, id); err != nil {
		return apperrors.NewStorageError("clear_form_session_used", err)
	}
	return nil
}
