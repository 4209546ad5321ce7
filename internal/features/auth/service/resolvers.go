package service

import (
	"context"
	"time"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/features/auth/fallback"
	"veyra-backend/internal/features/auth/initdata"
	"veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/auth/repository"
)

// Clock returns the current time; tests replace it.
type Clock func() time.Time

type SessionResolver struct {
	sessions repository.SessionRepository
	now      Clock
}

func (r *SessionResolver) Via() models.Via { return models.ViaSession }

func (r *SessionResolver) Resolve(ctx context.Context, creds Credentials, policy Policy) (*models.Principal, error) {
	if creds.SessionID == "" {
		return nil, nil
	}

	s, err := r.sessions.Get(ctx, creds.SessionID)
	if err != nil {
		return nil, apperrors.NewStorageError("get_session", err)
	}
	if err := checkSession(s, policy.SessionKind, r.now()); err != nil {
		return nil, err
	}

	username, _ := s.State["username"].(string)
	return &models.Principal{
		TelegramUserID: s.TelegramUserID,
		Username:       username,
		Wallet:         s.Wallet,
		Via:            models.ViaSession,
		SessionID:      s.ID,
	}, nil
}

// checkSession enforces existence, kind, expiry and the admin capability flag.
func checkSession(s *models.Session, kind string, now time.Time) error {
	switch {
	case s == nil:
		return apperrors.NewUnauthorizedError("session_not_found", nil)
	case s.Kind != kind:
		return apperrors.NewUnauthorizedError("session_kind_mismatch", nil)
	case s.ExpiredAt(now):
		return apperrors.NewUnauthorizedError("session_expired", nil)
	case kind == models.SessionKindAdmin && !s.Flag("admin"):
		return apperrors.NewUnauthorizedError("session_not_admin", nil)
	}
	return nil
}

type InitDataResolver struct {
	verifier *initdata.Verifier
}

func (r *InitDataResolver) Via() models.Via { return models.ViaInitData }

func (r *InitDataResolver) Resolve(_ context.Context, creds Credentials, _ Policy) (*models.Principal, error) {
	if creds.InitData == "" {
		return nil, nil
	}

	res, err := r.verifier.Verify(creds.InitData)
	if err != nil {
		return nil, unauthorized(err)
	}

	return &models.Principal{
		TelegramUserID: res.User.ID,
		Username:       res.User.Username,
		FirstName:      res.User.FirstName,
		LastName:       res.User.LastName,
		Via:            models.ViaInitData,
	}, nil
}

type FallbackResolver struct {
	signer *fallback.Signer
}

func (r *FallbackResolver) Via() models.Via { return models.ViaFallback }

func (r *FallbackResolver) Resolve(_ context.Context, creds Credentials, _ Policy) (*models.Principal, error) {
	if !creds.Fallback.Present() {
		return nil, nil
	}

	uid, wallet, err := r.signer.Verify(creds.Fallback)
	if err != nil {
		return nil, unauthorized(err)
	}

	return &models.Principal{
		TelegramUserID: uid,
		Wallet:         wallet,
		Via:            models.ViaFallback,
	}, nil
}
