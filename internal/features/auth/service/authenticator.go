package service

import (
	"context"
	"errors"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/features/auth/fallback"
	"veyra-backend/internal/features/auth/initdata"
	"veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/auth/repository"
	usermodels "veyra-backend/internal/features/user/models"
)

// Credentials is everything identity-bearing a request carried.
type Credentials struct {
	SessionID string
	InitData  string
	Fallback  fallback.Credential
}

// Policy selects which credential kinds a route accepts.
type Policy struct {
	// SessionKind enables the session resolver for sessions of this kind.
	SessionKind string
	// AllowFallback enables signed fallback links.
	AllowFallback bool
	// RequireInitData rejects a session-authenticated request that has no initData beside it.
	RequireInitData bool
	// SessionOnly disables the initData resolver; initData is then only a cross-check.
	SessionOnly bool
}

// CredentialResolver turns one credential kind into a principal. It returns
// nil, nil when the request carries no credential of its kind, and an error
// when the credential is present but invalid.
type CredentialResolver interface {
	Via() models.Via
	Resolve(ctx context.Context, creds Credentials, policy Policy) (*models.Principal, error)
}

// UserToucher records the profile of an authenticated user.
type UserToucher interface {
	Touch(ctx context.Context, user *usermodels.User) error
}

type Authenticator struct {
	resolvers []CredentialResolver
	verifier  *initdata.Verifier
	users     UserToucher
}

// NewAuthenticator wires the resolvers in their fixed order: session, initData, fallback.
func NewAuthenticator(sessions repository.SessionRepository, verifier *initdata.Verifier, signer *fallback.Signer, users UserToucher, clock Clock) *Authenticator {
	return &Authenticator{
		resolvers: []CredentialResolver{
			&SessionResolver{sessions: sessions, now: clock},
			&InitDataResolver{verifier: verifier},
			&FallbackResolver{signer: signer},
		},
		verifier: verifier,
		users:    users,
	}
}

func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials, policy Policy) (*models.Principal, error) {
	var principal *models.Principal
	for _, r := range a.resolvers {
		if !policy.allows(r.Via()) {
			continue
		}
		p, err := r.Resolve(ctx, creds, policy)
		if err != nil {
			return nil, err
		}
		if p != nil {
			principal = p
			break
		}
	}

	if principal == nil {
		return nil, apperrors.NewUnauthorizedError("no_credentials", nil)
	}

	if principal.Via == models.ViaSession {
		if err := a.crossCheck(principal, creds, policy); err != nil {
			return nil, err
		}
	}

	if err := a.users.Touch(ctx, &usermodels.User{
		TelegramUserID: principal.TelegramUserID,
		Username:       principal.Username,
		FirstName:      principal.FirstName,
		LastName:       principal.LastName,
	}); err != nil {
		return nil, err
	}

	return principal, nil
}

// VerifyInitData runs the bare signature check, for routes that only accept initData.
func (a *Authenticator) VerifyInitData(raw string) (*initdata.Result, error) {
	if raw == "" {
		return nil, apperrors.NewUnauthorizedError("missing_initdata", nil)
	}
	res, err := a.verifier.Verify(raw)
	if err != nil {
		return nil, unauthorized(err)
	}
	return res, nil
}

// crossCheck makes a session and an accompanying initData agree on the user.
func (a *Authenticator) crossCheck(principal *models.Principal, creds Credentials, policy Policy) error {
	if creds.InitData == "" {
		if policy.RequireInitData {
			return apperrors.NewUnauthorizedError("missing_initdata", nil)
		}
		return nil
	}

	res, err := a.verifier.Verify(creds.InitData)
	if err != nil {
		return unauthorized(err)
	}
	if res.User.ID != principal.TelegramUserID {
		logger.Warn().
			Int64("session_user", principal.TelegramUserID).
			Int64("initdata_user", res.User.ID).
			Msg("Session presented with another user's initData")
		return apperrors.NewPrincipalMismatchError()
	}

	principal.Username = firstNonEmpty(res.User.Username, principal.Username)
	principal.FirstName = res.User.FirstName
	principal.LastName = res.User.LastName
	return nil
}

func (p Policy) allows(via models.Via) bool {
	switch via {
	case models.ViaSession:
		return p.SessionKind != ""
	case models.ViaFallback:
		return p.AllowFallback
	default:
		return !p.SessionOnly
	}
}

// unauthorized maps verifier errors to 401 with a reason for logs.
func unauthorized(err error) *apperrors.AppError {
	reason := "invalid_credentials"
	switch {
	case errors.Is(err, initdata.ErrInvalidSignature):
		reason = "invalid_signature"
	case errors.Is(err, initdata.ErrExpired):
		reason = "expired"
	case errors.Is(err, initdata.ErrMissingHash):
		reason = "missing_hash"
	case errors.Is(err, initdata.ErrMissingUser):
		reason = "missing_user"
	case errors.Is(err, initdata.ErrMalformedUserJSON):
		reason = "malformed_user_json"
	case errors.Is(err, initdata.ErrMalformed):
		reason = "malformed_initdata"
	case errors.Is(err, initdata.ErrNotConfigured), errors.Is(err, fallback.ErrNotConfigured):
		reason = "not_configured"
	case errors.Is(err, fallback.ErrInvalidSignature):
		reason = "fallback_invalid_signature"
	case errors.Is(err, fallback.ErrExpired):
		reason = "fallback_expired"
	case errors.Is(err, fallback.ErrMissingFields):
		reason = "fallback_missing_fields"
	case errors.Is(err, fallback.ErrInvalidNumeric):
		reason = "fallback_invalid_numeric"
	}
	return apperrors.NewUnauthorizedError(reason, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
