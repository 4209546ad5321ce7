package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"veyra-backend/internal/common/middleware"
	"veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/auth/service"
)

const PrincipalKey = "principal"

// Authenticator is what the middleware needs from the auth service.
type Authenticator interface {
	Authenticate(ctx context.Context, creds service.Credentials, policy service.Policy) (*models.Principal, error)
}

// RequirePrincipal resolves the caller under policy or aborts with the auth error.
func RequirePrincipal(auth Authenticator, table CredentialTable, policy service.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := auth.Authenticate(c.Request.Context(), table.Extract(c), policy)
		if err != nil {
			middleware.Abort(c, err)
			return
		}

		c.Set(PrincipalKey, p)
		c.Set(middleware.UserIDKey, p.TelegramUserID)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequirePrincipal.
func PrincipalFrom(c *gin.Context) *models.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*models.Principal); ok {
			return p
		}
	}
	return nil
}

// Policies used by the route groups.
var (
	// InitDataOnly accepts a signed Mini App launch and nothing else.
	InitDataOnly = service.Policy{}
	// AdminSession accepts an admin session, with initData checked against it when sent.
	AdminSession = service.Policy{SessionKind: models.SessionKindAdmin}
	// StrictAdminSession requires an admin session plus initData from the same user.
	StrictAdminSession = service.Policy{SessionKind: models.SessionKindAdmin, SessionOnly: true, RequireInitData: true}
	// AdminSessionOnly accepts nothing but an admin session, for links opened outside Telegram.
	AdminSessionOnly = service.Policy{SessionKind: models.SessionKindAdmin, SessionOnly: true}
	// SignedLaunch accepts initData or a signed fallback link.
	SignedLaunch = service.Policy{AllowFallback: true}
)
