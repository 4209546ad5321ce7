package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/middleware"
	"veyra-backend/internal/features/auth/initdata"
	"veyra-backend/internal/features/auth/models"
)

// InitDataVerifier checks a bare initData string.
type InitDataVerifier interface {
	VerifyInitData(raw string) (*initdata.Result, error)
}

// SessionMinter is the admin-session half of the session service.
type SessionMinter interface {
	MintAdminSession(ctx context.Context, p *models.Principal, sctx models.SessionContext) (*models.MintResult, error)
	Revoke(ctx context.Context, p *models.Principal, sid string) error
	RevokeAll(ctx context.Context, p *models.Principal) (int64, error)
}

type AuthHandler struct {
	auth     Authenticator
	verifier InitDataVerifier
	sessions SessionMinter
	table    CredentialTable
}

func NewAuthHandler(auth Authenticator, verifier InitDataVerifier, sessions SessionMinter) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		verifier: verifier,
		sessions: sessions,
		table:    DefaultCredentialTable,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	tg := router.Group("/tg")
	tg.POST("/auth", h.verifyInitData)

	admin := tg.Group("/admin/session")
	admin.POST("", RequirePrincipal(h.auth, h.table, SignedLaunch), h.mintSession)
	admin.DELETE("", RequirePrincipal(h.auth, h.table, AdminSession), h.revokeSession)
}

type authRequest struct {
	InitData string `json:"initData"`
}

type authUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// AuthResponse is returned by POST /api/tg/auth.
type AuthResponse struct {
	OK             bool     `json:"ok"`
	TelegramUserID int64    `json:"telegram_user_id"`
	Username       string   `json:"username,omitempty"`
	User           authUser `json:"user"`
}

// @Summary Verify Telegram initData
// @Description Checks the Mini App launch signature and returns the Telegram user it names.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body authRequest true "initData"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} middleware.ErrorResponse "Missing initData"
// @Failure 401 {object} middleware.ErrorResponse "Invalid signature"
// @Router /tg/auth [post]
func (h *AuthHandler) verifyInitData(c *gin.Context) {
	var req authRequest
	_ = c.ShouldBindBodyWith(&req, binding.JSON)

	raw := req.InitData
	if raw == "" {
		raw = firstHeader(c, h.table.InitDataHeaders)
	}
	if raw == "" {
		middleware.Abort(c, apperrors.NewBadRequestError("Missing initData"))
		return
	}

	res, err := h.verifier.VerifyInitData(raw)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	u := res.User
	c.JSON(http.StatusOK, AuthResponse{
		OK:             true,
		TelegramUserID: u.ID,
		Username:       u.Username,
		User: authUser{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		},
	})
}

// MintResponse wraps a freshly issued admin session.
type MintResponse struct {
	OK   bool              `json:"ok"`
	Data models.MintResult `json:"data"`
}

// @Summary Open an admin session
// @Description Requires initData or a signed fallback link, and an /admin unlock in the bot within the unlock window.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} MintResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse "Admin not unlocked"
// @Router /tg/admin/session [post]
func (h *AuthHandler) mintSession(c *gin.Context) {
	p := PrincipalFrom(c)

	res, err := h.sessions.MintAdminSession(c.Request.Context(), p, models.SessionContext{Wallet: p.Wallet})
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, MintResponse{OK: true, Data: *res})
}

// @Summary Revoke admin sessions
// @Description Revokes the presented admin session, or every admin session of the caller with all=1.
// @Tags auth
// @Produce json
// @Param all query string false "1 to revoke every session"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse "No session presented"
// @Failure 401 {object} middleware.ErrorResponse
// @Router /tg/admin/session [delete]
func (h *AuthHandler) revokeSession(c *gin.Context) {
	p := PrincipalFrom(c)
	ctx := c.Request.Context()

	if c.Query("all") == "1" {
		n, err := h.sessions.RevokeAll(ctx, p)
		if err != nil {
			middleware.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "revoked": n})
		return
	}

	// initData alone satisfies the admin policy but names no session
	if p.SessionID == "" {
		middleware.Abort(c, apperrors.NewBadRequestError("No session presented"))
		return
	}
	if err := h.sessions.Revoke(ctx, p, p.SessionID); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "revoked": 1, "revoked_at": time.Now().UTC()})
}
