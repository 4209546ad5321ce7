package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"veyra-backend/internal/common/middleware"
	authhttp "veyra-backend/internal/features/auth/delivery/http"
	"veyra-backend/internal/features/project/service"
)

type ProjectHandler struct {
	service service.ProjectService
	auth    authhttp.Authenticator
}

func NewProjectHandler(service service.ProjectService, auth authhttp.Authenticator) *ProjectHandler {
	return &ProjectHandler{service: service, auth: auth}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/tg/admin")
	admin.Use(authhttp.RequirePrincipal(h.auth, authhttp.DefaultCredentialTable, authhttp.AdminSession))
	{
		admin.GET("", h.status)
		admin.POST("", h.redeem)
	}
}

// @Summary Admin status
// @Description Lists the projects the caller administers.
// @Tags projects
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.AdminStatus
// @Failure 401 {object} middleware.ErrorResponse
// @Router /tg/admin [get]
func (h *ProjectHandler) status(c *gin.Context) {
	p := authhttp.PrincipalFrom(c)

	st, err := h.service.AdminStatus(c.Request.Context(), p.TelegramUserID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type redeemRequest struct {
	InviteCode string `json:"inviteCode"`
}

// @Summary Redeem a project invite code
// @Tags projects
// @Accept json
// @Produce json
// @Param request body redeemRequest true "Invite code"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse "Invalid, expired or exhausted code"
// @Router /tg/admin [post]
func (h *ProjectHandler) redeem(c *gin.Context) {
	p := authhttp.PrincipalFrom(c)

	var req redeemRequest
	_ = c.ShouldBindBodyWith(&req, binding.JSON)

	project, err := h.service.RedeemInvite(c.Request.Context(), p.TelegramUserID, req.InviteCode)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": project})
}
