package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veyra-backend/internal/common/middleware"
	authhttp "veyra-backend/internal/features/auth/delivery/http"
	"veyra-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
	auth    authhttp.Authenticator
}

func NewUserHandler(service service.UserService, auth authhttp.Authenticator) *UserHandler {
	return &UserHandler{
		service: service,
		auth:    auth,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/tg/me")
	me.Use(authhttp.RequirePrincipal(h.auth, authhttp.DefaultCredentialTable, authhttp.AdminSession))
	{
		me.GET("", h.getMe)
		me.POST("", h.getMe)
	}
}

// @Summary Get current user
// @Description Authenticates the Mini App user by initData or admin session, records the profile and returns it with the saved wallet.
// @Tags users
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.MeResponse
// @Failure 401 {object} middleware.ErrorResponse "Invalid or missing credentials"
// @Failure 500 {object} middleware.ErrorResponse "Storage failure"
// @Router /tg/me [get]
// @Router /tg/me [post]
func (h *UserHandler) getMe(c *gin.Context) {
	p := authhttp.PrincipalFrom(c)

	user, err := h.service.GetUser(c.Request.Context(), p.TelegramUserID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	me := user.ToMe()
	if me.Data.Username == "" {
		me.Data.Username = p.Username
	}
	c.JSON(http.StatusOK, me)
}
