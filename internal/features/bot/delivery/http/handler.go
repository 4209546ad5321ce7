package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tele "gopkg.in/telebot.v3"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/common/middleware"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateProcessor handles one update before returning.
type UpdateProcessor interface {
	ProcessUpdate(u tele.Update)
}

type WebhookHandler struct {
	bot    UpdateProcessor
	secret string
}

// NewWebhookHandler checks the secret header only when secret is non-empty.
func NewWebhookHandler(bot UpdateProcessor, secret string) *WebhookHandler {
	return &WebhookHandler{bot: bot, secret: secret}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/telegram/webhook", h.webhook)
}

// @Summary Telegram webhook
// @Description Receives bot updates. Replies 200 for every authenticated update so Telegram does not redeliver.
// @Tags bot
// @Accept json
// @Produce json
// @Param X-Telegram-Bot-Api-Secret-Token header string false "Webhook secret"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} middleware.ErrorResponse "Bad secret"
// @Router /telegram/webhook [post]
func (h *WebhookHandler) webhook(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			middleware.Abort(c, apperrors.NewUnauthorizedError("bad secret", nil))
			return
		}
	}

	var u tele.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		logger.Warn().Err(err).Msg("Dropping undecodable Telegram update")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	h.bot.ProcessUpdate(u)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
