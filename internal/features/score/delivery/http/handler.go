package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/middleware"
	"veyra-backend/internal/features/score/models"
)

const CacheHeader = "x-veyra-cache"

type ScoreService interface {
	Lookup(ctx context.Context, wallet string) (*models.Result, error)
	Fetch(ctx context.Context, wallet string) (*models.Score, error)
}

type ScoreHandler struct {
	service ScoreService
	limit   gin.HandlerFunc
}

// NewScoreHandler takes the rate limit middleware applied to every score route.
func NewScoreHandler(service ScoreService, limit gin.HandlerFunc) *ScoreHandler {
	return &ScoreHandler{service: service, limit: limit}
}

func (h *ScoreHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tg/verify", h.limit, h.verify)
	router.POST("/tg/verify", h.limit, h.verify)
	router.GET("/fairscore", h.limit, h.fairscore)
}

type verifyRequest struct {
	Wallet string `form:"wallet" json:"wallet" binding:"required,wallet"`
}

// @Summary Verify a wallet score
// @Description Looks up the FairScale score of an EVM or Solana wallet, served from cache when fresh.
// @Tags scores
// @Accept json
// @Produce json
// @Param wallet query string false "Wallet (GET)"
// @Success 200 {object} models.VerifyResponse
// @Header 200 {string} x-veyra-cache "HIT or MISS"
// @Failure 400 {object} middleware.ErrorResponse "Missing or invalid wallet"
// @Failure 429 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse "Score service unavailable"
// @Router /tg/verify [get]
// @Router /tg/verify [post]
func (h *ScoreHandler) verify(c *gin.Context) {
	var (
		req verifyRequest
		err error
	)
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindBodyWith(&req, binding.JSON)
	} else {
		err = c.ShouldBindQuery(&req)
	}
	if err != nil {
		middleware.Abort(c, walletBindError(req.Wallet))
		return
	}

	res, err := h.service.Lookup(c.Request.Context(), req.Wallet)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	if res.Cached {
		c.Header(CacheHeader, "HIT")
	} else {
		c.Header(CacheHeader, "MISS")
	}
	c.JSON(http.StatusOK, models.VerifyResponse{
		OK:         true,
		Data:       res.Score,
		Cached:     res.Cached,
		CacheAgeMs: res.Age.Milliseconds(),
	})
}

// walletBindError keeps the messages of service.CheckWallet.
func walletBindError(wallet string) *apperrors.AppError {
	if strings.TrimSpace(wallet) == "" {
		return apperrors.NewValidationError("wallet", "Missing wallet")
	}
	return apperrors.NewValidationError("wallet", "Invalid wallet format")
}

// @Summary Raw FairScore
// @Description Uncached FairScale lookup including the raw upstream payload.
// @Tags scores
// @Produce json
// @Param wallet query string true "Wallet"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /fairscore [get]
func (h *ScoreHandler) fairscore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	score, err := h.service.Fetch(c.Request.Context(), c.Query("wallet"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var raw interface{}
	if len(score.Raw) > 0 {
		_ = json.Unmarshal(score.Raw, &raw)
	}
	c.JSON(http.StatusOK, gin.H{
		"score":   score.Fairscore,
		"tier":    score.Tier,
		"badges":  score.Badges,
		"actions": score.Actions,
		"raw":     raw,
	})
}
