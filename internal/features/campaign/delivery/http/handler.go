package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"veyra-backend/internal/common/middleware"
	authhttp "veyra-backend/internal/features/auth/delivery/http"
	authmodels "veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/campaign/models"
	"veyra-backend/internal/features/campaign/service"
)

// Service is the campaign surface the HTTP layer uses.
type Service interface {
	ListForAdmin(ctx context.Context, p *authmodels.Principal) ([]models.Campaign, error)
	CreateInProject(ctx context.Context, p *authmodels.Principal, req models.ProjectCampaignRequest) (*models.Campaign, error)
	Create(ctx context.Context, p *authmodels.Principal, req models.CreateRequest) (*models.Created, error)
	Questions(ctx context.Context, p *authmodels.Principal, campaignID string) ([]models.Question, error)
	AddQuestion(ctx context.Context, p *authmodels.Principal, campaignID string, in models.QuestionInput) (*models.Question, error)
	Tasks(ctx context.Context, p *authmodels.Principal, campaignID string) ([]models.Task, error)
	AddTask(ctx context.Context, p *authmodels.Principal, campaignID string, in models.TaskInput) (*models.Task, error)
	Applications(ctx context.Context, p *authmodels.Principal, campaignID string) (*models.ApplicationsResponse, error)
	ExportCSV(ctx context.Context, p *authmodels.Principal, campaignID string) (*service.Export, error)
	ListRecent(ctx context.Context) ([]models.Campaign, error)
	Public(ctx context.Context, onlyLive bool, id string) ([]models.PublicCampaign, error)
	ApplySession(ctx context.Context, p *authmodels.Principal, sid string) (*models.ApplySession, error)
	Submit(ctx context.Context, p *authmodels.Principal, sid string, answers map[string]string) (*models.Entry, error)
}

type CampaignHandler struct {
	service     Service
	auth        authhttp.Authenticator
	publicCache gin.HandlerFunc
}

// NewCampaignHandler takes an optional cache middleware for the public list.
func NewCampaignHandler(service Service, auth authhttp.Authenticator, publicCache gin.HandlerFunc) *CampaignHandler {
	return &CampaignHandler{service: service, auth: auth, publicCache: publicCache}
}

func (h *CampaignHandler) RegisterRoutes(router *gin.RouterGroup) {
	table := authhttp.DefaultCredentialTable

	admin := router.Group("/tg/admin")
	admin.Use(authhttp.RequirePrincipal(h.auth, table, authhttp.AdminSession))
	{
		admin.GET("/campaigns", h.listAdmin)
		admin.POST("/campaigns", h.createInProject)
		admin.POST("/create-campaign", h.create)
		admin.GET("/campaigns/:id/questions", h.listQuestions)
		admin.POST("/campaigns/:id/questions", h.addQuestion)
		admin.GET("/campaigns/:id/tasks", h.listTasks)
		admin.POST("/campaigns/:id/tasks", h.addTask)
	}

	router.GET("/tg/admin/applications",
		authhttp.RequirePrincipal(h.auth, table, authhttp.StrictAdminSession), h.applications)
	router.GET("/tg/admin/export-csv",
		authhttp.RequirePrincipal(h.auth, table, authhttp.AdminSessionOnly), h.exportCSV)

	// form routes carry a form session id in "sid", so app sessions stay off
	member := router.Group("/tg")
	member.Use(authhttp.RequirePrincipal(h.auth, table, authhttp.InitDataOnly))
	{
		member.GET("/campaigns", h.listRecent)
		member.POST("/apply/session", h.applySession)
		member.POST("/apply/submit", h.applySubmit)
	}

	public := []gin.HandlerFunc{}
	if h.publicCache != nil {
		public = append(public, h.publicCache)
	}
	router.GET("/campaigns", append(public, h.listPublic)...)
}

// @Summary List admin campaigns
// @Description Campaigns of every project the caller administers, with entry counts.
// @Tags campaigns
// @Produce json
// @Security AdminSession
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} middleware.ErrorResponse
// @Router /tg/admin/campaigns [get]
func (h *CampaignHandler) listAdmin(c *gin.Context) {
	campaigns, err := h.service.ListForAdmin(c.Request.Context(), authhttp.PrincipalFrom(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "campaigns": campaigns})
}

// @Summary Create a project campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security AdminSession
// @Param request body models.ProjectCampaignRequest true "Campaign"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse "Not a project admin"
// @Router /tg/admin/campaigns [post]
func (h *CampaignHandler) createInProject(c *gin.Context) {
	var req models.ProjectCampaignRequest
	_ = c.ShouldBindBodyWith(&req, binding.JSON)

	campaign, err := h.service.CreateInProject(c.Request.Context(), authhttp.PrincipalFrom(c), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "campaign": campaign})
}

// @Summary Create a campaign from the admin wizard
// @Description Requires a recent /admin unlock in the bot.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security AdminSession
// @Param request body models.CreateRequest true "Campaign"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse "Admin not unlocked"
// @Router /tg/admin/create-campaign [post]
func (h *CampaignHandler) create(c *gin.Context) {
	var req models.CreateRequest
	_ = c.ShouldBindBodyWith(&req, binding.JSON)

	created, err := h.service.Create(c.Request.Context(), authhttp.PrincipalFrom(c), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": created})
}

// @Summary List campaign questions
// @Tags campaigns
// @Produce json
// @Security AdminSession
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tg/admin/campaigns/{id}/questions [get]
func (h *CampaignHandler) listQuestions(c *gin.Context) {
	qs, err := h.service.Questions(c.Request.Context(), authhttp.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "questions": qs})
}

// @Summary Add a campaign question
// @Tags campaigns
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path string true "Campaign ID"
// @Param request body models.QuestionInput true "Question"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Router /tg/admin/campaigns/{id}/questions [post]
func (h *CampaignHandler) addQuestion(c *gin.Context) {
	var in models.QuestionInput
	_ = c.ShouldBindBodyWith(&in, binding.JSON)

	q, err := h.service.AddQuestion(c.Request.Context(), authhttp.PrincipalFrom(c), c.Param("id"), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "question": q})
}

// @Summary List campaign tasks
// @Tags campaigns
// @Produce json
// @Security AdminSession
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Router /tg/admin/campaigns/{id}/tasks [get]
func (h *CampaignHandler) listTasks(c *gin.Context) {
	tasks, err := h.service.Tasks(c.Request.Context(), authhttp.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": tasks})
}

// @Summary Add a campaign task
// @Tags campaigns
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path string true "Campaign ID"
// @Param request body models.TaskInput true "Task"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Router /tg/admin/campaigns/{id}/tasks [post]
func (h *CampaignHandler) addTask(c *gin.Context) {
	var in models.TaskInput
	_ = c.ShouldBindBodyWith(&in, binding.JSON)

	task, err := h.service.AddTask(c.Request.Context(), authhttp.PrincipalFrom(c), c.Param("id"), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": task})
}

// @Summary Campaign applications
// @Description Entries ranked by tier and fairscore, grouped by tier. Needs the admin session and initData of the same user.
// @Tags campaigns
// @Produce json
// @Security AdminSession
// @Param campaign_id query string true "Campaign ID"
// @Success 200 {object} models.ApplicationsResponse
// @Failure 403 {object} middleware.ErrorResponse "Not campaign owner"
// @Router /tg/admin/applications [get]
func (h *CampaignHandler) applications(c *gin.Context) {
	res, err := h.service.Applications(c.Request.Context(), authhttp.PrincipalFrom(c), c.Query("campaign_id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Export applications as CSV
// @Tags campaigns
// @Produce text/csv
// @Param campaign_id query string true "Campaign ID"
// @Param sid query string true "Admin session ID"
// @Success 200 {file} file
// @Failure 401 {object} middleware.ErrorResponse
// @Router /tg/admin/export-csv [get]
func (h *CampaignHandler) exportCSV(c *gin.Context) {
	exp, err := h.service.ExportCSV(c.Request.Context(), authhttp.PrincipalFrom(c), c.Query("campaign_id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exp.Filename+`"`)
	c.Header("Cache-Control", "no-store, max-age=0")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", exp.Body)
}

// @Summary List campaigns
// @Description Newest 200 campaigns for the Mini App.
// @Tags campaigns
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} map[string]interface{}
// @Router /tg/campaigns [get]
func (h *CampaignHandler) listRecent(c *gin.Context) {
	campaigns, err := h.service.ListRecent(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "campaigns": campaigns})
}

// @Summary Public campaign list
// @Tags campaigns
// @Produce json
// @Param onlyLive query string false "1 to list only live campaigns"
// @Param id query string false "Campaign code or ID"
// @Success 200 {object} models.PublicResponse
// @Router /campaigns [get]
func (h *CampaignHandler) listPublic(c *gin.Context) {
	campaigns, err := h.service.Public(c.Request.Context(), c.Query("onlyLive") == "1", c.Query("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	res := models.PublicResponse{Campaigns: campaigns, Source: "postgres.campaigns"}
	if len(campaigns) == 0 {
		res.Note = "No matching campaigns found in DB."
	}
	c.JSON(http.StatusOK, res)
}

type applyRequest struct {
	SID     string            `json:"sid"`
	Session string            `json:"session"`
	Answers map[string]string `json:"answers"`
}

func (r applyRequest) sid() string {
	if r.SID != "" {
		return r.SID
	}
	return r.Session
}

// @Summary Load an application form
// @Tags applications
// @Accept json
// @Produce json
// @Param request body applyRequest true "Form session and initData"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse "Wrong user or not eligible"
// @Router /tg/apply/session [post]
func (h *CampaignHandler) applySession(c *gin.Context) {
	var req applyRequest
	_ = c.ShouldBindBodyWith(&req, binding.JSON)

	res, err := h.service.ApplySession(c.Request.Context(), authhttp.PrincipalFrom(c), req.sid())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": res})
}

// @Summary Submit an application
// @Tags applications
// @Accept json
// @Produce json
// @Param request body applyRequest true "Form session, initData and answers"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Already applied or campaign full"
// @Router /tg/apply/submit [post]
func (h *CampaignHandler) applySubmit(c *gin.Context) {
	var req applyRequest
	_ = c.ShouldBindBodyWith(&req, binding.JSON)

	entry, err := h.service.Submit(c.Request.Context(), authhttp.PrincipalFrom(c), req.sid(), req.Answers)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"id": entry.ID, "created_at": entry.CreatedAt}})
}
