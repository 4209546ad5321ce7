package service

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/common/validation"
	authmodels "veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/campaign/models"
	"veyra-backend/internal/features/campaign/repository"
	projectmodels "veyra-backend/internal/features/project/models"
	scoremodels "veyra-backend/internal/features/score/models"
	usermodels "veyra-backend/internal/features/user/models"
)

const (
	recentLimit  = 200
	codeAttempts = 5
)

// Guard is the subset of the authorizer campaign routes need.
type Guard interface {
	RequireProjectAdmin(ctx context.Context, p *authmodels.Principal, projectID string) error
	RequireCampaignAdmin(ctx context.Context, p *authmodels.Principal, campaignID string) (*authmodels.CampaignOwnership, error)
	RequireOwnership(ctx context.Context, p *authmodels.Principal, campaignID string) (*authmodels.CampaignOwnership, error)
	RequireRecentUnlock(ctx context.Context, p *authmodels.Principal, window time.Duration) error
}

type Projects interface {
	AdminStatus(ctx context.Context, telegramUserID int64) (*projectmodels.AdminStatus, error)
	EnsureDefaultProject(ctx context.Context, name string) (*projectmodels.Project, error)
	EnsureAdmin(ctx context.Context, projectID string, telegramUserID int64) error
}

// Scores fetches a live, uncached score.
type Scores interface {
	Fetch(ctx context.Context, wallet string) (*scoremodels.Score, error)
}

type Users interface {
	GetUser(ctx context.Context, id int64) (*usermodels.User, error)
}

type FormSessions interface {
	OpenFormSession(ctx context.Context, p *authmodels.Principal, campaignID string) (*authmodels.FormSession, error)
	ValidateFormSession(ctx context.Context, id string, p *authmodels.Principal) (*authmodels.FormSession, error)
	ConsumeFormSession(ctx context.Context, id string) error
	ReleaseFormSession(ctx context.Context, id string) error
}

type Config struct {
	DefaultProject string
	UnlockWindow   time.Duration
}

type Deps struct {
	Repo     repository.CampaignRepository
	Guard    Guard
	Projects Projects
	Scores   Scores
	Users    Users
	Forms    FormSessions
}

type CampaignService struct {
	repo     repository.CampaignRepository
	guard    Guard
	projects Projects
	scores   Scores
	users    Users
	forms    FormSessions
	cfg      Config
	now      func() time.Time
}

func NewCampaignService(deps Deps, cfg Config) *CampaignService {
	return &CampaignService{
		repo:     deps.Repo,
		guard:    deps.Guard,
		projects: deps.Projects,
		scores:   deps.Scores,
		users:    deps.Users,
		forms:    deps.Forms,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ListForAdmin lists campaigns of every project the user administers, or the
// campaigns they created when they administer none.
func (s *CampaignService) ListForAdmin(ctx context.Context, p *authmodels.Principal) ([]models.Campaign, error) {
	st, err := s.projects.AdminStatus(ctx, p.TelegramUserID)
	if err != nil {
		return nil, err
	}

	var campaigns []models.Campaign
	if len(st.Projects) == 0 {
		campaigns, err = s.repo.ListByCreator(ctx, p.TelegramUserID)
	} else {
		ids := make([]string, len(st.Projects))
		for i, pr := range st.Projects {
			ids[i] = pr.ID
		}
		campaigns, err = s.repo.ListByProjects(ctx, ids)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("list_campaigns", err)
	}
	return campaigns, nil
}

// CreateInProject creates an ambassador campaign in a project the caller administers.
func (s *CampaignService) CreateInProject(ctx context.Context, p *authmodels.Principal, req models.ProjectCampaignRequest) (*models.Campaign, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	title := validation.Clip(req.Title, validation.MaxCampaignTitleLength)
	if projectID == "" {
		return nil, apperrors.NewValidationError("project_id", "missing project_id")
	}
	if title == "" {
		return nil, apperrors.NewValidationError("title", "missing title")
	}
	slots, ok := models.ParseMaxSlots(req.MaxSlots)
	if !ok {
		return nil, apperrors.NewValidationError("max_slots", "Invalid max_slots")
	}

	if err := s.guard.RequireProjectAdmin(ctx, p, projectID); err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Campaign{
		ProjectID:   projectID,
		Type:        models.TypeAmbassador,
		Title:       title,
		Description: validation.Clip(req.Description, validation.MaxCampaignDescriptionLength),
		MinTier:     models.SafeTier(req.MinTier),
		MaxSlots:    slots,
		StartsAt:    &now,
		CreatedBy:   p.TelegramUserID,
	}
	if err := s.insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Create is the wizard flow: it needs a recent /admin unlock, files the
// campaign under the default project and stores ambassador questions.
func (s *CampaignService) Create(ctx context.Context, p *authmodels.Principal, req models.CreateRequest) (*models.Created, error) {
	if err := s.guard.RequireRecentUnlock(ctx, p, s.cfg.UnlockWindow); err != nil {
		return nil, err
	}

	title := validation.Clip(req.Title, validation.MaxCampaignTitleLength)
	if title == "" {
		title = validation.Clip(req.Name, validation.MaxCampaignTitleLength)
	}
	if title == "" {
		return nil, apperrors.NewValidationError("title", "Missing title")
	}
	slots, ok := models.ParseMaxSlots(req.MaxSlots)
	if !ok {
		return nil, apperrors.NewValidationError("max_slots", "Invalid max_slots")
	}

	project, err := s.projects.EnsureDefaultProject(ctx, s.cfg.DefaultProject)
	if err != nil {
		return nil, err
	}
	if err := s.projects.EnsureAdmin(ctx, project.ID, p.TelegramUserID); err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Campaign{
		ProjectID:   project.ID,
		Type:        models.SafeType(req.Type),
		Title:       title,
		Description: validation.Clip(req.Description, validation.MaxCreateDescriptionLength),
		MinTier:     models.SafeTier(req.MinTier),
		MaxSlots:    slots,
		StartsAt:    &now,
		CreatedBy:   p.TelegramUserID,
	}
	if err := s.insert(ctx, c); err != nil {
		return nil, err
	}

	created := &models.Created{ID: c.ID, Code: c.Code, Type: c.Type}

	if c.IsAmbassador() {
		for _, q := range models.BuildQuestions(req.Questions) {
			q.CampaignID = c.ID
			if err := s.repo.AddQuestion(ctx, &q); err != nil {
				return nil, apperrors.NewStorageError("add_question", err).
					WithDetail("campaign", created)
			}
		}
	}

	logger.Info().
		Int64("user_id", p.TelegramUserID).
		Str("code", c.Code).
		Str("type", c.Type).
		Msg("Campaign created")

	return created, nil
}

// insert assigns a fresh code, retrying on the rare collision.
func (s *CampaignService) insert(ctx context.Context, c *models.Campaign) error {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := models.NewCode(models.CodePrefix(c.Type))
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to generate campaign code")
		}
		c.Code = code

		err = s.repo.Create(ctx, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return apperrors.NewStorageError("create_campaign", err)
		}
	}
	return apperrors.NewConflictError("campaign", "Could not allocate a campaign code")
}

func (s *CampaignService) Questions(ctx context.Context, p *authmodels.Principal, campaignID string) ([]models.Question, error) {
	if _, err := s.guard.RequireCampaignAdmin(ctx, p, campaignID); err != nil {
		return nil, err
	}
	qs, err := s.repo.ListQuestions(ctx, campaignID)
	if err != nil {
		return nil, apperrors.NewStorageError("list_questions", err)
	}
	return qs, nil
}

func (s *CampaignService) AddQuestion(ctx context.Context, p *authmodels.Principal, campaignID string, in models.QuestionInput) (*models.Question, error) {
	if _, err := s.guard.RequireCampaignAdmin(ctx, p, campaignID); err != nil {
		return nil, err
	}

	key := validation.Slug(in.Key, validation.MaxQuestionKeyLength)
	label := validation.Clip(in.Label, validation.MaxQuestionLabelLength)
	fieldType := strings.ToLower(strings.TrimSpace(in.FieldType))
	if fieldType == "" {
		fieldType = models.FieldText
	}

	switch {
	case key == "":
		return nil, apperrors.NewValidationError("key", "missing key")
	case label == "":
		return nil, apperrors.NewValidationError("label", "missing label")
	case models.SafeFieldType(fieldType) != fieldType:
		return nil, apperrors.NewValidationError("field_type", "invalid field_type")
	}

	next, err := s.repo.NextQuestionOrder(ctx, campaignID)
	if err != nil {
		return nil, apperrors.NewStorageError("next_question_order", err)
	}

	q := &models.Question{
		CampaignID: campaignID,
		Key:        key,
		Label:      label,
		Required:   in.Required == nil || *in.Required,
		FieldType:  fieldType,
		SortOrder:  next,
	}
	if help := validation.Clip(in.HelpText, validation.MaxHelpTextLength); help != "" {
		q.HelpText = &help
	}
	if fieldType == models.FieldSelect {
		q.Options = models.SelectOptions(in.Options)
	}

	if err := s.repo.AddQuestion(ctx, q); err != nil {
		return nil, apperrors.NewStorageError("add_question", err)
	}
	return q, nil
}

func (s *CampaignService) Tasks(ctx context.Context, p *authmodels.Principal, campaignID string) ([]models.Task, error) {
	if _, err := s.guard.RequireCampaignAdmin(ctx, p, campaignID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasks(ctx, campaignID)
	if err != nil {
		return nil, apperrors.NewStorageError("list_tasks", err)
	}
	return tasks, nil
}

func (s *CampaignService) AddTask(ctx context.Context, p *authmodels.Principal, campaignID string, in models.TaskInput) (*models.Task, error) {
	if _, err := s.guard.RequireCampaignAdmin(ctx, p, campaignID); err != nil {
		return nil, err
	}

	taskType := strings.ToLower(strings.TrimSpace(in.TaskType))
	label := validation.Clip(in.Label, validation.MaxQuestionLabelLength)
	if !models.ValidTaskType(taskType) {
		return nil, apperrors.NewValidationError("task_type", "invalid task_type")
	}
	if label == "" {
		return nil, apperrors.NewValidationError("label", "missing label")
	}

	next, err := s.repo.NextTaskOrder(ctx, campaignID)
	if err != nil {
		return nil, apperrors.NewStorageError("next_task_order", err)
	}

	t := &models.Task{
		CampaignID: campaignID,
		TaskType:   taskType,
		Label:      label,
		Required:   in.Required == nil || *in.Required,
		SortOrder:  next,
	}
	if url := validation.Clip(in.TargetURL, validation.MaxTargetURLLength); url != "" {
		t.TargetURL = &url
	}

	if err := s.repo.AddTask(ctx, t); err != nil {
		return nil, apperrors.NewStorageError("add_task", err)
	}
	return t, nil
}

// Applications is the creator's ranked view of a campaign's entries.
func (s *CampaignService) Applications(ctx context.Context, p *authmodels.Principal, campaignID string) (*models.ApplicationsResponse, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, apperrors.NewValidationError("campaign_id", "missing campaign_id")
	}
	if _, err := s.guard.RequireOwnership(ctx, p, campaignID); err != nil {
		return nil, err
	}

	c, entries, err := s.campaignWithEntries(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	models.SortEntries(entries)

	return &models.ApplicationsResponse{
		OK:           true,
		Applications: entries,
		Data: models.ApplicationsData{
			Campaign: models.CampaignSummary{ID: c.ID, Code: c.Code, Title: c.Title, Type: c.Type},
			Total:    len(entries),
			Grouped:  models.GroupEntries(entries),
		},
	}, nil
}

func (s *CampaignService) campaignWithEntries(ctx context.Context, campaignID string) (*models.Campaign, []models.Entry, error) {
	c, err := s.repo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, nil, apperrors.NewStorageError("get_campaign", err)
	}
	if c == nil {
		return nil, nil, apperrors.NewNotFoundError("campaign", campaignID)
	}
	entries, err := s.repo.ListEntries(ctx, campaignID)
	if err != nil {
		return nil, nil, apperrors.NewStorageError("list_entries", err)
	}
	return c, entries, nil
}

// ListRecent backs the Mini App campaign list.
func (s *CampaignService) ListRecent(ctx context.Context) ([]models.Campaign, error) {
	campaigns, err := s.repo.ListRecent(ctx, recentLimit)
	if err != nil {
		return nil, apperrors.NewStorageError("list_campaigns", err)
	}
	return campaigns, nil
}

// Public filters by id or code and optionally by liveness, then normalises.
func (s *CampaignService) Public(ctx context.Context, onlyLive bool, id string) ([]models.PublicCampaign, error) {
	campaigns, err := s.ListRecent(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	id = strings.TrimSpace(id)
	out := make([]models.PublicCampaign, 0, len(campaigns))
	for i := range campaigns {
		c := &campaigns[i]
		if id != "" && c.ID != id && c.Code != id {
			continue
		}
		if onlyLive && !c.LiveAt(now) {
			continue
		}
		out = append(out, c.ToPublic(now))
	}
	return out, nil
}

// OwnershipLookup adapts the repository to the authorizer.
type OwnershipLookup struct {
	repo repository.CampaignRepository
}

func NewOwnershipLookup(repo repository.CampaignRepository) *OwnershipLookup {
	return &OwnershipLookup{repo: repo}
}

func (l *OwnershipLookup) GetOwnership(ctx context.Context, campaignID string) (*authmodels.CampaignOwnership, error) {
	c, err := l.repo.GetByID(ctx, campaignID)
	if err != nil || c == nil {
		return nil, err
	}
	return &authmodels.CampaignOwnership{
		CampaignID: c.ID,
		ProjectID:  c.ProjectID,
		CreatedBy:  c.CreatedBy,
	}, nil
}
