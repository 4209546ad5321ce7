package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "veyra-backend/internal/common/errors"
	authmodels "veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/campaign/models"
	"veyra-backend/internal/features/campaign/repository"
	projectmodels "veyra-backend/internal/features/project/models"
	scoremodels "veyra-backend/internal/features/score/models"
	usermodels "veyra-backend/internal/features/user/models"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, c *models.Campaign) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil {
		c.ID = "c1"
	}
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *mockRepo) GetByCode(ctx context.Context, code string) (*models.Campaign, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *mockRepo) ListByProjects(ctx context.Context, ids []string) ([]models.Campaign, error) {
	args := m.Called(ctx, ids)
	list, _ := args.Get(0).([]models.Campaign)
	return list, args.Error(1)
}

func (m *mockRepo) ListByCreator(ctx context.Context, uid int64) ([]models.Campaign, error) {
	args := m.Called(ctx, uid)
	list, _ := args.Get(0).([]models.Campaign)
	return list, args.Error(1)
}

func (m *mockRepo) ListRecent(ctx context.Context, limit int) ([]models.Campaign, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]models.Campaign)
	return list, args.Error(1)
}

func (m *mockRepo) ListQuestions(ctx context.Context, id string) ([]models.Question, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]models.Question)
	return list, args.Error(1)
}

func (m *mockRepo) AddQuestion(ctx context.Context, q *models.Question) error {
	return m.Called(ctx, q).Error(0)
}

func (m *mockRepo) NextQuestionOrder(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) ListTasks(ctx context.Context, id string) ([]models.Task, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]models.Task)
	return list, args.Error(1)
}

func (m *mockRepo) AddTask(ctx context.Context, t *models.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockRepo) NextTaskOrder(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) AddEntry(ctx context.Context, e *models.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockRepo) ListEntries(ctx context.Context, id string) ([]models.Entry, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]models.Entry)
	return list, args.Error(1)
}

type mockGuard struct{ mock.Mock }

func (m *mockGuard) RequireProjectAdmin(ctx context.Context, p *authmodels.Principal, projectID string) error {
	return m.Called(ctx, p, projectID).Error(0)
}

func (m *mockGuard) RequireCampaignAdmin(ctx context.Context, p *authmodels.Principal, id string) (*authmodels.CampaignOwnership, error) {
	args := m.Called(ctx, p, id)
	own, _ := args.Get(0).(*authmodels.CampaignOwnership)
	return own, args.Error(1)
}

func (m *mockGuard) RequireOwnership(ctx context.Context, p *authmodels.Principal, id string) (*authmodels.CampaignOwnership, error) {
	args := m.Called(ctx, p, id)
	own, _ := args.Get(0).(*authmodels.CampaignOwnership)
	return own, args.Error(1)
}

func (m *mockGuard) RequireRecentUnlock(ctx context.Context, p *authmodels.Principal, window time.Duration) error {
	return m.Called(ctx, p, window).Error(0)
}

type mockProjects struct{ mock.Mock }

func (m *mockProjects) AdminStatus(ctx context.Context, uid int64) (*projectmodels.AdminStatus, error) {
	args := m.Called(ctx, uid)
	st, _ := args.Get(0).(*projectmodels.AdminStatus)
	return st, args.Error(1)
}

func (m *mockProjects) EnsureDefaultProject(ctx context.Context, name string) (*projectmodels.Project, error) {
	args := m.Called(ctx, name)
	p, _ := args.Get(0).(*projectmodels.Project)
	return p, args.Error(1)
}

func (m *mockProjects) EnsureAdmin(ctx context.Context, projectID string, uid int64) error {
	return m.Called(ctx, projectID, uid).Error(0)
}

type mockScores struct{ mock.Mock }

func (m *mockScores) Fetch(ctx context.Context, wallet string) (*scoremodels.Score, error) {
	args := m.Called(ctx, wallet)
	s, _ := args.Get(0).(*scoremodels.Score)
	return s, args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) GetUser(ctx context.Context, id int64) (*usermodels.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*usermodels.User)
	return u, args.Error(1)
}

type mockForms struct{ mock.Mock }

func (m *mockForms) OpenFormSession(ctx context.Context, p *authmodels.Principal, id string) (*authmodels.FormSession, error) {
	args := m.Called(ctx, p, id)
	fs, _ := args.Get(0).(*authmodels.FormSession)
	return fs, args.Error(1)
}

func (m *mockForms) ValidateFormSession(ctx context.Context, id string, p *authmodels.Principal) (*authmodels.FormSession, error) {
	args := m.Called(ctx, id, p)
	fs, _ := args.Get(0).(*authmodels.FormSession)
	return fs, args.Error(1)
}

func (m *mockForms) ConsumeFormSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockForms) ReleaseFormSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type fixture struct {
	svc      *CampaignService
	repo     *mockRepo
	guard    *mockGuard
	projects *mockProjects
	scores   *mockScores
	users    *mockUsers
	forms    *mockForms
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(mockRepo),
		guard:    new(mockGuard),
		projects: new(mockProjects),
		scores:   new(mockScores),
		users:    new(mockUsers),
		forms:    new(mockForms),
	}
	f.svc = NewCampaignService(Deps{
		Repo:     f.repo,
		Guard:    f.guard,
		Projects: f.projects,
		Scores:   f.scores,
		Users:    f.users,
		Forms:    f.forms,
	}, Config{DefaultProject: "Veyra", UnlockWindow: 10 * time.Minute})
	return f
}

var (
	ctx    = context.Background()
	admin  = &authmodels.Principal{TelegramUserID: 999, Via: authmodels.ViaSession}
	wallet = "0x" + strings.Repeat("a", 40)
)

func TestListForAdmin(t *testing.T) {
	t.Run("projects", func(t *testing.T) {
		f := newFixture()
		f.projects.On("AdminStatus", ctx, int64(999)).Return(&projectmodels.AdminStatus{Projects: []projectmodels.Project{{ID: "p1"}, {ID: "p2"}}}, nil)
		f.repo.On("ListByProjects", ctx, []string{"p1", "p2"}).Return([]models.Campaign{{ID: "c1", EntriesCount: 4}}, nil)

		list, err := f.svc.ListForAdmin(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, 4, list[0].EntriesCount)
		f.repo.AssertNotCalled(t, "ListByCreator", mock.Anything, mock.Anything)
	})

	t.Run("creator fallback", func(t *testing.T) {
		f := newFixture()
		f.projects.On("AdminStatus", ctx, int64(999)).Return(&projectmodels.AdminStatus{Projects: []projectmodels.Project{}}, nil)
		f.repo.On("ListByCreator", ctx, int64(999)).Return([]models.Campaign{{ID: "c2"}}, nil)

		list, err := f.svc.ListForAdmin(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, "c2", list[0].ID)
	})
}

func TestCreate(t *testing.T) {
	f := newFixture()
	f.guard.On("RequireRecentUnlock", ctx, admin, 10*time.Minute).Return(nil)
	f.projects.On("EnsureDefaultProject", ctx, "Veyra").Return(&projectmodels.Project{ID: "p1"}, nil)
	f.projects.On("EnsureAdmin", ctx, "p1", int64(999)).Return(nil)
	f.repo.On("Create", ctx, mock.MatchedBy(func(c *models.Campaign) bool {
		return c.Type == models.TypeAmbassador && strings.HasPrefix(c.Code, "AMB-") &&
			c.Title == "Ambassadors" && c.MinTier == "silver" && c.ProjectID == "p1" && *c.MaxSlots == 5
	})).Return(nil)
	f.repo.On("AddQuestion", ctx, mock.MatchedBy(func(q *models.Question) bool {
		return q.CampaignID == "c1"
	})).Return(nil).Twice()

	created, err := f.svc.Create(ctx, admin, models.CreateRequest{
		Name:      "Ambassadors",
		MinTier:   "SILVER",
		MaxSlots:  "5",
		Questions: []models.QuestionInput{{Label: "Handle"}, {Label: ""}, {Label: "Why"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", created.ID)
	assert.Equal(t, models.TypeAmbassador, created.Type)
	f.repo.AssertExpectations(t)
}

func TestCreate_DropIgnoresQuestions(t *testing.T) {
	f := newFixture()
	f.guard.On("RequireRecentUnlock", ctx, admin, mock.Anything).Return(nil)
	f.projects.On("EnsureDefaultProject", ctx, "Veyra").Return(&projectmodels.Project{ID: "p1"}, nil)
	f.projects.On("EnsureAdmin", ctx, "p1", int64(999)).Return(nil)
	f.repo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicateCode).Once()
	f.repo.On("Create", ctx, mock.Anything).Return(nil).Once()

	created, err := f.svc.Create(ctx, admin, models.CreateRequest{Type: "drop", Title: "Drop", Questions: []models.QuestionInput{{Label: "x"}}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Code, "DRP-"))
	f.repo.AssertNotCalled(t, "AddQuestion", mock.Anything, mock.Anything)
	f.repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestCreate_Rejections(t *testing.T) {
	t.Run("not unlocked", func(t *testing.T) {
		f := newFixture()
		f.guard.On("RequireRecentUnlock", ctx, admin, mock.Anything).Return(apperrors.NewAdminNotUnlockedError())
		_, err := f.svc.Create(ctx, admin, models.CreateRequest{Title: "x"})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAdminNotUnlocked))
		f.projects.AssertNotCalled(t, "EnsureDefaultProject", mock.Anything, mock.Anything)
	})

	for name, req := range map[string]models.CreateRequest{
		"Missing title":     {Title: "   "},
		"Invalid max_slots": {Title: "x", MaxSlots: float64(-1)},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.guard.On("RequireRecentUnlock", ctx, admin, mock.Anything).Return(nil)
			_, err := f.svc.Create(ctx, admin, req)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
			assert.Equal(t, name, appErr.Message)
		})
	}
}

func TestCreateInProject(t *testing.T) {
	f := newFixture()
	f.guard.On("RequireProjectAdmin", ctx, admin, "p1").Return(nil)
	f.repo.On("Create", ctx, mock.MatchedBy(func(c *models.Campaign) bool {
		return strings.HasPrefix(c.Code, "AMB-") && len(c.Title) == 80 && len(c.Description) == 300
	})).Return(nil)

	c, err := f.svc.CreateInProject(ctx, admin, models.ProjectCampaignRequest{
		ProjectID:   "p1",
		Title:       strings.Repeat("t", 100),
		Description: strings.Repeat("d", 400),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TypeAmbassador, c.Type)

	_, err = f.svc.CreateInProject(ctx, admin, models.ProjectCampaignRequest{Title: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	f2 := newFixture()
	f2.guard.On("RequireProjectAdmin", ctx, admin, "p2").Return(apperrors.NewForbiddenError("Not a project admin"))
	_, err = f2.svc.CreateInProject(ctx, admin, models.ProjectCampaignRequest{ProjectID: "p2", Title: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeForbidden))
}

func TestAddQuestion(t *testing.T) {
	f := newFixture()
	f.guard.On("RequireCampaignAdmin", ctx, admin, "c1").Return(&authmodels.CampaignOwnership{CampaignID: "c1"}, nil)
	f.repo.On("NextQuestionOrder", ctx, "c1").Return(30, nil)
	f.repo.On("AddQuestion", ctx, mock.Anything).Return(nil)

	q, err := f.svc.AddQuestion(ctx, admin, "c1", models.QuestionInput{Key: "Twitter Handle", Label: "Handle", FieldType: "select"})
	require.NoError(t, err)
	assert.Equal(t, "twitter_handle", q.Key)
	assert.Equal(t, 30, q.SortOrder)
	assert.Equal(t, []string{"Option 1", "Option 2"}, q.Options)
	assert.True(t, q.Required)

	for _, tt := range []struct {
		in  models.QuestionInput
		msg string
	}{
		{models.QuestionInput{Label: "x"}, "missing key"},
		{models.QuestionInput{Key: "k"}, "missing label"},
		{models.QuestionInput{Key: "k", Label: "x", FieldType: "radio"}, "invalid field_type"},
	} {
		_, err := f.svc.AddQuestion(ctx, admin, "c1", tt.in)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, tt.msg, appErr.Message)
	}
}

func TestAddTask(t *testing.T) {
	f := newFixture()
	f.guard.On("RequireCampaignAdmin", ctx, admin, "c1").Return(&authmodels.CampaignOwnership{CampaignID: "c1"}, nil)
	f.repo.On("NextTaskOrder", ctx, "c1").Return(10, nil)
	f.repo.On("AddTask", ctx, mock.Anything).Return(nil)

	task, err := f.svc.AddTask(ctx, admin, "c1", models.TaskInput{TaskType: " Follow ", Label: "Follow us", TargetURL: strings.Repeat("u", 400)})
	require.NoError(t, err)
	assert.Equal(t, models.TaskFollow, task.TaskType)
	assert.Len(t, *task.TargetURL, 300)

	_, err = f.svc.AddTask(ctx, admin, "c1", models.TaskInput{TaskType: "like", Label: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
	_, err = f.svc.AddTask(ctx, admin, "c1", models.TaskInput{TaskType: "join"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	f2 := newFixture()
	f2.guard.On("RequireCampaignAdmin", ctx, admin, "gone").Return(nil, apperrors.NewNotFoundError("campaign", "gone"))
	_, err = f2.svc.Tasks(ctx, admin, "gone")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func score(v float64) *float64 { return &v }

func TestApplications(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.guard.On("RequireOwnership", ctx, admin, "c1").Return(&authmodels.CampaignOwnership{CampaignID: "c1", CreatedBy: 999}, nil)
	f.repo.On("GetByID", ctx, "c1").Return(&models.Campaign{ID: "c1", Code: "AMB-AAAA", Title: "T", Type: models.TypeAmbassador}, nil)
	f.repo.On("ListEntries", ctx, "c1").Return([]models.Entry{
		{ID: "b", Tier: "bronze", Fairscore: score(80), CreatedAt: now},
		{ID: "g", Tier: "gold", Fairscore: score(20), CreatedAt: now},
		{ID: "x", Tier: "", CreatedAt: now},
	}, nil)

	res, err := f.svc.Applications(ctx, admin, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Data.Total)
	assert.Equal(t, "g", res.Applications[0].ID)
	assert.Equal(t, "AMB-AAAA", res.Data.Campaign.Code)
	assert.Len(t, res.Data.Grouped.Gold, 1)
	assert.Len(t, res.Data.Grouped.Other, 1)

	_, err = f.svc.Applications(ctx, admin, " ")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestApplications_NotOwner(t *testing.T) {
	f := newFixture()
	f.guard.On("RequireOwnership", ctx, admin, "c1").Return(nil, apperrors.NewForbiddenError("Not campaign owner"))
	_, err := f.svc.Applications(ctx, admin, "c1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeForbidden))
	f.repo.AssertNotCalled(t, "ListEntries", mock.Anything, mock.Anything)
}

func TestPublic(t *testing.T) {
	f := newFixture()
	past, future := time.Now().Add(-time.Hour), time.Now().Add(time.Hour)
	f.repo.On("ListRecent", ctx, 200).Return([]models.Campaign{
		{ID: "u1", Code: "DRP-LIVE", Title: "Live", StartsAt: &past},
		{ID: "u2", Code: "DRP-SOON", Title: "Soon", StartsAt: &future},
		{ID: "u3", Title: "Ended", StartsAt: &past, EndsAt: &past},
	}, nil)

	all, err := f.svc.Public(ctx, false, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "u3", all[2].ID)

	live, err := f.svc.Public(ctx, true, "")
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "DRP-LIVE", live[0].ID)

	byID, err := f.svc.Public(ctx, false, "u2")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "DRP-SOON", byID[0].ID)
}

func TestOwnershipLookup(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetByID", ctx, "c1").Return(&models.Campaign{ID: "c1", ProjectID: "p1", CreatedBy: 7}, nil)
	repo.On("GetByID", ctx, "c2").Return(nil, nil)

	own, err := NewOwnershipLookup(repo).GetOwnership(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, &authmodels.CampaignOwnership{CampaignID: "c1", ProjectID: "p1", CreatedBy: 7}, own)

	own, err = NewOwnershipLookup(repo).GetOwnership(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, own)
}
