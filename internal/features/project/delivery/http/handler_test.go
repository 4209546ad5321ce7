package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/middleware"
	authmodels "veyra-backend/internal/features/auth/models"
	authservice "veyra-backend/internal/features/auth/service"
	"veyra-backend/internal/features/project/models"
)

type stubAuth struct{ p *authmodels.Principal }

func (s stubAuth) Authenticate(context.Context, authservice.Credentials, authservice.Policy) (*authmodels.Principal, error) {
	return s.p, nil
}

type stubService struct {
	redeemed string
}

func (s *stubService) IsProjectAdmin(context.Context, string, int64) (bool, error) { return true, nil }

func (s *stubService) AdminStatus(_ context.Context, uid int64) (*models.AdminStatus, error) {
	return &models.AdminStatus{OK: true, TelegramUserID: uid, IsAdmin: true, Projects: []models.Project{{ID: "p1", Name: "Veyra"}}}, nil
}

func (s *stubService) RedeemInvite(_ context.Context, _ int64, code string) (*models.Project, error) {
	s.redeemed = code
	if code == "BAD" {
		return nil, apperrors.NewBadRequestError("Invalid invite code")
	}
	return &models.Project{ID: "p1", Name: "Veyra"}, nil
}

func (s *stubService) EnsureDefaultProject(context.Context, string) (*models.Project, error) {
	return &models.Project{ID: "p1"}, nil
}

func (s *stubService) EnsureAdmin(context.Context, string, int64) error { return nil }

func newRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.HandleErrors())
	NewProjectHandler(svc, stubAuth{p: &authmodels.Principal{TelegramUserID: 111}}).RegisterRoutes(r.Group("/api"))
	return r
}

func TestStatus(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&stubService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tg/admin", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var st models.AdminStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.IsAdmin)
	assert.Equal(t, int64(111), st.TelegramUserID)
}

func TestRedeem(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tg/admin", strings.NewReader(`{"initData":"x","inviteCode":"JOIN-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "JOIN-1", svc.redeemed)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/tg/admin", strings.NewReader(`{"inviteCode":"BAD"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid invite code")
}
