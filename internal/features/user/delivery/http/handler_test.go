package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/middleware"
	authmodels "veyra-backend/internal/features/auth/models"
	authservice "veyra-backend/internal/features/auth/service"
	"veyra-backend/internal/features/user/models"
)

type stubAuth struct {
	principal *authmodels.Principal
	err       error
}

func (s stubAuth) Authenticate(context.Context, authservice.Credentials, authservice.Policy) (*authmodels.Principal, error) {
	return s.principal, s.err
}

type stubUsers struct {
	user *models.User
	err  error
}

func (s stubUsers) Touch(context.Context, *models.User) error { return nil }
func (s stubUsers) GetUser(context.Context, int64) (*models.User, error) {
	return s.user, s.err
}
func (s stubUsers) GetOrCreateUser(context.Context, int64, string, string, string) (*models.User, error) {
	return s.user, s.err
}
func (s stubUsers) SaveWallet(context.Context, int64, string, string, float64) error { return nil }
func (s stubUsers) UpdateLastKnown(context.Context, int64, string, float64) error   { return nil }

func serve(h *UserHandler, method string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.HandleErrors())
	h.RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, "/api/tg/me", nil))
	return w
}

func TestGetMe(t *testing.T) {
	p := &authmodels.Principal{TelegramUserID: 111, Username: "ada", Via: authmodels.ViaInitData}
	users := stubUsers{user: &models.User{TelegramUserID: 111, FirstName: "Ada", SavedWallet: "0xabc"}}

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := serve(NewUserHandler(users, stubAuth{principal: p}), method)
		require.Equal(t, http.StatusOK, w.Code)

		var res models.MeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.OK)
		assert.Equal(t, int64(111), res.Data.TelegramUserID)
		assert.Equal(t, "ada", res.Data.Username)
		assert.Equal(t, "0xabc", res.Data.SavedWallet)
	}
}

func TestGetMeUnauthorized(t *testing.T) {
	w := serve(NewUserHandler(stubUsers{}, stubAuth{err: apperrors.NewUnauthorizedError("no_credentials", nil)}), http.MethodGet)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
