package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veyra-backend/internal/common/middleware"
	"veyra-backend/internal/common/validation"
	"veyra-backend/internal/features/score/cache"
	"veyra-backend/internal/features/score/models"
	"veyra-backend/internal/features/score/service"
)

const wallet = "0x52908400098527886E0F7030069857D2E4169EE7"

type countingFetcher struct{ calls int }

func (f *countingFetcher) Fetch(_ context.Context, w string) (*models.Score, error) {
	f.calls++
	return &models.Score{
		Wallet:    w,
		Fairscore: 17.9,
		Tier:      models.TierBronze,
		Badges:    []models.Badge{},
		Actions:   []models.Action{},
		Raw:       json.RawMessage(`{"fairscore":17.9,"tier":"bronze"}`),
	}, nil
}

func newRouter(f *countingFetcher, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterBindings(); err != nil {
		panic(err)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.HandleErrors())

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Name: "score", Requests: limit, Window: time.Minute}, nil)
	svc := service.NewScoreService(f, cache.NewMemory(5*time.Minute, 500))
	NewScoreHandler(svc, limiter.Middleware()).RegisterRoutes(r.Group("/api"))
	return r
}

func TestVerifyCacheHeader(t *testing.T) {
	f := &countingFetcher{}
	r := newRouter(f, 100)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tg/verify?wallet="+wallet, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tg/verify", strings.NewReader(`{"wallet":"`+strings.ToLower(wallet)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))

	var res models.VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.OK)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, f.calls)
}

func TestVerifyInvalidWallet(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&countingFetcher{}, 100).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tg/verify?wallet=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid wallet format")
}

func TestVerifyBindingRejectsBadWallet(t *testing.T) {
	f := &countingFetcher{}
	r := newRouter(f, 100)

	tests := []struct {
		name string
		req  func() *http.Request
		want string
	}{
		{
			name: "post invalid",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/tg/verify", strings.NewReader(`{"wallet":"0x1234"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			want: "Invalid wallet format",
		},
		{
			name: "post missing",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/tg/verify", strings.NewReader(`{}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			want: "Missing wallet",
		},
		{
			name: "get missing",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/tg/verify", nil)
			},
			want: "Missing wallet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req())
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
	assert.Equal(t, 0, f.calls)
}

func TestVerifyRateLimited(t *testing.T) {
	r := newRouter(&countingFetcher{}, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tg/verify?wallet="+wallet, nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestFairscore(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&countingFetcher{}, 100).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fairscore?wallet="+wallet, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 17.9, body["score"])
	assert.Equal(t, "bronze", body["tier"])
	assert.NotNil(t, body["raw"])
}
