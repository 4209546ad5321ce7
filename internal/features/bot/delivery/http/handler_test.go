package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"veyra-backend/internal/common/middleware"
)

type recorder struct{ updates []tele.Update }

func (r *recorder) ProcessUpdate(u tele.Update) { r.updates = append(r.updates, u) }

func newRouter(bot UpdateProcessor, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.HandleErrors())
	NewWebhookHandler(bot, secret).RegisterRoutes(r.Group("/api"))
	return r
}

func post(r http.Handler, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(secretHeader, secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const update = `{"update_id":7,"message":{"message_id":1,"date":0,"chat":{"id":111,"type":"private"},"from":{"id":111,"first_name":"Ann"},"text":"/help"}}`

func TestWebhookSecret(t *testing.T) {
	rec := &recorder{}
	r := newRouter(rec, "s3cret")

	w := post(r, update, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, update, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, rec.updates)

	w = post(r, update, "s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, rec.updates, 1)
	assert.Equal(t, 7, rec.updates[0].ID)
	assert.Equal(t, "/help", rec.updates[0].Message.Text)
	assert.Equal(t, int64(111), rec.updates[0].Message.Sender.ID)
}

func TestWebhookWithoutSecret(t *testing.T) {
	rec := &recorder{}
	w := post(newRouter(rec, ""), update, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, rec.updates, 1)
}

func TestWebhookBadBody(t *testing.T) {
	rec := &recorder{}
	w := post(newRouter(rec, ""), "{not json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Empty(t, rec.updates)
}
