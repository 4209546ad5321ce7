package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"veyra-backend/internal/features/auth/fallback"
	"veyra-backend/internal/features/auth/service"
)

// CredentialTable lists where each credential may appear on a request.
// Lookups go in slice order and the first non-empty value wins.
type CredentialTable struct {
	SessionHeaders  []string
	SessionQuery    []string
	SessionBody     []string
	InitDataHeaders []string
	InitDataBody    []string
	// Fallback fields are read from the query first and then the body.
	FallbackUID    string
	FallbackTS     string
	FallbackSig    string
	FallbackWallet string
}

var DefaultCredentialTable = CredentialTable{
	SessionHeaders:  []string{"x-app-sid", "x-admin-sid"},
	SessionQuery:    []string{"sid"},
	SessionBody:     []string{"sid", "session"},
	InitDataHeaders: []string{"x-tg-initdata", "x-telegram-initdata", "x-tg-init-data", "x-telegram-init-data"},
	InitDataBody:    []string{"initData", "init_data"},
	FallbackUID:     "uid",
	FallbackTS:      "ts",
	FallbackSig:     "sig",
	FallbackWallet:  "w",
}

// Headers returns every request header the table reads, for CORS preflights.
func (t CredentialTable) Headers() []string {
	headers := make([]string, 0, len(t.SessionHeaders)+len(t.InitDataHeaders)+1)
	headers = append(headers, "Authorization")
	headers = append(headers, t.SessionHeaders...)
	return append(headers, t.InitDataHeaders...)
}

// Extract collects every credential present on the request. JSON bodies are
// read through ShouldBindBodyWith so handlers can bind the same body again.
func (t CredentialTable) Extract(c *gin.Context) service.Credentials {
	body := jsonBody(c)

	sid := firstHeader(c, t.SessionHeaders)
	if sid == "" {
		sid = bearerToken(c.GetHeader("Authorization"))
	}
	if sid == "" {
		sid = firstQuery(c, t.SessionQuery)
	}
	if sid == "" {
		sid = firstField(body, t.SessionBody)
	}

	initData := firstHeader(c, t.InitDataHeaders)
	if initData == "" {
		initData = firstField(body, t.InitDataBody)
	}

	lookup := func(key string) string {
		if v := strings.TrimSpace(c.Query(key)); v != "" {
			return v
		}
		return firstField(body, []string{key})
	}

	return service.Credentials{
		SessionID: sid,
		InitData:  initData,
		Fallback: fallback.Credential{
			UID:    lookup(t.FallbackUID),
			TS:     lookup(t.FallbackTS),
			Sig:    lookup(t.FallbackSig),
			Wallet: lookup(t.FallbackWallet),
		},
	}
}

func jsonBody(c *gin.Context) map[string]interface{} {
	if c.Request.Body == nil || c.Request.Method == "GET" || c.ContentType() != binding.MIMEJSON {
		return nil
	}
	var body map[string]interface{}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		return nil
	}
	return body
}

func firstHeader(c *gin.Context, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func firstQuery(c *gin.Context, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.Query(name)); v != "" {
			return v
		}
	}
	return ""
}

// firstField accepts strings and numbers; uid often arrives as a JSON number.
func firstField(body map[string]interface{}, names []string) string {
	for _, name := range names {
		switch v := body[name].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
