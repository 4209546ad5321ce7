package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/features/score/models"
)

const maxBodyBytes = 1 << 20

// Client fetches wallet scores from the FairScale HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api2.fairscale.xyz"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type scoreBody struct {
	Wallet    string                 `json:"wallet"`
	Fairscore *float64               `json:"fairscore"`
	Tier      string                 `json:"tier"`
	Timestamp string                 `json:"timestamp"`
	Badges    []models.Badge         `json:"badges"`
	Actions   []models.Action        `json:"actions"`
	Features  map[string]interface{} `json:"features"`
}

// Fetch returns the normalized score. Every failure is a ScoreUnavailable error.
func (c *Client) Fetch(ctx context.Context, wallet string) (*models.Score, error) {
	if c.apiKey == "" {
		return nil, apperrors.NewScoreUnavailableError(fmt.Errorf("FAIRSCALE_API_KEY not configured"))
	}

	endpoint := c.baseURL + "/score?wallet=" + url.QueryEscape(wallet)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewScoreUnavailableError(err)
	}
	req.Header.Set("fairkey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewScoreUnavailableError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewScoreUnavailableError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewScoreUnavailableError(fmt.Errorf("fairscale http %d: %s", resp.StatusCode, truncate(string(raw), 200))).
			WithDetail("upstream_status", resp.StatusCode)
	}

	var body scoreBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, apperrors.NewScoreUnavailableError(fmt.Errorf("decode fairscale response: %w", err))
	}
	if body.Fairscore == nil || body.Wallet == "" {
		return nil, apperrors.NewScoreUnavailableError(fmt.Errorf("fairscale response format unexpected"))
	}

	score := &models.Score{
		Wallet:    body.Wallet,
		Fairscore: *body.Fairscore,
		Tier:      models.NormalizeTier(body.Tier),
		Timestamp: body.Timestamp,
		Badges:    body.Badges,
		Actions:   body.Actions,
		Features:  body.Features,
		Raw:       json.RawMessage(raw),
	}
	if score.Badges == nil {
		score.Badges = []models.Badge{}
	}
	if score.Actions == nil {
		score.Actions = []models.Action{}
	}
	return score, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
