package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

type Badge struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Tier        string `json:"tier,omitempty"`
}

type Action struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	CTA         string `json:"cta,omitempty"`
}

// Score is a FairScale reputation snapshot for one wallet
// @Description FairScale score for a wallet
type Score struct {
	Wallet    string                 `json:"wallet" example:"0x52908400098527886E0F7030069857D2E4169EE7"`
	Fairscore float64                `json:"fairscore" example:"41.5"`
	Tier      string                 `json:"tier" example:"silver" enums:"bronze,silver,gold"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Badges    []Badge                `json:"badges"`
	Actions   []Action               `json:"actions"`
	Features  map[string]interface{} `json:"features,omitempty"`
	// Raw is the upstream body as received.
	Raw json.RawMessage `json:"-" swaggerignore:"true"`
}

// Result is a score lookup, possibly served from cache.
type Result struct {
	Score  *Score
	Cached bool
	Age    time.Duration
}

// VerifyResponse is returned by /api/tg/verify
type VerifyResponse struct {
	OK         bool   `json:"ok" example:"true"`
	Data       *Score `json:"data"`
	Cached     bool   `json:"cached" example:"false"`
	CacheAgeMs int64  `json:"cache_age_ms" example:"0"`
}

// NormalizeTier folds upstream tier names onto bronze, silver and gold.
func NormalizeTier(tier string) string {
	t := strings.ToLower(strings.TrimSpace(tier))
	switch {
	case strings.Contains(t, TierGold):
		return TierGold
	case strings.Contains(t, TierSilver):
		return TierSilver
	default:
		return TierBronze
	}
}

// TierRank orders tiers; unknown tiers rank below bronze.
func TierRank(tier string) int {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case TierGold:
		return 3
	case TierSilver:
		return 2
	case TierBronze:
		return 1
	default:
		return 0
	}
}

// TierMeets reports whether user is at least min.
func TierMeets(min, user string) bool {
	return TierRank(user) >= TierRank(min)
}

// TierLabel renders "gold" as "Gold".
func TierLabel(tier string) string {
	if tier == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ToLower(tier))
}

// FormatScore renders a fairscore with one decimal place.
func FormatScore(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}
