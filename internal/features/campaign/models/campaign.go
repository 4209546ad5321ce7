package models

import (
	"encoding/json"
	"time"

	scoremodels "veyra-backend/internal/features/score/models"
)

const (
	TypeDrop       = "drop"
	TypeAllowlist  = "allowlist"
	TypeAmbassador = "ambassador"

	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldSelect   = "select"

	TaskFollow = "follow"
	TaskRepost = "repost"
	TaskJoin   = "join"

	// DefaultDuration is assumed for public campaigns without an end date.
	DefaultDuration = 7 * 24 * time.Hour
)

// Campaign is a row of campaigns
// @Description Reward campaign
type Campaign struct {
	ID           string     `json:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Code         string     `json:"code" example:"AMB-7KQ2"`
	ProjectID    string     `json:"project_id,omitempty"`
	Type         string     `json:"type" example:"ambassador" enums:"drop,allowlist,ambassador"`
	Title        string     `json:"title" example:"Veyra ambassadors"`
	Description  string     `json:"description"`
	MinTier      string     `json:"min_tier" example:"silver" enums:"bronze,silver,gold"`
	MaxSlots     *int       `json:"max_slots"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	CreatedBy    int64      `json:"created_by_telegram_user_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	EntriesCount int        `json:"entries_count"`
}

// LiveAt treats a missing start as started and a missing end as open.
func (c *Campaign) LiveAt(now time.Time) bool {
	if c.StartsAt != nil && c.StartsAt.After(now) {
		return false
	}
	return c.EndsAt == nil || now.Before(*c.EndsAt)
}

func (c *Campaign) IsAmbassador() bool {
	return c.Type == TypeAmbassador
}

// Question is one ambassador application field.
type Question struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	Key        string    `json:"key" example:"twitter_handle"`
	Label      string    `json:"label" example:"Twitter handle"`
	Required   bool      `json:"required"`
	FieldType  string    `json:"field_type" example:"text" enums:"text,textarea,select"`
	Options    []string  `json:"options"`
	HelpText   *string   `json:"help_text"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

type Task struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	TaskType   string    `json:"task_type" example:"follow" enums:"follow,repost,join"`
	Label      string    `json:"label"`
	TargetURL  *string   `json:"target_url"`
	Required   bool      `json:"required"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

// Entry is a row of campaign_entries, joined with the applicant's profile
// when listed for admins.
type Entry struct {
	ID             string            `json:"id"`
	CampaignID     string            `json:"-"`
	TelegramUserID int64             `json:"telegram_user_id"`
	Wallet         string            `json:"wallet"`
	Tier           string            `json:"tier"`
	Fairscore      *float64          `json:"fairscore"`
	Badges         json.RawMessage   `json:"-" swaggerignore:"true"`
	Answers        map[string]string `json:"answers"`
	CreatedAt      time.Time         `json:"created_at"`

	Username  string `json:"-"`
	FirstName string `json:"-"`
	LastName  string `json:"-"`
}

// TierRank orders entries gold first; unknown tiers rank last.
func (e *Entry) TierRank() int {
	return scoremodels.TierRank(e.Tier)
}

func (e *Entry) Score() float64 {
	if e.Fairscore == nil {
		return 0
	}
	return *e.Fairscore
}

// Created is returned by create-campaign.
type Created struct {
	ID   string `json:"id"`
	Code string `json:"code" example:"DRP-7KQ2"`
	Type string `json:"type" example:"drop"`
}

// CampaignSummary is the campaign block of the applications view.
type CampaignSummary struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type GroupedEntries struct {
	Gold   []Entry `json:"gold"`
	Silver []Entry `json:"silver"`
	Bronze []Entry `json:"bronze"`
	Other  []Entry `json:"other"`
}

type ApplicationsData struct {
	Campaign CampaignSummary `json:"campaign"`
	Total    int             `json:"total"`
	Grouped  GroupedEntries  `json:"grouped"`
}

// ApplicationsResponse is returned by /api/tg/admin/applications
type ApplicationsResponse struct {
	OK           bool             `json:"ok" example:"true"`
	Applications []Entry          `json:"applications"`
	Data         ApplicationsData `json:"data"`
}

// PublicCampaign is the normalised row served to the public site.
type PublicCampaign struct {
	ID          string    `json:"id" example:"DRP-7KQ2"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	MinTier     string    `json:"minTier" example:"bronze"`
	BaseReward  float64   `json:"baseReward"`
}

type PublicResponse struct {
	Campaigns []PublicCampaign `json:"campaigns"`
	Source    string           `json:"source" example:"postgres.campaigns"`
	Note      string           `json:"note,omitempty"`
}

// FormQuestion is a question as the application form renders it.
type FormQuestion struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Required    bool     `json:"required"`
	Type        string   `json:"type" enums:"text,textarea,select"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

type FormCampaign struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []FormQuestion `json:"questions"`
}

type ApplicantProfile struct {
	Wallet    string  `json:"wallet"`
	Tier      string  `json:"tier"`
	Fairscore float64 `json:"fairscore"`
}

// ApplySession is what the application form loads before rendering.
type ApplySession struct {
	SessionID string           `json:"sid"`
	Campaign  FormCampaign     `json:"campaign"`
	Profile   ApplicantProfile `json:"profile"`
}

// JoinResult describes a successful bot join.
type JoinResult struct {
	Campaign *Campaign
	Entry    *Entry
}

// ApplyStart is what the bot needs to send an application link.
type ApplyStart struct {
	Campaign  *Campaign
	Wallet    string
	Tier      string
	Fairscore float64
	SessionID string
}
