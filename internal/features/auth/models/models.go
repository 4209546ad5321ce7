package models

import (
	"time"
)

const (
	SessionKindAdmin = "admin"
	// SessionKeyAdmin is the session_key value written for admin sessions.
	SessionKeyAdmin = "admin"

	// UnlockEventKind is logged by the bot when /admin is run with the right code.
	UnlockEventKind = "admin_start"
)

// Via names the credential that produced a Principal.
type Via string

const (
	ViaSession  Via = "session"
	ViaInitData Via = "initdata"
	ViaFallback Via = "fallback"
	// ViaBot marks principals built from a bot update, which Telegram already authenticated.
	ViaBot Via = "bot"
)

// Principal is an authenticated Telegram user.
type Principal struct {
	TelegramUserID int64  `json:"telegram_user_id"`
	Username       string `json:"username,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Wallet         string `json:"wallet,omitempty"`
	Via            Via    `json:"via"`
	SessionID      string `json:"-"`
}

// Session is a row of app_sessions.
type Session struct {
	ID             string                 `json:"id"`
	TelegramUserID int64                  `json:"telegram_user_id"`
	Kind           string                 `json:"kind"`
	SessionKey     string                 `json:"session_key,omitempty"`
	State          map[string]interface{} `json:"state_json"`
	ChatID         *int64                 `json:"chat_id,omitempty"`
	MessageID      *int64                 `json:"message_id,omitempty"`
	Wallet         string                 `json:"wallet,omitempty"`
	ExpiresAt      time.Time              `json:"expires_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Flag reports whether state[name] is literally true.
func (s *Session) Flag(name string) bool {
	v, ok := s.State[name].(bool)
	return ok && v
}

func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// FormSession is a one-shot application grant for one campaign.
type FormSession struct {
	ID             string     `json:"id"`
	CampaignID     string     `json:"campaign_id"`
	TelegramUserID int64      `json:"telegram_user_id"`
	ExpiresAt      time.Time  `json:"expires_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SessionContext carries the optional chat context stored with a session.
type SessionContext struct {
	ChatID    *int64
	MessageID *int64
	Wallet    string
}

type MintResult struct {
	SessionID      string    `json:"sid"`
	ExpiresAt      time.Time `json:"expires_at"`
	TelegramUserID int64     `json:"telegram_user_id"`
	Username       string    `json:"username,omitempty"`
}

// CampaignOwnership is what the authorizer needs to know about a campaign.
type CampaignOwnership struct {
	CampaignID string
	ProjectID  string
	CreatedBy  int64
}
