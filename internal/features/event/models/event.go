package models

import "time"

// Kinds written by the bot.
const (
	KindCheck      = "check"
	KindVerify     = "verify"
	KindJoin       = "join"
	KindApplyStart = "apply_start"
	KindAdminStart = "admin_start"
)

// Event is an append-only row of bot_events.
type Event struct {
	ID             int64                  `json:"id"`
	TelegramUserID int64                  `json:"telegram_user_id"`
	Kind           string                 `json:"kind"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}
