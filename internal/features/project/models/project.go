package models

import "time"

// Project groups campaigns under a set of admins
// @Description Project a Telegram user administers
type Project struct {
	ID        string    `json:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Name      string    `json:"name" example:"Veyra"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteCode grants project admin rights when redeemed.
type InviteCode struct {
	Code        string
	ProjectName string
	MaxUses     *int
	Uses        int
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

// Exhausted reports whether the code has no uses left. A nil MaxUses never runs out.
func (i *InviteCode) Exhausted() bool {
	return i.MaxUses != nil && i.Uses >= *i.MaxUses
}

func (i *InviteCode) ExpiredAt(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

// AdminStatus is returned by GET /api/tg/admin
type AdminStatus struct {
	OK             bool      `json:"ok" example:"true"`
	TelegramUserID int64     `json:"telegram_user_id" example:"123456789"`
	IsAdmin        bool      `json:"is_admin" example:"true"`
	Projects       []Project `json:"projects"`
}
