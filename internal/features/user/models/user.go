package models

import "time"

// User mirrors a Telegram account in telegram_users
// @Description Telegram user known to Veyra
type User struct {
	TelegramUserID     int64     `json:"telegram_user_id" example:"123456789"`
	Username           string    `json:"username" example:"johndoe"`
	FirstName          string    `json:"first_name" example:"John"`
	LastName           string    `json:"last_name" example:"Doe"`
	SavedWallet        string    `json:"saved_wallet" example:"0x52908400098527886E0F7030069857D2E4169EE7"`
	LastKnownTier      string    `json:"last_known_tier,omitempty" example:"silver" enums:"bronze,silver,gold"`
	LastKnownFairscore *float64  `json:"last_known_fairscore,omitempty" example:"41.5"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Me is the profile the Mini App hydrates from
// @Description Current Mini App user
type Me struct {
	TelegramUserID int64  `json:"telegram_user_id" example:"123456789"`
	Username       string `json:"username" example:"johndoe"`
	FirstName      string `json:"first_name" example:"John"`
	LastName       string `json:"last_name" example:"Doe"`
	SavedWallet    string `json:"saved_wallet" example:"0x52908400098527886E0F7030069857D2E4169EE7"`
}

// MeResponse is returned by /api/tg/me
type MeResponse struct {
	OK   bool `json:"ok" example:"true"`
	Data Me   `json:"data"`
}

func (u *User) ToMe() *MeResponse {
	return &MeResponse{
		OK: true,
		Data: Me{
			TelegramUserID: u.TelegramUserID,
			Username:       u.Username,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			SavedWallet:    u.SavedWallet,
		},
	}
}
