package models

import (
	"encoding/json"
	"time"

	scoremodels "veyra-backend/internal/features/score/models"
)

// Wizard steps kept in bot_states. A user has at most one.
const (
	StateAwaitWalletCheck  = "await_wallet_check"
	StateAwaitWalletVerify = "await_wallet_verify"
	StateLastCheck         = "last_check"
)

// Wallet kinds shown in replies.
const (
	WalletEVM    = "evm"
	WalletSolana = "sol"
)

type State struct {
	TelegramUserID int64           `json:"telegram_user_id"`
	Key            string          `json:"state_key"`
	Data           json.RawMessage `json:"state_json"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Awaiting reports whether the state expects the next text message.
func (s *State) Awaiting() bool {
	return s != nil && (s.Key == StateAwaitWalletCheck || s.Key == StateAwaitWalletVerify)
}

// LastCheck is the payload of a last_check state; "More details" reads it back.
type LastCheck struct {
	Wallet    string             `json:"wallet"`
	Kind      string             `json:"kind"`
	Data      *scoremodels.Score `json:"data"`
	CheckedAt time.Time          `json:"checked_at"`
}

type Started struct {
	StartedAt int64 `json:"startedAt"`
}
