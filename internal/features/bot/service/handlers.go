package service

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	apperrors "veyra-backend/internal/common/errors"
	"veyra-backend/internal/common/logger"
	authmodels "veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/bot/models"
	campaignservice "veyra-backend/internal/features/campaign/service"
	eventmodels "veyra-backend/internal/features/event/models"
	scoremodels "veyra-backend/internal/features/score/models"
)

const (
	fallbackText      = "Tap a button or type /help"
	unknownText       = "Unknown command. Tap a button or type /help"
	scoreFailedText   = "⚠️ Could not fetch FairScore right now. Try again in a minute."
	somethingWrong    = "⚠️ Something went wrong. Try again later."
	verifyFirstText   = "Verify your wallet first: /verify"
	noWalletSavedText = "No wallet saved yet. Use /verify (DM recommended)."
)

func (b *Bot) onStart(c tele.Context) error {
	uid := c.Sender().ID
	var wallet string
	if u := b.savedUser(contextOf(c), uid); u != nil {
		wallet = u.SavedWallet
	}

	caption := welcomeText(b.appURL() != "")
	menu := b.mainMenu(uid, wallet)

	banner := b.banner()
	if banner == "" {
		return c.Send(caption, menu)
	}
	photo := &tele.Photo{File: tele.File{FileID: banner}, Caption: caption}
	if strings.HasPrefix(banner, "http") {
		photo.File = tele.FromURL(banner)
	}
	return c.Send(photo, menu)
}

func (b *Bot) onHelp(c tele.Context) error {
	return c.Send(helpText(), b.mainMenu(c.Sender().ID, ""))
}

// onAdmin records the unlock that admin session minting and campaign creation look for.
func (b *Bot) onAdmin(c tele.Context) error {
	ctx := contextOf(c)
	uid := c.Sender().ID
	code := strings.TrimSpace(c.Message().Payload)
	log := logger.ForUser(uid)

	switch {
	case b.cfg.AdminCode == "":
		log.Warn().Msg("Admin unlock attempted with no admin code configured")
		return c.Send("❌ Admin mode is not configured.", b.mainMenu(uid, ""))
	case code == "":
		return c.Send("Usage: <code>/admin INVITE_CODE</code>", b.mainMenu(uid, ""))
	case subtle.ConstantTimeCompare([]byte(code), []byte(b.cfg.AdminCode)) != 1:
		log.Warn().Msg("Invalid admin code")
		return c.Send("❌ Invalid admin code.", b.mainMenu(uid, ""))
	case b.appURL() == "":
		return c.Send("Admin mode requires PUBLIC_BASE_URL to be set.", b.mainMenu(uid, ""))
	}

	if err := b.events.Log(ctx, uid, eventmodels.KindAdminStart, map[string]interface{}{"mode": "miniapp", "ok": true}); err != nil {
		log.Error().Err(err).Msg("Failed to record admin unlock")
		return c.Send(somethingWrong, b.mainMenu(uid, ""))
	}

	var wallet string
	if u := b.savedUser(ctx, uid); u != nil {
		wallet = u.SavedWallet
	}
	link := b.appLink(uid, wallet, url.Values{"admin": {"1"}})

	log.Info().Msg("Admin unlocked")
	return c.Send(
		"✅ <b>Admin unlocked</b>\nTap below to open the admin mini app and create campaigns.",
		linkMenu("🛠 Open Admin Panel", link),
	)
}

func (b *Bot) onVerify(c tele.Context) error {
	uid := c.Sender().ID
	if err := b.await(c, models.StateAwaitWalletVerify); err != nil {
		return err
	}
	return c.Send("🔐 <b>Verify wallet</b>\n\n"+walletHintText(), b.mainMenu(uid, ""))
}

func (b *Bot) onMy(c tele.Context) error {
	uid := c.Sender().ID
	u := b.savedUser(contextOf(c), uid)
	if u == nil || u.SavedWallet == "" {
		return c.Send(noWalletSavedText, b.mainMenu(uid, ""))
	}
	return c.Send(profileText(u.SavedWallet, u.LastKnownTier, u.LastKnownFairscore), b.mainMenu(uid, u.SavedWallet))
}

func (b *Bot) onCheck(c tele.Context) error {
	uid := c.Sender().ID
	wallet := strings.TrimSpace(c.Message().Payload)
	if wallet == "" {
		if err := b.await(c, models.StateAwaitWalletCheck); err != nil {
			return err
		}
		return c.Send("✅ <b>Eligibility check</b>\n\n"+walletHintText(), b.mainMenu(uid, ""))
	}

	_ = c.Notify(tele.Typing)
	if err := c.Send("⏳ Checking your wallet…"); err != nil {
		return err
	}
	return b.runCheck(c, wallet, false)
}

func (b *Bot) onJoin(c tele.Context) error {
	ctx := contextOf(c)
	uid := c.Sender().ID
	code := strings.TrimSpace(c.Message().Payload)
	if code == "" {
		return c.Send("Usage: <code>/join CODE</code>", b.mainMenu(uid, ""))
	}

	_ = c.Notify(tele.Typing)
	res, err := b.campaigns.Join(ctx, uid, code)
	if err != nil {
		return c.Send(b.campaignRefusal(err, code, "Campaign requires"), b.mainMenu(uid, ""))
	}

	e := res.Entry
	b.logEvent(ctx, uid, eventmodels.KindJoin, map[string]interface{}{
		"code":      res.Campaign.Code,
		"wallet":    e.Wallet,
		"tier":      e.Tier,
		"fairscore": e.Score(),
	})

	return c.Send(strings.Join([]string{
		"✅ <b>Joined</b>",
		"Campaign: <code>" + esc(res.Campaign.Code) + "</code>",
		"Wallet: <code>" + esc(e.Wallet) + "</code>",
		tierLine(e.Tier),
		scoreLine(e.Score()),
	}, "\n"), b.mainMenu(uid, e.Wallet))
}

func (b *Bot) onApply(c tele.Context) error {
	ctx := contextOf(c)
	sender := c.Sender()
	uid := sender.ID
	code := strings.TrimSpace(c.Message().Payload)
	if code == "" {
		return c.Send("Usage: <code>/apply CODE</code>", b.mainMenu(uid, ""))
	}
	if b.appURL() == "" {
		return c.Send("Mini App requires PUBLIC_BASE_URL.", b.mainMenu(uid, ""))
	}

	_ = c.Notify(tele.Typing)
	start, err := b.campaigns.StartApplication(ctx, &authmodels.Principal{
		TelegramUserID: uid,
		Username:       sender.Username,
		FirstName:      sender.FirstName,
		LastName:       sender.LastName,
		Via:            authmodels.ViaBot,
	}, code)
	if err != nil {
		return c.Send(b.campaignRefusal(err, code, "This ambassador campaign requires"), b.mainMenu(uid, ""))
	}

	b.logEvent(ctx, uid, eventmodels.KindApplyStart, map[string]interface{}{
		"code":      start.Campaign.Code,
		"wallet":    start.Wallet,
		"tier":      start.Tier,
		"fairscore": start.Fairscore,
		"sid":       start.SessionID,
	})

	link := b.appLink(uid, start.Wallet, url.Values{"sid": {start.SessionID}})
	return c.Send(strings.Join([]string{
		"✅ <b>Eligible</b>",
		"Campaign: <code>" + esc(start.Campaign.Code) + "</code>",
		"",
		"Tap below to open your private application form.",
		"<i>(This link is tied to your Telegram account and won’t work for others.)</i>",
	}, "\n"), linkMenu("📝 Open Application", link))
}

// campaignRefusal turns a join or apply failure into the reply the user sees.
func (b *Bot) campaignRefusal(err error, code, requiresLabel string) string {
	appErr, _ := apperrors.AsAppError(err)
	switch campaignservice.Reason(err) {
	case campaignservice.ReasonNotFound:
		return "Campaign not found: <code>" + esc(code) + "</code>"
	case campaignservice.ReasonAmbassadorOnly:
		return "That is an ambassador campaign. Use: <code>/apply " + esc(code) + "</code>"
	case campaignservice.ReasonNotAmbassador:
		return "That is not an ambassador campaign. Use: <code>/join " + esc(code) + "</code>"
	case campaignservice.ReasonNoWallet:
		return verifyFirstText
	case campaignservice.ReasonNotEligible:
		required, _ := appErr.Details["required"].(string)
		tier, _ := appErr.Details["tier"].(string)
		return strings.Join([]string{
			"🔒 <b>Not eligible</b>",
			requiresLabel + ": <b>" + esc(required) + "</b>",
			"Your tier: <b>" + tierEmoji(tier) + " " + esc(scoremodels.TierLabel(tier)) + "</b>",
		}, "\n")
	case campaignservice.ReasonFull:
		return "⛔ This campaign is full (max slots reached)."
	case campaignservice.ReasonAlreadyEntered:
		return "You already joined this campaign."
	}

	if apperrors.HasCode(err, apperrors.ErrCodeScoreUnavailable) {
		return scoreFailedText
	}
	logger.Error().Err(err).Str("code", code).Msg("Campaign command failed")
	return somethingWrong
}

func (b *Bot) onText(c tele.Context) error {
	ctx := contextOf(c)
	uid := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	state, err := b.states.Get(ctx, uid)
	if err != nil {
		logger.Warn().Err(err).Int64("user_id", uid).Msg("Failed to read bot state")
	}
	if state.Awaiting() && text != "" {
		return b.continueWizard(c, state, text)
	}

	if walletKind(text) != "" {
		_ = c.Notify(tele.Typing)
		if err := c.Send("⏳ Checking your wallet…"); err != nil {
			return err
		}
		return b.runCheck(c, text, false)
	}
	return c.Send(unknownText, b.mainMenu(uid, ""))
}

func (b *Bot) continueWizard(c tele.Context, state *models.State, text string) error {
	ctx := contextOf(c)
	uid := c.Sender().ID

	switch state.Key {
	case models.StateAwaitWalletCheck:
		if err := b.states.Clear(ctx, uid); err != nil {
			logger.Warn().Err(err).Int64("user_id", uid).Msg("Failed to clear bot state")
		}
		_ = c.Notify(tele.Typing)
		if err := c.Send("⏳ Checking your wallet…"); err != nil {
			return err
		}
		return b.runCheck(c, text, false)

	default:
		if walletKind(text) == "" {
			return c.Send("That wallet looks invalid.\n\n"+walletHintText(), b.mainMenu(uid, ""))
		}
		_ = c.Notify(tele.Typing)
		if err := c.Send("⏳ Verifying wallet…"); err != nil {
			return err
		}
		score, ok := b.saveWallet(c, text)
		if !ok {
			return c.Send(scoreFailedText, b.mainMenu(uid, ""))
		}

		lines := []string{
			"✅ <b>Wallet saved</b>",
			"",
			scoreBody(text, walletKind(text), score),
			"",
			"Next:",
			"• /my — profile",
			"• /join CODE — allowlist/drop",
			"• /apply CODE — ambassador",
		}
		if b.appURL() != "" {
			lines = append(lines, "", "📲 Tip: Tap <b>Open Veyra App</b> for the premium UI.")
		}
		return c.Send(strings.Join(lines, "\n"), b.mainMenu(uid, text))
	}
}

func (b *Bot) onPhoto(c tele.Context) error {
	photo := c.Message().Photo
	if photo == nil {
		return c.Send(fallbackText, b.mainMenu(c.Sender().ID, ""))
	}
	logger.Info().
		Int64("user_id", c.Sender().ID).
		Str("file_id", photo.FileID).
		Str("file_unique_id", photo.UniqueID).
		Msg("Photo received")

	return c.Send(strings.Join([]string{
		"📸 <b>Image received</b>",
		"",
		"To use it as the welcome banner set",
		"<code>TELEGRAM_WELCOME_BANNER_FILE_ID=" + esc(photo.FileID) + "</code>",
		"and run /start again.",
	}, "\n"), b.mainMenu(c.Sender().ID, ""))
}

func (b *Bot) onCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || cb.Message == nil {
		return c.Respond()
	}
	_ = c.Respond()

	ctx := contextOf(c)
	uid := c.Sender().ID
	data := strings.TrimSpace(cb.Data)

	switch {
	case data == "menu:help":
		return b.edit(c, helpText(), b.mainMenu(uid, ""))

	case data == "menu:verify":
		if err := b.await(c, models.StateAwaitWalletVerify); err != nil {
			return err
		}
		return b.edit(c, "🔐 <b>Verify wallet</b>\n\n"+walletHintText(), b.mainMenu(uid, ""))

	case data == "menu:check":
		if err := b.await(c, models.StateAwaitWalletCheck); err != nil {
			return err
		}
		return b.edit(c, "✅ <b>Eligibility check</b>\n\n"+walletHintText(), b.mainMenu(uid, ""))

	case data == "menu:my":
		u := b.savedUser(ctx, uid)
		if u == nil || u.SavedWallet == "" {
			return b.edit(c, "No wallet saved yet. Tap 🔐 Verify wallet.", b.mainMenu(uid, ""))
		}
		return b.edit(c, profileText(u.SavedWallet, u.LastKnownTier, u.LastKnownFairscore), b.mainMenu(uid, u.SavedWallet))

	case strings.HasPrefix(data, "recheck:"):
		wallet := strings.TrimPrefix(data, "recheck:")
		if err := b.edit(c, "⏳ <b>Re-checking…</b>\nHold on a sec.", b.resultMenu(uid, wallet, "")); err != nil {
			return err
		}
		_ = c.Notify(tele.Typing)
		return b.runCheck(c, wallet, true)

	case strings.HasPrefix(data, "verifywallet:"):
		wallet := strings.TrimPrefix(data, "verifywallet:")
		kind := walletKind(wallet)
		if kind == "" {
			return b.edit(c, "That wallet doesn’t look valid.\n\n"+walletHintText(), b.mainMenu(uid, ""))
		}
		_ = c.Notify(tele.Typing)
		if err := b.edit(c, "⏳ <b>Saving wallet…</b>", b.mainMenu(uid, "")); err != nil {
			return err
		}
		score, ok := b.saveWallet(c, wallet)
		if !ok {
			return b.edit(c, scoreFailedText, b.mainMenu(uid, ""))
		}
		return b.edit(c, "✅ <b>Wallet saved</b>\n\n"+scoreBody(wallet, kind, score), b.mainMenu(uid, wallet))

	case strings.HasPrefix(data, "details:"):
		wallet := strings.TrimPrefix(data, "details:")
		last := b.lastCheck(c, wallet)
		if last == nil {
			return b.edit(c, "No cached details found. Tap 🔁 Re-check.", b.resultMenu(uid, wallet, ""))
		}
		return b.edit(c, detailsBody(wallet, last.Data), b.resultMenu(uid, wallet, ""))
	}

	return b.edit(c, fallbackText, b.mainMenu(uid, ""))
}

// edit rewrites the message behind a callback. Banner messages are photos and
// only have a caption to edit.
func (b *Bot) edit(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback().Message.Text != "" {
		return c.Edit(text, markup)
	}
	return c.EditCaption(text, markup)
}

func (b *Bot) await(c tele.Context, key string) error {
	uid := c.Sender().ID
	if err := b.states.Set(contextOf(c), uid, key, models.Started{StartedAt: time.Now().UnixMilli()}); err != nil {
		return fmt.Errorf("set bot state %s: %w", key, err)
	}
	return nil
}

// runCheck looks the wallet up, remembers the result for "More details" and
// replies with the score. With edit set it rewrites the callback message.
func (b *Bot) runCheck(c tele.Context, wallet string, edit bool) error {
	ctx := contextOf(c)
	uid := c.Sender().ID
	wallet = strings.TrimSpace(wallet)

	reply := func(text string, markup *tele.ReplyMarkup) error {
		if edit {
			return b.edit(c, text, markup)
		}
		return c.Send(text, markup)
	}

	kind := walletKind(wallet)
	if kind == "" {
		return reply("That doesn’t look like a valid wallet.\n\n"+walletHintText(), b.mainMenu(uid, ""))
	}

	res, err := b.scores.Lookup(ctx, wallet)
	if err != nil {
		logger.Warn().Err(err).Int64("user_id", uid).Str("wallet", wallet).Msg("Bot score check failed")
		return reply(scoreFailedText, b.mainMenu(uid, ""))
	}
	score := res.Score

	if err := b.states.Set(ctx, uid, models.StateLastCheck, models.LastCheck{
		Wallet:    wallet,
		Kind:      kind,
		Data:      score,
		CheckedAt: time.Now().UTC(),
	}); err != nil {
		logger.Warn().Err(err).Int64("user_id", uid).Msg("Failed to store last check")
	}

	var saved string
	if u := b.savedUser(ctx, uid); u != nil {
		saved = u.SavedWallet
	}
	if saved != "" && saved == wallet {
		if err := b.users.UpdateLastKnown(ctx, uid, score.Tier, score.Fairscore); err != nil {
			logger.Warn().Err(err).Int64("user_id", uid).Msg("Failed to update last known tier")
		}
	}

	b.logEvent(ctx, uid, eventmodels.KindCheck, map[string]interface{}{
		"wallet":    wallet,
		"kind":      kind,
		"tier":      score.Tier,
		"fairscore": score.Fairscore,
	})

	return reply(scoreBody(wallet, kind, score), b.resultMenu(uid, wallet, saved))
}

// saveWallet scores the wallet and stores it as the user's verified wallet.
func (b *Bot) saveWallet(c tele.Context, wallet string) (*scoremodels.Score, bool) {
	ctx := contextOf(c)
	uid := c.Sender().ID
	wallet = strings.TrimSpace(wallet)

	res, err := b.scores.Lookup(ctx, wallet)
	if err != nil {
		logger.Warn().Err(err).Int64("user_id", uid).Str("wallet", wallet).Msg("Bot wallet verify failed")
		return nil, false
	}
	score := res.Score

	if err := b.users.SaveWallet(ctx, uid, wallet, score.Tier, score.Fairscore); err != nil {
		logger.Error().Err(err).Int64("user_id", uid).Msg("Failed to save wallet")
		return nil, false
	}
	if err := b.states.Clear(ctx, uid); err != nil {
		logger.Warn().Err(err).Int64("user_id", uid).Msg("Failed to clear bot state")
	}

	b.logEvent(ctx, uid, eventmodels.KindVerify, map[string]interface{}{
		"wallet":    wallet,
		"kind":      walletKind(wallet),
		"tier":      score.Tier,
		"fairscore": score.Fairscore,
	})
	return score, true
}

func (b *Bot) lastCheck(c tele.Context, wallet string) *models.LastCheck {
	state, err := b.states.Get(contextOf(c), c.Sender().ID)
	if err != nil || state == nil || state.Key != models.StateLastCheck {
		return nil
	}
	var last models.LastCheck
	if err := unmarshalState(state, &last); err != nil || last.Wallet != wallet || last.Data == nil {
		return nil
	}
	return &last
}

var errEmptyState = errors.New("empty bot state")

func unmarshalState(s *models.State, v interface{}) error {
	if len(s.Data) == 0 {
		return errEmptyState
	}
	return json.Unmarshal(s.Data, v)
}
