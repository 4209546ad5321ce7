package service

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"veyra-backend/internal/common/validation"
	"veyra-backend/internal/features/bot/models"
	scoremodels "veyra-backend/internal/features/score/models"
)

const (
	maxListedItems   = 5
	maxDetailFeature = 18
)

var esc = html.EscapeString

// walletKind returns "" for anything that is not a single EVM or Solana address.
func walletKind(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.ContainsAny(s, " \t\n"):
		return ""
	case validation.IsEVMWallet(s):
		return models.WalletEVM
	case validation.IsSolanaWallet(s):
		return models.WalletSolana
	default:
		return ""
	}
}

func walletHintText() string {
	return strings.Join([]string{
		"Paste a wallet address to check eligibility:",
		"",
		"🟣 <b>Solana</b>: base58 address (32–44 chars)",
		"🟦 <b>EVM</b>: <code>0x</code> + 40 hex chars",
	}, "\n")
}

func helpText() string {
	return strings.Join([]string{
		"🤖 <b>VeyraBot commands</b>",
		"",
		"✅ <b>Eligibility</b>",
		"• /check &lt;wallet&gt; — check FairScore + tier",
		"• /check — prompts you to paste a wallet",
		"• /verify — save your wallet (DM recommended)",
		"• /my — show your saved wallet + last tier",
		"",
		"📲 <b>Mini App</b>",
		"• Tap <b>Open Veyra App</b> to use the premium UI inside Telegram.",
		"",
		"🎯 <b>Campaigns</b>",
		"• /join &lt;CODE&gt; — join allowlist/drop",
		"• /apply &lt;CODE&gt; — apply to ambassador campaign",
		"",
		"🛠 <b>Admins</b>",
		"• /admin &lt;INVITE_CODE&gt; — open admin mini app (create campaigns)",
	}, "\n")
}

func welcomeText(hasApp bool) string {
	lines := []string{
		"👋 <b>Welcome to VeyraBot</b>",
		"Reputation-gated drops, allowlists, and ambassador intake.",
		"",
		"Try:",
		"• /check",
		"• /verify",
		"• /my",
		"• /help",
	}
	if hasApp {
		lines = append(lines, "", "📲 Tip: Tap <b>Open Veyra App</b> for the premium UI.")
	}
	return strings.Join(lines, "\n")
}

func tierEmoji(tier string) string {
	switch strings.ToLower(tier) {
	case scoremodels.TierGold:
		return "🟡"
	case scoremodels.TierSilver:
		return "⚪️"
	case scoremodels.TierBronze:
		return "🟤"
	default:
		return "🔹"
	}
}

func priorityEmoji(p string) string {
	switch strings.ToLower(p) {
	case "high":
		return "🔥"
	case "medium":
		return "✨"
	default:
		return "➕"
	}
}

func tierLine(tier string) string {
	return fmt.Sprintf("Tier: <b>%s %s</b>", tierEmoji(tier), esc(scoremodels.TierLabel(tier)))
}

func scoreLine(v float64) string {
	return "FairScore: <b>" + scoremodels.FormatScore(v) + "</b>"
}

func badgeLines(badges []scoremodels.Badge) string {
	if len(badges) > maxListedItems {
		badges = badges[:maxListedItems]
	}
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		label := b.Label
		if label == "" {
			label = "Badge"
		}
		line := tierEmoji(b.Tier) + " <b>" + esc(label) + "</b>"
		if b.Description != "" {
			line += "\n<i>" + esc(b.Description) + "</i>"
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n\n")
}

func actionLines(actions []scoremodels.Action) string {
	if len(actions) > maxListedItems {
		actions = actions[:maxListedItems]
	}
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		label := a.Label
		if label == "" {
			label = "Action"
		}
		line := priorityEmoji(a.Priority) + " <b>" + esc(label) + "</b>\n" + esc(a.Description)
		if a.CTA != "" {
			line += "\n<i>" + esc(a.CTA) + "</i>"
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n\n")
}

// featureSummary picks the few upstream features worth a line in a check reply.
func featureSummary(f map[string]interface{}) string {
	var parts []string
	num := func(key, label, suffix string) {
		if v, ok := f[key].(float64); ok {
			parts = append(parts, fmt.Sprintf("• %s: <b>%s</b>%s", label, formatNumber(v), suffix))
		}
	}
	num("tx_count", "Tx count", "")
	num("active_days", "Active days", "")
	num("median_hold_days", "Median hold", "d")
	num("platform_diversity", "Platform diversity", "")
	num("wallet_age_score", "Wallet age score", "")
	if v, ok := f["no_instant_dumps"].(float64); ok {
		answer := "No"
		if v != 0 {
			answer = "Yes"
		}
		parts = append(parts, "• No instant dumps: <b>"+answer+"</b>")
	}
	return strings.Join(parts, "\n")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func scoreBody(wallet, kind string, s *scoremodels.Score) string {
	header := "🧾 <b>Veyra Reputation Check</b>\n🟦 EVM wallet"
	if kind == models.WalletSolana {
		header = "🧾 <b>Veyra Reputation Check</b>\n🟣 Solana wallet"
	}

	core := []string{
		"Wallet: <code>" + esc(wallet) + "</code>",
		tierLine(s.Tier),
		scoreLine(s.Fairscore),
	}
	if s.Timestamp != "" {
		core = append(core, "Updated: <i>"+esc(s.Timestamp)+"</i>")
	}

	badges := badgeLines(s.Badges)
	if badges == "" {
		badges = "<i>No badges returned yet.</i>"
	}
	actions := actionLines(s.Actions)
	if actions == "" {
		actions = "<i>No recommendations returned yet.</i>"
	}

	sections := []string{header, strings.Join(core, "\n"), "🏅 <b>Badges</b>\n" + badges}
	if features := featureSummary(s.Features); features != "" {
		sections = append(sections, "📦 <b>Feature breakdown</b>\n"+features)
	}
	sections = append(sections, "🚀 <b>Boost ideas</b>\n"+actions)
	return strings.Join(sections, "\n\n")
}

// detailsBody lists every feature, sorted by name so replies are stable.
func detailsBody(wallet string, s *scoremodels.Score) string {
	keys := make([]string, 0, len(s.Features))
	for k := range s.Features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxDetailFeature {
		keys = keys[:maxDetailFeature]
	}
	features := make([]string, len(keys))
	for i, k := range keys {
		features[i] = fmt.Sprintf("• <b>%s</b>: %s", esc(k), esc(fmt.Sprint(s.Features[k])))
	}

	lines := []string{
		"🔎 <b>More details</b>",
		"Wallet: <code>" + esc(wallet) + "</code>",
		tierLine(s.Tier),
		scoreLine(s.Fairscore),
	}
	if s.Timestamp != "" {
		lines = append(lines, "Updated: <i>"+esc(s.Timestamp)+"</i>")
	}

	badges := "<i>No badges returned yet.</i>"
	if len(s.Badges) > 0 {
		badges = badgeLines(s.Badges)
	}
	featureText := "No feature data available."
	if len(features) > 0 {
		featureText = strings.Join(features, "\n")
	}
	actions := "<i>No recommendations returned yet.</i>"
	if len(s.Actions) > 0 {
		actions = actionLines(s.Actions)
	}

	lines = append(lines,
		"",
		"🏅 <b>Badges</b>\n"+badges,
		"",
		"📦 <b>Feature breakdown</b>\n"+featureText,
		"",
		"🚀 <b>Boost ideas</b>\n"+actions,
	)
	return strings.Join(lines, "\n")
}

func profileText(wallet, tier string, fairscore *float64) string {
	lines := []string{"🧾 <b>Your profile</b>", "Wallet: <code>" + esc(wallet) + "</code>"}
	if tier != "" {
		lines = append(lines, tierLine(tier))
	}
	if fairscore != nil && *fairscore != 0 {
		lines = append(lines, scoreLine(*fairscore))
	}
	return strings.Join(lines, "\n")
}

func callbackBtn(text, data string) tele.Btn {
	return tele.Btn{Text: text, Data: data}
}

// appButtons renders the open-app row: a Web App button needs https, the plain link always works.
func appButtons(m *tele.ReplyMarkup, text, link string) tele.Row {
	row := tele.Row{}
	if strings.HasPrefix(link, "https://") {
		row = append(row, m.WebApp(text, &tele.WebApp{URL: link}))
	}
	return append(row, m.URL("🔗 Open in browser", link))
}

func (b *Bot) mainMenu(uid int64, wallet string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := []tele.Row{
		m.Row(callbackBtn("✅ Check eligibility", "menu:check"), callbackBtn("🧾 My profile", "menu:my")),
		m.Row(callbackBtn("🔐 Verify wallet", "menu:verify"), callbackBtn("ℹ️ Help", "menu:help")),
	}
	if link := b.appLink(uid, wallet, nil); link != "" {
		rows = append(rows, appButtons(m, "📲 Open Veyra App", link))
	}
	m.Inline(rows...)
	return m
}

func (b *Bot) resultMenu(uid int64, wallet, savedWallet string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := []tele.Row{
		m.Row(callbackBtn("🔎 More details", "details:"+wallet), callbackBtn("🔁 Re-check", "recheck:"+wallet)),
		m.Row(callbackBtn("🔐 Verify this wallet", "verifywallet:"+wallet)),
	}
	prefill := savedWallet
	if prefill == "" {
		prefill = wallet
	}
	if link := b.appLink(uid, prefill, nil); link != "" {
		rows = append(rows, appButtons(m, "📲 Open Veyra App", link))
	}
	m.Inline(rows...)
	return m
}

// linkMenu is the single-row keyboard of the admin and application links.
func linkMenu(text, link string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(appButtons(m, text, link))
	return m
}
