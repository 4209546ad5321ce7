package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"

	"veyra-backend/internal/common/logger"
	authmodels "veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/auth/fallback"
	"veyra-backend/internal/features/bot/repository"
	campaignmodels "veyra-backend/internal/features/campaign/models"
	scoremodels "veyra-backend/internal/features/score/models"
	usermodels "veyra-backend/internal/features/user/models"
)

const (
	ctxKey        = "ctx"
	updateTimeout = 25 * time.Second
)

type Users interface {
	Touch(ctx context.Context, user *usermodels.User) error
	GetUser(ctx context.Context, id int64) (*usermodels.User, error)
	SaveWallet(ctx context.Context, id int64, wallet, tier string, fairscore float64) error
	UpdateLastKnown(ctx context.Context, id int64, tier string, fairscore float64) error
}

type Scores interface {
	Lookup(ctx context.Context, wallet string) (*scoremodels.Result, error)
}

type Campaigns interface {
	Join(ctx context.Context, telegramUserID int64, code string) (*campaignmodels.JoinResult, error)
	StartApplication(ctx context.Context, p *authmodels.Principal, code string) (*campaignmodels.ApplyStart, error)
}

type Events interface {
	Log(ctx context.Context, telegramUserID int64, kind string, meta map[string]interface{}) error
}

type Deps struct {
	Users     Users
	Scores    Scores
	Campaigns Campaigns
	Events    Events
	States    repository.StateRepository
	Signer    *fallback.Signer
}

type Config struct {
	Token  string
	APIURL string
	// Offline skips the getMe call at startup.
	Offline       bool
	Client        *http.Client
	AdminCode     string
	PublicBaseURL string
	BannerFileID  string
	BannerURL     string
}

// Bot answers webhook updates. Handlers run synchronously inside ProcessUpdate.
type Bot struct {
	tg        *tele.Bot
	users     Users
	scores    Scores
	campaigns Campaigns
	events    Events
	states    repository.StateRepository
	signer    *fallback.Signer
	cfg       Config
	baseURL   string
}

func NewBot(deps Deps, cfg Config) (*Bot, error) {
	settings := tele.Settings{
		Token:       cfg.Token,
		URL:         cfg.APIURL,
		Offline:     cfg.Offline,
		Synchronous: true,
		ParseMode:   tele.ModeHTML,
		Client:      cfg.Client,
		OnError: func(err error, c tele.Context) {
			ev := logger.Error().Err(err)
			if c != nil && c.Sender() != nil {
				ev = ev.Int64("user_id", c.Sender().ID)
			}
			ev.Msg("Bot update failed")
		},
	}
	tg, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		tg:        tg,
		users:     deps.Users,
		scores:    deps.Scores,
		campaigns: deps.Campaigns,
		events:    deps.Events,
		states:    deps.States,
		signer:    deps.Signer,
		cfg:       cfg,
		baseURL:   publicBaseURL(cfg.PublicBaseURL),
	}
	b.registerHandlers()
	return b, nil
}

func (b *Bot) registerHandlers() {
	b.tg.Use(middleware.Recover(func(err error, _ tele.Context) {
		logger.Error().Err(err).Msg("Bot handler panicked")
	}))
	b.tg.Use(b.track)

	b.tg.Handle("/start", b.onStart)
	b.tg.Handle("/help", b.onHelp)
	b.tg.Handle("/admin", b.onAdmin)
	b.tg.Handle("/verify", b.onVerify)
	b.tg.Handle("/my", b.onMy)
	b.tg.Handle("/check", b.onCheck)
	b.tg.Handle("/join", b.onJoin)
	b.tg.Handle("/apply", b.onApply)

	b.tg.Handle(tele.OnCallback, b.onCallback)
	b.tg.Handle(tele.OnText, b.onText)
	b.tg.Handle(tele.OnPhoto, b.onPhoto)
}

// ProcessUpdate runs the handler for one webhook update before returning.
func (b *Bot) ProcessUpdate(u tele.Update) {
	b.tg.ProcessUpdate(u)
}

// track gives every update a bounded context and records the sender.
func (b *Bot) track(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || c.Chat() == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		c.Set(ctxKey, ctx)

		if err := b.users.Touch(ctx, &usermodels.User{
			TelegramUserID: sender.ID,
			Username:       sender.Username,
			FirstName:      sender.FirstName,
			LastName:       sender.LastName,
		}); err != nil {
			logger.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to upsert bot sender")
		}
		return next(c)
	}
}

func contextOf(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

func publicBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http") {
		u = "https://" + u
	}
	return strings.TrimRight(u, "/")
}

// appURL is the Mini App entry point, or "" when no public URL is configured.
func (b *Bot) appURL() string {
	if b.baseURL == "" {
		return ""
	}
	return b.baseURL + "/tg"
}

// appLink prefills uid and wallet and signs them when a fallback secret is set.
func (b *Bot) appLink(uid int64, wallet string, extra url.Values) string {
	app := b.appURL()
	if app == "" {
		return ""
	}
	link, err := b.signer.SignURL(app, uid, strings.TrimSpace(wallet), extra)
	if err != nil {
		logger.Warn().Err(err).Str("url", app).Msg("Failed to build Mini App link")
		return app
	}
	return link
}

func (b *Bot) banner() string {
	switch {
	case b.cfg.BannerFileID != "":
		return b.cfg.BannerFileID
	case b.cfg.BannerURL != "":
		return b.cfg.BannerURL
	case b.baseURL != "":
		return b.baseURL + "/tg-banner.jpg"
	default:
		return ""
	}
}

// savedUser treats a missing user and a failed lookup alike.
func (b *Bot) savedUser(ctx context.Context, uid int64) *usermodels.User {
	u, err := b.users.GetUser(ctx, uid)
	if err != nil {
		return nil
	}
	return u
}

func (b *Bot) logEvent(ctx context.Context, uid int64, kind string, meta map[string]interface{}) {
	if err := b.events.Log(ctx, uid, kind, meta); err != nil {
		logger.ForUser(uid).Warn().Err(err).Str("kind", kind).Msg("Failed to log bot event")
	}
}
