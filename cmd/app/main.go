package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"veyra-backend/docs"
	"veyra-backend/internal/common/config"
	"veyra-backend/internal/common/logger"
	"veyra-backend/internal/common/middleware"
	"veyra-backend/internal/common/validation"
	authhttp "veyra-backend/internal/features/auth/delivery/http"
	"veyra-backend/internal/features/auth/fallback"
	"veyra-backend/internal/features/auth/initdata"
	authpg "veyra-backend/internal/features/auth/repository/postgres"
	authservice "veyra-backend/internal/features/auth/service"
	bothttp "veyra-backend/internal/features/bot/delivery/http"
	botpg "veyra-backend/internal/features/bot/repository/postgres"
	botservice "veyra-backend/internal/features/bot/service"
	campaignhttp "veyra-backend/internal/features/campaign/delivery/http"
	campaignpg "veyra-backend/internal/features/campaign/repository/postgres"
	campaignservice "veyra-backend/internal/features/campaign/service"
	eventpg "veyra-backend/internal/features/event/repository/postgres"
	projecthttp "veyra-backend/internal/features/project/delivery/http"
	projectpg "veyra-backend/internal/features/project/repository/postgres"
	projectservice "veyra-backend/internal/features/project/service"
	scorecache "veyra-backend/internal/features/score/cache"
	scoreclient "veyra-backend/internal/features/score/client"
	scorehttp "veyra-backend/internal/features/score/delivery/http"
	scoreservice "veyra-backend/internal/features/score/service"
	userhttp "veyra-backend/internal/features/user/delivery/http"
	userpg "veyra-backend/internal/features/user/repository/postgres"
	userservice "veyra-backend/internal/features/user/service"
	"veyra-backend/internal/platform/postgres"
	"veyra-backend/internal/platform/redis"
	"veyra-backend/migrations"
)

const serviceName = "veyra-backend"

// @title           Veyra API
// @version         1.0
// @description     Telegram identity bridge, FairScale reputation checks and campaign backend for the Veyra Mini App.

// @BasePath  /api

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-InitData
// @description Raw Telegram Mini App initData string

// @securityDefinitions.apikey AdminSession
// @in header
// @name X-App-Sid
// @description Admin session id minted by POST /api/tg/admin/session

// @tag.name auth
// @tag.description Identity resolution and admin sessions

// @tag.name scores
// @tag.description FairScale reputation lookups

// @tag.name campaigns
// @tag.description Campaign administration, applications and public listings

// @tag.name applications
// @tag.description Ambassador application forms

// @tag.name projects
// @tag.description Project membership and invite codes

// @tag.name users
// @tag.description Saved wallet and profile

// @tag.name bot
// @tag.description Telegram bot webhook

func main() {
	cfg := config.Load()
	logger.Init(serviceName, cfg.Debug)

	logger.Info().
		Str("env", cfg.Environment).
		Bool("debug", cfg.Debug).
		Msg("Starting Veyra backend")

	if cfg.Sentry.DSN != "" {
		env := cfg.Sentry.Environment
		if env == "" {
			env = cfg.Environment
		}
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      env,
			TracesSampleRate: cfg.Sentry.SampleRate,
		}); err != nil {
			logger.Error().Err(err).Msg("Failed to initialize Sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := validation.RegisterBindings(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register validators")
	}

	ctx := context.Background()

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(migrations.FS, cfg.DSN()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	pg, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()
	db := pg.Pool()

	// Without Redis every cache and limiter keeps its state in process memory.
	var (
		rdb        *redis.Client
		cmdable    goredis.Cmdable
		scripter   goredis.Scripter
		scoreStore scorecache.Cache = scorecache.NewMemory(cfg.ScoreCacheTTL(), cfg.ScoreCache.MaxEntries)
	)
	if addr := cfg.RedisAddr(); addr != "" {
		rdb, err = redis.Open(ctx, addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		cmdable, scripter = rdb, rdb
		scoreStore = scorecache.NewRedis(rdb, cfg.ScoreCacheTTL())
	} else {
		logger.Warn().Msg("REDIS_HOST not set, using in-memory caches")
	}

	// Repositories
	sessionRepo := authpg.NewSessionRepository(db)
	formRepo := authpg.NewFormSessionRepository(db)
	eventRepo := eventpg.NewEventRepository(db)
	projectRepo := projectpg.NewProjectRepository(db)
	userRepo := userpg.NewPostgresRepository(db)
	campaignRepo := campaignpg.NewCampaignRepository(db)

	// Services
	userSvc := userservice.NewUserService(userRepo)
	projectSvc := projectservice.NewProjectService(projectRepo)
	scoreSvc := scoreservice.NewScoreService(
		scoreclient.NewClient(cfg.FairScale.BaseURL, cfg.FairScale.APIKey, cfg.FairScale.Timeout),
		scoreStore,
	)

	verifier := initdata.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.InitDataMaxAge)
	signer := fallback.NewSigner(cfg.FallbackSecret(), cfg.Auth.FallbackSkew)
	if !signer.Enabled() {
		logger.Warn().Msg("No fallback secret configured, signed launch links are disabled")
	}

	authenticator := authservice.NewAuthenticator(sessionRepo, verifier, signer, userSvc, time.Now)
	authorizer := authservice.NewAuthorizer(
		projectSvc,
		campaignservice.NewOwnershipLookup(campaignRepo),
		eventRepo,
		time.Now,
	)
	sessionSvc := authservice.NewSessionService(sessionRepo, formRepo, authorizer, authservice.SessionConfig{
		AdminTTL:     cfg.Auth.AdminSessionTTL,
		FormTTL:      cfg.Auth.FormSessionTTL,
		UnlockWindow: cfg.Auth.UnlockWindow,
	}, time.Now)

	campaignSvc := campaignservice.NewCampaignService(campaignservice.Deps{
		Repo:     campaignRepo,
		Guard:    authorizer,
		Projects: projectSvc,
		Scores:   scoreSvc,
		Users:    userSvc,
		Forms:    sessionSvc,
	}, campaignservice.Config{
		DefaultProject: cfg.Auth.DefaultProject,
		UnlockWindow:   cfg.Auth.UnlockWindow,
	})

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if cfg.Sentry.DSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{
			Repanic: true,
			Timeout: 2 * time.Second,
		}))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.HandleErrors())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = append([]string{"Content-Type", "Accept", "X-Request-ID"},
		authhttp.DefaultCredentialTable.Headers()...)
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Name:     "score",
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
	}, scripter)

	api := router.Group("/api")
	authhttp.NewAuthHandler(authenticator, authenticator, sessionSvc).RegisterRoutes(api)
	userhttp.NewUserHandler(userSvc, authenticator).RegisterRoutes(api)
	projecthttp.NewProjectHandler(projectSvc, authenticator).RegisterRoutes(api)
	scorehttp.NewScoreHandler(scoreSvc, limiter.Middleware()).RegisterRoutes(api)
	campaignhttp.NewCampaignHandler(campaignSvc, authenticator,
		middleware.ResponseCache(cmdable, cfg.PublicCache.TTL)).RegisterRoutes(api)

	if cfg.Telegram.BotToken != "" {
		bot, err := botservice.NewBot(botservice.Deps{
			Users:     userSvc,
			Scores:    scoreSvc,
			Campaigns: campaignSvc,
			Events:    eventRepo,
			States:    botpg.NewStateRepository(db),
			Signer:    signer,
		}, botservice.Config{
			Token:         cfg.Telegram.BotToken,
			APIURL:        cfg.Telegram.APIURL,
			Client:        &http.Client{Timeout: 15 * time.Second},
			AdminCode:     cfg.Auth.AdminCode,
			PublicBaseURL: cfg.Server.PublicBaseURL,
			BannerFileID:  cfg.Telegram.WelcomeBannerFile,
			BannerURL:     cfg.Telegram.WelcomeBannerURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
		}
		if cfg.Telegram.WebhookSecret == "" {
			logger.Warn().Msg("TELEGRAM_WEBHOOK_SECRET not set, webhook accepts unauthenticated updates")
		}
		bothttp.NewWebhookHandler(bot, cfg.Telegram.WebhookSecret).RegisterRoutes(api)
		logger.Info().Msg("Telegram bot webhook registered")
	} else {
		logger.Warn().Msg("TELEGRAM_BOT_TOKEN not set, bot and initData auth are disabled")
	}

	docs.SwaggerInfo.Version = "1.0"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	setupProbes(router, pg, rdb)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupProbes(router *gin.Engine, pg *postgres.Client, rdb *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := pg.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		if rdb != nil {
			if err := rdb.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "redis unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
