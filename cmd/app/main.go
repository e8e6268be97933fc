package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tapearn/internal/bot"
	"tapearn/internal/cache"
	"tapearn/internal/config"
	"tapearn/internal/db"
	"tapearn/internal/game"
	httpServer "tapearn/internal/http"
	"tapearn/internal/http/handlers"
	"tapearn/internal/http/middleware"
	"tapearn/internal/logger"
	"tapearn/internal/service"
	"tapearn/internal/worker"
	"tapearn/internal/ws"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)
	gin.SetMode(gin.ReleaseMode)

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(pool, "up"); err != nil {
			logger.Fatal("migration failed", "error", err)
		}
	}

	rdb := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}
	middleware.UseRedis(rdb)
	board := cache.NewLeaderboard(rdb)

	hub := ws.NewHub()

	audit := service.NewAuditService(pool)
	ledger := service.NewLedger(pool, cfg.Economy, board, hub)
	referrals := service.NewReferralService(ledger, audit, cfg.BotUsername)
	accounts := service.NewAccountService(ledger, referrals)
	withdrawals := service.NewWithdrawalService(ledger, audit)
	wheel := game.NewWheel(game.DefaultWheelSegments())
	logger.Info("reward wheel loaded", "segments", len(wheel.Segments), "expected_reward", wheel.ExpectedReward())
	minigames := service.NewMinigameService(ledger, game.DefaultCatalog(), wheel)
	admin := service.NewAdminService(ledger, withdrawals, referrals, audit)

	// Telegram
	var (
		tgBot *bot.Bot
		api   *tgbotapi.BotAPI
	)
	if cfg.BotMode != config.BotModeOff {
		var err error
		api, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			logger.Fatal("failed to create telegram bot", "error", err)
		}
		logger.Info("telegram bot authorized", "username", api.Self.UserName, "mode", cfg.BotMode)

		tgBot = bot.New(api, accounts, referrals, admin, bot.Config{
			WebAppURL: cfg.WebAppURL,
			Roster:    cfg.AdminRoster,
			Rules:     cfg.Economy,
		})
		withdrawals.SetNotifier(tgBot)

		if cfg.BotMode == config.BotModePolling {
			u := tgbotapi.NewUpdate(0)
			u.Timeout = 60
			go tgBot.Poll(api.GetUpdatesChan(u))
		}
	}

	// Scheduled jobs
	var digest worker.PendingNotifier
	if tgBot != nil {
		digest = tgBot
	}
	scheduler, err := worker.New(worker.Config{
		LeaderboardSpec:   cfg.LeaderboardCron,
		PendingDigestSpec: cfg.PendingDigestCron,
		PendingAge:        time.Hour,
	}, accounts, withdrawals, digest)
	if err != nil {
		logger.Fatal("failed to set up scheduler", "error", err)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := scheduler.RebuildLeaderboard(ctx); err != nil {
			logger.Warn("initial leaderboard rebuild failed", "error", err)
		}
	}()
	scheduler.Start()

	// HTTP
	optional := map[string]handlers.Check{}
	if rdb != nil {
		optional["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	health := handlers.NewHealthHandler(pool.Ping, optional, version)

	h := handlers.NewHandler(handlers.Services{
		Accounts:    accounts,
		Referrals:   referrals,
		Withdrawals: withdrawals,
		Minigames:   minigames,
		Admin:       admin,
		Audit:       audit,
	}, handlers.AuthConfig{
		BotToken: cfg.BotToken,
		MaxAge:   cfg.InitDataMaxAge,
		Roster:   cfg.AdminRoster,
	})

	opts := httpServer.Options{
		Handler:       h,
		Health:        health,
		Hub:           hub,
		AllowedOrigin: cfg.AllowedOrigin,
		Roster:        cfg.AdminRoster,
		Limits: httpServer.Limits{
			API:        cfg.APIRateLimit,
			APIWindow:  cfg.APIRateWindow,
			Auth:       cfg.AuthRateLimit,
			AuthWindow: cfg.AuthRateWindow,
			Tap:        cfg.TapRateLimit,
			TapWindow:  cfg.TapRateWindow,
		},
	}
	if tgBot != nil && cfg.BotMode == config.BotModeWebhook {
		opts.Webhook = tgBot
		opts.WebhookPath = cfg.WebhookPath
		opts.WebhookSecret = cfg.WebhookSecret
		if cfg.WebhookSecret == "" {
			logger.Warn("TELEGRAM_WEBHOOK_SECRET is empty, webhook requests are not authenticated")
		}
	}

	r := httpServer.NewEngine(cfg.AllowedOrigin)
	httpServer.RegisterRoutes(r, opts)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if api != nil && cfg.BotMode == config.BotModePolling {
		api.StopReceivingUpdates()
	}
	if tgBot != nil {
		tgBot.Stop()
	}
	scheduler.Stop(ctx)
	logger.Info("closing live feed", "connections", hub.Count())
	hub.Close()

	logger.Info("server exited")
}
