package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/economy"
	"tapearn/internal/logger"

	"github.com/joho/godotenv"
)

// Bot update delivery modes
const (
	BotModeWebhook = "webhook"
	BotModePolling = "polling"
	BotModeOff     = "off"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	AutoMigrate bool
	LogLevel    string
	LogJSON     bool

	BotToken      string
	BotUsername   string
	WebAppURL     string
	BotMode       string
	WebhookPath   string
	WebhookSecret string

	JWTSecret      string
	InitDataMaxAge time.Duration
	AdminRoster    domain.AdminRoster
	AllowedOrigin  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration
	TapRateLimit   int
	TapRateWindow  time.Duration

	LeaderboardCron   string
	PendingDigestCron string

	Economy economy.Rules
}

// Load reads configuration from the environment (and .env when present).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	botMode := strings.ToLower(getEnv("BOT_MODE", BotModeWebhook))
	switch botMode {
	case BotModeWebhook, BotModePolling, BotModeOff:
	default:
		logger.Fatal("BOT_MODE must be webhook, polling or off", "value", botMode)
	}

	// owners and support staff, comma separated Telegram ids
	roster := domain.AdminRoster{}
	for _, id := range parseIDs(os.Getenv("ADMIN_SUPPORT_IDS")) {
		roster[id] = domain.RoleSupport
	}
	for _, id := range parseIDs(os.Getenv("ADMIN_TELEGRAM_IDS")) {
		roster[id] = domain.RoleOwner
	}

	return &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		DatabaseURL: dbURL,
		AutoMigrate: getBool("AUTO_MIGRATE", false),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogJSON:     getBool("LOG_JSON", true),

		BotToken:      botToken,
		BotUsername:   getEnv("BOT_USERNAME", "TapEarnBot"),
		WebAppURL:     os.Getenv("WEBAPP_URL"),
		BotMode:       botMode,
		WebhookPath:   getEnv("TELEGRAM_WEBHOOK_PATH", "/telegram/webhook"),
		WebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),

		JWTSecret:      jwtSecret,
		InitDataMaxAge: getSeconds("INIT_DATA_MAX_AGE_SECONDS", time.Hour),
		AdminRoster:    roster,
		AllowedOrigin:  os.Getenv("ALLOWED_ORIGIN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		APIRateLimit:   getInt("API_RATE_LIMIT", 120),
		APIRateWindow:  getSeconds("API_RATE_WINDOW_SECONDS", time.Minute),
		AuthRateLimit:  getInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow: getSeconds("AUTH_RATE_WINDOW_SECONDS", time.Minute),
		TapRateLimit:   getInt("TAP_RATE_LIMIT", 600),
		TapRateWindow:  getSeconds("TAP_RATE_WINDOW_SECONDS", time.Minute),

		LeaderboardCron:   getEnv("LEADERBOARD_CRON", "0 */5 * * * *"),
		PendingDigestCron: getEnv("PENDING_DIGEST_CRON", "0 0 * * * *"),

		Economy: economyFromEnv(),
	}
}

// economyFromEnv overrides the default rules with any ECONOMY_* variables.
func economyFromEnv() economy.Rules {
	r := economy.DefaultRules()
	r.RegenInterval = getSeconds("ENERGY_REGEN_INTERVAL_SECONDS", r.RegenInterval)
	r.WelcomeBonus = getInt64("WELCOME_BONUS", r.WelcomeBonus)
	r.ReferralBonus = getInt64("REFERRAL_BONUS", r.ReferralBonus)
	r.ReferredBonus = getInt64("REFERRED_BONUS", r.ReferredBonus)
	r.WithdrawalMinimum = getInt64("WITHDRAW_MIN_COINS", r.WithdrawalMinimum)
	r.WithdrawalFeeBP = getInt64("WITHDRAW_FEE_BP", r.WithdrawalFeeBP)
	r.MaxTapsPerRequest = getInt("MAX_TAPS_PER_REQUEST", r.MaxTapsPerRequest)
	if err := r.Validate(); err != nil {
		logger.Fatal("invalid economy settings", "error", err)
	}
	return r
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid boolean in env, using default", "key", key, "value", v)
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		logger.Warn("invalid integer in env, using default", "key", key, "value", v)
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			return n
		}
		logger.Warn("invalid integer in env, using default", "key", key, "value", v)
	}
	return fallback
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		logger.Warn("invalid duration in env, using default", "key", key, "value", v)
	}
	return fallback
}

func parseIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
