package config

import (
	"testing"
	"time"

	"tapearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	assert.Equal(t, []int64{1, 22, 333}, parseIDs(" 1, 22,,333 ,abc"))
	assert.Nil(t, parseIDs(""))
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tapearn")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_TELEGRAM_IDS", "10,20")
	t.Setenv("ADMIN_SUPPORT_IDS", "20,30")
	t.Setenv("BOT_MODE", "Polling")
	t.Setenv("ENERGY_REGEN_INTERVAL_SECONDS", "30")
	t.Setenv("REFERRAL_BONUS", "250")
	t.Setenv("TAP_RATE_LIMIT", "not-a-number")

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, BotModePolling, cfg.BotMode)
	assert.Equal(t, domain.AdminRoster{10: domain.RoleOwner, 20: domain.RoleOwner, 30: domain.RoleSupport}, cfg.AdminRoster)
	assert.Equal(t, 30*time.Second, cfg.Economy.RegenInterval)
	assert.Equal(t, int64(250), cfg.Economy.ReferralBonus)
	assert.Equal(t, int64(2500), cfg.Economy.WelcomeBonus)
	assert.Equal(t, 600, cfg.TapRateLimit)
}
