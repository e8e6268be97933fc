package http

import (
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/http/handlers"
	"tapearn/internal/http/middleware"
	"tapearn/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limits are the per-window request budgets of the rate limiters.
type Limits struct {
	API        int
	APIWindow  time.Duration
	Auth       int
	AuthWindow time.Duration
	Tap        int
	TapWindow  time.Duration
}

// Options is everything RegisterRoutes wires together.
type Options struct {
	Handler       *handlers.Handler
	Health        *handlers.HealthHandler
	Hub           *ws.Hub
	Limits        Limits
	AllowedOrigin string
	Roster        domain.AdminRoster

	// Webhook is nil when the bot does not take updates over HTTP.
	Webhook       handlers.UpdateHandler
	WebhookPath   string
	WebhookSecret string
}

// NewEngine returns a gin engine with the request middleware stack installed.
func NewEngine(allowedOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery(), middleware.CORS(allowedOrigin))
	return r
}

func RegisterRoutes(r *gin.Engine, o Options) {
	h := o.Handler

	// Health checks (no rate limiting)
	r.GET("/health", o.Health.Health)
	r.GET("/healthz", o.Health.Liveness)
	r.GET("/readyz", o.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if o.Hub != nil {
		r.GET("/ws", ws.HandleWS(o.Hub, o.AllowedOrigin))
	}
	if o.Webhook != nil {
		r.POST(o.WebhookPath, handlers.TelegramWebhook(o.WebhookSecret, o.Webhook))
	}

	l := o.Limits
	authRL := middleware.RateLimit("auth", l.Auth, l.AuthWindow, middleware.ByIP)
	tapRL := middleware.RateLimit("tap", l.Tap, l.TapWindow, middleware.ByUser)

	v1 := r.Group("/api/v1")

	// taps are budgeted per player only; everything else shares the per-IP budget
	v1.POST("/tap", middleware.JWT(), tapRL, h.Tap)

	api := v1.Group("", middleware.RateLimit("api", l.API, l.APIWindow, middleware.ByIP))

	// public
	api.POST("/auth", authRL, h.Auth)
	api.GET("/minigames", h.MinigameCatalog)
	api.GET("/leaderboard", h.Leaderboard)

	player := api.Group("", middleware.JWT())
	{
		player.GET("/user/:id", h.GetUser)
		player.POST("/user/create", h.CreateUser)
		player.GET("/user/:id/energy", h.Energy)
		player.GET("/user/:id/stats", h.Stats)
		player.GET("/user/:id/transactions", h.Transactions)
		player.POST("/user/:id/validate", h.Validate)
		player.PUT("/user/:id/payout-address", h.SetPayoutAddress)

		player.GET("/upgrades/:id", h.Upgrades)
		player.POST("/upgrade", h.Upgrade)

		player.POST("/withdraw", h.Withdraw)
		player.GET("/withdrawals/:id", h.WithdrawalHistory)

		player.POST("/minigame_reward", h.MinigameReward)
		player.POST("/minigame/spin", h.Spin)

		player.POST("/referral/use", h.UseReferral)
		player.GET("/referrals/:id", h.ReferralList)
	}

	api.POST("/admin/auth", authRL, h.AdminAuth)
	admin := api.Group("/admin", middleware.AdminJWT(o.Roster))
	{
		read := middleware.RequirePermission(domain.PermStatsRead)
		admin.GET("/stats", read, h.AdminStats)
		admin.GET("/users", read, h.AdminUsers)
		admin.GET("/users/:id", read, h.AdminUser)
		admin.GET("/users/:id/referrals", read, h.AdminUserReferrals)
		admin.GET("/referrers", read, h.AdminTopReferrers)
		admin.GET("/audit", read, h.AdminAudit)

		payouts := middleware.RequirePermission(domain.PermWithdrawalsManage)
		admin.GET("/withdrawals", payouts, h.AdminWithdrawals)
		admin.POST("/withdrawals/:id/approve", payouts, h.AdminApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", payouts, h.AdminRejectWithdrawal)

		accounts := middleware.RequirePermission(domain.PermAccountsManage)
		admin.POST("/users/:id/adjust", accounts, h.AdminAdjust)
		admin.POST("/users/:id/reset", accounts, h.AdminReset)
		admin.DELETE("/users/:id", accounts, h.AdminDelete)
	}
}
