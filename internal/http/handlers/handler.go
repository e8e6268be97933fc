package handlers

import (
	"context"
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/game"
	"tapearn/internal/service"
)

// AccountService is the part of service.AccountService the API uses.
type AccountService interface {
	GetOrCreate(ctx context.Context, p domain.Profile, referrerID int64) (*domain.Account, bool, error)
	Get(ctx context.Context, id int64) (*domain.Account, error)
	Energy(ctx context.Context, id int64) (*service.EnergyStatus, error)
	Stats(ctx context.Context, id int64) (*service.Stats, error)
	Transactions(ctx context.Context, id int64, limit int) ([]domain.Transaction, error)
	Tap(ctx context.Context, id int64, n int) (*service.TapOutcome, error)
	Upgrade(ctx context.Context, id int64, upgradeType string) (*service.UpgradeOutcome, error)
	Upgrades(ctx context.Context, id int64) (*service.UpgradeCatalog, error)
	SetPayoutAddress(ctx context.Context, id int64, address string) (*domain.Account, error)
	Repair(ctx context.Context, id int64) (*domain.Account, bool, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

type ReferralService interface {
	Apply(ctx context.Context, referredID int64, code string) (*service.ReferralOutcome, error)
	List(ctx context.Context, referrerID int64) (*service.ReferralList, error)
}

type WithdrawalService interface {
	Request(ctx context.Context, id, amount int64, payoutAddress string) (*service.WithdrawalOutcome, error)
	History(ctx context.Context, id int64, limit int) ([]domain.Withdrawal, error)
}

type MinigameService interface {
	Catalog() []game.Minigame
	Reward(ctx context.Context, id int64, gameName string, amount int64) (*domain.Account, error)
	Spin(ctx context.Context, id int64) (*service.SpinOutcome, error)
}

type AdminService interface {
	Stats(ctx context.Context) (*service.AdminStats, error)
	Users(ctx context.Context, limit, offset int) (*service.UserPage, error)
	User(ctx context.Context, id int64) (*service.UserDetail, error)
	Withdrawals(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, adminID, withdrawalID int64, note string) (*domain.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, adminID, withdrawalID int64, reason string) (*domain.Withdrawal, error)
	AdjustCoins(ctx context.Context, adminID, id, delta int64) (*domain.Account, error)
	SetCoins(ctx context.Context, adminID, id, value int64) (*domain.Account, error)
	Reset(ctx context.Context, adminID, id int64) (*domain.Account, error)
	Delete(ctx context.Context, adminID, id int64) error
	ReferralsOf(ctx context.Context, id int64) ([]domain.ReferredAccount, error)
	TopReferrers(ctx context.Context, limit int) ([]domain.ReferrerStat, error)
	AuditTrail(ctx context.Context, category string, limit int) ([]domain.AuditLog, error)
}

// LoginAuditor records logins.
type LoginAuditor interface {
	LogLogin(ctx context.Context, userID int64, admin bool, ip, userAgent string)
}

// Services bundles what the handlers call into.
type Services struct {
	Accounts    AccountService
	Referrals   ReferralService
	Withdrawals WithdrawalService
	Minigames   MinigameService
	Admin       AdminService
	Audit       LoginAuditor
}

// AuthConfig drives init data validation.
type AuthConfig struct {
	BotToken string
	MaxAge   time.Duration
	Roster   domain.AdminRoster
}

type Handler struct {
	Services
	auth AuthConfig
	now  func() time.Time
}

func NewHandler(s Services, auth AuthConfig) *Handler {
	return &Handler{Services: s, auth: auth, now: time.Now}
}
