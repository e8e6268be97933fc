package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapearn/internal/cache"
	"tapearn/internal/domain"
	"tapearn/internal/logger"
	"tapearn/internal/repository"

	"github.com/jackc/pgx/v5"
)

// AdminService provides admin statistics and operations
type AdminService struct {
	*Ledger
	withdrawals *WithdrawalService
	referrals   *ReferralService
	audit       *AuditService
	wrepo       *repository.WithdrawalRepository
}

// NewAdminService creates a new admin service
func NewAdminService(l *Ledger, withdrawals *WithdrawalService, referrals *ReferralService, audit *AuditService) *AdminService {
	return &AdminService{
		Ledger:      l,
		withdrawals: withdrawals,
		referrals:   referrals,
		audit:       audit,
		wrepo:       repository.NewWithdrawalRepository(l.pool),
	}
}

// AdminStats represents platform statistics
type AdminStats struct {
	TotalUsers          int64 `json:"total_users"`
	ActiveUsers24h      int64 `json:"active_users_24h"`
	NewUsers24h         int64 `json:"new_users_24h"`
	TotalCoins          int64 `json:"total_coins"` // coins in circulation
	TotalEarned         int64 `json:"total_earned"`
	TotalReferrals      int64 `json:"total_referrals"`
	TotalWithdrawals    int64 `json:"total_withdrawals"`
	PendingWithdrawals  int64 `json:"pending_withdrawals"`
	PendingCoins        int64 `json:"pending_coins"`
	TotalWithdrawnCoins int64 `json:"total_withdrawn_coins"` // completed only
	TotalPaidOutPaise   int64 `json:"total_paid_out_paise"`
}

// Stats returns platform statistics
func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	since := s.now().Add(-24 * time.Hour)

	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE last_seen_at >= $1),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COALESCE(SUM(coins), 0),
			COALESCE(SUM(total_earned), 0)
		FROM accounts
	`, since).Scan(&stats.TotalUsers, &stats.ActiveUsers24h, &stats.NewUsers24h, &stats.TotalCoins, &stats.TotalEarned)
	if err != nil {
		return nil, fmt.Errorf("account stats: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COALESCE(SUM(fiat_paise) FILTER (WHERE status = 'completed'), 0)
		FROM withdrawals
	`).Scan(&stats.TotalWithdrawals, &stats.PendingWithdrawals, &stats.PendingCoins,
		&stats.TotalWithdrawnCoins, &stats.TotalPaidOutPaise)
	if err != nil {
		return nil, fmt.Errorf("withdrawal stats: %w", err)
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM referrals`).Scan(&stats.TotalReferrals); err != nil {
		return nil, fmt.Errorf("referral stats: %w", err)
	}
	return stats, nil
}

// UserPage is one page of the user list.
type UserPage struct {
	Users  []domain.Account `json:"users"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// Users lists accounts with regeneration applied for display only.
func (s *AdminService) Users(ctx context.Context, limit, offset int) (*UserPage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, total, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	now := s.now()
	for i := range users {
		users[i] = s.rules.Regenerate(users[i], now)
	}
	if users == nil {
		users = []domain.Account{}
	}
	return &UserPage{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// UserDetail is everything an admin sees about one account.
type UserDetail struct {
	Account     domain.Account               `json:"user"`
	Withdrawals repository.WithdrawalSummary `json:"withdrawals"`
}

func (s *AdminService) User(ctx context.Context, id int64) (*UserDetail, error) {
	acc, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.wrepo.Summary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("withdrawal summary: %w", err)
	}
	return &UserDetail{Account: s.rules.Regenerate(*acc, s.now()), Withdrawals: summary}, nil
}

func (s *AdminService) Withdrawals(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	list, err := s.withdrawals.List(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Withdrawal{}
	}
	return list, nil
}

func (s *AdminService) ApproveWithdrawal(ctx context.Context, adminID, withdrawalID int64, note string) (*domain.Withdrawal, error) {
	return s.withdrawals.Approve(ctx, withdrawalID, adminID, note)
}

func (s *AdminService) RejectWithdrawal(ctx context.Context, adminID, withdrawalID int64, reason string) (*domain.Withdrawal, error) {
	return s.withdrawals.Reject(ctx, withdrawalID, adminID, reason)
}

// AdjustCoins adds delta (which may be negative) to the balance. The result
// is clamped at zero; the applied change is what gets logged.
func (s *AdminService) AdjustCoins(ctx context.Context, adminID, id, delta int64) (*domain.Account, error) {
	if delta == 0 {
		return nil, domain.ErrInvalidAmount
	}
	var applied int64
	acc, err := s.mutate(ctx, id, func(tx pgx.Tx, acc *domain.Account, _ time.Time) error {
		next := acc.Coins + delta
		if next < 0 {
			next = 0
		}
		applied = next - acc.Coins
		acc.Coins = next
		return s.record(ctx, tx, acc.ID, domain.TxAdminAdjust, applied, "Balance adjusted by admin",
			map[string]interface{}{"admin_id": adminID, "requested": delta})
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogAdminAction(ctx, adminID, domain.AuditActionAdminAddCoins, id,
		map[string]interface{}{"requested": delta, "applied": applied, "balance": acc.Coins})
	return acc, nil
}

// SetCoins overwrites the balance.
func (s *AdminService) SetCoins(ctx context.Context, adminID, id, value int64) (*domain.Account, error) {
	if value < 0 {
		return nil, domain.ErrInvalidAmount
	}
	var previous int64
	acc, err := s.mutate(ctx, id, func(tx pgx.Tx, acc *domain.Account, _ time.Time) error {
		previous = acc.Coins
		acc.Coins = value
		return s.record(ctx, tx, acc.ID, domain.TxAdminAdjust, value-previous, "Balance set by admin",
			map[string]interface{}{"admin_id": adminID, "previous": previous})
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogAdminAction(ctx, adminID, domain.AuditActionAdminSetCoins, id,
		map[string]interface{}{"previous": previous, "balance": value})
	return acc, nil
}

// Reset puts the account back to a zero-balance starting state. Identity,
// history and the referral standing (linkage, referral_count and
// referral_earnings, which mirror the referrals rows) are kept.
func (s *AdminService) Reset(ctx context.Context, adminID, id int64) (*domain.Account, error) {
	var previous int64
	acc, err := s.mutate(ctx, id, func(tx pgx.Tx, acc *domain.Account, now time.Time) error {
		previous = acc.Coins
		r := s.rules
		acc.Coins = 0
		acc.Energy = r.StartingEnergy
		acc.MaxEnergy = r.StartingEnergy
		acc.TapPower = r.StartingTapPower
		acc.EnergyRegenRate = r.StartingRegenRate
		acc.TapPowerLevel = 0
		acc.EnergyCapacityLevel = 0
		acc.EnergyRegenLevel = 0
		acc.TotalEarned = 0
		acc.PayoutAddress = ""
		acc.LastEnergyUpdate = now
		return s.record(ctx, tx, acc.ID, domain.TxAdminAdjust, -previous, "Account reset by admin",
			map[string]interface{}{"admin_id": adminID})
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogAdminAction(ctx, adminID, domain.AuditActionAdminResetAccount, id,
		map[string]interface{}{"previous_coins": previous})
	return acc, nil
}

// Delete removes the account and, by cascade, its withdrawals, referrals,
// transactions and rewards. Accounts it referred keep existing.
func (s *AdminService) Delete(ctx context.Context, adminID, id int64) error {
	var snapshot *domain.Account
	err := repository.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		accounts := s.accounts.WithTx(tx)
		acc, err := accounts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		snapshot = acc
		return accounts.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if err := s.board.Remove(ctx, id); err != nil && !errors.Is(err, cache.ErrDisabled) {
		logger.WithContext(ctx).Warn("leaderboard remove failed", "account_id", id, "error", err)
	}
	s.audit.LogAdminAction(ctx, adminID, domain.AuditActionAdminDeleteAccount, id,
		map[string]interface{}{"coins": snapshot.Coins, "username": snapshot.Username})
	logger.WithContext(ctx).Info("account deleted", "account_id", id, "admin_id", adminID)
	return nil
}

func (s *AdminService) ReferralsOf(ctx context.Context, id int64) ([]domain.ReferredAccount, error) {
	list, err := s.referrals.ListRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.ReferredAccount{}
	}
	return list, nil
}

func (s *AdminService) TopReferrers(ctx context.Context, limit int) ([]domain.ReferrerStat, error) {
	return s.referrals.TopReferrers(ctx, limit)
}

// AuditTrail returns the newest audit entries.
func (s *AdminService) AuditTrail(ctx context.Context, category string, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.audit.Recent(ctx, category, limit)
}
