package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapearn/internal/cache"
	"tapearn/internal/domain"
	"tapearn/internal/economy"
	"tapearn/internal/logger"
	"tapearn/internal/repository"

	"github.com/jackc/pgx/v5"
)

const defaultLeaderboardSize = 10

// AccountService owns the player's own ledger operations.
type AccountService struct {
	*Ledger
	referrals   *ReferralService
	withdrawals *repository.WithdrawalRepository
}

func NewAccountService(l *Ledger, referrals *ReferralService) *AccountService {
	return &AccountService{
		Ledger:      l,
		referrals:   referrals,
		withdrawals: repository.NewWithdrawalRepository(l.pool),
	}
}

// GetOrCreate returns the account for p, creating it with the welcome bonus
// on first sight. referrerID (0 for none) is honoured only on creation;
// unknown or self referrers are ignored so sign-up never fails on them.
func (s *AccountService) GetOrCreate(ctx context.Context, p domain.Profile, referrerID int64) (*domain.Account, bool, error) {
	if p.ID <= 0 {
		return nil, false, domain.ErrInvalidAccountID
	}

	var (
		acc      *domain.Account
		referrer *domain.Account
		created  bool
	)
	err := repository.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		accounts := s.accounts.WithTx(tx)
		now := s.now()

		fresh := s.newAccount(p, now)
		ok, err := accounts.Insert(ctx, fresh)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}

		if !ok {
			existing, err := accounts.GetForUpdate(ctx, p.ID)
			if err != nil {
				return err
			}
			next := s.rules.Regenerate(*existing, now)
			if p.Username != "" {
				next.Username = p.Username
			}
			if p.FirstName != "" {
				next.FirstName = p.FirstName
			}
			next.LastSeenAt = now
			if err := accounts.SaveState(ctx, &next); err != nil {
				return err
			}
			acc = &next
			return nil
		}

		created = true
		acc = fresh
		if s.rules.WelcomeBonus > 0 {
			if err := s.record(ctx, tx, acc.ID, domain.TxWelcomeBonus, s.rules.WelcomeBonus, "Welcome bonus", nil); err != nil {
				return err
			}
		}

		if referrerID == 0 || referrerID == acc.ID {
			return nil
		}
		ref, err := accounts.GetForUpdate(ctx, referrerID)
		if errors.Is(err, domain.ErrAccountNotFound) {
			logger.WithContext(ctx).Info("ignoring unknown referrer on sign-up", "account_id", acc.ID, "referrer_id", referrerID)
			return nil
		}
		if err != nil {
			return err
		}
		next := s.rules.Regenerate(*ref, now)
		if err := s.referrals.link(ctx, tx, acc, &next); err != nil {
			return err
		}
		if err := accounts.SaveState(ctx, acc); err != nil {
			return err
		}
		if err := accounts.SaveState(ctx, &next); err != nil {
			return err
		}
		referrer = &next
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		CoinsCredited.WithLabelValues(string(domain.TxWelcomeBonus)).Add(float64(s.rules.WelcomeBonus))
		logger.WithContext(ctx).Info("account created", "account_id", acc.ID, "referrer_id", referrerID)
	}
	if referrer != nil {
		s.referrals.applied(ctx, acc, referrer)
	}
	s.committed(ctx, acc, referrer)
	return acc, created, nil
}

func (s *AccountService) newAccount(p domain.Profile, now time.Time) *domain.Account {
	r := s.rules
	return &domain.Account{
		ID:               p.ID,
		Username:         p.Username,
		FirstName:        p.FirstName,
		Coins:            r.WelcomeBonus,
		Energy:           r.StartingEnergy,
		MaxEnergy:        r.StartingEnergy,
		TapPower:         r.StartingTapPower,
		EnergyRegenRate:  r.StartingRegenRate,
		TotalEarned:      r.WelcomeBonus,
		LastEnergyUpdate: now,
		LastSeenAt:       now,
		CreatedAt:        now,
	}
}

// Get returns a snapshot with regeneration applied. The regenerated state is
// persisted only when it differs from the stored one.
func (s *AccountService) Get(ctx context.Context, id int64) (*domain.Account, error) {
	acc, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := s.rules.Regenerate(*acc, s.now())
	if next.Energy == acc.Energy && next.LastEnergyUpdate.Equal(acc.LastEnergyUpdate) {
		return acc, nil
	}
	return s.mutate(ctx, id, func(pgx.Tx, *domain.Account, time.Time) error { return nil })
}

// EnergyStatus is the payload of the energy endpoint.
type EnergyStatus struct {
	Energy           int64     `json:"energy"`
	MaxEnergy        int64     `json:"max_energy"`
	EnergyRegenRate  int64     `json:"energy_regen_rate"`
	LastEnergyUpdate time.Time `json:"last_energy_update"`
	NextEnergyIn     int64     `json:"next_energy_in_seconds"`
	FullEnergyIn     int64     `json:"full_energy_in_seconds"`
}

func (s *AccountService) Energy(ctx context.Context, id int64) (*EnergyStatus, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &EnergyStatus{
		Energy:           acc.Energy,
		MaxEnergy:        acc.MaxEnergy,
		EnergyRegenRate:  acc.EnergyRegenRate,
		LastEnergyUpdate: acc.LastEnergyUpdate,
		NextEnergyIn:     ceilSeconds(s.rules.NextEnergyIn(*acc, now)),
		FullEnergyIn:     ceilSeconds(s.rules.FullEnergyIn(*acc, now)),
	}, nil
}

func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

// Stats is the player's profile summary.
type Stats struct {
	Level             int64 `json:"level"`
	Coins             int64 `json:"coins"`
	TotalEarned       int64 `json:"total_coins_earned"`
	UpgradesPurchased int   `json:"upgrades_purchased"`
	ReferralsMade     int64 `json:"referrals_made"`
	ReferralEarnings  int64 `json:"referral_earnings"`
	Rank              int64 `json:"rank,omitempty"`
	repository.WithdrawalSummary
}

func (s *AccountService) Stats(ctx context.Context, id int64) (*Stats, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.withdrawals.Summary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("withdrawal summary: %w", err)
	}

	st := &Stats{
		Level:             economy.PlayerLevel(acc.Coins),
		Coins:             acc.Coins,
		TotalEarned:       acc.TotalEarned,
		UpgradesPurchased: economy.UpgradesPurchased(*acc),
		ReferralsMade:     acc.ReferralCount,
		ReferralEarnings:  acc.ReferralEarnings,
		WithdrawalSummary: summary,
	}
	if rank, ok, err := s.board.Rank(ctx, id); err == nil && ok {
		st.Rank = rank
	}
	return st, nil
}

func (s *AccountService) Transactions(ctx context.Context, id int64, limit int) ([]domain.Transaction, error) {
	if _, err := s.accounts.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.txs.ListByAccount(ctx, id, limit)
}

// TapOutcome is the result of a tap request.
type TapOutcome struct {
	Account *domain.Account
	economy.TapResult
}

// Tap spends n energy for n*tap_power coins.
func (s *AccountService) Tap(ctx context.Context, id int64, n int) (*TapOutcome, error) {
	var res economy.TapResult
	acc, err := s.mutate(ctx, id, func(tx pgx.Tx, acc *domain.Account, now time.Time) error {
		next, r, err := s.rules.Tap(*acc, n, now)
		if err != nil {
			return err
		}
		res = r
		*acc = next
		acc.LastSeenAt = now
		return s.record(ctx, tx, acc.ID, domain.TxTap, r.Earned,
			fmt.Sprintf("%d taps", r.Taps), map[string]interface{}{"taps": r.Taps})
	})
	if err != nil {
		return nil, err
	}

	TapsTotal.Add(float64(res.Taps))
	CoinsCredited.WithLabelValues(string(domain.TxTap)).Add(float64(res.Earned))
	return &TapOutcome{Account: acc, TapResult: res}, nil
}

// UpgradeOutcome is the result of a purchase.
type UpgradeOutcome struct {
	Account *domain.Account      `json:"user"`
	Track   economy.UpgradeTrack `json:"upgrade_type"`
	Cost    int64                `json:"cost"`
	Level   int                  `json:"level"`
}

func (s *AccountService) Upgrade(ctx context.Context, id int64, upgradeType string) (*UpgradeOutcome, error) {
	track, err := economy.ParseUpgradeTrack(upgradeType)
	if err != nil {
		return nil, err
	}

	var cost int64
	acc, err := s.mutate(ctx, id, func(tx pgx.Tx, acc *domain.Account, now time.Time) error {
		next, c, err := s.rules.ApplyUpgrade(*acc, track)
		if err != nil {
			return err
		}
		cost = c
		*acc = next
		acc.LastSeenAt = now
		level := economy.Level(next, track)
		return s.record(ctx, tx, acc.ID, domain.TxUpgrade, -c,
			fmt.Sprintf("Upgrade %s to level %d", track, level),
			map[string]interface{}{"upgrade_type": string(track), "level": level})
	})
	if err != nil {
		return nil, err
	}
	return &UpgradeOutcome{Account: acc, Track: track, Cost: cost, Level: economy.Level(*acc, track)}, nil
}

// UpgradeCatalog lists every track for one account.
type UpgradeCatalog struct {
	Coins    int64                  `json:"coins"`
	Upgrades []economy.UpgradeOffer `json:"upgrades"`
}

func (s *AccountService) Upgrades(ctx context.Context, id int64) (*UpgradeCatalog, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UpgradeCatalog{Coins: acc.Coins, Upgrades: s.rules.Offers(*acc)}, nil
}

func (s *AccountService) SetPayoutAddress(ctx context.Context, id int64, address string) (*domain.Account, error) {
	addr, err := economy.NormalizePayoutAddress(address)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(_ pgx.Tx, acc *domain.Account, now time.Time) error {
		acc.PayoutAddress = addr
		acc.LastSeenAt = now
		return nil
	})
}

// Repair clamps an inconsistent account back into range.
func (s *AccountService) Repair(ctx context.Context, id int64) (*domain.Account, bool, error) {
	var fixed bool
	acc, err := s.mutate(ctx, id, func(_ pgx.Tx, acc *domain.Account, _ time.Time) error {
		*acc, fixed = s.rules.Repair(*acc)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if fixed {
		logger.WithContext(ctx).Info("account repaired", "account_id", id)
	}
	return acc, fixed, nil
}

// Leaderboard returns the top accounts by total_earned, from Redis when it
// is available and populated, otherwise from PostgreSQL.
func (s *AccountService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardSize
	}

	scores, err := s.board.Top(ctx, limit)
	if err != nil && !errors.Is(err, cache.ErrDisabled) {
		logger.WithContext(ctx).Warn("leaderboard cache read failed", "error", err)
	}
	if err != nil || len(scores) == 0 {
		return s.accounts.TopByEarned(ctx, limit)
	}

	ids := make([]int64, len(scores))
	for i, sc := range scores {
		ids[i] = sc.AccountID
	}
	names, err := s.accounts.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(scores))
	for _, sc := range scores {
		name, ok := names[sc.AccountID]
		if !ok {
			continue // deleted since the last rebuild
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        len(entries) + 1,
			AccountID:   sc.AccountID,
			Name:        name,
			TotalEarned: sc.TotalEarned,
		})
	}
	return entries, nil
}

// RebuildLeaderboard reloads the Redis leaderboard from PostgreSQL.
func (s *AccountService) RebuildLeaderboard(ctx context.Context) (int, error) {
	return s.board.Rebuild(ctx, func(add func(accountID, totalEarned int64) error) error {
		return s.accounts.EarnedScores(ctx, add)
	})
}
