package service

import (
	"context"
	"fmt"
	"strings"

	"tapearn/internal/domain"
	"tapearn/internal/repository"
	"tapearn/internal/telegram"

	"github.com/jackc/pgx/v5"
)

type ReferralService struct {
	*Ledger
	repo        *repository.ReferralRepository
	audit       *AuditService
	botUsername string
}

func NewReferralService(l *Ledger, audit *AuditService, botUsername string) *ReferralService {
	return &ReferralService{
		Ledger:      l,
		repo:        repository.NewReferralRepository(l.pool),
		audit:       audit,
		botUsername: strings.TrimPrefix(botUsername, "@"),
	}
}

// ReferralOutcome is returned by Apply.
type ReferralOutcome struct {
	Account    *domain.Account `json:"user"`
	ReferrerID int64           `json:"referrer_id"`
	Bonus      int64           `json:"bonus"`
}

// Apply links referredID to the owner of code and pays both sides. Both rows
// are locked in id order inside one transaction.
func (s *ReferralService) Apply(ctx context.Context, referredID int64, code string) (*ReferralOutcome, error) {
	referrerID, ok := telegram.ParseReferralCode(code)
	if !ok {
		return nil, domain.ErrInvalidReferralCode
	}
	if referrerID == referredID {
		return nil, domain.ErrSelfReferral
	}

	var referred, referrer *domain.Account
	err := repository.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		accounts := s.accounts.WithTx(tx)
		locked, err := accounts.GetManyForUpdate(ctx, referredID, referrerID)
		if err != nil {
			return err
		}
		a, ok := locked[referredID]
		if !ok {
			return domain.ErrAccountNotFound
		}
		b, ok := locked[referrerID]
		if !ok {
			return domain.ErrReferrerNotFound
		}
		if a.ReferredBy != nil {
			return domain.ErrAlreadyReferred
		}

		now := s.now()
		nextA := s.rules.Regenerate(*a, now)
		nextB := s.rules.Regenerate(*b, now)
		nextA.LastSeenAt = now
		if err := s.link(ctx, tx, &nextA, &nextB); err != nil {
			return err
		}
		if err := accounts.SaveState(ctx, &nextA); err != nil {
			return err
		}
		if err := accounts.SaveState(ctx, &nextB); err != nil {
			return err
		}
		referred, referrer = &nextA, &nextB
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.applied(ctx, referred, referrer)
	s.committed(ctx, referred, referrer)
	return &ReferralOutcome{Account: referred, ReferrerID: referrerID, Bonus: s.rules.ReferredBonus}, nil
}

// link pays the referral bonuses and writes the referral and history rows.
// Both accounts must be locked by tx; the caller saves them.
func (s *ReferralService) link(ctx context.Context, tx pgx.Tx, referred, referrer *domain.Account) error {
	if referred.ID == referrer.ID {
		return domain.ErrSelfReferral
	}
	if referred.ReferredBy != nil {
		return domain.ErrAlreadyReferred
	}

	bonus, referredBonus := s.rules.ReferralBonus, s.rules.ReferredBonus
	if err := s.repo.WithTx(tx).Create(ctx, &domain.Referral{
		ReferrerID:    referrer.ID,
		ReferredID:    referred.ID,
		Bonus:         bonus,
		ReferredBonus: referredBonus,
	}); err != nil {
		return err
	}

	id := referrer.ID
	referred.ReferredBy = &id
	credit(referred, referredBonus)
	credit(referrer, bonus)
	referrer.ReferralCount++
	referrer.ReferralEarnings += bonus

	if referredBonus > 0 {
		if err := s.record(ctx, tx, referred.ID, domain.TxReferral, referredBonus,
			"Joined with a referral code", map[string]interface{}{"referrer_id": referrer.ID}); err != nil {
			return err
		}
	}
	if bonus > 0 {
		if err := s.record(ctx, tx, referrer.ID, domain.TxReferral, bonus,
			fmt.Sprintf("Referral bonus for %s", referred.DisplayName()),
			map[string]interface{}{"referred_id": referred.ID}); err != nil {
			return err
		}
	}
	return nil
}

// applied runs after a referral commits.
func (s *ReferralService) applied(ctx context.Context, referred, referrer *domain.Account) {
	CoinsCredited.WithLabelValues(string(domain.TxReferral)).Add(float64(s.rules.ReferralBonus + s.rules.ReferredBonus))
	s.audit.LogReferral(ctx, referred.ID, referrer.ID, s.rules.ReferralBonus)
}

// ReferralList is what the referrals screen shows.
type ReferralList struct {
	Link      string                   `json:"referral_link"`
	Code      string                   `json:"referral_code"`
	Count     int64                    `json:"referral_count"`
	Earnings  int64                    `json:"referral_earnings"`
	Referrals []domain.ReferredAccount `json:"referrals"`
}

func (s *ReferralService) List(ctx context.Context, referrerID int64) (*ReferralList, error) {
	acc, err := s.accounts.Get(ctx, referrerID)
	if err != nil {
		return nil, err
	}
	refs, err := s.repo.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	if refs == nil {
		refs = []domain.ReferredAccount{}
	}
	return &ReferralList{
		Link:      s.Link(referrerID),
		Code:      telegram.ReferralCode(referrerID),
		Count:     acc.ReferralCount,
		Earnings:  acc.ReferralEarnings,
		Referrals: refs,
	}, nil
}

// Link is the share link that opens the bot with the referral payload.
func (s *ReferralService) Link(referrerID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, telegram.ReferralCode(referrerID))
}

// TopReferrers ranks accounts by referrals made.
func (s *ReferralService) TopReferrers(ctx context.Context, limit int) ([]domain.ReferrerStat, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.TopReferrers(ctx, limit)
}

// ListRaw returns the referred accounts without the share link, for admins.
func (s *ReferralService) ListRaw(ctx context.Context, referrerID int64) ([]domain.ReferredAccount, error) {
	if _, err := s.accounts.Get(ctx, referrerID); err != nil {
		return nil, err
	}
	return s.repo.ListByReferrer(ctx, referrerID)
}
