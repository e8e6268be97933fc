package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/economy"
	"tapearn/internal/logger"
	"tapearn/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const notifyTimeout = 10 * time.Second

type WithdrawalService struct {
	*Ledger
	repo     *repository.WithdrawalRepository
	audit    *AuditService
	notifier WithdrawalNotifier
}

func NewWithdrawalService(l *Ledger, audit *AuditService) *WithdrawalService {
	return &WithdrawalService{
		Ledger: l,
		repo:   repository.NewWithdrawalRepository(l.pool),
		audit:  audit,
	}
}

// SetNotifier wires the Telegram side in once the bot exists.
func (s *WithdrawalService) SetNotifier(n WithdrawalNotifier) { s.notifier = n }

// WithdrawalOutcome is returned by Request.
type WithdrawalOutcome struct {
	Withdrawal *domain.Withdrawal `json:"withdrawal"`
	Account    *domain.Account    `json:"user"`
}

// Request deducts amount immediately and files a pending request. An empty
// payoutAddress falls back to the stored one; a given one is stored.
func (s *WithdrawalService) Request(ctx context.Context, id, amount int64, payoutAddress string) (*WithdrawalOutcome, error) {
	quote, err := s.rules.QuoteWithdrawal(amount)
	if err != nil {
		return nil, err
	}

	var w *domain.Withdrawal
	acc, err := s.mutate(ctx, id, func(tx pgx.Tx, acc *domain.Account, now time.Time) error {
		if strings.TrimSpace(payoutAddress) != "" {
			addr, err := economy.NormalizePayoutAddress(payoutAddress)
			if err != nil {
				return err
			}
			acc.PayoutAddress = addr
		}
		if acc.PayoutAddress == "" {
			return domain.ErrMissingPayoutAddress
		}
		if acc.Coins < quote.Amount {
			return domain.ErrInsufficientCoins
		}

		acc.Coins -= quote.Amount
		acc.LastSeenAt = now
		w = &domain.Withdrawal{
			Reference:     uuid.New().String(),
			AccountID:     acc.ID,
			Amount:        quote.Amount,
			Fee:           quote.Fee,
			Payout:        quote.Payout,
			FiatPaise:     quote.FiatPaise,
			PayoutAddress: acc.PayoutAddress,
			Status:        domain.WithdrawalStatusPending,
		}
		if err := s.repo.WithTx(tx).Create(ctx, w); err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		return s.record(ctx, tx, acc.ID, domain.TxWithdrawal, -quote.Amount,
			fmt.Sprintf("Withdrawal of ₹%s to %s", quote.Rupees(), acc.PayoutAddress),
			map[string]interface{}{"withdrawal_id": w.ID, "reference": w.Reference, "fee": quote.Fee})
	})
	if err != nil {
		return nil, err
	}

	WithdrawalsTotal.WithLabelValues(string(domain.WithdrawalStatusPending)).Inc()
	s.audit.LogWithdrawRequest(ctx, w)
	logger.WithContext(ctx).Info("withdrawal requested", "account_id", id, "withdrawal_id", w.ID, "amount", w.Amount)
	if s.events != nil {
		s.events.PublishWithdrawal(*w)
	}
	if s.notifier != nil {
		go func(w domain.Withdrawal, acc domain.Account) {
			nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			s.notifier.NotifyNewWithdrawal(nctx, w, acc)
		}(*w, *acc)
	}
	return &WithdrawalOutcome{Withdrawal: w, Account: acc}, nil
}

func (s *WithdrawalService) History(ctx context.Context, id int64, limit int) ([]domain.Withdrawal, error) {
	if _, err := s.accounts.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	list, err := s.repo.ListByAccount(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Withdrawal{}
	}
	return list, nil
}

// List returns requests for the admin queue; status "" means all.
func (s *WithdrawalService) List(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	if status != "" && !status.Valid() {
		return nil, domain.NewError(domain.CodeValidation, "unknown withdrawal status")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, status, limit)
}

// Approve marks a pending request as paid out.
func (s *WithdrawalService) Approve(ctx context.Context, withdrawalID, adminID int64, note string) (*domain.Withdrawal, error) {
	var w *domain.Withdrawal
	err := repository.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.GetForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if locked.Status != domain.WithdrawalStatusPending {
			return domain.ErrWithdrawalProcessed
		}
		s.resolve(locked, domain.WithdrawalStatusCompleted, adminID, note)
		if err := repo.Resolve(ctx, locked); err != nil {
			return err
		}
		w = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.resolved(ctx, adminID, w)
	return w, nil
}

// Reject refunds exactly the requested amount. Lock order is account row,
// then withdrawal row, the same order a cascading account delete takes.
func (s *WithdrawalService) Reject(ctx context.Context, withdrawalID, adminID int64, reason string) (*domain.Withdrawal, error) {
	peek, err := s.repo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if peek.Status != domain.WithdrawalStatusPending {
		return nil, domain.ErrWithdrawalProcessed
	}

	var w *domain.Withdrawal
	_, err = s.mutate(ctx, peek.AccountID, func(tx pgx.Tx, acc *domain.Account, _ time.Time) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.GetForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if locked.Status != domain.WithdrawalStatusPending {
			return domain.ErrWithdrawalProcessed
		}

		s.resolve(locked, domain.WithdrawalStatusRejected, adminID, reason)
		if err := repo.Resolve(ctx, locked); err != nil {
			return err
		}
		acc.Coins += locked.Amount
		w = locked
		return s.record(ctx, tx, acc.ID, domain.TxWithdrawalRefund, locked.Amount,
			"Withdrawal rejected, coins refunded",
			map[string]interface{}{"withdrawal_id": locked.ID, "reason": reason})
	})
	if err != nil {
		return nil, err
	}
	s.resolved(ctx, adminID, w)
	return w, nil
}

func (s *WithdrawalService) resolve(w *domain.Withdrawal, status domain.WithdrawalStatus, adminID int64, note string) {
	now := s.now()
	w.Status = status
	w.AdminNote = strings.TrimSpace(note)
	w.ProcessedBy = &adminID
	w.ProcessedAt = &now
}

func (s *WithdrawalService) resolved(ctx context.Context, adminID int64, w *domain.Withdrawal) {
	WithdrawalsTotal.WithLabelValues(string(w.Status)).Inc()
	s.audit.LogWithdrawResolved(ctx, adminID, w)
	logger.WithContext(ctx).Info("withdrawal resolved", "withdrawal_id", w.ID, "status", w.Status, "admin_id", adminID)

	if s.events != nil {
		s.events.PublishWithdrawal(*w)
	}
	if s.notifier != nil {
		go func(w domain.Withdrawal) {
			nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			s.notifier.NotifyWithdrawalResolved(nctx, w)
		}(*w)
	}
}

// StalePending lists requests that have waited longer than age.
func (s *WithdrawalService) StalePending(ctx context.Context, age time.Duration) ([]domain.Withdrawal, error) {
	return s.repo.StalePending(ctx, s.now().Add(-age))
}
