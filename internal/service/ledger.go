package service

import (
	"context"
	"errors"
	"time"

	"tapearn/internal/cache"
	"tapearn/internal/domain"
	"tapearn/internal/economy"
	"tapearn/internal/logger"
	"tapearn/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventPublisher pushes live updates to connected web app clients.
type EventPublisher interface {
	PublishBalance(acc domain.Account)
	PublishWithdrawal(w domain.Withdrawal)
}

// WithdrawalNotifier tells people about withdrawals out of band (Telegram).
type WithdrawalNotifier interface {
	NotifyNewWithdrawal(ctx context.Context, w domain.Withdrawal, acc domain.Account)
	NotifyWithdrawalResolved(ctx context.Context, w domain.Withdrawal)
}

// Ledger is the shared core of every balance-changing service. All account
// writes go through mutate, which serializes them on the account row.
type Ledger struct {
	pool     *pgxpool.Pool
	accounts *repository.AccountRepository
	txs      *repository.TransactionRepository
	rules    economy.Rules
	board    *cache.Leaderboard
	events   EventPublisher
	now      func() time.Time
}

func NewLedger(pool *pgxpool.Pool, rules economy.Rules, board *cache.Leaderboard, events EventPublisher) *Ledger {
	return &Ledger{
		pool:     pool,
		accounts: repository.NewAccountRepository(pool),
		txs:      repository.NewTransactionRepository(pool),
		rules:    rules,
		board:    board,
		events:   events,
		now:      time.Now,
	}
}

// Rules exposes the rule set the ledger enforces.
func (l *Ledger) Rules() economy.Rules { return l.rules }

// SetClock replaces time.Now, for tests.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// mutate locks account id, regenerates its energy, hands it to fn and saves
// whatever fn left in it, all in one transaction. fn may write other tables
// through tx. Nothing is persisted when fn fails.
func (l *Ledger) mutate(ctx context.Context, id int64, fn func(tx pgx.Tx, acc *domain.Account, now time.Time) error) (*domain.Account, error) {
	var out *domain.Account
	err := repository.InTx(ctx, l.pool, func(tx pgx.Tx) error {
		accounts := l.accounts.WithTx(tx)
		acc, err := accounts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		now := l.now()
		next := l.rules.Regenerate(*acc, now)
		if err := fn(tx, &next, now); err != nil {
			return err
		}
		if err := accounts.SaveState(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.committed(ctx, out)
	return out, nil
}

// committed fans a saved account out to the live feed and the leaderboard.
func (l *Ledger) committed(ctx context.Context, accs ...*domain.Account) {
	for _, acc := range accs {
		if acc == nil {
			continue
		}
		if l.events != nil {
			l.events.PublishBalance(*acc)
		}
		if err := l.board.Update(ctx, acc.ID, acc.TotalEarned); err != nil && !errors.Is(err, cache.ErrDisabled) {
			logger.WithContext(ctx).Warn("leaderboard update failed", "account_id", acc.ID, "error", err)
		}
	}
}

// record appends a history row inside tx.
func (l *Ledger) record(ctx context.Context, tx pgx.Tx, accountID int64, typ domain.TransactionType, amount int64, desc string, meta map[string]interface{}) error {
	return l.txs.WithTx(tx).Create(ctx, &domain.Transaction{
		AccountID:   accountID,
		Type:        typ,
		Amount:      amount,
		Description: desc,
		Meta:        meta,
	})
}

// credit adds earned coins, which also count toward total_earned.
func credit(acc *domain.Account, amount int64) {
	acc.Coins += amount
	acc.TotalEarned += amount
}
