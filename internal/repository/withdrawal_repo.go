package repository

import (
	"context"
	"errors"
	"time"

	"tapearn/internal/domain"

	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `id, reference, account_id, amount, fee, payout, fiat_paise, payout_address,
	status, admin_note, processed_by, created_at, processed_at`

type WithdrawalRepository struct {
	db DBTX
}

func NewWithdrawalRepository(db DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) WithTx(tx pgx.Tx) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

// Create inserts a new pending request.
func (r *WithdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO withdrawals (reference, account_id, amount, fee, payout, fiat_paise, payout_address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, w.Reference, w.AccountID, w.Amount, w.Fee, w.Payout, w.FiatPaise, w.PayoutAddress, w.Status,
	).Scan(&w.ID, &w.CreatedAt)
}

// GetByID retrieves withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	row := r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	return scanWithdrawal(row)
}

// GetForUpdate retrieves a withdrawal and locks it until the transaction ends.
func (r *WithdrawalRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	row := r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id)
	return scanWithdrawal(row)
}

// ListByAccount returns an account's requests, newest first.
func (r *WithdrawalRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// List returns requests filtered by status; an empty status means all.
// Pending requests come oldest first so admins work the queue in order.
func (r *WithdrawalRepository) List(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	order := "DESC"
	if status == domain.WithdrawalStatusPending {
		order = "ASC"
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at `+order+`, id `+order+`
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// StalePending returns pending requests created before cutoff.
func (r *WithdrawalRepository) StalePending(ctx context.Context, cutoff time.Time) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// Resolve moves a request out of pending. The WHERE clause keeps the
// transition one-way even without a row lock.
func (r *WithdrawalRepository) Resolve(ctx context.Context, w *domain.Withdrawal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE withdrawals
		SET status = $2, admin_note = $3, processed_by = $4, processed_at = $5
		WHERE id = $1 AND status = 'pending'
	`, w.ID, w.Status, w.AdminNote, w.ProcessedBy, w.ProcessedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWithdrawalProcessed
	}
	return nil
}

// WithdrawalSummary aggregates one account's requests.
type WithdrawalSummary struct {
	Count     int64 `json:"withdrawals_made"`
	Completed int64 `json:"withdrawn_coins"`
	Pending   int64 `json:"pending_coins"`
}

// Summary counts an account's requests and sums completed and pending amounts.
func (r *WithdrawalRepository) Summary(ctx context.Context, accountID int64) (WithdrawalSummary, error) {
	var s WithdrawalSummary
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)
		FROM withdrawals
		WHERE account_id = $1
	`, accountID).Scan(&s.Count, &s.Completed, &s.Pending)
	return s, err
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := row.Scan(
		&w.ID, &w.Reference, &w.AccountID, &w.Amount, &w.Fee, &w.Payout, &w.FiatPaise, &w.PayoutAddress,
		&w.Status, &w.AdminNote, &w.ProcessedBy, &w.CreatedAt, &w.ProcessedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

func scanWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	var withdrawals []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, *w)
	}
	return withdrawals, rows.Err()
}
