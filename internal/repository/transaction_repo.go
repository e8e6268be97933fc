package repository

import (
	"context"
	"encoding/json"

	"tapearn/internal/domain"

	"github.com/jackc/pgx/v5"
)

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create inserts a new transaction
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	metaJSON, err := json.Marshal(t.Meta)
	if err != nil || t.Meta == nil {
		metaJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO transactions (account_id, type, amount, description, meta)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		t.AccountID, t.Type, t.Amount, t.Description, metaJSON,
	).Scan(&t.ID, &t.CreatedAt)
}

// ListByAccount returns recent transactions for an account
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, account_id, type, amount, description, meta, created_at
		 FROM transactions
		 WHERE account_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var (
			t        domain.Transaction
			metaJSON []byte
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Description, &metaJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &t.Meta)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
