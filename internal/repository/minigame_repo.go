package repository

import (
	"context"
	"errors"
	"time"

	"tapearn/internal/domain"

	"github.com/jackc/pgx/v5"
)

type MinigameRepository struct {
	db DBTX
}

func NewMinigameRepository(db DBTX) *MinigameRepository {
	return &MinigameRepository{db: db}
}

func (r *MinigameRepository) WithTx(tx pgx.Tx) *MinigameRepository {
	return &MinigameRepository{db: tx}
}

func (r *MinigameRepository) Create(ctx context.Context, m *domain.MinigameReward) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO minigame_rewards (account_id, game_name, amount, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.AccountID, m.GameName, m.Amount, m.CreatedAt).Scan(&m.ID)
}

// LastClaim returns when accountID last claimed game. ok is false if never.
func (r *MinigameRepository) LastClaim(ctx context.Context, accountID int64, game string) (at time.Time, ok bool, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT created_at FROM minigame_rewards
		WHERE account_id = $1 AND game_name = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, accountID, game).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}
