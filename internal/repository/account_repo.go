package repository

import (
	"context"
	"errors"

	"tapearn/internal/domain"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, username, first_name, coins, energy, max_energy, tap_power, energy_regen_rate,
	tap_power_level, energy_capacity_level, energy_regen_level, referred_by, referral_count,
	referral_earnings, total_earned, payout_address, last_energy_update, last_seen_at, created_at`

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	return &AccountRepository{db: tx}
}

func (r *AccountRepository) Get(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetForUpdate loads the account and locks its row until the transaction ends.
func (r *AccountRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

// GetManyForUpdate locks several rows in ascending id order so that two
// transactions touching the same pair can never deadlock.
func (r *AccountRepository) GetManyForUpdate(ctx context.Context, ids ...int64) (map[int64]*domain.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[int64]*domain.Account, len(ids))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res[acc.ID] = acc
	}
	return res, rows.Err()
}

// Insert creates the account unless it already exists. created is false when
// another request won the race.
func (r *AccountRepository) Insert(ctx context.Context, a *domain.Account) (created bool, err error) {
	err = r.db.QueryRow(ctx, `
		INSERT INTO accounts (id, username, first_name, coins, energy, max_energy, tap_power,
			energy_regen_rate, referred_by, total_earned, last_energy_update, last_seen_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at`,
		a.ID, a.Username, a.FirstName, a.Coins, a.Energy, a.MaxEnergy, a.TapPower,
		a.EnergyRegenRate, a.ReferredBy, a.TotalEarned, a.LastEnergyUpdate, a.LastSeenAt, a.CreatedAt,
	).Scan(&a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveState writes every mutable column of a.
func (r *AccountRepository) SaveState(ctx context.Context, a *domain.Account) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			username = $2, first_name = $3, coins = $4, energy = $5, max_energy = $6,
			tap_power = $7, energy_regen_rate = $8, tap_power_level = $9,
			energy_capacity_level = $10, energy_regen_level = $11, referred_by = $12,
			referral_count = $13, referral_earnings = $14, total_earned = $15,
			payout_address = $16, last_energy_update = $17, last_seen_at = $18
		WHERE id = $1`,
		a.ID, a.Username, a.FirstName, a.Coins, a.Energy, a.MaxEnergy,
		a.TapPower, a.EnergyRegenRate, a.TapPowerLevel,
		a.EnergyCapacityLevel, a.EnergyRegenLevel, a.ReferredBy,
		a.ReferralCount, a.ReferralEarnings, a.TotalEarned,
		a.PayoutAddress, a.LastEnergyUpdate, a.LastSeenAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes the account; dependent rows go with it through ON DELETE CASCADE.
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// List pages through accounts, newest first, and returns the total count.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]domain.Account, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, *acc)
	}
	return res, total, rows.Err()
}

// TopByEarned returns the leaderboard straight from PostgreSQL.
func (r *AccountRepository) TopByEarned(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, username, first_name, total_earned
		FROM accounts
		ORDER BY total_earned DESC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.LeaderboardEntry
	rank := 1
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.FirstName, &a.TotalEarned); err != nil {
			return nil, err
		}
		res = append(res, domain.LeaderboardEntry{
			Rank:        rank,
			AccountID:   a.ID,
			Name:        a.DisplayName(),
			TotalEarned: a.TotalEarned,
		})
		rank++
	}
	return res, rows.Err()
}

// EarnedScores streams every (id, total_earned) pair for a leaderboard rebuild.
func (r *AccountRepository) EarnedScores(ctx context.Context, fn func(id, earned int64) error) error {
	rows, err := r.db.Query(ctx, `SELECT id, total_earned FROM accounts`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, earned int64
		if err := rows.Scan(&id, &earned); err != nil {
			return err
		}
		if err := fn(id, earned); err != nil {
			return err
		}
	}
	return rows.Err()
}

// NamesByIDs resolves display names for a set of accounts.
func (r *AccountRepository) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, username, first_name FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.FirstName); err != nil {
			return nil, err
		}
		names[a.ID] = a.DisplayName()
	}
	return names, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(
		&a.ID, &a.Username, &a.FirstName, &a.Coins, &a.Energy, &a.MaxEnergy, &a.TapPower,
		&a.EnergyRegenRate, &a.TapPowerLevel, &a.EnergyCapacityLevel, &a.EnergyRegenLevel,
		&a.ReferredBy, &a.ReferralCount, &a.ReferralEarnings, &a.TotalEarned, &a.PayoutAddress,
		&a.LastEnergyUpdate, &a.LastSeenAt, &a.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}
