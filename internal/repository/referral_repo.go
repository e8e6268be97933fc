package repository

import (
	"context"

	"tapearn/internal/domain"

	"github.com/jackc/pgx/v5"
)

type ReferralRepository struct {
	db DBTX
}

func NewReferralRepository(db DBTX) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) WithTx(tx pgx.Tx) *ReferralRepository {
	return &ReferralRepository{db: tx}
}

// Create records a referral. referred_id is unique, so a second referral of
// the same account fails with ErrAlreadyReferred.
func (r *ReferralRepository) Create(ctx context.Context, ref *domain.Referral) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO referrals (referrer_id, referred_id, bonus, referred_bonus)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, ref.ReferrerID, ref.ReferredID, ref.Bonus, ref.ReferredBonus).Scan(&ref.ID, &ref.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyReferred
	}
	return err
}

// ListByReferrer returns the accounts invited by referrerID, newest first.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID int64) ([]domain.ReferredAccount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.username, a.first_name, r.bonus, r.created_at
		FROM referrals r
		JOIN accounts a ON a.id = r.referred_id
		WHERE r.referrer_id = $1
		ORDER BY r.created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ReferredAccount
	for rows.Next() {
		var ra domain.ReferredAccount
		if err := rows.Scan(&ra.AccountID, &ra.Username, &ra.FirstName, &ra.Bonus, &ra.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, ra)
	}
	return res, rows.Err()
}

// TopReferrers ranks accounts by number of referrals.
func (r *ReferralRepository) TopReferrers(ctx context.Context, limit int) ([]domain.ReferrerStat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.username, a.first_name, COUNT(r.id), COALESCE(SUM(r.bonus), 0)
		FROM referrals r
		JOIN accounts a ON a.id = r.referrer_id
		GROUP BY a.id, a.username, a.first_name
		ORDER BY COUNT(r.id) DESC, a.id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ReferrerStat
	for rows.Next() {
		var s domain.ReferrerStat
		if err := rows.Scan(&s.AccountID, &s.Username, &s.FirstName, &s.Count, &s.Earnings); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
