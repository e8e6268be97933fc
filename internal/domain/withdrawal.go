package domain

import "time"

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusCompleted, WithdrawalStatusRejected:
		return true
	}
	return false
}

// Withdrawal is a cash-out request. Amount is deducted from the account when
// the request is created and refunded only on rejection.
type Withdrawal struct {
	ID            int64            `db:"id" json:"id"`
	Reference     string           `db:"reference" json:"reference"`
	AccountID     int64            `db:"account_id" json:"account_id"`
	Amount        int64            `db:"amount" json:"amount"`
	Fee           int64            `db:"fee" json:"fee"`
	Payout        int64            `db:"payout" json:"payout"`
	FiatPaise     int64            `db:"fiat_paise" json:"fiat_paise"`
	PayoutAddress string           `db:"payout_address" json:"payout_address"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	AdminNote     string           `db:"admin_note" json:"admin_note,omitempty"`
	ProcessedBy   *int64           `db:"processed_by" json:"processed_by,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
}
