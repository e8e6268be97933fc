package domain

import "time"

type TransactionType string

const (
	TxTap              TransactionType = "tap"
	TxMinigame         TransactionType = "minigame"
	TxUpgrade          TransactionType = "upgrade"
	TxReferral         TransactionType = "referral"
	TxWithdrawal       TransactionType = "withdrawal"
	TxWithdrawalRefund TransactionType = "withdrawal_refund"
	TxWelcomeBonus     TransactionType = "welcome_bonus"
	TxAdminAdjust      TransactionType = "admin_adjust"
)

// Transaction is an append-only history entry. It is shown to players but
// never used to rebuild a balance.
type Transaction struct {
	ID          int64                  `db:"id" json:"id"`
	AccountID   int64                  `db:"account_id" json:"account_id"`
	Type        TransactionType        `db:"type" json:"type"`
	Amount      int64                  `db:"amount" json:"amount"`
	Description string                 `db:"description" json:"description"`
	Meta        map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
}
