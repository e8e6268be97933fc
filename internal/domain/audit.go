package domain

import "time"

// AuditLog records admin actions and security relevant events.
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	ActorID   int64                  `db:"actor_id" json:"actor_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	TargetID  *int64                 `db:"target_id" json:"target_id,omitempty"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth       = "auth"
	AuditCategoryAdmin      = "admin"
	AuditCategoryWithdrawal = "withdrawal"
	AuditCategoryReferral   = "referral"
)

// Audit actions
const (
	AuditActionLogin      = "login"
	AuditActionAdminLogin = "admin_login"

	AuditActionWithdrawRequest = "withdraw_request"
	AuditActionWithdrawApprove = "withdraw_approve"
	AuditActionWithdrawReject  = "withdraw_reject"

	AuditActionReferralApplied = "referral_applied"

	AuditActionAdminAddCoins      = "admin_add_coins"
	AuditActionAdminSetCoins      = "admin_set_coins"
	AuditActionAdminResetAccount  = "admin_reset_account"
	AuditActionAdminDeleteAccount = "admin_delete_account"
)
