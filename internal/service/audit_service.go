package service

import (
	"context"

	"tapearn/internal/domain"
	"tapearn/internal/logger"
	"tapearn/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditService handles audit logging. Failures are logged, never returned.
type AuditService struct {
	repo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(db),
	}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, entry *domain.AuditLog) {
	if s == nil {
		return
	}
	if entry.Details == nil {
		entry.Details = map[string]interface{}{}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err,
			"action", entry.Action, "actor_id", entry.ActorID)
	}
}

// LogLogin logs a player or admin login with request info (IP, User-Agent)
func (s *AuditService) LogLogin(ctx context.Context, userID int64, admin bool, ip, userAgent string) {
	action := domain.AuditActionLogin
	if admin {
		action = domain.AuditActionAdminLogin
	}
	s.Log(ctx, &domain.AuditLog{
		ActorID:   userID,
		Action:    action,
		Category:  domain.AuditCategoryAuth,
		IP:        ip,
		UserAgent: userAgent,
	})
}

// LogWithdrawRequest logs a withdrawal request
func (s *AuditService) LogWithdrawRequest(ctx context.Context, w *domain.Withdrawal) {
	s.Log(ctx, &domain.AuditLog{
		ActorID:  w.AccountID,
		Action:   domain.AuditActionWithdrawRequest,
		Category: domain.AuditCategoryWithdrawal,
		Details: map[string]interface{}{
			"withdrawal_id":  w.ID,
			"reference":      w.Reference,
			"amount":         w.Amount,
			"payout_address": w.PayoutAddress,
		},
	})
}

// LogWithdrawResolved logs an approval or rejection by an admin
func (s *AuditService) LogWithdrawResolved(ctx context.Context, adminID int64, w *domain.Withdrawal) {
	action := domain.AuditActionWithdrawApprove
	if w.Status == domain.WithdrawalStatusRejected {
		action = domain.AuditActionWithdrawReject
	}
	target := w.AccountID
	s.Log(ctx, &domain.AuditLog{
		ActorID:  adminID,
		Action:   action,
		Category: domain.AuditCategoryWithdrawal,
		TargetID: &target,
		Details: map[string]interface{}{
			"withdrawal_id": w.ID,
			"amount":        w.Amount,
			"note":          w.AdminNote,
		},
	})
}

// LogReferral logs a referral link between two accounts
func (s *AuditService) LogReferral(ctx context.Context, referredID, referrerID int64, bonus int64) {
	target := referrerID
	s.Log(ctx, &domain.AuditLog{
		ActorID:  referredID,
		Action:   domain.AuditActionReferralApplied,
		Category: domain.AuditCategoryReferral,
		TargetID: &target,
		Details:  map[string]interface{}{"bonus": bonus},
	})
}

// LogAdminAction logs an admin action against an account
func (s *AuditService) LogAdminAction(ctx context.Context, adminID int64, action string, targetID int64, details map[string]interface{}) {
	s.Log(ctx, &domain.AuditLog{
		ActorID:  adminID,
		Action:   action,
		Category: domain.AuditCategoryAdmin,
		TargetID: &targetID,
		Details:  details,
	})
}

// Recent returns recent audit logs, optionally for one category
func (s *AuditService) Recent(ctx context.Context, category string, limit int) ([]domain.AuditLog, error) {
	return s.repo.Recent(ctx, category, limit)
}
