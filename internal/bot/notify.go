package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	"tapearn/internal/domain"
	"tapearn/internal/economy"
)

// NotifyNewWithdrawal tells every admin about a new request.
func (b *Bot) NotifyNewWithdrawal(ctx context.Context, w domain.Withdrawal, acc domain.Account) {
	username := ""
	if acc.Username != "" {
		username = " @" + acc.Username
	}
	text := fmt.Sprintf(`🔔 <b>New withdrawal request</b>

👤 %s%s (<code>%d</code>)
💰 %d coins, fee %d
💳 Pay ₹%s to <code>%s</code>

ID: #%d
/approve %d - mark as paid
/reject %d &lt;reason&gt; - reject and refund`,
		html.EscapeString(acc.DisplayName()), html.EscapeString(username), acc.ID,
		w.Amount, w.Fee, economy.FormatRupees(w.FiatPaise), html.EscapeString(w.PayoutAddress),
		w.ID, w.ID, w.ID)
	b.notifyAdmins(ctx, text)
}

// NotifyWithdrawalResolved tells the owner the outcome. The account id is
// the Telegram user id, which is also the private chat id.
func (b *Bot) NotifyWithdrawalResolved(ctx context.Context, w domain.Withdrawal) {
	var text string
	switch w.Status {
	case domain.WithdrawalStatusCompleted:
		text = fmt.Sprintf("✅ Your withdrawal #%d was paid: ₹%s to <code>%s</code>.",
			w.ID, economy.FormatRupees(w.FiatPaise), html.EscapeString(w.PayoutAddress))
	case domain.WithdrawalStatusRejected:
		text = fmt.Sprintf("↩️ Your withdrawal #%d was rejected and %d coins were returned to your balance.",
			w.ID, w.Amount)
		if w.AdminNote != "" {
			text += "\nReason: " + html.EscapeString(w.AdminNote)
		}
	default:
		return
	}
	if err := b.send(w.AccountID, text, nil); err != nil {
		b.log.Warn("failed to notify user", "account_id", w.AccountID, "withdrawal_id", w.ID, "error", err)
	}
}

// NotifyPendingDigest reminds admins of requests that have waited too long.
func (b *Bot) NotifyPendingDigest(ctx context.Context, pending []domain.Withdrawal) {
	if len(pending) == 0 {
		return
	}
	var sb strings.Builder
	var total int64
	for _, w := range pending {
		total += w.Amount
	}
	fmt.Fprintf(&sb, "⏰ <b>%d withdrawals waiting over an hour</b> (%d coins)\n\n", len(pending), total)
	for i, w := range pending {
		if i == 20 {
			fmt.Fprintf(&sb, "…and %d more, see /withdrawals\n", len(pending)-i)
			break
		}
		sb.WriteString(withdrawalLine(w))
	}
	b.notifyAdmins(ctx, sb.String())
}

func (b *Bot) notifyAdmins(ctx context.Context, text string) {
	for _, id := range b.cfg.Roster.IDs() {
		if ctx.Err() != nil {
			return
		}
		if err := b.send(id, text, nil); err != nil {
			b.log.Error("failed to notify admin", "admin_id", id, "error", err)
		}
	}
}
