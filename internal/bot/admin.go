package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"tapearn/internal/domain"
	"tapearn/internal/economy"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const usersPerPage = 20

const adminHelp = `<b>🤖 Admin commands</b>

<b>📊 Stats:</b>
/stats - platform statistics
/referrals [limit] - top referrers

<b>👤 Accounts:</b>
/user &lt;id&gt; - account details
/users [page] - all accounts
/addcoins &lt;id&gt; &lt;delta&gt; - add or remove coins
/setcoins &lt;id&gt; &lt;value&gt; - set the balance
/reset &lt;id&gt; - reset progress
/delete &lt;id&gt; - delete the account

<b>💸 Withdrawals:</b>
/withdrawals - pending requests
/approve &lt;id&gt; [note] - mark as paid
/reject &lt;id&gt; &lt;reason&gt; - reject and refund`

// adminCommands maps each admin command to the permission it needs.
var adminCommands = map[string]domain.Permission{
	"stats":       domain.PermStatsRead,
	"user":        domain.PermStatsRead,
	"users":       domain.PermStatsRead,
	"referrals":   domain.PermStatsRead,
	"withdrawals": domain.PermWithdrawalsManage,
	"approve":     domain.PermWithdrawalsManage,
	"reject":      domain.PermWithdrawalsManage,
	"addcoins":    domain.PermAccountsManage,
	"setcoins":    domain.PermAccountsManage,
	"reset":       domain.PermAccountsManage,
	"delete":      domain.PermAccountsManage,
}

// handleAdminCommand returns the reply for an admin command, or false when
// the command is not an admin command.
func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message, role domain.AdminRole) (string, bool) {
	cmd := msg.Command()
	perm, ok := adminCommands[cmd]
	if !ok {
		return "", false
	}
	if !role.Can(perm) {
		return "⛔ Your role cannot use /" + cmd + ".", true
	}

	adminID := msg.From.ID
	args := strings.Fields(msg.CommandArguments())
	b.log.Info("admin command", "admin_id", adminID, "command", cmd, "args", args)

	switch cmd {
	case "stats":
		return b.handleStats(ctx), true
	case "user":
		return b.handleUser(ctx, args), true
	case "users":
		return b.handleUsers(ctx, args), true
	case "referrals":
		return b.handleTopReferrers(ctx, args), true
	case "withdrawals":
		return b.handlePendingWithdrawals(ctx), true
	case "approve":
		return b.handleApprove(ctx, adminID, args), true
	case "reject":
		return b.handleReject(ctx, adminID, args), true
	case "addcoins":
		return b.handleAddCoins(ctx, adminID, args), true
	case "setcoins":
		return b.handleSetCoins(ctx, adminID, args), true
	case "reset":
		return b.handleReset(ctx, adminID, args), true
	case "delete":
		return b.handleDelete(ctx, adminID, args), true
	}
	return "", false
}

// errorText turns a service error into a reply. Internal detail is logged
// and hidden.
func (b *Bot) errorText(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return "❌ " + html.EscapeString(de.Message)
	}
	b.log.Error("admin command failed", "error", err)
	return "❌ Internal error, see logs."
}

func parseID(args []string, i int) (int64, bool) {
	if len(args) <= i {
		return 0, false
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (b *Bot) handleStats(ctx context.Context) string {
	st, err := b.admin.Stats(ctx)
	if err != nil {
		return b.errorText(err)
	}
	return fmt.Sprintf(`<b>📊 Platform stats</b>

<b>👥 Users:</b>
• Total: %d
• Active 24h: %d
• New 24h: %d

<b>💰 Coins:</b>
• In circulation: %d
• Earned all time: %d
• Referrals: %d

<b>💸 Withdrawals:</b>
• Total requests: %d
• Pending: %d (%d coins)
• Paid out: %d coins (₹%s)`,
		st.TotalUsers, st.ActiveUsers24h, st.NewUsers24h,
		st.TotalCoins, st.TotalEarned, st.TotalReferrals,
		st.TotalWithdrawals, st.PendingWithdrawals, st.PendingCoins,
		st.TotalWithdrawnCoins, economy.FormatRupees(st.TotalPaidOutPaise))
}

func (b *Bot) handleUser(ctx context.Context, args []string) string {
	id, ok := parseID(args, 0)
	if !ok {
		return "Usage: /user &lt;id&gt;"
	}
	d, err := b.admin.User(ctx, id)
	if err != nil {
		return b.errorText(err)
	}
	a := d.Account
	username := "-"
	if a.Username != "" {
		username = "@" + a.Username
	}
	payout := a.PayoutAddress
	if payout == "" {
		payout = "-"
	}
	return fmt.Sprintf(`<b>👤 %s</b> (%s)
ID: <code>%d</code>

💰 Coins: %d
📈 Total earned: %d
⚡ Energy: %d/%d
👆 Tap power: %d (lvl %d)
🔋 Capacity lvl %d, regen lvl %d
👥 Referrals: %d (%d coins)
🏦 UPI: <code>%s</code>
💸 Withdrawn: %d coins, pending %d coins
🕒 Last seen: %s
📅 Joined: %s`,
		html.EscapeString(a.DisplayName()), html.EscapeString(username), a.ID,
		a.Coins, a.TotalEarned, a.Energy, a.MaxEnergy, a.TapPower, a.TapPowerLevel,
		a.EnergyCapacityLevel, a.EnergyRegenLevel, a.ReferralCount, a.ReferralEarnings,
		html.EscapeString(payout), d.Withdrawals.Completed, d.Withdrawals.Pending,
		a.LastSeenAt.Format("2006-01-02 15:04"), a.CreatedAt.Format("2006-01-02"))
}

func (b *Bot) handleUsers(ctx context.Context, args []string) string {
	page := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			page = n
		}
	}
	res, err := b.admin.Users(ctx, usersPerPage, (page-1)*usersPerPage)
	if err != nil {
		return b.errorText(err)
	}
	if len(res.Users) == 0 {
		return "No users on this page."
	}

	pages := (res.Total + usersPerPage - 1) / usersPerPage
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>👥 Users</b> (page %d/%d, total %d)\n\n", page, pages, res.Total)
	for _, u := range res.Users {
		fmt.Fprintf(&sb, "<code>%d</code> %s - %d coins\n", u.ID, html.EscapeString(u.DisplayName()), u.Coins)
	}
	if int64(page) < pages {
		fmt.Fprintf(&sb, "\nNext: /users %d", page+1)
	}
	return sb.String()
}

func (b *Bot) handleTopReferrers(ctx context.Context, args []string) string {
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	top, err := b.admin.TopReferrers(ctx, limit)
	if err != nil {
		return b.errorText(err)
	}
	if len(top) == 0 {
		return "No referrals yet."
	}
	var sb strings.Builder
	sb.WriteString("<b>🏆 Top referrers</b>\n\n")
	for i, r := range top {
		name := r.FirstName
		if name == "" {
			name = r.Username
		}
		fmt.Fprintf(&sb, "%d. %s (<code>%d</code>) - %d invited, %d coins\n",
			i+1, html.EscapeString(name), r.AccountID, r.Count, r.Earnings)
	}
	return sb.String()
}

func (b *Bot) handlePendingWithdrawals(ctx context.Context) string {
	list, err := b.admin.Withdrawals(ctx, domain.WithdrawalStatusPending, 20)
	if err != nil {
		return b.errorText(err)
	}
	if len(list) == 0 {
		return "✅ No pending withdrawals."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>💸 Pending withdrawals</b> (%d)\n\n", len(list))
	for _, w := range list {
		sb.WriteString(withdrawalLine(w))
	}
	sb.WriteString("\n/approve &lt;id&gt; [note]\n/reject &lt;id&gt; &lt;reason&gt;")
	return sb.String()
}

func withdrawalLine(w domain.Withdrawal) string {
	return fmt.Sprintf("#%d user <code>%d</code>: %d coins, pay ₹%s to <code>%s</code> (%s)\n",
		w.ID, w.AccountID, w.Amount, economy.FormatRupees(w.FiatPaise),
		html.EscapeString(w.PayoutAddress), w.CreatedAt.Format("2006-01-02 15:04"))
}

func (b *Bot) handleApprove(ctx context.Context, adminID int64, args []string) string {
	id, ok := parseID(args, 0)
	if !ok {
		return "Usage: /approve &lt;id&gt; [note]"
	}
	w, err := b.admin.ApproveWithdrawal(ctx, adminID, id, strings.Join(args[1:], " "))
	if err != nil {
		return b.errorText(err)
	}
	return fmt.Sprintf("✅ Withdrawal #%d approved: ₹%s to <code>%s</code>",
		w.ID, economy.FormatRupees(w.FiatPaise), html.EscapeString(w.PayoutAddress))
}

func (b *Bot) handleReject(ctx context.Context, adminID int64, args []string) string {
	id, ok := parseID(args, 0)
	if !ok || len(args) < 2 {
		return "Usage: /reject &lt;id&gt; &lt;reason&gt;"
	}
	w, err := b.admin.RejectWithdrawal(ctx, adminID, id, strings.Join(args[1:], " "))
	if err != nil {
		return b.errorText(err)
	}
	return fmt.Sprintf("↩️ Withdrawal #%d rejected, %d coins refunded.", w.ID, w.Amount)
}

func (b *Bot) handleAddCoins(ctx context.Context, adminID int64, args []string) string {
	id, ok := parseID(args, 0)
	if !ok || len(args) < 2 {
		return "Usage: /addcoins &lt;id&gt; &lt;delta&gt;"
	}
	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "❌ delta must be a whole number"
	}
	acc, err := b.admin.AdjustCoins(ctx, adminID, id, delta)
	if err != nil {
		return b.errorText(err)
	}
	return fmt.Sprintf("✅ Balance of <code>%d</code> is now %d coins.", acc.ID, acc.Coins)
}

func (b *Bot) handleSetCoins(ctx context.Context, adminID int64, args []string) string {
	id, ok := parseID(args, 0)
	if !ok || len(args) < 2 {
		return "Usage: /setcoins &lt;id&gt; &lt;value&gt;"
	}
	value, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "❌ value must be a whole number"
	}
	acc, err := b.admin.SetCoins(ctx, adminID, id, value)
	if err != nil {
		return b.errorText(err)
	}
	return fmt.Sprintf("✅ Balance of <code>%d</code> set to %d coins.", acc.ID, acc.Coins)
}

func (b *Bot) handleReset(ctx context.Context, adminID int64, args []string) string {
	id, ok := parseID(args, 0)
	if !ok {
		return "Usage: /reset &lt;id&gt;"
	}
	if _, err := b.admin.Reset(ctx, adminID, id); err != nil {
		return b.errorText(err)
	}
	return fmt.Sprintf("✅ Account <code>%d</code> reset.", id)
}

func (b *Bot) handleDelete(ctx context.Context, adminID int64, args []string) string {
	id, ok := parseID(args, 0)
	if !ok {
		return "Usage: /delete &lt;id&gt;"
	}
	if err := b.admin.Delete(ctx, adminID, id); err != nil {
		return b.errorText(err)
	}
	return fmt.Sprintf("🗑 Account <code>%d</code> deleted.", id)
}
