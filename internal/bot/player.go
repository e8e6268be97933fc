package bot

import (
	"context"
	"fmt"
	"html"
	"net/url"

	"tapearn/internal/domain"
	"tapearn/internal/economy"
	"tapearn/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// callback data
const (
	cbMainMenu = "main_menu"
	cbBalance  = "balance"
	cbHelp     = "help"
)

func (b *Bot) handlePlayerCommand(ctx context.Context, msg *tgbotapi.Message) bool {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.reply(msg, b.helpText(msg.From.ID))
	case "balance":
		b.handleBalance(ctx, msg.Chat.ID, msg.From)
	case "referral":
		b.handleReferral(ctx, msg)
	default:
		return false
	}
	return true
}

func profileOf(u *tgbotapi.User) domain.Profile {
	return domain.Profile{ID: u.ID, Username: u.UserName, FirstName: u.FirstName}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	var referrerID int64
	if id, ok := telegram.ParseReferralCode(msg.CommandArguments()); ok {
		referrerID = id
	}

	acc, created, err := b.accounts.GetOrCreate(ctx, profileOf(msg.From), referrerID)
	if err != nil {
		b.log.Error("start failed", "tg_id", msg.From.ID, "error", err)
		b.reply(msg, "Something went wrong, please try again.")
		return
	}

	text := fmt.Sprintf("👋 Welcome back, <b>%s</b>!\n\n💰 Balance: <b>%d</b> coins\n⚡ Energy: %d/%d",
		html.EscapeString(acc.DisplayName()), acc.Coins, acc.Energy, acc.MaxEnergy)
	if created {
		text = fmt.Sprintf("👋 Welcome, <b>%s</b>!\n\nTap the coin, earn coins and cash them out over UPI. "+
			"You start with <b>%d</b> coins.", html.EscapeString(acc.DisplayName()), acc.Coins)
		if acc.ReferredBy != nil {
			text += "\n🎁 Your referral bonus is already on your balance."
		}
	}

	markup := b.mainMenu()
	if err := b.send(msg.Chat.ID, text, &markup); err != nil {
		b.log.Error("error sending message", "chat_id", msg.Chat.ID, "error", err)
	}
}

// screenURL links a screen of the web app.
func (b *Bot) screenURL(screen string) string {
	if screen == "" {
		return b.cfg.WebAppURL
	}
	u, err := url.Parse(b.cfg.WebAppURL)
	if err != nil {
		return b.cfg.WebAppURL
	}
	q := u.Query()
	q.Set("screen", screen)
	u.RawQuery = q.Encode()
	return u.String()
}

func (b *Bot) mainMenu() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if b.cfg.WebAppURL != "" {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("🎮 Play", b.screenURL("")),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("⬆️ Upgrades", b.screenURL("upgrades")),
				tgbotapi.NewInlineKeyboardButtonURL("🕹 Mini Games", b.screenURL("minigames")),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("💸 Withdraw", b.screenURL("withdraw")),
				tgbotapi.NewInlineKeyboardButtonURL("👥 Referrals", b.screenURL("referrals")),
			),
		)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💰 Balance", cbBalance),
		tgbotapi.NewInlineKeyboardButtonData("❓ Help", cbHelp),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", cbMainMenu),
	))
}

func (b *Bot) balanceText(ctx context.Context, from *tgbotapi.User) string {
	acc, err := b.accounts.Get(ctx, from.ID)
	if err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			return "You have no account yet. Send /start to begin."
		}
		b.log.Error("balance lookup failed", "tg_id", from.ID, "error", err)
		return "Something went wrong, please try again."
	}
	return fmt.Sprintf("💰 <b>%d</b> coins (₹%s)\n⚡ Energy: %d/%d\n👆 Tap power: %d\n📈 Total earned: %d\n👥 Referrals: %d",
		acc.Coins, economy.FormatRupees(b.cfg.Rules.Paise(acc.Coins)), acc.Energy, acc.MaxEnergy,
		acc.TapPower, acc.TotalEarned, acc.ReferralCount)
}

func (b *Bot) handleBalance(ctx context.Context, chatID int64, from *tgbotapi.User) {
	markup := backMenu()
	if err := b.send(chatID, b.balanceText(ctx, from), &markup); err != nil {
		b.log.Error("error sending message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleReferral(ctx context.Context, msg *tgbotapi.Message) {
	list, err := b.referrals.List(ctx, msg.From.ID)
	if err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			b.reply(msg, "You have no account yet. Send /start to begin.")
			return
		}
		b.log.Error("referral lookup failed", "tg_id", msg.From.ID, "error", err)
		b.reply(msg, "Something went wrong, please try again.")
		return
	}
	b.reply(msg, fmt.Sprintf("👥 Invite friends and earn coins for each one.\n\nYour link:\n%s\n\nInvited: <b>%d</b>\nEarned: <b>%d</b> coins",
		html.EscapeString(list.Link), list.Count, list.Earnings))
}

func (b *Bot) helpText(tgID int64) string {
	text := `<b>How to play</b>
Open the game and tap the coin. Every tap costs one energy and pays your tap power in coins. Energy refills over time.
Buy upgrades to tap harder, store more energy or refill faster. Cash out over UPI from the Withdraw screen.

/start - main menu
/balance - your balance
/referral - your invite link
/help - this message`
	if _, ok := b.cfg.Roster.Role(tgID); ok {
		text += "\n\n" + adminHelp
	}
	return text
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Warn("answer callback failed", "error", err)
	}
	if cq.Message == nil || cq.From == nil {
		return
	}

	var (
		text   string
		markup tgbotapi.InlineKeyboardMarkup
	)
	switch cq.Data {
	case cbMainMenu:
		text, markup = "🏠 Main menu", b.mainMenu()
	case cbBalance:
		text, markup = b.balanceText(ctx, cq.From), backMenu()
	case cbHelp:
		text, markup = b.helpText(cq.From.ID), backMenu()
	default:
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn("edit message failed", "chat_id", cq.Message.Chat.ID, "error", err)
	}
}
