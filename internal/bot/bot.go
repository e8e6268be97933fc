// Package bot is the Telegram side of the game: player commands that open
// the web app, admin commands over the same services as the admin API, and
// withdrawal notifications.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/economy"
	"tapearn/internal/logger"
	"tapearn/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type AccountService interface {
	GetOrCreate(ctx context.Context, p domain.Profile, referrerID int64) (*domain.Account, bool, error)
	Get(ctx context.Context, id int64) (*domain.Account, error)
}

type ReferralService interface {
	List(ctx context.Context, referrerID int64) (*service.ReferralList, error)
}

type AdminService interface {
	Stats(ctx context.Context) (*service.AdminStats, error)
	Users(ctx context.Context, limit, offset int) (*service.UserPage, error)
	User(ctx context.Context, id int64) (*service.UserDetail, error)
	Withdrawals(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, adminID, withdrawalID int64, note string) (*domain.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, adminID, withdrawalID int64, reason string) (*domain.Withdrawal, error)
	AdjustCoins(ctx context.Context, adminID, id, delta int64) (*domain.Account, error)
	SetCoins(ctx context.Context, adminID, id, value int64) (*domain.Account, error)
	Reset(ctx context.Context, adminID, id int64) (*domain.Account, error)
	Delete(ctx context.Context, adminID, id int64) error
	TopReferrers(ctx context.Context, limit int) ([]domain.ReferrerStat, error)
}

type Config struct {
	WebAppURL string
	Roster    domain.AdminRoster
	Rules     economy.Rules
}

// Bot handles updates from either the webhook or long polling.
type Bot struct {
	api       Sender
	accounts  AccountService
	referrals ReferralService
	admin     AdminService
	cfg       Config
	log       *slog.Logger

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(api Sender, accounts AccountService, referrals ReferralService, admin AdminService, cfg Config) *Bot {
	return &Bot{
		api:       api,
		accounts:  accounts,
		referrals: referrals,
		admin:     admin,
		cfg:       cfg,
		log:       logger.With("component", "bot"),
		stopCh:    make(chan struct{}),
	}
}

// HandleUpdate dispatches one update. Errors are reported to the chat and
// logged, never returned.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand() && update.Message.From != nil:
		b.handleCommand(ctx, update.Message)
	}
}

// Poll consumes updates until Stop is called or the channel closes.
func (b *Bot) Poll(updates tgbotapi.UpdatesChannel) {
	b.log.Info("starting bot update loop")
	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}

// Stop ends Poll and waits for handlers in flight.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if b.handlePlayerCommand(ctx, msg) {
		return
	}
	if role, ok := b.cfg.Roster.Role(msg.From.ID); ok {
		if response, handled := b.handleAdminCommand(ctx, msg, role); handled {
			b.reply(msg, response)
			return
		}
	}
	b.reply(msg, "Unknown command. Use /help to see what I can do.")
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyToMessageID = msg.MessageID
	out.DisableWebPagePreview = true
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("error sending message", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	if markup != nil {
		out.ReplyMarkup = *markup
	}
	_, err := b.api.Send(out)
	return err
}
