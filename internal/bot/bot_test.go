package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/economy"
	"tapearn/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID   int64 = 1001
	supportID int64 = 1002
	playerID  int64 = 42
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

type fakeAccounts struct {
	accounts   map[int64]*domain.Account
	referrerID int64
}

func (f *fakeAccounts) GetOrCreate(_ context.Context, p domain.Profile, referrerID int64) (*domain.Account, bool, error) {
	f.referrerID = referrerID
	if acc, ok := f.accounts[p.ID]; ok {
		return acc, false, nil
	}
	acc := &domain.Account{ID: p.ID, Username: p.Username, FirstName: p.FirstName, Coins: 2500, Energy: 100, MaxEnergy: 100}
	f.accounts[p.ID] = acc
	return acc, true, nil
}

func (f *fakeAccounts) Get(_ context.Context, id int64) (*domain.Account, error) {
	if acc, ok := f.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

type fakeReferrals struct{}

func (fakeReferrals) List(_ context.Context, id int64) (*service.ReferralList, error) {
	return &service.ReferralList{Link: "https://t.me/TapEarnBot?start=ref_42", Count: 3, Earnings: 1500}, nil
}

type fakeAdmin struct {
	calls    []string
	adjusted int64
	reason   string
}

func (f *fakeAdmin) Stats(context.Context) (*service.AdminStats, error) {
	f.calls = append(f.calls, "stats")
	return &service.AdminStats{TotalUsers: 12, PendingWithdrawals: 2, TotalPaidOutPaise: 12345}, nil
}

func (f *fakeAdmin) Users(_ context.Context, limit, offset int) (*service.UserPage, error) {
	f.calls = append(f.calls, "users")
	return &service.UserPage{
		Users: []domain.Account{{ID: 7, FirstName: "Bob", Coins: 10}},
		Total: 45, Limit: limit, Offset: offset,
	}, nil
}

func (f *fakeAdmin) User(_ context.Context, id int64) (*service.UserDetail, error) {
	f.calls = append(f.calls, "user")
	if id != 7 {
		return nil, domain.ErrAccountNotFound
	}
	return &service.UserDetail{Account: domain.Account{ID: 7, FirstName: "<Bob>", Coins: 10}}, nil
}

func (f *fakeAdmin) Withdrawals(context.Context, domain.WithdrawalStatus, int) ([]domain.Withdrawal, error) {
	f.calls = append(f.calls, "withdrawals")
	return []domain.Withdrawal{{ID: 5, AccountID: 7, Amount: 1000, FiatPaise: 980, PayoutAddress: "bob@upi"}}, nil
}

func (f *fakeAdmin) ApproveWithdrawal(_ context.Context, _, id int64, _ string) (*domain.Withdrawal, error) {
	f.calls = append(f.calls, "approve")
	return &domain.Withdrawal{ID: id, FiatPaise: 980, PayoutAddress: "bob@upi", Status: domain.WithdrawalStatusCompleted}, nil
}

func (f *fakeAdmin) RejectWithdrawal(_ context.Context, _, id int64, reason string) (*domain.Withdrawal, error) {
	f.calls = append(f.calls, "reject")
	f.reason = reason
	return &domain.Withdrawal{ID: id, Amount: 1000, Status: domain.WithdrawalStatusRejected}, nil
}

func (f *fakeAdmin) AdjustCoins(_ context.Context, _, id, delta int64) (*domain.Account, error) {
	f.calls = append(f.calls, "addcoins")
	f.adjusted = delta
	return &domain.Account{ID: id, Coins: 10 + delta}, nil
}

func (f *fakeAdmin) SetCoins(_ context.Context, _, id, value int64) (*domain.Account, error) {
	f.calls = append(f.calls, "setcoins")
	return &domain.Account{ID: id, Coins: value}, nil
}

func (f *fakeAdmin) Reset(_ context.Context, _, id int64) (*domain.Account, error) {
	f.calls = append(f.calls, "reset")
	return &domain.Account{ID: id}, nil
}

func (f *fakeAdmin) Delete(context.Context, int64, int64) error {
	f.calls = append(f.calls, "delete")
	return nil
}

func (f *fakeAdmin) TopReferrers(context.Context, int) ([]domain.ReferrerStat, error) {
	f.calls = append(f.calls, "referrals")
	return []domain.ReferrerStat{{AccountID: 7, FirstName: "Bob", Count: 4, Earnings: 2000}}, nil
}

func newTestBot() (*Bot, *fakeSender, *fakeAdmin, *fakeAccounts) {
	sender := &fakeSender{}
	admin := &fakeAdmin{}
	accounts := &fakeAccounts{accounts: map[int64]*domain.Account{}}
	b := New(sender, accounts, fakeReferrals{}, admin, Config{
		WebAppURL: "https://app.example.com",
		Roster:    domain.AdminRoster{ownerID: domain.RoleOwner, supportID: domain.RoleSupport},
		Rules:     economy.DefaultRules(),
	})
	return b, sender, admin, accounts
}

func command(from int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, FirstName: "Alice", UserName: "alice"},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestStartCreatesAccountWithReferrer(t *testing.T) {
	b, sender, _, accounts := newTestBot()

	b.HandleUpdate(context.Background(), command(playerID, "/start ref_7"))

	assert.Equal(t, int64(7), accounts.referrerID)
	require.Contains(t, accounts.accounts, playerID)

	msg := sender.last(t)
	assert.Equal(t, playerID, msg.ChatID)
	assert.Contains(t, msg.Text, "Welcome, <b>Alice</b>")
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotEmpty(t, markup.InlineKeyboard)
	play := markup.InlineKeyboard[0][0]
	require.NotNil(t, play.URL)
	assert.Equal(t, "https://app.example.com", *play.URL)
	withdraw := markup.InlineKeyboard[2][0]
	require.NotNil(t, withdraw.URL)
	assert.Equal(t, "https://app.example.com?screen=withdraw", *withdraw.URL)
}

func TestStartWithoutWebAppURL(t *testing.T) {
	b, sender, _, _ := newTestBot()
	b.cfg.WebAppURL = ""

	b.HandleUpdate(context.Background(), command(playerID, "/start"))

	markup := sender.last(t).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.Len(t, markup.InlineKeyboard, 1)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cbBalance, *markup.InlineKeyboard[0][0].CallbackData)
}

func TestBalanceAndReferral(t *testing.T) {
	b, sender, _, accounts := newTestBot()

	b.HandleUpdate(context.Background(), command(playerID, "/balance"))
	assert.Contains(t, sender.last(t).Text, "Send /start")

	accounts.accounts[playerID] = &domain.Account{ID: playerID, Coins: 2500, Energy: 90, MaxEnergy: 100, TapPower: 1}
	b.HandleUpdate(context.Background(), command(playerID, "/balance"))
	assert.Contains(t, sender.last(t).Text, "<b>2500</b> coins (₹25.00)")

	b.HandleUpdate(context.Background(), command(playerID, "/referral"))
	text := sender.last(t).Text
	assert.Contains(t, text, "start=ref_42")
	assert.Contains(t, text, "Invited: <b>3</b>")
}

func TestHelpShowsAdminCommandsToAdminsOnly(t *testing.T) {
	b, sender, _, _ := newTestBot()

	b.HandleUpdate(context.Background(), command(playerID, "/help"))
	assert.NotContains(t, sender.last(t).Text, "/approve")

	b.HandleUpdate(context.Background(), command(supportID, "/help"))
	assert.Contains(t, sender.last(t).Text, "/approve")
}

func TestAdminCommandsRequireRoster(t *testing.T) {
	b, sender, admin, _ := newTestBot()

	b.HandleUpdate(context.Background(), command(playerID, "/stats"))

	assert.Empty(t, admin.calls)
	assert.Contains(t, sender.last(t).Text, "Unknown command")
}

func TestAdminCommandPermissions(t *testing.T) {
	b, sender, admin, _ := newTestBot()

	b.HandleUpdate(context.Background(), command(supportID, "/addcoins 7 100"))
	assert.Empty(t, admin.calls)
	assert.Contains(t, sender.last(t).Text, "cannot use /addcoins")

	b.HandleUpdate(context.Background(), command(supportID, "/approve 5 paid"))
	assert.Equal(t, []string{"approve"}, admin.calls)
	assert.Contains(t, sender.last(t).Text, "₹9.80")

	b.HandleUpdate(context.Background(), command(ownerID, "/addcoins 7 -4"))
	assert.Equal(t, int64(-4), admin.adjusted)
	assert.Contains(t, sender.last(t).Text, "now 6 coins")
}

func TestAdminCommandReplies(t *testing.T) {
	tests := []struct {
		name string
		text string
		call string
		want string
	}{
		{"stats", "/stats", "stats", "₹123.45"},
		{"user", "/user 7", "user", "&lt;Bob&gt;"},
		{"user missing", "/user 8", "user", "account not found"},
		{"users", "/users 2", "users", "page 2/3, total 45"},
		{"pending", "/withdrawals", "withdrawals", "#5 user <code>7</code>"},
		{"setcoins", "/setcoins 7 50", "setcoins", "set to 50 coins"},
		{"reset", "/reset 7", "reset", "reset"},
		{"delete", "/delete 7", "delete", "deleted"},
		{"referrers", "/referrals 5", "referrals", "4 invited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, sender, admin, _ := newTestBot()
			b.HandleUpdate(context.Background(), command(ownerID, tt.text))
			assert.Equal(t, []string{tt.call}, admin.calls)
			assert.Contains(t, sender.last(t).Text, tt.want)
		})
	}
}

func TestAdminCommandUsage(t *testing.T) {
	for _, text := range []string{"/user", "/user abc", "/reject 5", "/addcoins 7", "/addcoins 7 x", "/setcoins", "/approve -1"} {
		t.Run(text, func(t *testing.T) {
			b, sender, admin, _ := newTestBot()
			b.HandleUpdate(context.Background(), command(ownerID, text))
			assert.Empty(t, admin.calls)
			reply := sender.last(t).Text
			assert.True(t, strings.HasPrefix(reply, "Usage") || strings.HasPrefix(reply, "❌"), reply)
		})
	}
}

func TestRejectJoinsReason(t *testing.T) {
	b, sender, admin, _ := newTestBot()

	b.HandleUpdate(context.Background(), command(ownerID, "/reject 5 wrong upi id"))

	assert.Equal(t, "wrong upi id", admin.reason)
	assert.Contains(t, sender.last(t).Text, "1000 coins refunded")
}

func TestCallbackEditsMessage(t *testing.T) {
	b, sender, _, accounts := newTestBot()
	accounts.accounts[playerID] = &domain.Account{ID: playerID, Coins: 100}

	b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: playerID},
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: playerID}},
		Data:    cbBalance,
	}})

	require.Len(t, sender.requests, 1)
	require.Len(t, sender.sent, 1)
	edit, ok := sender.sent[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 9, edit.MessageID)
	assert.Contains(t, edit.Text, "<b>100</b> coins")
}

func TestNotifications(t *testing.T) {
	b, sender, _, _ := newTestBot()
	ctx := context.Background()
	w := domain.Withdrawal{ID: 5, AccountID: playerID, Amount: 1000, Fee: 20, FiatPaise: 980,
		PayoutAddress: "alice@upi", CreatedAt: time.Now()}

	b.NotifyNewWithdrawal(ctx, w, domain.Account{ID: playerID, FirstName: "Alice", Username: "alice"})
	msgs := sender.messages()
	require.Len(t, msgs, 2)
	chats := []int64{msgs[0].ChatID, msgs[1].ChatID}
	assert.ElementsMatch(t, []int64{ownerID, supportID}, chats)
	assert.Contains(t, msgs[0].Text, "/approve 5")
	assert.Contains(t, msgs[0].Text, "₹9.80")

	w.Status = domain.WithdrawalStatusRejected
	w.AdminNote = "bad <id>"
	b.NotifyWithdrawalResolved(ctx, w)
	msg := sender.last(t)
	assert.Equal(t, playerID, msg.ChatID)
	assert.Contains(t, msg.Text, "Reason: bad &lt;id&gt;")

	w.Status = domain.WithdrawalStatusPending
	b.NotifyWithdrawalResolved(ctx, w)
	assert.Len(t, sender.messages(), 3)

	b.NotifyPendingDigest(ctx, []domain.Withdrawal{w, w})
	assert.Len(t, sender.messages(), 5)
	assert.Contains(t, sender.last(t).Text, "2 withdrawals waiting")

	b.NotifyPendingDigest(ctx, nil)
	assert.Len(t, sender.messages(), 5)
}

func TestPollStops(t *testing.T) {
	b, sender, _, _ := newTestBot()
	updates := make(chan tgbotapi.Update, 1)
	updates <- command(playerID, "/help")

	done := make(chan struct{})
	go func() {
		b.Poll(updates)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(sender.messages()) == 1 }, time.Second, 10*time.Millisecond)
	b.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll did not return after Stop")
	}
}
