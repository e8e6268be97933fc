package integration

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"tapearn/internal/db"
	"tapearn/internal/economy"
	"tapearn/internal/game"
	"tapearn/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var migrateOnce sync.Once

// testPool connects to DATABASE_URL and applies the migrations once per run.
// Tests are skipped when DATABASE_URL is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	var migErr error
	migrateOnce.Do(func() { migErr = db.Migrate(pool, "up") })
	require.NoError(t, migErr)
	return pool
}

// resetAccounts removes accounts left behind by an earlier run. Dependent
// rows go with them by cascade.
func resetAccounts(t *testing.T, pool *pgxpool.Pool, ids ...int64) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `DELETE FROM accounts WHERE id = ANY($1)`, ids)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM accounts WHERE id = ANY($1)`, ids)
	})
}

// clock is a settable time source shared by every service under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type services struct {
	ledger      *service.Ledger
	audit       *service.AuditService
	referrals   *service.ReferralService
	accounts    *service.AccountService
	withdrawals *service.WithdrawalService
	admin       *service.AdminService
	minigames   *service.MinigameService
	clock       *clock
}

func newServices(pool *pgxpool.Pool, events service.EventPublisher) *services {
	c := newClock()
	ledger := service.NewLedger(pool, economy.DefaultRules(), nil, events)
	ledger.SetClock(c.Now)
	audit := service.NewAuditService(pool)
	referrals := service.NewReferralService(ledger, audit, "TapEarnBot")
	withdrawals := service.NewWithdrawalService(ledger, audit)
	// zero bytes always land on the first segment of the wheel
	wheel := game.NewWheel(game.DefaultWheelSegments()).WithRand(bytes.NewReader(make([]byte, 1024)))
	return &services{
		ledger:      ledger,
		audit:       audit,
		referrals:   referrals,
		accounts:    service.NewAccountService(ledger, referrals),
		withdrawals: withdrawals,
		admin:       service.NewAdminService(ledger, withdrawals, referrals, audit),
		minigames:   service.NewMinigameService(ledger, game.DefaultCatalog(), wheel),
		clock:       c,
	}
}
