package economy

import (
	"testing"
	"time"

	"tapearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newAccount() domain.Account {
	return domain.Account{
		ID:               42,
		Coins:            2500,
		Energy:           100,
		MaxEnergy:        100,
		TapPower:         1,
		EnergyRegenRate:  1,
		LastEnergyUpdate: t0,
	}
}

func TestRegenerate(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name       string
		energy     int64
		max        int64
		rate       int64
		elapsed    time.Duration
		wantEnergy int64
		wantLast   time.Time
	}{
		{"no time passed", 50, 100, 1, 0, 50, t0},
		{"partial interval", 50, 100, 1, 59 * time.Second, 50, t0},
		{"one interval", 50, 100, 1, time.Minute, 51, t0.Add(time.Minute)},
		{"keeps remainder", 50, 100, 1, 150 * time.Second, 52, t0.Add(2 * time.Minute)},
		{"faster regen", 50, 100, 3, 5 * time.Minute, 65, t0.Add(5 * time.Minute)},
		{"capped", 99, 100, 1, 10 * time.Minute, 100, t0.Add(10 * time.Minute)},
		{"exactly fills", 90, 100, 5, 2 * time.Minute, 100, t0.Add(2 * time.Minute)},
		{"full pins timestamp", 100, 100, 1, 30 * time.Second, 100, t0.Add(30 * time.Second)},
		{"clock went backwards", 50, 100, 1, -time.Hour, 50, t0},
		{"over max is clamped", 150, 100, 1, 0, 100, t0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newAccount()
			acc.Energy, acc.MaxEnergy, acc.EnergyRegenRate = tt.energy, tt.max, tt.rate

			got := rules.Regenerate(acc, t0.Add(tt.elapsed))
			assert.Equal(t, tt.wantEnergy, got.Energy)
			assert.True(t, tt.wantLast.Equal(got.LastEnergyUpdate), "last update %v, want %v", got.LastEnergyUpdate, tt.wantLast)
		})
	}
}

func TestRegenerateIsMonotonicAndCapped(t *testing.T) {
	rules := DefaultRules()
	for start := int64(0); start <= 100; start += 7 {
		for k := int64(0); k <= 120; k += 13 {
			acc := newAccount()
			acc.Energy = start
			acc.EnergyRegenRate = 2

			got := rules.Regenerate(acc, t0.Add(time.Duration(k)*rules.RegenInterval))
			want := start + min(k*2, 100-start)
			require.Equal(t, want, got.Energy, "start=%d k=%d", start, k)
			require.LessOrEqual(t, got.Energy, got.MaxEnergy)
		}
	}
}

func TestRegenerateFrequentReadsDoNotStall(t *testing.T) {
	rules := DefaultRules()
	acc := newAccount()
	acc.Energy = 10

	// reading every 40s must still regenerate one unit per minute
	now := t0
	for i := 0; i < 30; i++ {
		now = now.Add(40 * time.Second)
		acc = rules.Regenerate(acc, now)
	}
	assert.Equal(t, int64(30), acc.Energy)
}

func TestTap(t *testing.T) {
	rules := DefaultRules()

	t.Run("single tap", func(t *testing.T) {
		got, res, err := rules.Tap(newAccount(), 1, t0)
		require.NoError(t, err)
		assert.Equal(t, int64(2501), got.Coins)
		assert.Equal(t, int64(99), got.Energy)
		assert.Equal(t, TapResult{Taps: 1, Earned: 1}, res)
	})

	t.Run("batch uses tap power", func(t *testing.T) {
		acc := newAccount()
		acc.TapPower = 3
		got, res, err := rules.Tap(acc, 10, t0)
		require.NoError(t, err)
		assert.Equal(t, int64(2530), got.Coins)
		assert.Equal(t, int64(90), got.Energy)
		assert.Equal(t, int64(30), res.Earned)
		assert.Equal(t, int64(30), got.TotalEarned)
	})

	t.Run("not enough energy changes nothing", func(t *testing.T) {
		acc := newAccount()
		acc.Energy = 4
		got, _, err := rules.Tap(acc, 5, t0)
		assert.ErrorIs(t, err, domain.ErrInsufficientEnergy)
		assert.Equal(t, acc, got)
	})

	t.Run("regenerates before spending", func(t *testing.T) {
		acc := newAccount()
		acc.Energy = 0
		got, _, err := rules.Tap(acc, 3, t0.Add(3*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Energy)
		assert.Equal(t, int64(2503), got.Coins)
	})

	t.Run("tap count bounds", func(t *testing.T) {
		for _, n := range []int{0, -1, rules.MaxTapsPerRequest + 1} {
			_, _, err := rules.Tap(newAccount(), n, t0)
			assert.ErrorIs(t, err, domain.ErrInvalidTapCount, "n=%d", n)
		}
	})
}

func TestEnergyTimers(t *testing.T) {
	rules := DefaultRules()
	acc := newAccount()
	acc.Energy = 97
	now := t0.Add(20 * time.Second)

	assert.Equal(t, 40*time.Second, rules.NextEnergyIn(acc, now))
	assert.Equal(t, 40*time.Second+2*time.Minute, rules.FullEnergyIn(acc, now))

	acc.Energy = 100
	assert.Zero(t, rules.NextEnergyIn(acc, now))
	assert.Zero(t, rules.FullEnergyIn(acc, now))
}

func TestRepair(t *testing.T) {
	rules := DefaultRules()

	acc := newAccount()
	_, fixed := rules.Repair(acc)
	assert.False(t, fixed)

	acc.Coins = -5
	acc.Energy = 500
	acc.MaxEnergy = 20
	acc.TapPower = 0
	acc.EnergyRegenRate = -1
	acc.ReferralCount = -2

	got, fixed := rules.Repair(acc)
	assert.True(t, fixed)
	assert.Equal(t, int64(0), got.Coins)
	assert.Equal(t, int64(100), got.MaxEnergy)
	assert.Equal(t, int64(100), got.Energy)
	assert.Equal(t, int64(1), got.TapPower)
	assert.Equal(t, int64(1), got.EnergyRegenRate)
	assert.Equal(t, int64(0), got.ReferralCount)
}

func TestPlayerLevel(t *testing.T) {
	assert.Equal(t, int64(1), PlayerLevel(0))
	assert.Equal(t, int64(1), PlayerLevel(1999))
	assert.Equal(t, int64(2), PlayerLevel(2500))
	assert.Equal(t, int64(12), PlayerLevel(12000))
}
