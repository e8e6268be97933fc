package economy

import (
	"testing"

	"tapearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeCostCurve(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		track UpgradeTrack
		level int
		want  int64
	}{
		{TrackTapPower, 0, 100},
		{TrackTapPower, 1, 150},
		{TrackTapPower, 2, 225},
		{TrackTapPower, 3, 337},
		{TrackEnergyCapacity, 0, 200},
		{TrackEnergyCapacity, 1, 320},
		{TrackEnergyCapacity, 2, 512},
		{TrackEnergyCapacity, 3, 819},
		{TrackEnergyRegen, 0, 300},
		{TrackEnergyRegen, 1, 510},
		{TrackEnergyRegen, 2, 867},
		{TrackEnergyRegen, 3, 1473},
	}

	for _, tt := range tests {
		got, err := rules.UpgradeCost(tt.track, tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s level %d", tt.track, tt.level)
	}

	_, err := rules.UpgradeCost("gold_mine", 0)
	assert.ErrorIs(t, err, domain.ErrUnknownUpgrade)
}

func TestApplyUpgrade(t *testing.T) {
	rules := DefaultRules()

	t.Run("tap power", func(t *testing.T) {
		got, cost, err := rules.ApplyUpgrade(newAccount(), TrackTapPower)
		require.NoError(t, err)
		assert.Equal(t, int64(100), cost)
		assert.Equal(t, int64(2400), got.Coins)
		assert.Equal(t, int64(2), got.TapPower)
		assert.Equal(t, 1, got.TapPowerLevel)
	})

	t.Run("energy capacity raises max and current", func(t *testing.T) {
		acc := newAccount()
		acc.Energy = 40
		got, cost, err := rules.ApplyUpgrade(acc, TrackEnergyCapacity)
		require.NoError(t, err)
		assert.Equal(t, int64(200), cost)
		assert.Equal(t, int64(110), got.MaxEnergy)
		assert.Equal(t, int64(50), got.Energy)
		assert.Equal(t, 1, got.EnergyCapacityLevel)
	})

	t.Run("energy regen", func(t *testing.T) {
		acc := newAccount()
		acc.EnergyRegenLevel = 2
		acc.EnergyRegenRate = 3
		got, cost, err := rules.ApplyUpgrade(acc, TrackEnergyRegen)
		require.NoError(t, err)
		assert.Equal(t, int64(867), cost)
		assert.Equal(t, int64(4), got.EnergyRegenRate)
		assert.Equal(t, 3, got.EnergyRegenLevel)
		assert.Equal(t, int64(2500-867), got.Coins)
	})

	t.Run("insufficient coins is a no-op", func(t *testing.T) {
		acc := newAccount()
		acc.Coins = 99
		got, _, err := rules.ApplyUpgrade(acc, TrackTapPower)
		assert.ErrorIs(t, err, domain.ErrInsufficientCoins)
		assert.Equal(t, acc, got)
	})

	t.Run("max level", func(t *testing.T) {
		acc := newAccount()
		acc.TapPowerLevel = rules.MaxUpgradeLevel
		_, _, err := rules.ApplyUpgrade(acc, TrackTapPower)
		assert.ErrorIs(t, err, domain.ErrMaxLevel)
	})
}

func TestParseUpgradeTrack(t *testing.T) {
	for in, want := range map[string]UpgradeTrack{
		"tap_power":         TrackTapPower,
		" Max_Energy ":      TrackEnergyCapacity,
		"energy_regen_rate": TrackEnergyRegen,
	} {
		got, err := ParseUpgradeTrack(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseUpgradeTrack("speed")
	assert.ErrorIs(t, err, domain.ErrUnknownUpgrade)
}

func TestOffers(t *testing.T) {
	rules := DefaultRules()
	acc := newAccount()
	acc.EnergyCapacityLevel = rules.MaxUpgradeLevel

	offers := rules.Offers(acc)
	require.Len(t, offers, 3)
	assert.Equal(t, int64(100), offers[0].NextCost)
	assert.True(t, offers[1].MaxLevel)
	assert.Equal(t, int64(300), offers[2].NextCost)
}
