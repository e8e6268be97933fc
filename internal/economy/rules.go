// Package economy holds the pure game arithmetic: energy regeneration, taps,
// upgrade pricing and withdrawal quotes. Nothing here touches storage, so the
// HTTP API, the Telegram bot and the scheduled jobs all share one rule set.
package economy

import (
	"fmt"
	"time"
)

// Rules is the canonical rule set of the game.
type Rules struct {
	RegenInterval     time.Duration
	WelcomeBonus      int64
	StartingEnergy    int64
	StartingTapPower  int64
	StartingRegenRate int64
	MaxTapsPerRequest int

	ReferralBonus int64 // paid to the referrer
	ReferredBonus int64 // paid to the new account

	WithdrawalMinimum int64
	WithdrawalFeeBP   int64 // basis points, 200 = 2%
	CoinsPerRupee     int64

	MaxUpgradeLevel int
	Upgrades        map[UpgradeTrack]UpgradeSpec
}

// DefaultRules returns the production rule set.
func DefaultRules() Rules {
	return Rules{
		RegenInterval:     time.Minute,
		WelcomeBonus:      2500,
		StartingEnergy:    100,
		StartingTapPower:  1,
		StartingRegenRate: 1,
		MaxTapsPerRequest: 100,
		ReferralBonus:     500,
		ReferredBonus:     500,
		WithdrawalMinimum: 1000,
		WithdrawalFeeBP:   200,
		CoinsPerRupee:     100,
		MaxUpgradeLevel:   50,
		Upgrades: map[UpgradeTrack]UpgradeSpec{
			TrackTapPower:       {BaseCost: 100, MultNum: 3, MultDen: 2, Step: 1},
			TrackEnergyCapacity: {BaseCost: 200, MultNum: 8, MultDen: 5, Step: 10},
			TrackEnergyRegen:    {BaseCost: 300, MultNum: 17, MultDen: 10, Step: 1},
		},
	}
}

// Validate rejects rule sets that would make every tap or withdrawal fail.
func (r Rules) Validate() error {
	switch {
	case r.RegenInterval <= 0:
		return fmt.Errorf("regen interval must be positive, got %s", r.RegenInterval)
	case r.MaxTapsPerRequest < 1:
		return fmt.Errorf("max taps per request must be at least 1, got %d", r.MaxTapsPerRequest)
	case r.WithdrawalMinimum < 1:
		return fmt.Errorf("withdrawal minimum must be at least 1, got %d", r.WithdrawalMinimum)
	case r.WithdrawalFeeBP < 0 || r.WithdrawalFeeBP >= 10000:
		return fmt.Errorf("withdrawal fee must be within [0, 10000) basis points, got %d", r.WithdrawalFeeBP)
	case r.CoinsPerRupee < 1:
		return fmt.Errorf("coins per rupee must be at least 1, got %d", r.CoinsPerRupee)
	}
	return nil
}

// PlayerLevel is the cosmetic level shown in stats.
func PlayerLevel(coins int64) int64 {
	if lvl := coins / 1000; lvl > 1 {
		return lvl
	}
	return 1
}
