package economy

import (
	"time"

	"tapearn/internal/domain"
)

// Regenerate applies lazy energy regeneration as of now.
//
// Only whole intervals count. LastEnergyUpdate moves forward by the intervals
// consumed so partial progress survives frequent requests; once energy is full
// it is pinned to now.
func (r Rules) Regenerate(acc domain.Account, now time.Time) domain.Account {
	if acc.Energy >= acc.MaxEnergy {
		acc.Energy = acc.MaxEnergy
		acc.LastEnergyUpdate = now
		return acc
	}
	if acc.Energy < 0 {
		acc.Energy = 0
	}
	if r.RegenInterval <= 0 || acc.EnergyRegenRate <= 0 {
		return acc
	}

	elapsed := now.Sub(acc.LastEnergyUpdate)
	if elapsed < r.RegenInterval {
		return acc
	}

	k := int64(elapsed / r.RegenInterval)
	if k*acc.EnergyRegenRate >= acc.MaxEnergy-acc.Energy {
		acc.Energy = acc.MaxEnergy
		acc.LastEnergyUpdate = now
		return acc
	}

	acc.Energy += k * acc.EnergyRegenRate
	acc.LastEnergyUpdate = acc.LastEnergyUpdate.Add(time.Duration(k) * r.RegenInterval)
	return acc
}

// NextEnergyIn is the wait until the next regeneration tick. Zero when full.
func (r Rules) NextEnergyIn(acc domain.Account, now time.Time) time.Duration {
	acc = r.Regenerate(acc, now)
	if acc.Energy >= acc.MaxEnergy || acc.EnergyRegenRate <= 0 {
		return 0
	}
	elapsed := now.Sub(acc.LastEnergyUpdate)
	if elapsed < 0 {
		elapsed = 0
	}
	return r.RegenInterval - elapsed
}

// FullEnergyIn is the wait until energy reaches max_energy. Zero when full.
func (r Rules) FullEnergyIn(acc domain.Account, now time.Time) time.Duration {
	acc = r.Regenerate(acc, now)
	if acc.Energy >= acc.MaxEnergy || acc.EnergyRegenRate <= 0 {
		return 0
	}
	missing := acc.MaxEnergy - acc.Energy
	ticks := (missing + acc.EnergyRegenRate - 1) / acc.EnergyRegenRate
	return r.NextEnergyIn(acc, now) + time.Duration(ticks-1)*r.RegenInterval
}

// TapResult describes what a successful tap request produced.
type TapResult struct {
	Taps   int   `json:"taps"`
	Earned int64 `json:"earned"`
}

// Tap regenerates energy, then spends n energy for n*tap_power coins.
// On error the account is returned unchanged.
func (r Rules) Tap(acc domain.Account, n int, now time.Time) (domain.Account, TapResult, error) {
	if n < 1 || n > r.MaxTapsPerRequest {
		return acc, TapResult{}, domain.ErrInvalidTapCount
	}

	next := r.Regenerate(acc, now)
	if next.Energy < int64(n) {
		return acc, TapResult{}, domain.ErrInsufficientEnergy
	}

	earned := int64(n) * next.TapPower
	next.Energy -= int64(n)
	next.Coins += earned
	next.TotalEarned += earned
	return next, TapResult{Taps: n, Earned: earned}, nil
}

// Repair clamps every field of an inconsistent account back into range and
// reports whether anything changed.
func (r Rules) Repair(acc domain.Account) (domain.Account, bool) {
	fixed := false
	clamp := func(v *int64, floor int64) {
		if *v < floor {
			*v = floor
			fixed = true
		}
	}

	clamp(&acc.Coins, 0)
	clamp(&acc.MaxEnergy, r.StartingEnergy)
	clamp(&acc.Energy, 0)
	if acc.Energy > acc.MaxEnergy {
		acc.Energy = acc.MaxEnergy
		fixed = true
	}
	clamp(&acc.TapPower, 1)
	clamp(&acc.EnergyRegenRate, 1)
	clamp(&acc.ReferralCount, 0)
	clamp(&acc.ReferralEarnings, 0)
	return acc, fixed
}
