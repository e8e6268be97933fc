package economy

import (
	"math/big"
	"strings"

	"tapearn/internal/domain"
)

type UpgradeTrack string

const (
	TrackTapPower       UpgradeTrack = "tap_power"
	TrackEnergyCapacity UpgradeTrack = "energy_capacity"
	TrackEnergyRegen    UpgradeTrack = "energy_regen"
)

// Tracks lists the upgrade tracks in display order.
var Tracks = []UpgradeTrack{TrackTapPower, TrackEnergyCapacity, TrackEnergyRegen}

// UpgradeSpec prices a track as BaseCost * (MultNum/MultDen)^level, floored.
// The multiplier is a ratio so prices are exact at every level.
type UpgradeSpec struct {
	BaseCost int64
	MultNum  int64
	MultDen  int64
	Step     int64
}

var trackAliases = map[string]UpgradeTrack{
	"tap_power":         TrackTapPower,
	"tap":               TrackTapPower,
	"energy_capacity":   TrackEnergyCapacity,
	"max_energy":        TrackEnergyCapacity,
	"energy":            TrackEnergyCapacity,
	"energy_regen":      TrackEnergyRegen,
	"energy_regen_rate": TrackEnergyRegen,
	"regen":             TrackEnergyRegen,
}

func ParseUpgradeTrack(s string) (UpgradeTrack, error) {
	t, ok := trackAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", domain.ErrUnknownUpgrade
	}
	return t, nil
}

// Level returns the current level of acc on track.
func Level(acc domain.Account, track UpgradeTrack) int {
	switch track {
	case TrackTapPower:
		return acc.TapPowerLevel
	case TrackEnergyCapacity:
		return acc.EnergyCapacityLevel
	case TrackEnergyRegen:
		return acc.EnergyRegenLevel
	}
	return 0
}

// UpgradesPurchased sums the levels of all tracks.
func UpgradesPurchased(acc domain.Account) int {
	return acc.TapPowerLevel + acc.EnergyCapacityLevel + acc.EnergyRegenLevel
}

// UpgradeCost prices the purchase that takes track from level to level+1.
func (r Rules) UpgradeCost(track UpgradeTrack, level int) (int64, error) {
	spec, ok := r.Upgrades[track]
	if !ok {
		return 0, domain.ErrUnknownUpgrade
	}
	if level < 0 || spec.MultDen <= 0 {
		return 0, domain.ErrUnknownUpgrade
	}

	num := new(big.Int).Exp(big.NewInt(spec.MultNum), big.NewInt(int64(level)), nil)
	den := new(big.Int).Exp(big.NewInt(spec.MultDen), big.NewInt(int64(level)), nil)
	cost := num.Mul(num, big.NewInt(spec.BaseCost))
	cost.Quo(cost, den)
	if !cost.IsInt64() {
		return 0, domain.ErrMaxLevel
	}
	return cost.Int64(), nil
}

// UpgradeOffer is what the upgrades screen shows for one track.
type UpgradeOffer struct {
	Track    UpgradeTrack `json:"upgrade_type"`
	Level    int          `json:"level"`
	NextCost int64        `json:"next_cost"`
	Step     int64        `json:"step"`
	MaxLevel bool         `json:"max_level"`
}

// Offers lists every track with its current level and next price.
func (r Rules) Offers(acc domain.Account) []UpgradeOffer {
	offers := make([]UpgradeOffer, 0, len(Tracks))
	for _, t := range Tracks {
		lvl := Level(acc, t)
		o := UpgradeOffer{Track: t, Level: lvl, Step: r.Upgrades[t].Step}
		if lvl >= r.MaxUpgradeLevel {
			o.MaxLevel = true
		} else if cost, err := r.UpgradeCost(t, lvl); err == nil {
			o.NextCost = cost
		} else {
			o.MaxLevel = true
		}
		offers = append(offers, o)
	}
	return offers
}

// ApplyUpgrade buys one level of track. On error acc is returned unchanged.
func (r Rules) ApplyUpgrade(acc domain.Account, track UpgradeTrack) (domain.Account, int64, error) {
	spec, ok := r.Upgrades[track]
	if !ok {
		return acc, 0, domain.ErrUnknownUpgrade
	}

	level := Level(acc, track)
	if level >= r.MaxUpgradeLevel {
		return acc, 0, domain.ErrMaxLevel
	}
	cost, err := r.UpgradeCost(track, level)
	if err != nil {
		return acc, 0, err
	}
	if acc.Coins < cost {
		return acc, 0, domain.ErrInsufficientCoins
	}

	next := acc
	next.Coins -= cost
	switch track {
	case TrackTapPower:
		next.TapPower += spec.Step
		next.TapPowerLevel++
	case TrackEnergyCapacity:
		next.MaxEnergy += spec.Step
		next.Energy += spec.Step
		if next.Energy > next.MaxEnergy {
			next.Energy = next.MaxEnergy
		}
		next.EnergyCapacityLevel++
	case TrackEnergyRegen:
		next.EnergyRegenRate += spec.Step
		next.EnergyRegenLevel++
	}
	return next, cost, nil
}
