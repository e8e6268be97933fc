package domain

import "time"

// Account is a player's ledger row. ID is the Telegram user id.
type Account struct {
	ID                  int64     `db:"id" json:"id"`
	Username            string    `db:"username" json:"username"`
	FirstName           string    `db:"first_name" json:"first_name"`
	Coins               int64     `db:"coins" json:"coins"`
	Energy              int64     `db:"energy" json:"energy"`
	MaxEnergy           int64     `db:"max_energy" json:"max_energy"`
	TapPower            int64     `db:"tap_power" json:"tap_power"`
	EnergyRegenRate     int64     `db:"energy_regen_rate" json:"energy_regen_rate"`
	TapPowerLevel       int       `db:"tap_power_level" json:"tap_power_level"`
	EnergyCapacityLevel int       `db:"energy_capacity_level" json:"energy_capacity_level"`
	EnergyRegenLevel    int       `db:"energy_regen_level" json:"energy_regen_level"`
	ReferredBy          *int64    `db:"referred_by" json:"referred_by,omitempty"`
	ReferralCount       int64     `db:"referral_count" json:"referral_count"`
	ReferralEarnings    int64     `db:"referral_earnings" json:"referral_earnings"`
	TotalEarned         int64     `db:"total_earned" json:"total_earned"`
	PayoutAddress       string    `db:"payout_address" json:"payout_address,omitempty"`
	LastEnergyUpdate    time.Time `db:"last_energy_update" json:"last_energy_update"`
	LastSeenAt          time.Time `db:"last_seen_at" json:"last_seen_at"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// DisplayName picks the best human readable name for messages.
func (a *Account) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	if a.Username != "" {
		return a.Username
	}
	return "Player"
}

// Profile is the identity data Telegram gives us about a player.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// LeaderboardEntry is one row of the earnings leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	AccountID   int64  `json:"account_id"`
	Name        string `json:"name"`
	TotalEarned int64  `json:"total_earned"`
}
