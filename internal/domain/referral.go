package domain

import "time"

// Referral links a referred account to the account that invited it.
// referred_id is unique, so an account can be referred at most once.
type Referral struct {
	ID            int64     `db:"id" json:"id"`
	ReferrerID    int64     `db:"referrer_id" json:"referrer_id"`
	ReferredID    int64     `db:"referred_id" json:"referred_id"`
	Bonus         int64     `db:"bonus" json:"bonus"`
	ReferredBonus int64     `db:"referred_bonus" json:"referred_bonus"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ReferredAccount is a referral joined with the referred player's name.
type ReferredAccount struct {
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	Bonus     int64     `json:"bonus"`
	CreatedAt time.Time `json:"created_at"`
}

// ReferrerStat is used by the admin "top referrers" report.
type ReferrerStat struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Count     int64  `json:"count"`
	Earnings  int64  `json:"earnings"`
}
