package telegram

import (
	"encoding/json"
	"strconv"
	"strings"

	"tapearn/internal/domain"
)

type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Profile converts the Telegram user into the account identity.
func (u WebAppUser) Profile() domain.Profile {
	return domain.Profile{ID: u.ID, Username: u.Username, FirstName: u.FirstName}
}

func parseUser(raw string) (*WebAppUser, error) {
	var user WebAppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ReferralPrefix starts every referral deep-link payload.
const ReferralPrefix = "ref_"

// ParseReferralCode accepts "ref_123" or "123" and returns the referrer id.
func ParseReferralCode(code string) (int64, bool) {
	code = strings.TrimPrefix(strings.TrimSpace(code), ReferralPrefix)
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ReferralCode is the deep-link payload for referrerID.
func ReferralCode(referrerID int64) string {
	return ReferralPrefix + strconv.FormatInt(referrerID, 10)
}
