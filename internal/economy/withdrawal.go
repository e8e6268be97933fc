package economy

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"tapearn/internal/domain"
)

// Quote is the fee breakdown of a withdrawal request.
type Quote struct {
	Amount    int64 `json:"amount"`
	Fee       int64 `json:"fee"`
	Payout    int64 `json:"payout"`
	FiatPaise int64 `json:"fiat_paise"`
}

// Rupees formats the fiat amount, e.g. "9.80".
func (q Quote) Rupees() string {
	return FormatRupees(q.FiatPaise)
}

func FormatRupees(paise int64) string {
	return fmt.Sprintf("%d.%02d", paise/100, paise%100)
}

// QuoteWithdrawal validates amount and computes fee, payout and fiat value.
// The fee is rounded down.
func (r Rules) QuoteWithdrawal(amount int64) (Quote, error) {
	if amount <= 0 || amount > math.MaxInt64/10000 {
		return Quote{}, domain.ErrInvalidAmount
	}
	if amount < r.WithdrawalMinimum {
		return Quote{}, domain.ErrBelowMinimum
	}

	fee := amount * r.WithdrawalFeeBP / 10000
	payout := amount - fee
	return Quote{
		Amount:    amount,
		Fee:       fee,
		Payout:    payout,
		FiatPaise: r.Paise(payout),
	}, nil
}

// Paise converts coins to their fiat value, rounded down.
func (r Rules) Paise(coins int64) int64 {
	perRupee := r.CoinsPerRupee
	if perRupee <= 0 {
		perRupee = 100
	}
	return coins * 100 / perRupee
}

var upiPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{1,255}@[a-zA-Z][a-zA-Z0-9]{1,63}$`)

// NormalizePayoutAddress trims and validates a UPI id ("name@bank").
func NormalizePayoutAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.ErrMissingPayoutAddress
	}
	if !upiPattern.MatchString(s) {
		return "", domain.ErrInvalidPayoutAddress
	}
	return s, nil
}
