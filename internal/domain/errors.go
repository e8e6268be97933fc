package domain

import "errors"

// ErrorCode is the machine readable part of every API error.
type ErrorCode string

const (
	CodeNotFound           ErrorCode = "not_found"
	CodeValidation         ErrorCode = "validation"
	CodeInsufficientCoins  ErrorCode = "insufficient_coins"
	CodeInsufficientEnergy ErrorCode = "insufficient_energy"
	CodeConflict           ErrorCode = "conflict"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeForbidden          ErrorCode = "forbidden"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeInternal           ErrorCode = "internal"
)

// Error is a classified failure that is safe to show to clients.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrAccountNotFound    = NewError(CodeNotFound, "account not found")
	ErrWithdrawalNotFound = NewError(CodeNotFound, "withdrawal not found")
	ErrReferrerNotFound   = NewError(CodeNotFound, "referral code not found")

	ErrInvalidAccountID     = NewError(CodeValidation, "invalid account id")
	ErrInvalidTapCount      = NewError(CodeValidation, "invalid tap count")
	ErrInvalidAmount        = NewError(CodeValidation, "invalid amount")
	ErrBelowMinimum         = NewError(CodeValidation, "amount is below the withdrawal minimum")
	ErrInvalidPayoutAddress = NewError(CodeValidation, "invalid UPI id")
	ErrMissingPayoutAddress = NewError(CodeValidation, "payout address is required")
	ErrUnknownUpgrade       = NewError(CodeValidation, "unknown upgrade type")
	ErrUnknownGame          = NewError(CodeValidation, "unknown minigame")
	ErrRewardTooLarge       = NewError(CodeValidation, "reward exceeds the limit for this game")
	ErrInvalidReferralCode  = NewError(CodeValidation, "invalid referral code")

	ErrInsufficientCoins  = NewError(CodeInsufficientCoins, "not enough coins")
	ErrInsufficientEnergy = NewError(CodeInsufficientEnergy, "not enough energy")

	ErrSelfReferral        = NewError(CodeConflict, "cannot use your own referral code")
	ErrAlreadyReferred     = NewError(CodeConflict, "already used a referral code")
	ErrWithdrawalProcessed = NewError(CodeConflict, "withdrawal already processed")
	ErrMaxLevel            = NewError(CodeConflict, "upgrade is at max level")
	ErrCooldown            = NewError(CodeConflict, "reward is cooling down")

	ErrUnauthorized = NewError(CodeUnauthorized, "unauthorized")
	ErrInvalidToken = NewError(CodeUnauthorized, "invalid or expired token")
	ErrForbidden    = NewError(CodeForbidden, "forbidden")
	ErrRateLimited  = NewError(CodeRateLimited, "rate limit exceeded")
	ErrInternal     = NewError(CodeInternal, "internal error")
)

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
