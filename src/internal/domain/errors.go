package domain

import (
	"errors"
	"strings"
)

var ErrValidation = errors.New("validation failed")
var ErrAmountOutOfRange = errors.New("amount out of range")
var ErrUnauthorized = errors.New("unauthorized")
var ErrForbidden = errors.New("forbidden")
var ErrRecordNotFound = errors.New("Record not found")
var ErrRecipientNotFound = errors.New("recipient not found")
var ErrInsufficientFunds = errors.New("Insufficient balance")
var ErrAlreadyProcessed = errors.New("transaction already processed")
var ErrLimitExceeded = errors.New("limit exceeded")
var ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

// FieldErrors lists every problem found in one input. It matches
// ErrValidation under errors.Is.
type FieldErrors []string

func (e FieldErrors) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e, "; ")
}

func (e FieldErrors) Unwrap() error {
	return ErrValidation
}

// Invalid returns errs as FieldErrors, or nil when there are none.
func Invalid(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return FieldErrors(errs)
}

// Stable reason codes returned to API callers.
const (
	ReasonValidation           = "VALIDATION_ERROR"
	ReasonAmountOutOfRange     = "AMOUNT_OUT_OF_RANGE"
	ReasonUnauthorized         = "UNAUTHORIZED"
	ReasonForbidden            = "FORBIDDEN"
	ReasonNotFound             = "NOT_FOUND"
	ReasonRecipientNotFound    = "RECIPIENT_NOT_FOUND"
	ReasonInsufficientFunds    = "INSUFFICIENT_FUNDS"
	ReasonAlreadyProcessed     = "ALREADY_PROCESSED"
	ReasonLimitExceeded        = "LIMIT_EXCEEDED"
	ReasonInvalidOrExpiredCode = "INVALID_OR_EXPIRED_CODE"
	ReasonInternal             = "INTERNAL"
)

// ReasonCode maps an error chain to its stable reason code. More specific
// sentinels are checked before the ones they are usually wrapped with.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAmountOutOfRange):
		return ReasonAmountOutOfRange
	case errors.Is(err, ErrRecipientNotFound):
		return ReasonRecipientNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, ErrAlreadyProcessed):
		return ReasonAlreadyProcessed
	case errors.Is(err, ErrLimitExceeded):
		return ReasonLimitExceeded
	case errors.Is(err, ErrInvalidOrExpiredCode):
		return ReasonInvalidOrExpiredCode
	case errors.Is(err, ErrValidation):
		return ReasonValidation
	case errors.Is(err, ErrUnauthorized):
		return ReasonUnauthorized
	case errors.Is(err, ErrForbidden):
		return ReasonForbidden
	case errors.Is(err, ErrRecordNotFound):
		return ReasonNotFound
	default:
		return ReasonInternal
	}
}
