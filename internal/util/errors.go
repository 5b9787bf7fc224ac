// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input provided")
	ErrNonPositiveAmount  = errors.New("amount must be positive")
	ErrInvalidDestination = errors.New("transfer destination not permitted from source balance")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrCampaignExhausted  = errors.New("campaign has no remaining units or is not active")
	ErrDwellNotMet        = errors.New("minimum dwell time not met")
	ErrNotYetEligible     = errors.New("claim is not yet eligible")
	ErrAlreadyResolved    = errors.New("submission is already resolved")
	ErrConsistencyFault   = errors.New("consistency fault detected")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrPositionNotFound   = errors.New("investment position not found")
	ErrPlanNotFound       = errors.New("investment plan not found")
	ErrDuplicateEntry     = errors.New("duplicate entry")
)

// Stable machine-checkable reason codes surfaced to clients. Clients never
// infer failure from a silently unchanged balance, so every rejection carries
// one of these alongside a human-readable message.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNonPositiveAmount  = "NON_POSITIVE_AMOUNT"
	CodeInvalidDestination = "INVALID_DESTINATION"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeCampaignExhausted  = "CAMPAIGN_EXHAUSTED"
	CodeDwellNotMet        = "DWELL_NOT_MET"
	CodeNotYetEligible     = "NOT_YET_ELIGIBLE"
	CodeAlreadyResolved    = "ALREADY_RESOLVED"
	CodeDuplicateEntry     = "DUPLICATE_ENTRY"
	CodeConsistencyFault   = "CONSISTENCY_FAULT"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL"
)

// ReasonCode maps an error chain to its stable reason code.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrNonPositiveAmount):
		return CodeNonPositiveAmount
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrInvalidDestination):
		return CodeInvalidDestination
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrCampaignExhausted):
		return CodeCampaignExhausted
	case errors.Is(err, ErrDwellNotMet):
		return CodeDwellNotMet
	case errors.Is(err, ErrNotYetEligible):
		return CodeNotYetEligible
	case errors.Is(err, ErrAlreadyResolved):
		return CodeAlreadyResolved
	case errors.Is(err, ErrDuplicateEntry):
		return CodeDuplicateEntry
	case errors.Is(err, ErrConsistencyFault):
		return CodeConsistencyFault
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrWalletNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrCampaignNotFound),
		errors.Is(err, ErrSubmissionNotFound),
		errors.Is(err, ErrPositionNotFound),
		errors.Is(err, ErrPlanNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
