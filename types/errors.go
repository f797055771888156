package types

import "errors"

// Error codes, grouped by taxonomy tier. Validation failures are rejected
// before any network or lock activity; verification failures are expected
// outcomes of a well-formed request; infrastructure failures are transient
// and retryable.
const (
	// -----------------------------
	// VALIDATION
	// -----------------------------
	ErrInvalidAddress     = "invalid_address"
	ErrInvalidReference   = "invalid_reference"
	ErrUnknownResource    = "unknown_resource"
	ErrAmountTooLow       = "amount_too_low"
	ErrAmountTooHigh      = "amount_too_high"
	ErrInvalidConfig      = "invalid_config"
	ErrUnsupportedNetwork = "unsupported_network"

	// -----------------------------
	// VERIFICATION
	// -----------------------------
	ErrTxNotFound         = "transaction_not_found"
	ErrNotYetConfirmed    = "not_yet_confirmed"
	ErrWrongDestination   = "wrong_destination"
	ErrInsufficientAmount = "insufficient_amount"
	ErrAlreadyConsumed    = "already_consumed"
	ErrNotATransfer       = "not_a_transfer"
	ErrTxFailed           = "transaction_failed"

	// -----------------------------
	// INFRASTRUCTURE
	// -----------------------------
	ErrRPC               = "rpc_error"
	ErrLedgerUnavailable = "ledger_unavailable"
	ErrStoreUnavailable  = "store_unavailable"
)

// Error is the typed failure returned across the module. Expected outcomes
// ("not yet paid", "already consumed") travel as values of this type, never
// as panics.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a typed error with the given code.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the error code from err, or "" if err is not a typed Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Retryable reports whether the caller may legitimately retry after err.
// NotYetConfirmed clears on its own once the ledger catches up; RPC and
// store failures are transient. AlreadyConsumed and WrongDestination never
// become true on retry.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case ErrNotYetConfirmed, ErrRPC, ErrLedgerUnavailable, ErrStoreUnavailable:
		return true
	}
	return false
}

// IsValidation reports whether err belongs to the validation tier.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case ErrInvalidAddress, ErrInvalidReference, ErrUnknownResource,
		ErrAmountTooLow, ErrAmountTooHigh, ErrInvalidConfig, ErrUnsupportedNetwork:
		return true
	}
	return false
}

// IsInfrastructure reports whether err belongs to the infrastructure tier.
func IsInfrastructure(err error) bool {
	switch CodeOf(err) {
	case ErrRPC, ErrLedgerUnavailable, ErrStoreUnavailable:
		return true
	}
	return false
}
