package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ledger core. Services wrap these with context via
// fmt.Errorf("...: %w", err) so callers can classify failures with errors.Is.
var (
	// ErrNotFound indicates a bet, wallet, or game does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the caller is not a party to the bet.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState indicates the operation is not valid for the bet's
	// current status, e.g. accepting a non-pending bet.
	ErrInvalidState = errors.New("invalid state")

	// ErrInsufficientFunds indicates a reservation or withdrawal would drive
	// a wallet balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict indicates a concurrent mutation won the race. Safe to retry.
	ErrConflict = errors.New("conflict")
)

// ExternalServiceError wraps a failure from an external collaborator (result
// oracle or payment gateway). It is always recoverable and never corrupts
// ledger state: oracle failures fall back to manual resolution, gateway
// failures leave the pending transaction marked failed.
type ExternalServiceError struct {
	Service string
	Reason  string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Reason)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError creates an ExternalServiceError for the named service.
func NewExternalServiceError(service, reason string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Reason: reason, Err: err}
}
