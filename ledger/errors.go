/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All ledger error types in one place. The API layer converts any of
  these into the wire-level error envelope; nothing here knows about
  transports.

ERROR CATEGORIES:
  1. Domain errors  - Missing accounts, balance rule violations
  2. Input errors   - Requests that are malformed at the domain level
  3. Storage errors - The external store failed or returned garbage

USAGE:
  Callers classify with errors.Is / errors.As:

    if errors.Is(err, ledger.ErrAccountNotFound) { ... }

    var nf *ledger.NotFoundError
    if errors.As(err, &nf) { ... nf.ID ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when a referenced account does not
	// exist. Accounts are only ever created by SetCredit.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientCredit is returned when an operation would drive a
	// balance negative. The stored record is left untouched.
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrSameAccount is returned when a transfer names the same account
	// on both sides.
	ErrSameAccount = errors.New("transfer to same account")

	// ErrInvalidAmount is returned when a transfer amount is zero or
	// negative. Adjust deltas are unrestricted; transfer amounts are not.
	ErrInvalidAmount = errors.New("transfer amount must be positive")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names which account was missing. Transfer uses this to
// tell the caller which side failed.
type NotFoundError struct {
	ID AccountID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("account %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrAccountNotFound
}

// InsufficientCreditError reports how far short the balance fell.
type InsufficientCreditError struct {
	ID        AccountID
	Available int64
	Requested int64
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("account %q has insufficient credit: available %d, requested %d",
		e.ID, e.Available, e.Requested)
}

func (e *InsufficientCreditError) Unwrap() error {
	return ErrInsufficientCredit
}

// StorageError wraps any failure of the external store: unreachable,
// timed out, or returned bytes that do not parse.
type StorageError struct {
	Op  string // "get", "set", "delete", "keys", "decode"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault: a bad
// request or a definitive domain rejection. These are never retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrInsufficientCredit) ||
		errors.Is(err, ErrSameAccount) ||
		errors.Is(err, ErrInvalidAmount)
}

// IsStorageError reports whether the error came from the external store.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
