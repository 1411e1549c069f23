// Package ledgererrors defines the ledger's error taxonomy as sentinel
// errors plus a typed wrapper, so callers can branch with errors.Is/As
// instead of string matching. The HTTP status mapping lives in the
// façade, not here — this package only carries the kind.
package ledgererrors

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per taxonomy entry. Wrap these with fmt.Errorf's
// %w when more context is useful; never replace them with ad-hoc strings.
var (
	ErrValidation         = errors.New("validation error")
	ErrAccountNotFound    = errors.New("account not found or inactive")
	ErrAssetMismatch      = errors.New("accounts do not share an asset type")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateReference  = errors.New("reference collides with a different request")
	ErrConfiguration       = errors.New("required system account is not configured")
	ErrUnavailable         = errors.New("ledger store unavailable")
)

// Kind is the machine-readable taxonomy entry (spec §7), independent of
// any particular sentinel error's wrapped detail.
type Kind string

const (
	KindValidation          Kind = "VALIDATION_ERROR"
	KindAccountNotFound     Kind = "ACCOUNT_NOT_FOUND"
	KindAssetMismatch       Kind = "ASSET_MISMATCH"
	KindInsufficientBalance Kind = "INSUFFICIENT_BALANCE"
	KindDuplicateReference  Kind = "DUPLICATE_REFERENCE"
	KindConfiguration       Kind = "CONFIGURATION_ERROR"
	KindUnavailable         Kind = "UNAVAILABLE"
)

// LedgerError carries a taxonomy Kind plus a human message and, often, the
// underlying store error for the logs.
type LedgerError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *LedgerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *LedgerError) Unwrap() error { return e.Err }

// New wraps err (which may be nil) with a Kind and message.
func New(kind Kind, message string, err error) *LedgerError {
	return &LedgerError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind carried by err, or "" if err isn't a LedgerError
// and doesn't map onto one of the sentinel errors above.
func KindOf(err error) Kind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAccountNotFound):
		return KindAccountNotFound
	case errors.Is(err, ErrAssetMismatch):
		return KindAssetMismatch
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrDuplicateReference):
		return KindDuplicateReference
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return ""
	}
}

// ValidationError is a per-field validation failure, following the
// teacher's composite validation-error idiom.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// ValidationErrors collects multiple field failures from a single request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d field error(s)", len(e))
}

func (e ValidationErrors) Unwrap() error { return ErrValidation }

func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

func (e ValidationErrors) HasErrors() bool { return len(e) > 0 }
