package model

import (
	"errors"
	"fmt"
)

// Kind classifies an error by recovery policy, per the error-handling
// taxonomy: strategies/indicators may only raise Kind InsufficientData,
// which callers swallow silently; broker errors are translated at the
// adapter boundary and only OrderRejected propagates past it.
type Kind string

const (
	KindInsufficientData Kind = "InsufficientData"
	KindInvalidConfig    Kind = "InvalidConfig"
	KindInvalidState     Kind = "InvalidState"
	KindNetworkError     Kind = "NetworkError"
	KindAuthError        Kind = "AuthError"
	KindOrderRejected    Kind = "OrderRejected"
	KindRateLimited      Kind = "RateLimited"
	KindStorageError     Kind = "StorageError"
)

// KindError wraps an underlying error with its recovery-policy Kind.
type KindError struct {
	Kind Kind
	Err  error
}

func (e *KindError) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *KindError) Unwrap() error { return e.Err }

// NewKindError wraps err with the given Kind.
func NewKindError(kind Kind, err error) *KindError {
	return &KindError{Kind: kind, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}
