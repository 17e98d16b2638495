// Package errors is the typed error taxonomy the engine and HTTP layer
// share (spec §7): every failure the engine can produce is one of these
// kinds, and the API layer maps kind -> HTTP status without re-deriving
// the mapping at each call site.
package errors

import (
	"fmt"
	"net/http"

	"transaction-service/internal/domain/transaction"
)

// Kind enumerates the taxonomy from spec §7.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindLimitExceeded     Kind = "LIMIT_EXCEEDED"
	KindAccountNotFound   Kind = "ACCOUNT_NOT_FOUND"
	KindAlreadyReversed   Kind = "ALREADY_REVERSED"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindInternal          Kind = "INTERNAL_ERROR"
	KindWouldGoNegative   Kind = "WOULD_GO_NEGATIVE"
)

// httpStatus is the single source of truth for kind -> HTTP status.
var httpStatus = map[Kind]int{
	KindValidation:         http.StatusBadRequest,
	KindInsufficientFunds:  http.StatusBadRequest,
	KindLimitExceeded:      http.StatusBadRequest,
	KindWouldGoNegative:    http.StatusBadRequest,
	KindAccountNotFound:    http.StatusNotFound,
	KindAlreadyReversed:    http.StatusConflict,
	KindUnauthorized:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindServiceUnavailable: http.StatusServiceUnavailable,
	KindInternal:           http.StatusInternalServerError,
}

// RetrySafe reports whether callers may safely retry the same request.
// Only ServiceUnavailable is (spec §7); everything else is a business
// decision or a client error that retrying cannot fix.
func (k Kind) RetrySafe() bool { return k == KindServiceUnavailable }

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if s, ok := httpStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is the typed value every engine-layer operation returns on failure.
type Error struct {
	Kind          Kind        `json:"code"`
	Message       string      `json:"message"`
	LimitReason   transaction.LimitReason `json:"limitReason,omitempty"`
	CorrelationID string      `json:"correlationId,omitempty"`
	FieldErrors   []FieldError `json:"fieldErrors,omitempty"`
	RetryAfterSec int         `json:"-"`
}

// FieldError reports one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Status returns the HTTP status this error should be reported as.
func (e *Error) Status() int { return e.Kind.Status() }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func ValidationFields(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "request validation failed", FieldErrors: fields}
}

func InsufficientFunds() *Error {
	return &Error{Kind: KindInsufficientFunds, Message: "insufficient funds for this transaction"}
}

func LimitExceeded(reason transaction.LimitReason) *Error {
	return &Error{
		Kind:        KindLimitExceeded,
		Message:     fmt.Sprintf("transaction limit exceeded: %s", reason),
		LimitReason: reason,
	}
}

func AccountNotFound(accountID string) *Error {
	return &Error{Kind: KindAccountNotFound, Message: fmt.Sprintf("account %s not found", accountID)}
}

func AlreadyReversed(transactionID string) *Error {
	return &Error{Kind: KindAlreadyReversed, Message: fmt.Sprintf("transaction %s is already reversed", transactionID)}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func ServiceUnavailable(message string, retryAfterSec int) *Error {
	return &Error{Kind: KindServiceUnavailable, Message: message, RetryAfterSec: retryAfterSec}
}

func Internal(correlationID string) *Error {
	return &Error{
		Kind:          KindInternal,
		Message:       "an internal error occurred",
		CorrelationID: correlationID,
	}
}

func WouldGoNegative() *Error {
	return &Error{Kind: KindWouldGoNegative, Message: "reversal would leave the account balance negative"}
}

// As extracts a *Error from err, if it is one.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
