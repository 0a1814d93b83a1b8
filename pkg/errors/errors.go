// Package errors defines the gateway's stable error taxonomy.
//
// Every error the request pipeline can produce carries a Kind tag drawn from
// a closed set, so the HTTP frontend maps errors to status codes without
// string matching. Upstream error bodies are forwarded verbatim and are
// never re-wrapped.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the taxonomy tag for a RelayError.
type Kind string

const (
	KindInvalidRequest     Kind = "invalid_request"
	KindUnknownModel       Kind = "unknown_model"
	KindMissingAuth        Kind = "missing_auth"
	KindMissingProviderKey Kind = "missing_provider_key"
	KindProviderCooled     Kind = "provider_cooled"
	KindProviderError      Kind = "provider_error"
	KindNetworkError       Kind = "network_error"
	KindPolicyDenied       Kind = "policy_denied"
	KindApprovalRequired   Kind = "approval_required"
	KindAuthDenied         Kind = "auth_denied"
	KindInternal           Kind = "internal_error"
	KindCascadeExhausted   Kind = "cascade_exhausted"
)

// defaultStatus maps each Kind to its default HTTP status. provider_error
// overrides this with the verbatim upstream status when one is known.
var defaultStatus = map[Kind]int{
	KindInvalidRequest:     http.StatusBadRequest,
	KindUnknownModel:       http.StatusBadRequest,
	KindMissingAuth:        http.StatusUnauthorized,
	KindMissingProviderKey: http.StatusInternalServerError,
	KindProviderCooled:     http.StatusServiceUnavailable,
	KindProviderError:      http.StatusBadGateway,
	KindNetworkError:       http.StatusInternalServerError,
	KindPolicyDenied:       http.StatusForbidden,
	KindApprovalRequired:   http.StatusForbidden,
	KindAuthDenied:         http.StatusForbidden,
	KindInternal:           http.StatusInternalServerError,
	KindCascadeExhausted:   http.StatusInternalServerError,
}

// RelayError is the gateway's error type. It carries a Kind for
// status-code mapping, a human message, an optional wrapped cause, and
// (for provider_error) the verbatim upstream status/body.
type RelayError struct {
	Kind        Kind
	Message     string
	Err         error
	Status      int      // explicit HTTP status override (0 = use defaultStatus[Kind])
	Upstream    []byte   // verbatim upstream body, set only for provider_error
	Suggestions []string // for unknown_model
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *RelayError) Unwrap() error { return e.Err }

// HTTPStatus returns the status code this error should be reported with.
func (e *RelayError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := defaultStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New creates a RelayError of the given kind.
func New(kind Kind, message string) *RelayError {
	return &RelayError{Kind: kind, Message: message}
}

// Newf creates a RelayError of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *RelayError {
	return &RelayError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a RelayError wrapping a cause.
func Wrap(kind Kind, message string, cause error) *RelayError {
	return &RelayError{Kind: kind, Message: message, Err: cause}
}

// UnknownModel builds an unknown_model error carrying suggestions.
func UnknownModel(model string, known []string, suggestions []string) *RelayError {
	return &RelayError{
		Kind:        KindUnknownModel,
		Message:     fmt.Sprintf("unknown model %q", model),
		Suggestions: suggestions,
	}
}

// ProviderError builds a provider_error carrying the upstream status/body
// verbatim; translation must never re-wrap this body.
func ProviderError(status int, body []byte) *RelayError {
	return &RelayError{
		Kind:     KindProviderError,
		Message:  fmt.Sprintf("upstream returned status %d", status),
		Status:   status,
		Upstream: body,
	}
}

// MissingProviderKey builds a missing_provider_key error naming the env var.
func MissingProviderKey(envVar string) *RelayError {
	return &RelayError{
		Kind:    KindMissingProviderKey,
		Message: fmt.Sprintf("no API key configured; set %s", envVar),
	}
}

// Is reports whether err is a RelayError of the given kind.
func Is(err error, kind Kind) bool {
	var re *RelayError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

// As extracts a *RelayError from err, if any.
func As(err error) (*RelayError, bool) {
	var re *RelayError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
