package entity

import "errors"

// Validation errors for the normalized request/message model. These are
// distinct from the HTTP-facing pkg/errors.RelayError taxonomy: they
// describe structural invariant violations caught while building a
// Request or Message, before a Kind can be assigned by the caller.
var (
	ErrEmptyMessages = errors.New("messages array must not be empty")
	ErrBodyTooLarge  = errors.New("request body exceeds the maximum allowed size")
)
