// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package exchange implements the content exchange engine: routing inbound
// vendor notifications onto the content store and publishing outbound
// translation requests.
package exchange

import "fmt"

// Error codes for the exchange taxonomy.
const (
	CodeNotForThisSite    = "not_for_this_site"
	CodeItemNotFound      = "item_not_found"
	CodeMalformedEnvelope = "malformed_envelope"
	CodeTransportFailure  = "transport_failure"
)

// Error is a structured exchange error carrying a taxonomy code.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches exchange errors by code so callers can test against the
// sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel values for errors.Is checks.
var (
	ErrNotForThisSite    = &Error{Code: CodeNotForThisSite, Message: "message addressed to another site"}
	ErrItemNotFound      = &Error{Code: CodeItemNotFound, Message: "no item with that id"}
	ErrMalformedEnvelope = &Error{Code: CodeMalformedEnvelope, Message: "malformed message envelope"}
	ErrTransportFailure  = &Error{Code: CodeTransportFailure, Message: "transport failure"}
)

func notForThisSite(externalID string) *Error {
	return &Error{Code: CodeNotForThisSite, Message: fmt.Sprintf("external id %q is addressed to another site", externalID)}
}

func itemNotFound(externalID string) *Error {
	return &Error{Code: CodeItemNotFound, Message: fmt.Sprintf("no item matching external id %q", externalID)}
}

func malformedEnvelope(cause error) *Error {
	return &Error{Code: CodeMalformedEnvelope, Message: "malformed message envelope", Err: cause}
}

func transportFailure(what string, cause error) *Error {
	return &Error{Code: CodeTransportFailure, Message: what, Err: cause}
}
