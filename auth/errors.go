// Package auth implements credential verification, session establishment
// and the classification of authentication failures into user-facing
// messages.
package auth

import "errors"

// Kind is the closed enumeration of authentication failure categories.
// Handlers and the classifier branch on Kind values, never on error text.
type Kind int

const (
	KindUnknownAccount Kind = iota
	KindIncorrectCredentials
	KindLocked
	KindRateLimited
	KindGeneric
	KindUnexpected
)

// String returns the category name for logging.
func (k Kind) String() string {
	switch k {
	case KindUnknownAccount:
		return "unknown_account"
	case KindIncorrectCredentials:
		return "incorrect_credentials"
	case KindLocked:
		return "locked_account"
	case KindRateLimited:
		return "rate_limited"
	case KindGeneric:
		return "auth_error"
	default:
		return "unexpected"
	}
}

// Error is an authentication failure tagged with its category. The message
// is internal except for rate-limited failures, whose message is surfaced
// verbatim to the user.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Common authentication errors
var (
	ErrUnknownAccount       = &Error{Kind: KindUnknownAccount, Message: "unknown account"}
	ErrIncorrectCredentials = &Error{Kind: KindIncorrectCredentials, Message: "incorrect credentials"}
	ErrLockedAccount        = &Error{Kind: KindLocked, Message: "locked account"}
	ErrGenericAuth          = &Error{Kind: KindGeneric, Message: "authentication error"}
)

// NewRateLimitedError builds a rate-limited failure whose message reaches
// the user unchanged.
func NewRateLimitedError(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// KindOf extracts the failure category from an error. Errors that are not
// authentication failures classify as KindUnexpected.
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindUnexpected
}
