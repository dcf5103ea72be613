package auth

import (
	"fmt"

	"github.com/codevault/codevault/internal/common"
)

// Kind identifies why a login attempt failed.
type Kind string

const (
	KindInvalidEmail         Kind = "invalid-email"
	KindUserDisabled         Kind = "user-disabled"
	KindUserNotFound         Kind = "user-not-found"
	KindWrongPassword        Kind = "wrong-password"
	KindInvalidCredential    Kind = "invalid-credential"
	KindTooManyRequests      Kind = "too-many-requests"
	KindNetworkRequestFailed Kind = "network-request-failed"
	KindInternalError        Kind = "internal-error"
)

var messages = map[Kind]string{
	KindInvalidEmail:         "That email address doesn't look valid. Check it and try again.",
	KindUserDisabled:         "This account has been disabled.",
	KindUserNotFound:         "No account matches that email address.",
	KindWrongPassword:        "Wrong password. Try again.",
	KindInvalidCredential:    "Wrong email or password.",
	KindTooManyRequests:      "Too many failed attempts. Wait a minute before trying again.",
	KindNetworkRequestFailed: "Could not reach the server. Check your connection.",
	KindInternalError:        "The server failed to process the login. This is not your fault.",
}

const fallbackMessage = "Something went wrong while signing in. Please try again."

// Message returns the user-facing text for kind.
func Message(kind Kind) string {
	if m, ok := messages[kind]; ok {
		return m
	}
	return fallbackMessage
}

// Error is a failed login. It matches common.ErrorUnauthorized.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "auth: " + string(e.Kind) + ": " + e.Err.Error()
	}
	return "auth: " + string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == common.ErrorUnauthorized
}

// Message returns the user-facing text for the failure.
func (e *Error) Message() string { return Message(e.Kind) }

// fail builds an Error. Internal failures also match common.ErrorInternal.
func fail(kind Kind, err error) *Error {
	if kind == KindInternalError {
		if err == nil {
			err = common.ErrorInternal
		} else {
			err = fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
	}
	return &Error{Kind: kind, Err: err}
}
