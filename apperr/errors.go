package apperr

import (
	"context"
	"errors"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is reported for nil or unclassified errors.
	KindUnknown Kind = iota
	// KindInvalidArgument is a precondition violation by the caller.
	KindInvalidArgument
	// KindAuthentication is a failed or aborted identity-provider flow.
	KindAuthentication
	// KindAPI is a failed call to the protected API.
	KindAPI
	// KindCancelled means the operation was abandoned through its context.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindAuthentication:
		return "authentication"
	case KindAPI:
		return "api"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAuthentication  = errors.New("authentication failed")
	ErrAPI             = errors.New("api call failed")
)

// Error is a classified failure with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error returns the message followed by the cause, unless the message already embeds the cause text.
func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	cause := e.Cause.Error()
	if strings.Contains(e.Message, cause) {
		return e.Message
	}
	return e.Message + ": " + cause
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrAPI:
		return e.Kind == KindAPI
	}
	return false
}

// InvalidArgument returns a KindInvalidArgument error.
func InvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

// Authentication returns a KindAuthentication error wrapping cause, which may be nil.
func Authentication(message string, cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: message, Cause: cause}
}

// API returns a KindAPI error wrapping cause, which may be nil.
func API(message string, cause error) *Error {
	return &Error{Kind: KindAPI, Message: message, Cause: cause}
}

// IsCancellation reports whether err is, or wraps, a context cancellation or deadline.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// KindOf classifies err. An *Error anywhere in the chain decides the kind; otherwise a context
// cancellation or deadline is KindCancelled.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if IsCancellation(err) {
		return KindCancelled
	}
	return KindUnknown
}

// Message returns the user-facing message of err: the outermost *Error message when present, so
// causes stay out of what is shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if IsCancellation(err) {
		return "operation cancelled"
	}
	return err.Error()
}
