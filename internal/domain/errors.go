package domain

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindBadRequest
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is the tagged error every service returns for expected failures.
// Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches kind sentinels (errors with an empty message) by kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrBadRequest      = &Error{Kind: KindBadRequest}
	ErrValidation      = &Error{Kind: KindValidation}
)

// Auth errors
var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "Incorrect email or password"}
	ErrCouldNotValidate   = &Error{Kind: KindUnauthenticated, Message: "Could not validate credentials"}
	ErrInactiveUser       = &Error{Kind: KindUnauthenticated, Message: "Inactive user"}
	ErrUserInactive       = &Error{Kind: KindUnauthenticated, Message: "User is inactive"}
	ErrAdminRequired      = &Error{Kind: KindForbidden, Message: "Admin privileges required"}
	ErrInvalidRefresh     = &Error{Kind: KindUnauthenticated, Message: "Invalid refresh token"}
	ErrInvalidTokenType   = &Error{Kind: KindBadRequest, Message: "Invalid token type"}
	ErrTokenUserNotFound  = &Error{Kind: KindUnauthenticated, Message: "User not found"}
)

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

func Validation(msg string, fields map[string]string) error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
