// Package errs defines the error kinds returned by the engagement core.
// Callers switch on Kind rather than on concrete error types.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a locally recoverable failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindBanned
	KindConflict
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindBanned:
		return "BANNED_USER"
	case KindConflict:
		return "CONFLICT"
	case KindInvalidInput:
		return "INVALID_INPUT"
	default:
		return "UNKNOWN"
	}
}

// ConflictReason names the uniqueness rule that was violated.
type ConflictReason string

const (
	AlreadySubscribed ConflictReason = "ALREADY_SUBSCRIBED"
	NotSubscribed     ConflictReason = "NOT_SUBSCRIBED"
	AlreadyLiked      ConflictReason = "ALREADY_LIKED"
	UsernameTaken     ConflictReason = "USERNAME_TAKEN"
	EmailTaken        ConflictReason = "EMAIL_TAKEN"
)

// Error is the tagged error value. Only the fields relevant to Kind are set.
type Error struct {
	Kind     Kind
	Entity   string
	ID       string
	Field    string
	Reason   string
	Conflict ConflictReason
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
	case KindForbidden:
		return "forbidden: " + e.Reason
	case KindBanned:
		if e.Reason != "" {
			return "banned user: " + e.Reason
		}
		return "banned user"
	case KindConflict:
		return "conflict: " + string(e.Conflict)
	case KindInvalidInput:
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	default:
		return e.Reason
	}
}

func NotFound(entity string, id any) error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: fmt.Sprint(id)}
}

func Forbidden(reason string) error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

func Banned(reason string) error {
	return &Error{Kind: KindBanned, Reason: reason}
}

func Conflict(reason ConflictReason) error {
	return &Error{Kind: KindConflict, Conflict: reason}
}

func InvalidInput(field, reason string) error {
	return &Error{Kind: KindInvalidInput, Field: field, Reason: reason}
}

// KindOf returns the Kind of err, or KindUnknown for storage and other failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsConflict reports whether err is a conflict with the given reason.
func IsConflict(err error, reason ConflictReason) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConflict && e.Conflict == reason
}
