package database

import (
	"errors"
	"fmt"
)

// Kind classifies a user-facing error
type Kind string

const (
	KindDuplicateName       Kind = "duplicate_name"
	KindDuplicateExternalID Kind = "duplicate_external_id"
	KindUnknownPerson       Kind = "unknown_person"
	KindEmptyContent        Kind = "empty_content"
	KindDateParseError      Kind = "date_parse_error"
	KindTaskNotFound        Kind = "task_not_found"
	KindInvalidRecurrence   Kind = "invalid_recurrence"
	KindIncompleteReminder  Kind = "incomplete_reminder"
	KindNotFound            Kind = "not_found"
)

// Error is a validation or lookup failure whose Message is safe to show
// to the person who issued the command.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrDuplicateName       = &Error{Kind: KindDuplicateName, Message: "a person with this name already exists"}
	ErrDuplicateExternalID = &Error{Kind: KindDuplicateExternalID, Message: "a person with this external id already exists"}
	ErrUnknownPerson       = &Error{Kind: KindUnknownPerson, Message: "unknown person"}
	ErrEmptyContent        = &Error{Kind: KindEmptyContent, Message: "empty content"}
	ErrDateParse           = &Error{Kind: KindDateParseError, Message: "unparsable date"}
	ErrTaskNotFound        = &Error{Kind: KindTaskNotFound, Message: "task not found"}
	ErrInvalidRecurrence   = &Error{Kind: KindInvalidRecurrence, Message: "invalid recurrence"}
	ErrIncompleteReminder  = &Error{Kind: KindIncompleteReminder, Message: "incomplete reminder"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsUserFacing reports whether err carries a message meant for the user.
// Anything else is an internal failure and should be logged, not shown.
func IsUserFacing(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// KindOf returns the kind of a user-facing error, or "" for internal errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
