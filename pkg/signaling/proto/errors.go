package proto

import "fmt"

// ErrorKind classifies signaling failures. Every kind is rejected locally on
// the offending connection and never mutates state.
type ErrorKind string

const (
	KindValidation   ErrorKind = "ERR_VALIDATION"
	KindNotFound     ErrorKind = "ERR_NOT_FOUND"
	KindUnauthorized ErrorKind = "ERR_UNAUTHORIZED"
	KindConflict     ErrorKind = "ERR_CONFLICT"
)

func (k ErrorKind) String() string {
	return string(k)
}

// Error is a typed signaling failure that maps onto an *:error event.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValidationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthorizedError(format string, args ...interface{}) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a signaling error, or an empty kind for other
// error values.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ErrorKind("")
}

func IsValidationError(err error) bool   { return KindOf(err) == KindValidation }
func IsNotFoundError(err error) bool     { return KindOf(err) == KindNotFound }
func IsUnauthorizedError(err error) bool { return KindOf(err) == KindUnauthorized }
func IsConflictError(err error) bool     { return KindOf(err) == KindConflict }
