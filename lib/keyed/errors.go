package keyed

import "fmt"

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("keyed list error (code %s)", e.Code)
	}
	return fmt.Sprintf("keyed list error (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is a *Error with the same code. This lets callers
// match the sentinel errors below with errors.Is regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new Error with the given code and a formatted message.
func Errorf(code RetCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Sentinels for errors.Is.
var (
	ErrInvalidArgument = &Error{Code: RetCInvalidArgument}
	ErrDuplicateKey    = &Error{Code: RetCDuplicateKey}
	ErrKeyNotFound     = &Error{Code: RetCKeyNotFound}
	ErrIndexOutOfRange = &Error{Code: RetCIndexOutOfRange}
	ErrNotImplemented  = &Error{Code: RetCNotImplemented}
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Operation completed.
	RetCInvalidArgument                // 1: Nil item, nil or empty batch, key mismatch.
	RetCDuplicateKey                   // 2: Insertion of a key that is already stored.
	RetCKeyNotFound                    // 3: Keyed access to an absent key.
	RetCIndexOutOfRange                // 4: Positional access outside the valid range.
	RetCNotImplemented                 // 5: Declared capability without an implementation.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInvalidArgument:
		return "InvalidArgument"
	case RetCDuplicateKey:
		return "DuplicateKey"
	case RetCKeyNotFound:
		return "KeyNotFound"
	case RetCIndexOutOfRange:
		return "IndexOutOfRange"
	case RetCNotImplemented:
		return "NotImplemented"
	default:
		return fmt.Sprintf("Unknown(%d)", uint64(c))
	}
}
