package mc

import "fmt"

// ErrorKind tags the distinct error categories this package returns.
type ErrorKind int

const (
	InvalidArgument ErrorKind = iota
	UnsupportedDevice
	InvalidFrame
	ProtocolErrorKind
	TransportError
	TransportTimeout
	NotConnected
	TypeMismatch
	InsufficientData
	TrailingData
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case UnsupportedDevice:
		return "UnsupportedDevice"
	case InvalidFrame:
		return "InvalidFrame"
	case ProtocolErrorKind:
		return "ProtocolError"
	case TransportError:
		return "TransportError"
	case TransportTimeout:
		return "TransportTimeout"
	case NotConnected:
		return "NotConnected"
	case TypeMismatch:
		return "TypeMismatch"
	case InsufficientData:
		return "InsufficientData"
	case TrailingData:
		return "TrailingData"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned by this package. CompletionCode
// and Diagnostic are only meaningful when Kind == ProtocolErrorKind.
type Error struct {
	Kind           ErrorKind
	Message        string
	CompletionCode uint16
	Diagnostic     string
	Err            error
}

func (e *Error) Error() string {
	if e.Kind == ProtocolErrorKind {
		return fmt.Sprintf("mc: %s: completion code 0x%04X: %s", e.Kind, e.CompletionCode, e.Diagnostic)
	}
	if e.Err != nil {
		return fmt.Sprintf("mc: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("mc: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes a wrapped transport-level cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func newErrorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// newProtocolError builds the error surfaced when a response's completion
// code is non-zero.
func newProtocolError(code uint16, diagnostic string) *Error {
	return &Error{Kind: ProtocolErrorKind, CompletionCode: code, Diagnostic: diagnostic}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	} else {
		return false
	}
	return e.Kind == kind
}
