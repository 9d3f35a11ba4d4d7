// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hal

import "fmt"

// ErrorKind is the wire-encoded taxonomy of target-originated failures
// (spec.md §7). Every kind round-trips through a single discriminant
// byte, with Other carrying one additional opaque body byte.
type ErrorKind uint8

const (
	UnsupportedCommand ErrorKind = iota
	InvalidParameter
	ProtocolError
	InvalidGpioMode
	Other
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedCommand:
		return "UnsupportedCommand"
	case InvalidParameter:
		return "InvalidParameter"
	case ProtocolError:
		return "ProtocolError"
	case InvalidGpioMode:
		return "InvalidGpioMode"
	case Other:
		return "Other"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Error wraps an ErrorKind (plus, for Other, an opaque code byte) as a Go
// error. Targets return *Error for any failure that must be surfaced to
// the host as an error response rather than recovered locally.
type Error struct {
	Kind ErrorKind
	// Code is the opaque body byte, meaningful only when Kind == Other.
	Code uint8
	// Message is an optional, non-wire-encoded description used only
	// for local logging; it never reaches the host.
	Message string
}

// NewError returns an *Error of the given kind with no message.
func NewError(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

// NewOtherError returns an *Error of kind Other carrying the given code.
func NewOtherError(code uint8) *Error {
	return &Error{Kind: Other, Code: code}
}

// WithMessage returns a copy of e annotated with a local-only message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
}

func (e *Error) Error() string {
	if e.Kind == Other {
		if e.Message != "" {
			return fmt.Sprintf("hal: Other(%d): %s", e.Code, e.Message)
		}
		return fmt.Sprintf("hal: Other(%d)", e.Code)
	}
	if e.Message != "" {
		return fmt.Sprintf("hal: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("hal: %s", e.Kind)
}

// NeedWriteGrant is returned by a target's Process method when it needs
// at least N bytes of output space to proceed; it is not a wire-encoded
// error and never reaches the host (spec.md §4.5 step 4).
type NeedWriteGrant struct {
	N int
}

func (e *NeedWriteGrant) Error() string {
	return fmt.Sprintf("hal: need write grant of at least %d bytes", e.N)
}
