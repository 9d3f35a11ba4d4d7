// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package hal defines the hardware abstraction boundary between endpoint
// targets and concrete GPIO implementations: the Pin capability interface,
// the logical pin modes a Pin can be placed into, and the error taxonomy
// (ErrorKind/Error) that every target-originated failure is encoded
// into on the wire.
package hal

import "fmt"

// PinMode is the logical mode a Pin has been placed into. Register writes
// for SetOutput/GetInput are gated on the pin's recorded mode, not on
// whatever the underlying hardware happens to be configured as.
type PinMode struct {
	Kind PinModeKind
	// Alt is the alternate-function selector, meaningful only when
	// Kind == Alternate.
	Alt uint8
}

// PinModeKind is the discriminant of PinMode.
type PinModeKind uint8

const (
	FloatingInput PinModeKind = iota
	PushPullOutput
	Alternate
)

func (k PinModeKind) String() string {
	switch k {
	case FloatingInput:
		return "FloatingInput"
	case PushPullOutput:
		return "PushPullOutput"
	case Alternate:
		return "Alternate"
	default:
		return fmt.Sprintf("PinModeKind(%d)", uint8(k))
	}
}

// PinInformation identifies a pin's physical location: a peripheral bank
// letter (e.g. 'A'..'F') and the pin number within that bank.
type PinInformation struct {
	IndexMajor uint8
	IndexMinor uint8
}

// Pin is an opaque capability exposed by a pin-set. Pins are owned by
// their pin-set for the lifetime of the program; they are never
// constructed or destroyed outside of board initialization.
type Pin interface {
	// Information returns the pin's physical location.
	Information() PinInformation

	// Mode returns the pin's current logical mode.
	Mode() PinMode

	// SetMode reconfigures the pin. Implementations that do not support
	// Alternate should return an InvalidGpioMode error for it.
	SetMode(mode PinMode) error

	// SetOutput drives the pin high or low. Callers must ensure the pin
	// is in PushPullOutput mode; implementations return InvalidGpioMode
	// otherwise.
	SetOutput(value bool) error

	// GetInput samples the pin's input level. Callers must ensure the
	// pin is in FloatingInput mode; implementations return
	// InvalidGpioMode otherwise.
	GetInput() (bool, error)
}

// PinSet is the capability set a GPIO target dispatches against: iterate
// every pin in physical order, or index one by its position in that order.
type PinSet interface {
	// Len returns the number of pins in the set.
	Len() int

	// Pin returns the pin at logical index i, or ok == false if i is out
	// of range.
	Pin(i int) (p Pin, ok bool)
}
