// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package sim is an in-memory hal.PinSet for tests, cmd/bridgesim, and any
// host program that wants to drive the endpoint/framing stack without real
// GPIO hardware. It mirrors the register-backed semantics of
// board/usbarmory (mode-gated reads/writes, no support for Alternate) but
// keeps state in plain Go fields instead of memory-mapped registers.
package sim

import (
	"github.com/usbarmory/gpiobridge/board"
	"github.com/usbarmory/gpiobridge/hal"
)

// Pin is one simulated GPIO line. Index records the pin's packed
// bank/pin-within-bank location (board.PackIndex); the external,
// test-controlled input level is stored separately from the output
// latch, same as the two directions of a real pin.
type Pin struct {
	index  uint8
	mode   hal.PinMode
	output bool
	input  bool
}

// Information implements hal.Pin.
func (p *Pin) Information() hal.PinInformation {
	bank, pin := board.UnpackIndex(p.index)
	return hal.PinInformation{IndexMajor: board.BankLetter(bank), IndexMinor: pin}
}

// Mode implements hal.Pin.
func (p *Pin) Mode() hal.PinMode {
	return p.mode
}

// SetMode implements hal.Pin. The simulated board does not implement an
// alternate-function mux, matching the teacher board's own restriction to
// input/output (targets/f3_disco.rs's set_mode only handles those two).
func (p *Pin) SetMode(mode hal.PinMode) error {
	switch mode.Kind {
	case hal.FloatingInput, hal.PushPullOutput:
		p.mode = mode
		return nil
	default:
		return hal.NewError(hal.InvalidGpioMode)
	}
}

// SetOutput implements hal.Pin.
func (p *Pin) SetOutput(value bool) error {
	if p.mode.Kind != hal.PushPullOutput {
		return hal.NewError(hal.InvalidGpioMode)
	}
	p.output = value
	return nil
}

// GetInput implements hal.Pin.
func (p *Pin) GetInput() (bool, error) {
	if p.mode.Kind != hal.FloatingInput {
		return false, hal.NewError(hal.InvalidGpioMode)
	}
	return p.input, nil
}

// SetInputForTest drives the simulated external input level, independent
// of the pin's current mode, so a test can arrange a FloatingInput read
// before or after toggling mode.
func (p *Pin) SetInputForTest(value bool) {
	p.input = value
}

// Output reports the output latch's current value regardless of mode, so
// a test can observe what SetOutput last wrote without going through the
// hal.Pin interface.
func (p *Pin) Output() bool {
	return p.output
}

// PinSet is a fixed-size, in-memory hal.PinSet.
type PinSet struct {
	pins []*Pin
}

// New returns a PinSet with pins laid out across banks of 8, starting at
// bank 0 ('A'). Every pin starts in FloatingInput mode.
func New(n int) *PinSet {
	pins := make([]*Pin, n)
	for i := range pins {
		bank := uint8(i / 8)
		within := uint8(i % 8)
		pins[i] = &Pin{
			index: board.PackIndex(bank, within),
			mode:  hal.PinMode{Kind: hal.FloatingInput},
		}
	}
	return &PinSet{pins: pins}
}

// Len implements hal.PinSet.
func (s *PinSet) Len() int {
	return len(s.pins)
}

// Pin implements hal.PinSet.
func (s *PinSet) Pin(i int) (hal.Pin, bool) {
	if i < 0 || i >= len(s.pins) {
		return nil, false
	}
	return s.pins[i], true
}

// At returns the concrete *Pin at index i for test setup (e.g.
// SetInputForTest), bypassing the hal.Pin interface. Panics if i is out
// of range, mirroring slice indexing.
func (s *PinSet) At(i int) *Pin {
	return s.pins[i]
}
