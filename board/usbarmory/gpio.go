// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

// Package usbarmory is the register-backed hal.PinSet for the USB armory
// Mk II board (NXP i.MX6UL SoC), adapted from the teacher's
// soc/imx6/gpio driver. Unlike the teacher's driver it does not depend on
// tamago's unexported internal/reg helper (not importable outside the
// tamago module itself); register bits are instead manipulated with the
// kept bits package helpers over a directly memory-mapped
// *uint32, the same Get/Set/SetN primitives the teacher uses, just
// applied to an address this package computes itself.
package usbarmory

import (
	"unsafe"

	"github.com/usbarmory/gpiobridge/bits"
	"github.com/usbarmory/gpiobridge/board"
	"github.com/usbarmory/gpiobridge/hal"
)

// GPIO controller register offsets (i.MX6UL reference manual).
const (
	gpioDR   = 0x00
	gpioGDIR = 0x04
)

// gpioBankBase maps a peripheral bank number to its GPIO controller base
// address. Only the banks broken out on the USB armory Mk II expansion
// header are listed.
var gpioBankBase = map[uint8]uint32{
	0: 0x0209c000, // GPIO1
	3: 0x020a8000, // GPIO4
	4: 0x020ac000, // GPIO5
}

func regPtr(addr uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(uintptr(addr)))
}

// Pin is one memory-mapped GPIO line.
type Pin struct {
	index uint8
	base  uint32
	num   int
	mode  hal.PinMode
}

func (p *Pin) dataReg() *uint32 { return regPtr(p.base + gpioDR) }
func (p *Pin) dirReg() *uint32  { return regPtr(p.base + gpioGDIR) }

// Information implements hal.Pin.
func (p *Pin) Information() hal.PinInformation {
	bank, pin := board.UnpackIndex(p.index)
	return hal.PinInformation{IndexMajor: board.BankLetter(bank), IndexMinor: pin}
}

// Mode implements hal.Pin.
func (p *Pin) Mode() hal.PinMode {
	return p.mode
}

// SetMode implements hal.Pin. Alternate is not supported by this adapter,
// matching the teacher board's own restriction to GDIR input/output.
func (p *Pin) SetMode(mode hal.PinMode) error {
	switch mode.Kind {
	case hal.FloatingInput:
		bits.Clear(p.dirReg(), p.num)
	case hal.PushPullOutput:
		bits.Set(p.dirReg(), p.num)
	default:
		return hal.NewError(hal.InvalidGpioMode)
	}
	p.mode = mode
	return nil
}

// SetOutput implements hal.Pin.
func (p *Pin) SetOutput(value bool) error {
	if p.mode.Kind != hal.PushPullOutput {
		return hal.NewError(hal.InvalidGpioMode)
	}
	bits.SetTo(p.dataReg(), p.num, value)
	return nil
}

// GetInput implements hal.Pin.
func (p *Pin) GetInput() (bool, error) {
	if p.mode.Kind != hal.FloatingInput {
		return false, hal.NewError(hal.InvalidGpioMode)
	}
	return bits.Get(p.dataReg(), p.num), nil
}

// PinSet is the register-backed hal.PinSet for the board's expansion
// header pins.
type PinSet struct {
	pins []*Pin
}

// pinLocation is one expansion-header pin's (bank, pin-within-bank)
// location.
type pinLocation struct {
	bank uint8
	num  int
}

// headerPins lists the USB armory Mk II expansion header GPIOs this
// bridge exposes.
var headerPins = []pinLocation{
	{bank: 0, num: 2},
	{bank: 0, num: 3},
	{bank: 0, num: 6},
	{bank: 0, num: 7},
	{bank: 3, num: 20},
	{bank: 3, num: 21},
	{bank: 4, num: 2},
	{bank: 4, num: 3},
}

// New returns a PinSet over the board's expansion header pins. Every pin
// starts in FloatingInput mode (GDIR reset state), matching the SoC's own
// power-on default so SetMode is always required before driving a pin.
func New() *PinSet {
	pins := make([]*Pin, len(headerPins))
	for i, loc := range headerPins {
		pins[i] = &Pin{
			index: board.PackIndex(loc.bank, uint8(loc.num)),
			base:  gpioBankBase[loc.bank],
			num:   loc.num,
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
