// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package endpoint

import (
	"github.com/usbarmory/gpiobridge/hal"
	"github.com/usbarmory/gpiobridge/protocol"
)

// GPIOEndpoint is the wire endpoint byte the GPIO target is registered
// under (spec.md §4.5: "endpoint 1 → GPIO target").
const GPIOEndpoint = 1

// GPIOTarget dispatches GPIO commands against a hal.PinSet, per the
// command table in spec.md §4.5.
type GPIOTarget struct {
	pins hal.PinSet
}

// NewGPIOTarget returns a GPIOTarget dispatching against pins.
func NewGPIOTarget(pins hal.PinSet) *GPIOTarget {
	return &GPIOTarget{pins: pins}
}

func (t *GPIOTarget) pin(index uint8) (hal.Pin, error) {
	p, ok := t.pins.Pin(int(index))
	if !ok {
		return nil, hal.NewError(hal.InvalidParameter)
	}
	return p, nil
}

// Process implements Target.
func (t *GPIOTarget) Process(payload []byte, writable []byte) (int, error) {
	cmd, err := protocol.DecodeCommand(payload)
	if err != nil {
		return 0, hal.NewError(hal.InvalidParameter)
	}

	switch cmd.Tag {
	case protocol.TagEnumeratePins:
		return t.enumeratePins(writable)

	case protocol.TagGetPinMode:
		p, err := t.pin(cmd.Index)
		if err != nil {
			return 0, err
		}
		size := protocol.EncodedPinModeLen(p.Mode())
		if size > len(writable) {
			return 0, &hal.NeedWriteGrant{N: size}
		}
		return protocol.EncodePinMode(p.Mode(), writable), nil

	case protocol.TagSetPinMode:
		p, err := t.pin(cmd.Index)
		if err != nil {
			return 0, err
		}
		if err := p.SetMode(cmd.Mode); err != nil {
			return 0, err
		}
		return 0, nil

	case protocol.TagSetPinValue:
		p, err := t.pin(cmd.Index)
		if err != nil {
			return 0, err
		}
		if err := p.SetOutput(cmd.Value); err != nil {
			return 0, err
		}
		return 0, nil

	case protocol.TagGetPinValue:
		p, err := t.pin(cmd.Index)
		if err != nil {
			return 0, err
		}
		if len(writable) < 1 {
			return 0, &hal.NeedWriteGrant{N: 1}
		}
		v, err := p.GetInput()
		if err != nil {
			return 0, err
		}
		if v {
			writable[0] = 1
		} else {
			writable[0] = 0
		}
		return 1, nil

	default:
		return 0, hal.NewError(hal.UnsupportedCommand)
	}
}

func (t *GPIOTarget) enumeratePins(writable []byte) (int, error) {
	n := t.pins.Len()
	need := 1 + protocol.PinInformationLen*n
	if need > len(writable) {
		return 0, &hal.NeedWriteGrant{N: need}
	}

	writable[0] = uint8(n)
	offset := 1
	for i := 0; i < n; i++ {
		p, _ := t.pins.Pin(i)
		offset += protocol.EncodePinInformation(p.Information(), writable[offset:])
	}
	return offset, nil
}
