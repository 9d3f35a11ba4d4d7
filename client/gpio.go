// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package client

import (
	"github.com/usbarmory/gpiobridge/hal"
	"github.com/usbarmory/gpiobridge/protocol"
)

// GPIOEndpoint is the wire endpoint byte the device registers its GPIO
// target under (spec.md §4.5), duplicated here rather than imported from
// the device-side endpoint package, so the host client does not depend on
// the dispatcher and framing packages.
const GPIOEndpoint = 1

// GPIO is the host-side GPIO client: one command per method call, no
// pipelining (spec.md §4.6: "The GPIO client issues one command per
// method call; there is no pipelining").
type GPIO struct {
	ch *CommandChannel
}

// NewGPIO returns a GPIO client issuing commands over ch.
func NewGPIO(ch *CommandChannel) *GPIO {
	return &GPIO{ch: ch}
}

// EnumeratePins lists every pin the device exposes, in physical order.
func (g *GPIO) EnumeratePins() ([]hal.PinInformation, error) {
	resp, err := g.ch.Command(GPIOEndpoint, []byte{byte(protocol.TagEnumeratePins)})
	if err != nil {
		return nil, err
	}
	if len(resp) < 1 {
		return nil, hal.NewError(hal.ProtocolError)
	}

	n := int(resp[0])
	pins := make([]hal.PinInformation, n)
	off := 1
	for i := 0; i < n; i++ {
		if off+protocol.PinInformationLen > len(resp) {
			return nil, hal.NewError(hal.ProtocolError)
		}
		pins[i] = hal.PinInformation{IndexMajor: resp[off], IndexMinor: resp[off+1]}
		off += protocol.PinInformationLen
	}
	return pins, nil
}

// GetPinMode returns the current logical mode of the pin at index.
func (g *GPIO) GetPinMode(index uint8) (hal.PinMode, error) {
	resp, err := g.ch.Command(GPIOEndpoint, []byte{byte(protocol.TagGetPinMode), index})
	if err != nil {
		return hal.PinMode{}, err
	}
	mode, _, err := protocol.DecodePinMode(resp)
	if err != nil {
		return hal.PinMode{}, hal.NewError(hal.ProtocolError)
	}
	return mode, nil
}

// SetPinMode reconfigures the pin at index.
func (g *GPIO) SetPinMode(index uint8, mode hal.PinMode) error {
	body := make([]byte, 2+protocol.EncodedPinModeLen(mode))
	body[0] = byte(protocol.TagSetPinMode)
	body[1] = index
	protocol.EncodePinMode(mode, body[2:])

	_, err := g.ch.Command(GPIOEndpoint, body)
	return err
}

// SetPinValue drives the pin at index high (true) or low (false). The pin
// must already be in PushPullOutput mode.
func (g *GPIO) SetPinValue(index uint8, value bool) error {
	var v byte
	if value {
		v = 1
	}
	_, err := g.ch.Command(GPIOEndpoint, []byte{byte(protocol.TagSetPinValue), index, v})
	return err
}

// GetPinValue samples the pin at index. The pin must already be in
// FloatingInput mode.
func (g *GPIO) GetPinValue(index uint8) (bool, error) {
	resp, err := g.ch.Command(GPIOEndpoint, []byte{byte(protocol.TagGetPinValue), index})
	if err != nil {
		return false, err
	}
	if len(resp) < 1 {
		return false, hal.NewError(hal.ProtocolError)
	}
	return resp[0] != 0, nil
}
