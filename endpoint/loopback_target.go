// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package endpoint

import "github.com/usbarmory/gpiobridge/hal"

// LoopbackEndpoint is the wire endpoint byte the loopback target is
// registered under, distinct from GPIOEndpoint.
const LoopbackEndpoint = 0

// MaxLoopbackPayload is the largest payload LoopbackTarget will echo;
// anything larger is refused rather than looped forever waiting for a
// TX grant that size-checking would never satisfy.
const MaxLoopbackPayload = 256

// LoopbackTarget echoes whatever payload it receives back out the TX
// producer. It exists to exercise the framing and command-processor
// layers without the GPIO target: a development aid, not part of the
// GPIO contract.
type LoopbackTarget struct{}

// NewLoopbackTarget returns a LoopbackTarget.
func NewLoopbackTarget() *LoopbackTarget {
	return &LoopbackTarget{}
}

// Process implements Target.
func (t *LoopbackTarget) Process(payload []byte, writable []byte) (int, error) {
	if len(payload) > MaxLoopbackPayload {
		return 0, hal.NewError(hal.InvalidParameter)
	}
	if len(payload) > len(writable) {
		return 0, &hal.NeedWriteGrant{N: len(payload)}
	}
	copy(writable, payload)
	return len(payload), nil
}
