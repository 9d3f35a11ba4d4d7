// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package board holds the pin-index packing scheme shared by every
// concrete hal.PinSet implementation (board/sim, board/usbarmory):
// a peripheral bank number and an in-bank pin number packed into a
// single byte, matching the teacher's register-driver convention of
// keeping a pin's physical location in one compact field (targets/f3_disco.rs's
// `(peripheral << 4) | pin_index`). Unlike f3_disco.rs's STM32 target
// (16 pins/bank, an even 4/4 split), i.MX6 GPIO banks have up to 32 pins
// each, so the split here is 3 bits of bank (0-7, more than the 7 GPIO
// controllers i.MX6UL has) and 5 bits of in-bank pin number (0-31).
package board

import "github.com/usbarmory/gpiobridge/bits"

// PackIndex packs a peripheral bank number (0-7) and an in-bank pin
// number (0-31) into a single byte.
func PackIndex(bank, pin uint8) uint8 {
	var v uint32
	bits.SetN(&v, 5, 0x7, uint32(bank))
	bits.SetN(&v, 0, 0x1f, uint32(pin))
	return uint8(v)
}

// UnpackIndex reverses PackIndex.
func UnpackIndex(index uint8) (bank, pin uint8) {
	v := uint32(index)
	return uint8(bits.GetN(&v, 5, 0x7)), uint8(bits.GetN(&v, 0, 0x1f))
}

// BankLetter returns the PinInformation.IndexMajor byte for a bank
// number, 0 -> 'A', 1 -> 'B', and so on.
func BankLetter(bank uint8) uint8 {
	return 'A' + bank
}
