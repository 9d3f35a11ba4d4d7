// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cobs

import "errors"

var (
	// ErrUnexpectedZero is returned when a 0x00 byte appears where a
	// non-zero code byte was expected, meaning the frame is malformed.
	ErrUnexpectedZero = errors.New("cobs: unexpected zero byte in frame")

	// ErrTruncatedFrame is returned when a code byte promises more run
	// bytes than remain in the buffer, or the frame is missing its
	// terminator.
	ErrTruncatedFrame = errors.New("cobs: truncated frame")
)
