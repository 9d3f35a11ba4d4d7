// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package protocol

import "github.com/usbarmory/gpiobridge/hal"

const (
	responseOk  byte = 0
	responseErr byte = 1
)

// MaxResponseHeaderLen is the largest a response header can be: the Err
// discriminant, the error kind byte, and the Other(u8) code byte.
const MaxResponseHeaderLen = 3

// EncodeOkHeader writes the success header to buf[0] and returns 1.
func EncodeOkHeader(buf []byte) int {
	buf[0] = responseOk
	return 1
}

// EncodeErrHeader writes an error header (Err discriminant, error kind,
// and for Other an extra code byte) to the front of buf and returns the
// number of bytes written.
func EncodeErrHeader(err *hal.Error, buf []byte) int {
	buf[0] = responseErr
	buf[1] = byte(err.Kind)
	if err.Kind == hal.Other {
		buf[2] = err.Code
		return 3
	}
	return 2
}

// DecodeResponseHeader parses a response header from the front of buf. On
// success (err is nil) ok reports whether the response was Ok (herr is
// nil) or an error (herr is non-nil); consumed is the number of header
// bytes read.
func DecodeResponseHeader(buf []byte) (ok bool, herr *hal.Error, consumed int, err error) {
	if len(buf) < 1 {
		return false, nil, 0, ErrShortBody
	}
	switch buf[0] {
	case responseOk:
		return true, nil, 1, nil
	case responseErr:
		if len(buf) < 2 {
			return false, nil, 0, ErrShortBody
		}
		kind := hal.ErrorKind(buf[1])
		if kind == hal.Other {
			if len(buf) < 3 {
				return false, nil, 0, ErrShortBody
			}
			return false, hal.NewOtherError(buf[2]), 3, nil
		}
		return false, hal.NewError(kind), 2, nil
	default:
		return false, nil, 0, ErrUnknownTag
	}
}
