// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package client is the host-side mirror of the device protocol (spec.md
// §4.6): a PacketChannel that frames/deframes COBS packets over a serial
// port, a CommandChannel that serializes synchronous command/response
// exchanges across one goroutine at a time, and a GPIO client that issues
// one GPIO command per method call with no pipelining, exactly as spec.md
// §4.6 and §5 describe the host side.
package client

import (
	"bytes"
	"io"

	"github.com/usbarmory/gpiobridge/cobs"
)

// ReadWriteCloser is the transport a PacketChannel talks over. The
// host-side serial-port enumeration and driver themselves are out of
// scope per spec.md §1, specified only at this interface level;
// client/serial.go supplies the concrete implementation.
type ReadWriteCloser interface {
	io.Reader
	io.Writer
	io.Closer
}

// readChunkSize is the scratch buffer size for each underlying Read call.
// It does not bound frame size: PacketChannel accumulates across as many
// reads as a frame needs.
const readChunkSize = 256

// PacketChannel implements spec.md §4.6's host-side framing: ReadPacket
// blocks until a 0x00 separator has arrived in the accumulated buffer,
// then COBS-decodes exactly one frame; WritePacket COBS-encodes a body
// (the encoding already appends the 0x00 terminator) and writes it whole.
type PacketChannel struct {
	rw    ReadWriteCloser
	buf   []byte
	chunk [readChunkSize]byte
}

// NewPacketChannel returns a PacketChannel reading and writing through rw.
func NewPacketChannel(rw ReadWriteCloser) *PacketChannel {
	return &PacketChannel{rw: rw}
}

// ReadPacket blocks (via rw.Read) until one complete COBS frame has been
// received, decodes it, and returns the decoded payload. An empty frame
// (two consecutive 0x00 separators, decoding to zero bytes) is skipped,
// per spec.md §6: "An empty frame … is ignored."
func (pc *PacketChannel) ReadPacket() ([]byte, error) {
	for {
		if idx := bytes.IndexByte(pc.buf, 0); idx >= 0 {
			frame := pc.buf[:idx+1]
			rest := pc.buf[idx+1:]
			pc.buf = append([]byte(nil), rest...)

			decoded, err := cobs.Decode(frame)
			if err != nil {
				return nil, err
			}
			if len(decoded) == 0 {
				continue
			}
			return decoded, nil
		}

		n, err := pc.rw.Read(pc.chunk[:])
		if err != nil {
			return nil, err
		}
		pc.buf = append(pc.buf, pc.chunk[:n]...)
	}
}

// WritePacket COBS-encodes body (appending its trailing 0x00 terminator)
// and writes the whole frame in one call.
func (pc *PacketChannel) WritePacket(body []byte) error {
	encoded := cobs.Encode(body)
	_, err := pc.rw.Write(encoded)
	return err
}

// discardBuffered drops any bytes already accumulated but not yet
// consumed into a frame, used by Resync before re-establishing framing
// with a fresh device.
func (pc *PacketChannel) discardBuffered() {
	pc.buf = pc.buf[:0]
}
