// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package client

import (
	"sync"
	"time"

	"github.com/usbarmory/gpiobridge/hal"
	"github.com/usbarmory/gpiobridge/protocol"
)

// CommandChannel serializes synchronous command/response exchanges over a
// PacketChannel: Command write-then-blocks-reads exactly one packet, and a
// mutex guards the whole channel so concurrent callers queue rather than
// interleave writes and reads (spec.md §5: "A single worker thread drives
// the port; shared access to the command channel is serialized by a
// mutex").
type CommandChannel struct {
	mu    sync.Mutex
	pc    *PacketChannel
	stats *Stats
}

// NewCommandChannel returns a CommandChannel over rw, recording latency
// and error-kind counters into stats. stats may be nil to disable
// recording.
func NewCommandChannel(rw ReadWriteCloser, stats *Stats) *CommandChannel {
	return &CommandChannel{pc: NewPacketChannel(rw), stats: stats}
}

// Command prepends endpoint to body, exchanges exactly one packet, parses
// the response header, and returns the payload on success or the decoded
// *hal.Error on failure. A transport failure (write, read, or malformed
// response) is reported as hal.ProtocolError, per spec.md §7's
// "ProtocolError — transport failed (host-side: read/write/serialization
// failure on the channel)".
func (c *CommandChannel) Command(endpoint byte, body []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()

	frame := make([]byte, 1+len(body))
	frame[0] = endpoint
	copy(frame[1:], body)

	if err := c.pc.WritePacket(frame); err != nil {
		c.recordError(hal.ProtocolError)
		return nil, hal.NewError(hal.ProtocolError).WithMessage(err.Error())
	}

	resp, err := c.pc.ReadPacket()
	if err != nil {
		c.recordError(hal.ProtocolError)
		return nil, hal.NewError(hal.ProtocolError).WithMessage(err.Error())
	}

	ok, herr, consumed, err := protocol.DecodeResponseHeader(resp)
	if err != nil {
		c.recordError(hal.ProtocolError)
		return nil, hal.NewError(hal.ProtocolError).WithMessage(err.Error())
	}
	if !ok {
		c.recordError(herr.Kind)
		return nil, herr
	}

	c.recordSuccess(time.Since(start))
	return resp[consumed:], nil
}

// Resync drains any bytes buffered from a previous session and writes
// four 0x00 separators before the first real command, matching the
// original software's main()-time discard-then-resync (SPEC_FULL §6 item
// 5): a device that was already mid-frame when the host last disconnected
// is guaranteed back to a frame boundary before anything depends on it.
func (c *CommandChannel) Resync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pc.discardBuffered()
	_, err := c.pc.rw.Write([]byte{0x00, 0x00, 0x00, 0x00})
	return err
}

func (c *CommandChannel) recordSuccess(d time.Duration) {
	if c.stats != nil {
		c.stats.recordSuccess(d)
	}
}

func (c *CommandChannel) recordError(kind hal.ErrorKind) {
	if c.stats != nil {
		c.stats.recordError(kind)
	}
}
