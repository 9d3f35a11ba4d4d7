// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package framing drains a raw (still COBS-encoded) byte queue into
// fully-decoded, length-prefixed packets in a second queue (Assembler),
// and wraps the two BipBuffer queues on the transmit and receive sides
// with the COBS encode/decode bookkeeping so callers never see raw COBS
// bytes directly (TxProducer, PacketConsumer).
package framing

import (
	"encoding/binary"

	"github.com/usbarmory/gpiobridge/bipbuf"
	"github.com/usbarmory/gpiobridge/cobs"
)

type assemblerState int

const (
	stateDiscarding assemblerState = iota
	stateWaitingForGrant
	stateProcessing
)

// Assembler turns a raw COBS byte stream pulled from an RX-bytes queue
// into length-prefixed packets published to an RX-packets queue. Each
// published packet is preceded by a 2-byte little-endian length prefix
// (spec.md §3 "Packet record").
type Assembler struct {
	in  *bipbuf.Consumer
	out *bipbuf.Producer

	state   assemblerState
	pending bipbuf.WriteGrant
	fill    int

	maxFrameSize int
}

// NewAssembler returns an Assembler draining in into out. maxPacketSize is
// the largest decoded payload the assembler will ever need to hold; the
// assembler reserves enough RX-packets queue space for its worst-case
// COBS-encoded form plus the 2-byte length prefix.
func NewAssembler(in *bipbuf.Consumer, out *bipbuf.Producer, maxPacketSize int) *Assembler {
	return &Assembler{
		in:           in,
		out:          out,
		state:        stateDiscarding,
		maxFrameSize: cobs.MaxEncodedLen(maxPacketSize),
	}
}

// Process drains at most one chunk of input and advances the assembler's
// state machine by at most one step; it is meant to be called repeatedly
// from the main loop, same as every other non-blocking step in this
// system.
func (a *Assembler) Process() {
	rg, ok := a.in.Read()
	if !ok {
		return
	}

	zeroPos := -1
	for i, b := range rg.Bytes {
		if b == 0 {
			zeroPos = i
			break
		}
	}
	chunkSize := len(rg.Bytes)
	if zeroPos >= 0 {
		chunkSize = zeroPos + 1
	}

	switch a.state {
	case stateDiscarding:
		if zeroPos >= 0 {
			a.state = stateWaitingForGrant
		}
		a.in.Release(chunkSize, rg)

	case stateWaitingForGrant:
		if wg, ok := a.out.Grant(2 + a.maxFrameSize); ok {
			a.pending = wg
			a.fill = 2
			a.state = stateProcessing
		}
		a.in.Release(0, rg)

	case stateProcessing:
		a.processChunk(rg, chunkSize, zeroPos >= 0)
	}
}

func (a *Assembler) processChunk(rg bipbuf.ReadGrant, chunkSize int, sawBoundary bool) {
	wg := a.pending
	newFill := a.fill + chunkSize

	if newFill > len(wg.Bytes) {
		// A single in-flight frame overran the grant's capacity:
		// discard and resync at the next boundary.
		a.out.Commit(0, wg)
		a.pending = bipbuf.WriteGrant{}
		a.fill = 0
		a.state = stateDiscarding
		a.in.Release(chunkSize, rg)
		return
	}

	copy(wg.Bytes[a.fill:newFill], rg.Bytes[:chunkSize])

	if !sawBoundary {
		a.fill = newFill
		a.in.Release(chunkSize, rg)
		return
	}

	n, err := cobs.DecodeInPlace(wg.Bytes[2 : newFill-1])
	if err == nil && n > 0 {
		binary.LittleEndian.PutUint16(wg.Bytes[0:2], uint16(n))
		a.out.Commit(2+n, wg)
	} else {
		a.out.Commit(0, wg)
	}

	a.pending = bipbuf.WriteGrant{}
	a.fill = 0
	a.state = stateWaitingForGrant
	a.in.Release(chunkSize, rg)
}
