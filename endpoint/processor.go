// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package endpoint implements the command dispatcher (spec.md §4.5): a
// CommandProcessor that reads framed command packets, dispatches them by
// endpoint byte to a static table of Targets, and writes framed responses,
// retrying when the transmit queue cannot yet satisfy a target's requested
// output size.
package endpoint

import (
	"github.com/usbarmory/gpiobridge/framing"
	"github.com/usbarmory/gpiobridge/hal"
)

// minWriteGrant is the smallest TX grant ever requested: room for the
// response header byte plus a small fixed payload or error encoding.
const minWriteGrant = 4

// responseOk and responseErr are the response header discriminants
// (protocol.EncodeOkHeader/EncodeErrHeader duplicate these; the processor
// keeps its own copy rather than calling protocol's header encoders, since
// the header format is part of the command-processor contract itself, not
// the GPIO payload format).
const (
	responseOk  byte = 0
	responseErr byte = 1
)

// Target is a polymorphic endpoint (spec.md §9 "Polymorphic endpoints"):
// Process decodes payload and, on success, writes its response into
// writable, returning the number of bytes written. A *hal.NeedWriteGrant
// error asks the processor to retry with at least N bytes of writable
// space; any other error is surfaced to the host as an error response.
type Target interface {
	Process(payload []byte, writable []byte) (size int, err error)
}

// Processor is the command dispatcher: one instance per device, owning the
// TX producer, the RX packet consumer, and the static endpoint table.
type Processor struct {
	tx       *framing.TxProducer
	consumer *framing.PacketConsumer
	targets  map[uint8]Target

	writeGrantRequest int

	// MaxRetries bounds how many consecutive passes a single input
	// packet may spend retrying a NeedWriteGrant before it is dropped
	// with a ProtocolError response. Zero (the default) means
	// unbounded, matching the original's behavior.
	MaxRetries int
	retries    int
}

// NewProcessor returns a Processor dispatching to targets by endpoint byte.
func NewProcessor(tx *framing.TxProducer, consumer *framing.PacketConsumer, targets map[uint8]Target) *Processor {
	return &Processor{
		tx:       tx,
		consumer: consumer,
		targets:  targets,
	}
}

// Process drains at most one input packet and advances the dispatcher's
// retry state by at most one step; it is meant to be called repeatedly
// from the main loop.
func (p *Processor) Process() {
	pg, ok := p.consumer.Read()
	if !ok {
		return
	}
	body := pg.Bytes()

	if len(body) < 2 {
		p.consumer.ReleaseConsume(pg)
		p.writeGrantRequest = 0
		p.retries = 0
		return
	}

	size := p.writeGrantRequest
	if size < minWriteGrant {
		size = minWriteGrant
	}

	wg, ok := p.tx.Grant(size)
	if !ok {
		p.consumer.ReleaseUnread(pg)
		return
	}

	endpoint := body[0]
	payload := body[1:]
	writable := wg.Bytes()

	outSize, err := p.dispatch(endpoint, payload, writable[1:])
	switch e := err.(type) {
	case nil:
		writable[0] = responseOk
		p.tx.Commit(1+outSize, wg)
		p.consumer.ReleaseConsume(pg)
		p.writeGrantRequest = 0
		p.retries = 0

	case *hal.NeedWriteGrant:
		p.retries++
		if p.MaxRetries > 0 && p.retries >= p.MaxRetries {
			// The already-held grant is at least minWriteGrant bytes,
			// plenty for an error header; reuse it instead of
			// releasing and re-granting.
			n := p.writeErrHeader(writable, hal.NewError(hal.ProtocolError))
			p.tx.Commit(n, wg)
			p.consumer.ReleaseConsume(pg)
			p.writeGrantRequest = 0
			p.retries = 0
			return
		}
		p.tx.Commit(0, wg)
		p.consumer.ReleaseUnread(pg)
		want := e.N + 1
		if want < minWriteGrant {
			want = minWriteGrant
		}
		p.writeGrantRequest = want

	case *hal.Error:
		n := p.writeErrHeader(writable, e)
		p.tx.Commit(n, wg)
		p.consumer.ReleaseConsume(pg)
		p.writeGrantRequest = 0
		p.retries = 0

	default:
		n := p.writeErrHeader(writable, hal.NewError(hal.ProtocolError))
		p.tx.Commit(n, wg)
		p.consumer.ReleaseConsume(pg)
		p.writeGrantRequest = 0
		p.retries = 0
	}
}

func (p *Processor) writeErrHeader(buf []byte, e *hal.Error) int {
	buf[0] = responseErr
	buf[1] = byte(e.Kind)
	if e.Kind == hal.Other {
		buf[2] = e.Code
		return 3
	}
	return 2
}

func (p *Processor) dispatch(endpoint uint8, payload []byte, writable []byte) (int, error) {
	target, ok := p.targets[endpoint]
	if !ok {
		return 0, hal.NewError(hal.UnsupportedCommand)
	}
	return target.Process(payload, writable)
}
