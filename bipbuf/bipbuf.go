// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package bipbuf implements a bounded single-producer/single-consumer byte
// queue with borrow-style grant semantics: a producer reserves a
// contiguous writable region (a write grant), fills some or all of it, and
// commits a prefix; a consumer reads the longest contiguous readable
// region (a read grant) and releases a prefix once it has consumed it.
//
// When the trailing free region after the write pointer is too small for
// a requested grant but the leading region (from 0 up to the read
// pointer) is big enough, the producer wraps: the unused trailing bytes
// are simply abandoned (never read) and remembered as a watermark so the
// consumer knows to jump back to offset 0 once it has drained up to it.
//
// A Buffer is split into a Producer half and a Consumer half. Each side
// owns a disjoint set of fields: the producer is the sole writer of
// writeIdx, watermark and the true value of wrapped; the consumer is the
// sole writer of readIdx and the false value of wrapped. That partition
// is what makes the queue safe with the producer and consumer running on
// separate goroutines (or, on the firmware target, separate interrupt
// levels) without a mutex: every cross-goroutine field is a single
// machine word moved with sync/atomic, which is all the memory ordering
// this traffic pattern needs.
package bipbuf

import "sync/atomic"

// Buffer is the shared storage and state behind a Producer/Consumer pair.
// The zero value is not usable; construct one with New.
type Buffer struct {
	data []byte

	writeIdx  atomic.Uint32
	readIdx   atomic.Uint32
	watermark atomic.Uint32
	wrapped   atomic.Bool

	producerGranted bool
	consumerGranted bool
}

// New returns a Buffer with the given byte capacity. A grant that fits
// between the write pointer and the end of the buffer may run up to the
// last byte, so a fresh New(n) satisfies a first Grant(n); a grant that
// wraps to the front always stops one byte short of the read pointer, so
// that an empty buffer and a full one never share the same indices.
func New(capacity int) *Buffer {
	if capacity < 2 {
		panic("bipbuf: capacity must be at least 2")
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Cap returns the total backing capacity of the buffer.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Halves splits b into its producer and consumer halves. Call once; the
// two halves are then handed to the goroutines (or contexts) that own
// them.
func (b *Buffer) Halves() (*Producer, *Consumer) {
	return &Producer{b: b}, &Consumer{b: b}
}

// WriteGrant is a handle over a contiguous writable region returned by
// Producer.Grant, borrowing b.data[offset : offset+len(Bytes)].
type WriteGrant struct {
	Bytes    []byte
	offset   uint32
	wrapping bool
}

// ReadGrant is a handle over a contiguous readable region returned by
// Consumer.Read, borrowing b.data[offset : offset+len(Bytes)].
type ReadGrant struct {
	Bytes  []byte
	offset uint32
}

// Producer is the write half of a Buffer. Exactly one Producer per Buffer
// may be in use at a time, and only from one goroutine at a time.
type Producer struct {
	b *Buffer
}

// Consumer is the read half of a Buffer. Exactly one Consumer per Buffer
// may be in use at a time, and only from one goroutine at a time.
type Consumer struct {
	b *Buffer
}

// Grant reserves a contiguous writable region of exactly n bytes. ok is
// false if no such contiguous region is currently free. A grant of size
// 0 always succeeds.
//
// At most one write grant may be outstanding at a time; calling Grant
// again before Commit panics.
func (p *Producer) Grant(n int) (g WriteGrant, ok bool) {
	if p.b.producerGranted {
		panic("bipbuf: producer grant already outstanding")
	}
	if n < 0 {
		panic("bipbuf: negative grant size")
	}

	w := p.b.writeIdx.Load()
	r := p.b.readIdx.Load()
	capacity := uint32(len(p.b.data))

	if n == 0 {
		p.b.producerGranted = true
		return WriteGrant{Bytes: p.b.data[w:w], offset: w}, true
	}
	need := uint32(n)

	if p.b.wrapped.Load() {
		// Trailing region beyond w is abandoned skip-space already
		// accounted for by watermark; only the leading region
		// between w and r is available, less the one-byte gap.
		if r > w && r-w-1 >= need {
			p.b.producerGranted = true
			return WriteGrant{Bytes: p.b.data[w : w+need], offset: w}, true
		}
		return WriteGrant{}, false
	}

	if trailing := capacity - w; trailing >= need {
		p.b.producerGranted = true
		return WriteGrant{Bytes: p.b.data[w : w+need], offset: w}, true
	}

	// Trailing space insufficient: try wrapping into the leading region
	// [0, r), reserving one byte so write never catches read.
	if r >= 1 && r-1 >= need {
		p.b.producerGranted = true
		return WriteGrant{Bytes: p.b.data[0:need], offset: 0, wrapping: true}, true
	}

	return WriteGrant{}, false
}

// Commit publishes the first k bytes of a previously returned grant to the
// consumer; k must be ≤ len(g.Bytes). Bytes in the grant beyond k are
// discarded and never observed by the consumer.
func (p *Producer) Commit(k int, g WriteGrant) {
	p.b.producerGranted = false

	if k <= 0 {
		return
	}
	if k > len(g.Bytes) {
		panic("bipbuf: commit size exceeds grant length")
	}

	if g.wrapping {
		p.b.watermark.Store(p.b.writeIdx.Load())
		p.b.wrapped.Store(true)
		p.b.writeIdx.Store(uint32(k))
		return
	}

	p.b.writeIdx.Store(g.offset + uint32(k))
}

// Read returns the longest currently available contiguous readable
// region. ok is false if the buffer has nothing new to read. After a
// producer wrap, one Read drains up to the watermark; the next Read (once
// Release has crossed it) sees the data written after the wrap.
//
// At most one read grant may be outstanding at a time; calling Read again
// before Release panics.
func (c *Consumer) Read() (g ReadGrant, ok bool) {
	if c.b.consumerGranted {
		panic("bipbuf: consumer grant already outstanding")
	}

	r := c.syncWrap(c.b.readIdx.Load())
	w := c.b.writeIdx.Load()

	if r == w {
		return ReadGrant{}, false
	}

	c.b.consumerGranted = true
	if c.b.wrapped.Load() {
		// r < watermark is guaranteed here: syncWrap already jumped
		// the read pointer to 0 (clearing wrapped) if it had reached
		// the watermark, so a still-wrapped state means trailing
		// data remains to drain before the wrapped data is visible.
		return ReadGrant{Bytes: c.b.data[r:c.b.watermark.Load()], offset: r}, true
	}
	return ReadGrant{Bytes: c.b.data[r:w], offset: r}, true
}

// syncWrap advances the read pointer to 0 and clears the wrapped state
// once it has caught up to the watermark left behind by a producer wrap;
// it returns the (possibly updated) read pointer. Called lazily from Read
// so the jump happens exactly once, on whichever side next asks to read.
func (c *Consumer) syncWrap(r uint32) uint32 {
	if !c.b.wrapped.Load() {
		return r
	}
	if wm := c.b.watermark.Load(); r >= wm {
		c.b.readIdx.Store(0)
		c.b.wrapped.Store(false)
		return 0
	}
	return r
}

// Release advances the read pointer past the first k bytes of a
// previously returned grant; k must be ≤ len(g.Bytes).
func (c *Consumer) Release(k int, g ReadGrant) {
	c.b.consumerGranted = false

	if k <= 0 {
		return
	}
	if k > len(g.Bytes) {
		panic("bipbuf: release size exceeds grant length")
	}

	c.b.readIdx.Store(g.offset + uint32(k))
}
