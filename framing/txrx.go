// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package framing

import (
	"encoding/binary"

	"github.com/usbarmory/gpiobridge/bipbuf"
	"github.com/usbarmory/gpiobridge/cobs"
)

// TxGrant is a writable region returned by TxProducer.Grant: exactly n
// plain (not yet COBS-encoded) bytes, positioned after the encoding
// reserve that Commit will expand into.
type TxGrant struct {
	wg     bipbuf.WriteGrant
	offset int
	n      int
}

// Bytes is the caller-writable payload region of the grant.
func (g TxGrant) Bytes() []byte {
	return g.wg.Bytes[g.offset : g.offset+g.n]
}

// TxProducer is the only place COBS encoding happens on the outbound
// path: it wraps a raw bipbuf.Producer so callers only ever see plain
// (decoded) bytes.
type TxProducer struct {
	p *bipbuf.Producer
}

// NewTxProducer wraps p.
func NewTxProducer(p *bipbuf.Producer) *TxProducer {
	return &TxProducer{p: p}
}

// Grant reserves a writable region of exactly n plain bytes, underneath
// reserving cobs.Overhead(n)+n+1 bytes of the raw queue for the eventual
// encoded frame.
func (t *TxProducer) Grant(n int) (TxGrant, bool) {
	overhead := cobs.Overhead(n)
	wg, ok := t.p.Grant(overhead + n + 1)
	if !ok {
		return TxGrant{}, false
	}
	return TxGrant{wg: wg, offset: overhead, n: n}, true
}

// Commit COBS-encodes the first k bytes of g's payload region in place
// and commits the resulting frame (including its terminator) to the raw
// queue. k == 0 discards the grant.
func (t *TxProducer) Commit(k int, g TxGrant) {
	if k <= 0 {
		t.p.Commit(0, g.wg)
		return
	}
	encodedLen := cobs.EncodeInPlace(g.wg.Bytes, g.offset, k)
	t.p.Commit(encodedLen, g.wg)
}

// PacketGrant is a readable region returned by PacketConsumer.Read: a
// borrow of one fully-decoded packet's payload bytes, with the 2-byte
// length prefix and any trailing garbage already stripped away.
type PacketGrant struct {
	rg   bipbuf.ReadGrant
	size int
}

// Bytes is the packet's decoded payload.
func (g PacketGrant) Bytes() []byte {
	return g.rg.Bytes[2 : 2+g.size]
}

// PacketConsumer reads length-prefixed packets published by an Assembler.
type PacketConsumer struct {
	c *bipbuf.Consumer
}

// NewPacketConsumer wraps c.
func NewPacketConsumer(c *bipbuf.Consumer) *PacketConsumer {
	return &PacketConsumer{c: c}
}

// Read returns the next fully-published packet, or ok == false if none is
// available yet (or the record at the head of the queue is malformed,
// in which case it is silently dropped and Read can be retried).
func (pc *PacketConsumer) Read() (PacketGrant, bool) {
	rg, ok := pc.c.Read()
	if !ok {
		return PacketGrant{}, false
	}
	if len(rg.Bytes) < 2 {
		pc.c.Release(len(rg.Bytes), rg)
		return PacketGrant{}, false
	}

	size := int(binary.LittleEndian.Uint16(rg.Bytes[0:2]))
	if 2+size > len(rg.Bytes) {
		pc.c.Release(len(rg.Bytes), rg)
		return PacketGrant{}, false
	}

	return PacketGrant{rg: rg, size: size}, true
}

// ReleaseConsume advances past the packet's 2-byte length prefix and its
// payload, making room for the next record.
func (pc *PacketConsumer) ReleaseConsume(g PacketGrant) {
	pc.c.Release(2+g.size, g.rg)
}

// ReleaseUnread leaves the packet in place so a later Read (typically
// after a larger TX grant becomes available) returns it again.
func (pc *PacketConsumer) ReleaseUnread(g PacketGrant) {
	pc.c.Release(0, g.rg)
}
