package framing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/gpiobridge/bipbuf"
	"github.com/usbarmory/gpiobridge/cobs"
)

const testMaxPacketSize = 64

func newTestAssembler() (*Assembler, *bipbuf.Producer, *PacketConsumer) {
	return newTestAssemblerCap(512)
}

func newTestAssemblerCap(rawCap int) (*Assembler, *bipbuf.Producer, *PacketConsumer) {
	rawBuf := bipbuf.New(rawCap)
	rawProd, rawCons := rawBuf.Halves()

	pktBuf := bipbuf.New(512)
	pktProd, pktCons := pktBuf.Halves()

	asm := NewAssembler(rawCons, pktProd, testMaxPacketSize)
	return asm, rawProd, NewPacketConsumer(pktCons)
}

func feedRaw(t *testing.T, p *bipbuf.Producer, data []byte) {
	t.Helper()
	g, ok := p.Grant(len(data))
	require.True(t, ok)
	copy(g.Bytes, data)
	p.Commit(len(data), g)
}

// TestAssemblerDecodesSingleFrame feeds a lone 0x00 first: the assembler
// always starts in Discarding and consumes the first boundary-delimited
// chunk unconditionally (same cold-start behavior exercised against a
// resync in TestAssemblerDiscardsOversizeFrame), so the frame under test
// must be the second one seen.
func TestAssemblerDecodesSingleFrame(t *testing.T) {
	asm, rawProd, pkt := newTestAssembler()

	payload := []byte("hello gpio")
	var stream []byte
	stream = append(stream, 0x00)
	stream = append(stream, cobs.Encode(payload)...)
	feedRaw(t, rawProd, stream)

	var got []byte
	for i := 0; i < 10; i++ {
		asm.Process()
		if g, ok := pkt.Read(); ok {
			got = append([]byte(nil), g.Bytes()...)
			pkt.ReleaseConsume(g)
			break
		}
	}

	assert.Equal(t, payload, got)
}

// TestAssemblerGarbageResync exercises Testable Property 7 and scenario G:
// arbitrary garbage ending in a 0x00, followed by a valid frame, yields
// exactly one published packet matching the valid frame.
func TestAssemblerGarbageResync(t *testing.T) {
	asm, rawProd, pkt := newTestAssemblerCap(4096)

	rng := rand.New(rand.NewSource(7))
	garbage := make([]byte, 2000)
	for i := range garbage {
		b := byte(rng.Intn(255) + 1) // non-zero
		garbage[i] = b
	}
	garbage = append(garbage, 0x00)

	payload := []byte{0x01, 42} // stand-in for a GetPinMode(0)-shaped body
	valid := cobs.Encode(payload)

	feedRaw(t, rawProd, append(garbage, valid...))

	var packets [][]byte
	for i := 0; i < 50; i++ {
		asm.Process()
		if g, ok := pkt.Read(); ok {
			packets = append(packets, append([]byte(nil), g.Bytes()...))
			pkt.ReleaseConsume(g)
		}
	}

	require.Len(t, packets, 1, "garbage must not produce spurious packets")
	assert.Equal(t, payload, packets[0])
}

// TestAssemblerDiscardsOversizeFrame drives the assembler past its initial
// Discarding state first (a lone separator is enough), then hands it a
// frame too large for its grant: the overrun must discard that frame and
// resync at Discarding, after which it treats the immediately following
// frame as the boundary it resyncs on (consuming it too, same as at
// startup) before a later, normal-sized frame is actually published.
func TestAssemblerDiscardsOversizeFrame(t *testing.T) {
	asm, rawProd, pkt := newTestAssembler()

	oversized := make([]byte, 4*testMaxPacketSize)
	rand.New(rand.NewSource(9)).Read(oversized)
	for i := range oversized {
		if oversized[i] == 0 {
			oversized[i] = 1
		}
	}

	var stream []byte
	stream = append(stream, 0x00)                      // clears initial Discarding
	stream = append(stream, cobs.Encode(oversized)...)  // triggers the overrun
	stream = append(stream, cobs.Encode([]byte("x"))...) // eaten by the post-overrun resync
	stream = append(stream, cobs.Encode([]byte("ok"))...)
	feedRaw(t, rawProd, stream)

	var packets [][]byte
	for i := 0; i < 200; i++ {
		asm.Process()
		if g, ok := pkt.Read(); ok {
			packets = append(packets, append([]byte(nil), g.Bytes()...))
			pkt.ReleaseConsume(g)
		}
	}

	require.Len(t, packets, 1)
	assert.Equal(t, []byte("ok"), packets[0])
}

func TestTxProducerEncodesInPlace(t *testing.T) {
	buf := bipbuf.New(256)
	prod, cons := buf.Halves()
	tx := NewTxProducer(prod)

	payload := []byte{1, 2, 0, 3, 4}
	g, ok := tx.Grant(len(payload))
	require.True(t, ok)
	copy(g.Bytes(), payload)
	tx.Commit(len(payload), g)

	rg, ok := cons.Read()
	require.True(t, ok)

	decoded, err := cobs.Decode(rg.Bytes)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestTxProducerZeroCommitDiscards(t *testing.T) {
	buf := bipbuf.New(64)
	prod, cons := buf.Halves()
	tx := NewTxProducer(prod)

	g, ok := tx.Grant(4)
	require.True(t, ok)
	tx.Commit(0, g)

	_, ok = cons.Read()
	assert.False(t, ok)
}
