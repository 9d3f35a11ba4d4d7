package bipbuf

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantZeroAlwaysSucceeds(t *testing.T) {
	b := New(4)
	p, _ := b.Halves()

	g, ok := p.Grant(0)
	require.True(t, ok)
	p.Commit(0, g)
}

func TestCommitLessThanGrantDiscardsRemainder(t *testing.T) {
	b := New(16)
	p, c := b.Halves()

	g, ok := p.Grant(8)
	require.True(t, ok)
	copy(g.Bytes, []byte("abcdefgh"))
	p.Commit(3, g)

	rg, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), rg.Bytes)
	c.Release(len(rg.Bytes), rg)

	_, ok = c.Read()
	assert.False(t, ok, "bytes beyond the committed prefix must never be observable")
}

func TestReadEmptyBufferFails(t *testing.T) {
	b := New(8)
	_, c := b.Halves()

	_, ok := c.Read()
	assert.False(t, ok)
}

func TestGrantFailsWhenNoContiguousSpace(t *testing.T) {
	b := New(4)
	p, _ := b.Halves()

	g, ok := p.Grant(3)
	require.True(t, ok)
	p.Commit(3, g)

	_, ok = p.Grant(2)
	assert.False(t, ok)
}

func TestDoubleGrantPanics(t *testing.T) {
	b := New(8)
	p, _ := b.Halves()

	_, ok := p.Grant(2)
	require.True(t, ok)

	assert.Panics(t, func() {
		p.Grant(2)
	})
}

func TestDoubleReadPanics(t *testing.T) {
	b := New(8)
	p, c := b.Halves()

	g, _ := p.Grant(2)
	p.Commit(2, g)

	_, ok := c.Read()
	require.True(t, ok)

	assert.Panics(t, func() {
		c.Read()
	})
}

func TestWrapAroundRoundTrip(t *testing.T) {
	b := New(8)
	p, c := b.Halves()

	g, ok := p.Grant(6)
	require.True(t, ok)
	copy(g.Bytes, []byte("abcdef"))
	p.Commit(6, g)

	rg, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, []byte("abcdef"), rg.Bytes)
	c.Release(6, rg)

	// Trailing space (8-6=2) is smaller than this request; a wrapping
	// grant into the leading region should be returned instead.
	g2, ok := p.Grant(4)
	require.True(t, ok)
	copy(g2.Bytes, []byte("WXYZ"))
	p.Commit(4, g2)

	rg2, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, []byte("WXYZ"), rg2.Bytes)
	c.Release(4, rg2)

	_, ok = c.Read()
	assert.False(t, ok)
}

// TestFIFOOrderConcurrent exercises invariant 5 (BipBuffer FIFO): for any
// interleaving of grant/commit and read/release on separate goroutines,
// the bytes observed by the consumer equal the bytes committed by the
// producer, in order.
func TestFIFOOrderConcurrent(t *testing.T) {
	const total = 200000
	b := New(256)
	p, c := b.Halves()

	src := make([]byte, total)
	rand.New(rand.NewSource(42)).Read(src)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		written := 0
		for written < total {
			n := 1 + rand.Intn(32)
			if written+n > total {
				n = total - written
			}
			g, ok := p.Grant(n)
			if !ok {
				continue
			}
			copy(g.Bytes, src[written:written+n])
			p.Commit(n, g)
			written += n
		}
	}()

	var got []byte
	go func() {
		defer wg.Done()
		for len(got) < total {
			rg, ok := c.Read()
			if !ok {
				continue
			}
			got = append(got, rg.Bytes...)
			c.Release(len(rg.Bytes), rg)
		}
	}()

	wg.Wait()
	assert.Equal(t, src, got)
}

func TestReleasePartialKeepsRemainderReadable(t *testing.T) {
	b := New(16)
	p, c := b.Halves()

	g, _ := p.Grant(5)
	copy(g.Bytes, []byte("hello"))
	p.Commit(5, g)

	rg, ok := c.Read()
	require.True(t, ok)
	c.Release(2, rg)

	rg2, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, []byte("llo"), rg2.Bytes)
	c.Release(3, rg2)
}
