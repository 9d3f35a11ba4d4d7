// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usbcdc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/gpiobridge/bipbuf"
)

func TestShortPacketTrackerInsertsZLPAfterInterval(t *testing.T) {
	var s shortPacketTracker

	for i := 0; i < ShortPacketInterval-1; i++ {
		assert.False(t, s.Observe(MaxPacketSize))
	}
	assert.True(t, s.Observe(MaxPacketSize))

	assert.False(t, s.Observe(MaxPacketSize), "counter resets after the inserted ZLP")
}

func TestShortPacketTrackerResetsOnShortWrite(t *testing.T) {
	var s shortPacketTracker

	for i := 0; i < ShortPacketInterval-1; i++ {
		assert.False(t, s.Observe(MaxPacketSize))
	}
	assert.False(t, s.Observe(10), "a naturally short packet resets the counter")
	assert.False(t, s.Observe(MaxPacketSize))
}

func TestLoopbackRoundTrip(t *testing.T) {
	a, b := NewLoopbackPair()

	require.NoError(t, a.Send([]byte("hello")))
	data, ok := b.Receive()
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), data)

	_, ok = b.Receive()
	assert.False(t, ok)
}

func TestQueuedSerialPollMovesBytesThroughQueues(t *testing.T) {
	a, b := NewLoopbackPair()

	rxBuf := bipbuf.New(256)
	rxProd, rxCons := rxBuf.Halves()
	txBuf := bipbuf.New(256)
	txProd, txCons := txBuf.Halves()

	qs := NewQueuedSerial(a, rxProd, txCons)

	require.NoError(t, b.Send([]byte("from host")))
	qs.Poll()

	rg, ok := rxCons.Read()
	require.True(t, ok)
	assert.Equal(t, []byte("from host"), rg.Bytes)
	rxCons.Release(len(rg.Bytes), rg)

	wg, ok := txProd.Grant(5)
	require.True(t, ok)
	copy(wg.Bytes, []byte("reply"))
	txProd.Commit(5, wg)

	qs.Poll()

	out, ok := b.Receive()
	require.True(t, ok)
	assert.Equal(t, []byte("reply"), out)
}

func TestBufferedSerialPollMovesBytesThroughQueues(t *testing.T) {
	a, b := NewLoopbackPair()

	rxBuf := bipbuf.New(256)
	rxProd, rxCons := rxBuf.Halves()
	txBuf := bipbuf.New(256)
	txProd, txCons := txBuf.Halves()

	bs := NewBufferedSerial(a, rxProd, txCons)

	require.NoError(t, b.Send([]byte("from host")))
	bs.Poll()

	rg, ok := rxCons.Read()
	require.True(t, ok)
	assert.Equal(t, []byte("from host"), rg.Bytes)
	rxCons.Release(len(rg.Bytes), rg)

	wg, ok := txProd.Grant(5)
	require.True(t, ok)
	copy(wg.Bytes, []byte("reply"))
	txProd.Commit(5, wg)

	bs.Poll()

	out, ok := b.Receive()
	require.True(t, ok)
	assert.Equal(t, []byte("reply"), out)
}
