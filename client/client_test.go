// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package client

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/gpiobridge/board/sim"
	"github.com/usbarmory/gpiobridge/hal"
	"github.com/usbarmory/gpiobridge/protocol"
)

// fakeDevice runs a minimal GPIO command loop over a net.Conn, standing in
// for the real framed device-side pipeline so CommandChannel/GPIO can be
// exercised over an actual duplex connection without bipbuf/framing/cobs
// wiring (those layers have their own tests; this one is about the
// client's framing and dispatch, not the firmware's).
func fakeDevice(t *testing.T, conn net.Conn, pins *sim.PinSet) {
	t.Helper()
	pc := NewPacketChannel(conn)

	for {
		body, err := pc.ReadPacket()
		if err != nil {
			return
		}
		if len(body) < 1 || body[0] != GPIOEndpoint {
			continue
		}

		resp := fakeDeviceDispatch(pins, body[1:])
		if err := pc.WritePacket(resp); err != nil {
			return
		}
	}
}

func fakeDeviceDispatch(pins *sim.PinSet, payload []byte) []byte {
	cmd, err := protocol.DecodeCommand(payload)
	if err != nil {
		return encodeErr(hal.NewError(hal.InvalidParameter))
	}

	pin := func(i uint8) (hal.Pin, *hal.Error) {
		p, ok := pins.Pin(int(i))
		if !ok {
			return nil, hal.NewError(hal.InvalidParameter)
		}
		return p, nil
	}

	switch cmd.Tag {
	case protocol.TagEnumeratePins:
		buf := make([]byte, 1+protocol.PinInformationLen*pins.Len())
		buf[0] = uint8(pins.Len())
		off := 1
		for i := 0; i < pins.Len(); i++ {
			p, _ := pins.Pin(i)
			off += protocol.EncodePinInformation(p.Information(), buf[off:])
		}
		return encodeOk(buf)

	case protocol.TagGetPinMode:
		p, herr := pin(cmd.Index)
		if herr != nil {
			return encodeErr(herr)
		}
		buf := make([]byte, protocol.EncodedPinModeLen(p.Mode()))
		protocol.EncodePinMode(p.Mode(), buf)
		return encodeOk(buf)

	case protocol.TagSetPinMode:
		p, herr := pin(cmd.Index)
		if herr != nil {
			return encodeErr(herr)
		}
		if err := p.SetMode(cmd.Mode); err != nil {
			return encodeErr(err.(*hal.Error))
		}
		return encodeOk(nil)

	case protocol.TagSetPinValue:
		p, herr := pin(cmd.Index)
		if herr != nil {
			return encodeErr(herr)
		}
		if err := p.SetOutput(cmd.Value); err != nil {
			return encodeErr(err.(*hal.Error))
		}
		return encodeOk(nil)

	case protocol.TagGetPinValue:
		p, herr := pin(cmd.Index)
		if herr != nil {
			return encodeErr(herr)
		}
		v, err := p.GetInput()
		if err != nil {
			return encodeErr(err.(*hal.Error))
		}
		buf := []byte{0}
		if v {
			buf[0] = 1
		}
		return encodeOk(buf)

	default:
		return encodeErr(hal.NewError(hal.UnsupportedCommand))
	}
}

func encodeOk(payload []byte) []byte {
	buf := make([]byte, 1+len(payload))
	n := protocol.EncodeOkHeader(buf)
	copy(buf[n:], payload)
	return buf
}

func encodeErr(e *hal.Error) []byte {
	buf := make([]byte, protocol.MaxResponseHeaderLen)
	n := protocol.EncodeErrHeader(e, buf)
	return buf[:n]
}

func newTestGPIO(t *testing.T) (*GPIO, *Stats) {
	t.Helper()
	hostConn, deviceConn := net.Pipe()
	t.Cleanup(func() { hostConn.Close(); deviceConn.Close() })

	pins := sim.New(4)
	go fakeDevice(t, deviceConn, pins)

	stats := NewStats()
	ch := NewCommandChannel(hostConn, stats)
	return NewGPIO(ch), stats
}

func TestGPIOSetAndGetPinMode(t *testing.T) {
	gpio, stats := newTestGPIO(t)

	require.NoError(t, gpio.SetPinMode(0, hal.PinMode{Kind: hal.PushPullOutput}))
	mode, err := gpio.GetPinMode(0)
	require.NoError(t, err)
	assert.Equal(t, hal.PushPullOutput, mode.Kind)

	snap := stats.Snapshot()
	assert.Equal(t, uint64(2), snap.Commands)
}

func TestGPIOSetAndGetPinValue(t *testing.T) {
	gpio, _ := newTestGPIO(t)

	require.NoError(t, gpio.SetPinMode(1, hal.PinMode{Kind: hal.PushPullOutput}))
	require.NoError(t, gpio.SetPinValue(1, true))

	// pin 1 is an output, so reading it back is a mode error.
	_, err := gpio.GetPinValue(1)
	require.Error(t, err)
	herr, ok := err.(*hal.Error)
	require.True(t, ok)
	assert.Equal(t, hal.InvalidGpioMode, herr.Kind)
}

func TestGPIOEnumeratePins(t *testing.T) {
	gpio, _ := newTestGPIO(t)

	pins, err := gpio.EnumeratePins()
	require.NoError(t, err)
	require.Len(t, pins, 4)
	assert.Equal(t, uint8('A'), pins[0].IndexMajor)
}

func TestGPIOOutOfRangeIndex(t *testing.T) {
	gpio, stats := newTestGPIO(t)

	_, err := gpio.GetPinMode(99)
	require.Error(t, err)
	herr, ok := err.(*hal.Error)
	require.True(t, ok)
	assert.Equal(t, hal.InvalidParameter, herr.Kind)

	snap := stats.Snapshot()
	assert.Equal(t, uint64(1), snap.ErrorCounts[hal.InvalidParameter])
}

// TestPacketChannelRandomRoundTrip is the client-side analogue of the
// original software's rng_test (SPEC_FULL §6 item 3): COBS-encode 50
// random payloads of random size (1 to 499 bytes) over an in-process pipe
// and verify round-trip equality. Only valid, non-empty frames are sent;
// garbage and empty frames are not exercised here.
func TestPacketChannelRandomRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	t.Cleanup(func() { a.Close(); b.Close() })

	pcA := NewPacketChannel(a)
	pcB := NewPacketChannel(b)

	rng := rand.New(rand.NewSource(42))

	done := make(chan struct{})
	var received [][]byte
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			got, err := pcB.ReadPacket()
			if err != nil {
				return
			}
			received = append(received, got)
		}
	}()

	var sent [][]byte
	for i := 0; i < 50; i++ {
		n := rng.Intn(500)
		payload := make([]byte, n)
		rng.Read(payload)
		if len(payload) == 0 {
			payload = []byte{0x01}
		}
		sent = append(sent, payload)
		require.NoError(t, pcA.WritePacket(payload))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for packets")
	}

	require.Len(t, received, len(sent))
	for i := range sent {
		assert.Equal(t, sent[i], received[i])
	}
}
