package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbarmory/gpiobridge/board/sim"
	"github.com/usbarmory/gpiobridge/hal"
	"github.com/usbarmory/gpiobridge/protocol"
)

func encodeCommand(t *testing.T, cmd protocol.Command) []byte {
	t.Helper()
	switch cmd.Tag {
	case protocol.TagEnumeratePins:
		return []byte{byte(cmd.Tag)}
	case protocol.TagGetPinMode, protocol.TagGetPinValue:
		return []byte{byte(cmd.Tag), cmd.Index}
	case protocol.TagSetPinMode:
		buf := make([]byte, 2+protocol.EncodedPinModeLen(cmd.Mode))
		buf[0] = byte(cmd.Tag)
		buf[1] = cmd.Index
		protocol.EncodePinMode(cmd.Mode, buf[2:])
		return buf
	case protocol.TagSetPinValue:
		v := byte(0)
		if cmd.Value {
			v = 1
		}
		return []byte{byte(cmd.Tag), cmd.Index, v}
	}
	t.Fatalf("unhandled tag %v", cmd.Tag)
	return nil
}

func TestGPIOTargetSetAndGetPinMode(t *testing.T) {
	pins := sim.New(4)
	target := NewGPIOTarget(pins)

	buf := make([]byte, 16)
	n, err := target.Process(encodeCommand(t, protocol.Command{
		Tag: protocol.TagSetPinMode, Index: 0, Mode: hal.PinMode{Kind: hal.PushPullOutput},
	}), buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = target.Process(encodeCommand(t, protocol.Command{Tag: protocol.TagGetPinMode, Index: 0}), buf)
	require.NoError(t, err)
	mode, consumed, err := protocol.DecodePinMode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, hal.PushPullOutput, mode.Kind)
}

func TestGPIOTargetSetPinValueRequiresOutputMode(t *testing.T) {
	pins := sim.New(4)
	target := NewGPIOTarget(pins)

	buf := make([]byte, 16)
	_, err := target.Process(encodeCommand(t, protocol.Command{Tag: protocol.TagSetPinValue, Index: 0, Value: true}), buf)
	require.Error(t, err)
	herr, ok := err.(*hal.Error)
	require.True(t, ok)
	assert.Equal(t, hal.InvalidGpioMode, herr.Kind)
}

func TestGPIOTargetGetPinValueReadsSimulatedInput(t *testing.T) {
	pins := sim.New(4)
	pins.At(0).SetInputForTest(true)
	target := NewGPIOTarget(pins)

	buf := make([]byte, 16)
	_, err := target.Process(encodeCommand(t, protocol.Command{
		Tag: protocol.TagSetPinMode, Index: 0, Mode: hal.PinMode{Kind: hal.FloatingInput},
	}), buf)
	require.NoError(t, err)

	n, err := target.Process(encodeCommand(t, protocol.Command{Tag: protocol.TagGetPinValue, Index: 0}), buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(1), buf[0])
}

func TestGPIOTargetInvalidParameterOutOfRange(t *testing.T) {
	pins := sim.New(4)
	target := NewGPIOTarget(pins)

	buf := make([]byte, 16)
	_, err := target.Process(encodeCommand(t, protocol.Command{Tag: protocol.TagGetPinMode, Index: 99}), buf)
	require.Error(t, err)
	herr, ok := err.(*hal.Error)
	require.True(t, ok)
	assert.Equal(t, hal.InvalidParameter, herr.Kind)
}

func TestGPIOTargetEnumeratePinsNeedsWriteGrant(t *testing.T) {
	pins := sim.New(8)
	target := NewGPIOTarget(pins)

	buf := make([]byte, 2) // far too small for 1 + 8*2 bytes
	_, err := target.Process(encodeCommand(t, protocol.Command{Tag: protocol.TagEnumeratePins}), buf)
	require.Error(t, err)
	need, ok := err.(*hal.NeedWriteGrant)
	require.True(t, ok)
	assert.Equal(t, 1+8*protocol.PinInformationLen, need.N)
}

func TestGPIOTargetEnumeratePinsSucceeds(t *testing.T) {
	pins := sim.New(2)
	target := NewGPIOTarget(pins)

	buf := make([]byte, 1+2*protocol.PinInformationLen)
	n, err := target.Process(encodeCommand(t, protocol.Command{Tag: protocol.TagEnumeratePins}), buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	assert.Equal(t, byte(2), buf[0])
}
