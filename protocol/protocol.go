// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package protocol defines the wire encoding of GPIO command and response
// bodies (spec.md §3/§6): a variant-tag byte followed by its fields in
// declaration order, with no padding. All (de)serialization is hand-rolled
// as direct byte indexing, matching the teacher's own approach
// to fixed-layout binary structures (e.g. the CDC descriptor and endpoint
// transfer-descriptor encoders), since the wire format here is a small,
// fixed tagged union with no need for a general marshaling library.
package protocol

import (
	"errors"

	"github.com/usbarmory/gpiobridge/hal"
)

// ErrShortBody is returned when a command or mode body is too short to
// contain its required fields.
var ErrShortBody = errors.New("protocol: command body too short")

// ErrUnknownTag is returned when a command's variant-tag byte does not
// match any known GPIO command.
var ErrUnknownTag = errors.New("protocol: unknown command tag")

// CommandTag is the GPIO command variant discriminant (spec.md §3).
type CommandTag uint8

const (
	TagEnumeratePins CommandTag = iota
	TagGetPinMode
	TagSetPinMode
	TagSetPinValue
	TagGetPinValue
)

// Command is the decoded form of a GPIO command body. Only the fields
// relevant to Tag are meaningful.
type Command struct {
	Tag   CommandTag
	Index uint8
	Mode  hal.PinMode
	Value bool
}

// DecodeCommand parses a GPIO command body (the bytes following the
// endpoint byte of a command frame).
func DecodeCommand(body []byte) (Command, error) {
	if len(body) < 1 {
		return Command{}, ErrShortBody
	}
	tag := CommandTag(body[0])
	rest := body[1:]

	switch tag {
	case TagEnumeratePins:
		return Command{Tag: tag}, nil

	case TagGetPinMode, TagGetPinValue:
		if len(rest) < 1 {
			return Command{}, ErrShortBody
		}
		return Command{Tag: tag, Index: rest[0]}, nil

	case TagSetPinMode:
		if len(rest) < 1 {
			return Command{}, ErrShortBody
		}
		mode, _, err := DecodePinMode(rest[1:])
		if err != nil {
			return Command{}, err
		}
		return Command{Tag: tag, Index: rest[0], Mode: mode}, nil

	case TagSetPinValue:
		if len(rest) < 2 {
			return Command{}, ErrShortBody
		}
		return Command{Tag: tag, Index: rest[0], Value: rest[1] != 0}, nil

	default:
		return Command{}, ErrUnknownTag
	}
}

// EncodePinMode writes m into buf (which must have room for at least
// EncodedPinModeLen(m) bytes) and returns the number of bytes written.
func EncodePinMode(m hal.PinMode, buf []byte) int {
	buf[0] = byte(m.Kind)
	if m.Kind == hal.Alternate {
		buf[1] = m.Alt
		return 2
	}
	return 1
}

// EncodedPinModeLen returns the wire length of m.
func EncodedPinModeLen(m hal.PinMode) int {
	if m.Kind == hal.Alternate {
		return 2
	}
	return 1
}

// DecodePinMode parses a PinMode from the front of buf, returning the
// decoded mode and the number of bytes consumed.
func DecodePinMode(buf []byte) (hal.PinMode, int, error) {
	if len(buf) < 1 {
		return hal.PinMode{}, 0, ErrShortBody
	}
	kind := hal.PinModeKind(buf[0])
	switch kind {
	case hal.FloatingInput, hal.PushPullOutput:
		return hal.PinMode{Kind: kind}, 1, nil
	case hal.Alternate:
		if len(buf) < 2 {
			return hal.PinMode{}, 0, ErrShortBody
		}
		return hal.PinMode{Kind: kind, Alt: buf[1]}, 2, nil
	default:
		return hal.PinMode{}, 0, ErrUnknownTag
	}
}

// EncodePinInformation writes a 2-byte PinInformation record to buf.
func EncodePinInformation(info hal.PinInformation, buf []byte) int {
	buf[0] = info.IndexMajor
	buf[1] = info.IndexMinor
	return 2
}

// PinInformationLen is the wire size of one PinInformation record.
const PinInformationLen = 2
