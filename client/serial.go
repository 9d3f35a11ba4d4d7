// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package client

import (
	"time"

	serial "github.com/daedaluz/goserial"
)

// SerialPort adapts *serial.Port to the ReadWriteCloser PacketChannel
// needs. It is the concrete transport cmd/gpioctl uses on Linux: spec.md
// §1 puts "the host-side serial-port enumeration and driver" out of
// scope, specified only at interface level, and goserial (itself a
// retrieval-pack repo) is the concrete termios-handling implementation of
// that interface, the way the teacher never hand-rolls a wire protocol
// library it can import instead.
type SerialPort struct {
	p *serial.Port
}

// OpenSerial opens the tty at path in raw mode with the given coarse read
// timeout (spec.md §5: "The host uses a coarse read timeout on the serial
// port").
func OpenSerial(path string, timeout time.Duration) (*SerialPort, error) {
	opts := serial.NewOptions().SetReadTimeout(timeout)

	port, err := serial.Open(path, opts)
	if err != nil {
		return nil, err
	}
	if err := port.MakeRaw(); err != nil {
		port.Close()
		return nil, err
	}

	return &SerialPort{p: port}, nil
}

// Read implements ReadWriteCloser.
func (s *SerialPort) Read(b []byte) (int, error) { return s.p.Read(b) }

// Write implements ReadWriteCloser.
func (s *SerialPort) Write(b []byte) (int, error) { return s.p.Write(b) }

// Close implements ReadWriteCloser.
func (s *SerialPort) Close() error { return s.p.Close() }
