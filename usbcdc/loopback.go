// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usbcdc

// Loopback is a software UsbClass that exchanges packets with its peer
// over a buffered channel instead of real USB hardware. A pair of
// Loopback values wired to each other forms a full-duplex pipe, used by
// cmd/bridgesim to run the entire device-side stack (cobs, bipbuf,
// framing, endpoint) on the host without any hardware, and by tests that
// want to drive a UsbClass-shaped boundary end to end.
type Loopback struct {
	out chan []byte
	in  chan []byte
}

// ErrBackpressure is returned by Send when the peer has not drained
// enough of the pipe to accept another packet; the USB interrupt-context
// caller is expected to retry on its next poll, same as any other
// non-blocking step in this system.
var ErrBackpressure = errBackpressure{}

type errBackpressure struct{}

func (errBackpressure) Error() string { return "usbcdc: loopback peer backlog full" }

// NewLoopbackPair returns two Loopback values wired to each other: packets
// sent on one arrive as Receive on the other.
func NewLoopbackPair() (a, b *Loopback) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a = &Loopback{out: ab, in: ba}
	b = &Loopback{out: ba, in: ab}
	return a, b
}

// Receive implements UsbClass.
func (l *Loopback) Receive() ([]byte, bool) {
	select {
	case data := <-l.in:
		return data, true
	default:
		return nil, false
	}
}

// Send implements UsbClass. It never blocks: if the peer's backlog is
// full it reports ErrBackpressure instead of waiting, so the caller
// retries on the next poll.
func (l *Loopback) Send(data []byte) error {
	cp := append([]byte(nil), data...)
	select {
	case l.out <- cp:
		return nil
	default:
		return ErrBackpressure
	}
}

// Done implements UsbClass. Loopback completes every accepted Send
// synchronously (the copy is already queued for the peer by the time Send
// returns), so there is never an in-flight transfer to wait out.
func (l *Loopback) Done() bool {
	return true
}
