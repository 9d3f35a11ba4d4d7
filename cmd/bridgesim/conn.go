// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"sync"
	"time"

	"github.com/usbarmory/gpiobridge/usbcdc"
)

// errConnClosed is returned by loopbackConn's Read/Write once Close has
// been called.
var errConnClosed = errors.New("bridgesim: connection closed")

// loopbackConn adapts a *usbcdc.Loopback — a non-blocking UsbClass, the
// shape real USB hardware presents — into the blocking
// client.ReadWriteCloser the host-side client package expects, since
// bridgesim has no real serial port to open. It busy-polls with a short
// sleep between attempts rather than blocking on a channel receive
// directly, matching the non-blocking contract every UsbClass method
// documents (the device side of the loop must never be made to wait on
// this adapter).
type loopbackConn struct {
	lb *usbcdc.Loopback

	mu     sync.Mutex
	closed bool
}

func newLoopbackConn(lb *usbcdc.Loopback) *loopbackConn {
	return &loopbackConn{lb: lb}
}

const pollInterval = time.Millisecond

func (c *loopbackConn) Read(p []byte) (int, error) {
	for {
		if c.isClosed() {
			return 0, errConnClosed
		}
		if data, ok := c.lb.Receive(); ok {
			return copy(p, data), nil
		}
		time.Sleep(pollInterval)
	}
}

func (c *loopbackConn) Write(p []byte) (int, error) {
	for {
		if c.isClosed() {
			return 0, errConnClosed
		}
		if err := c.lb.Send(p); err == nil {
			return len(p), nil
		}
		time.Sleep(pollInterval)
	}
}

func (c *loopbackConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *loopbackConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
