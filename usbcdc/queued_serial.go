// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usbcdc

import "github.com/usbarmory/gpiobridge/bipbuf"

// QueuedSerial is the byte-queue-driven USB-CDC adapter: it owns the
// RX-bytes producer and TX-bytes consumer halves directly and drives them
// from a UsbClass on every poll, including the SHORT_PACKET_INTERVAL
// zero-length-packet bookkeeping. This is the adapter cmd/gpio-firmware
// uses, since it is the one spec.md §6 specifies in detail.
//
// Grounded on the original firmware's dumb_serial.rs shape: a serial
// adapter that owns the queue halves itself rather than delegating
// buffering to the USB class, keeping the short-packet counter alongside
// the queue it is bookkeeping for.
type QueuedSerial struct {
	usb     UsbClass
	rxProd  *bipbuf.Producer
	txCons  *bipbuf.Consumer
	tracker shortPacketTracker

	pendingZLP bool
}

// NewQueuedSerial returns a QueuedSerial polling usb, feeding received
// bytes into rxProd and draining outbound bytes from txCons.
func NewQueuedSerial(usb UsbClass, rxProd *bipbuf.Producer, txCons *bipbuf.Consumer) *QueuedSerial {
	return &QueuedSerial{usb: usb, rxProd: rxProd, txCons: txCons}
}

// PollReceive drains at most one OUT packet from usb into the RX-bytes
// queue. If the queue has no room for it, the packet is dropped: the USB
// interrupt context cannot block waiting for the main loop to catch up,
// and spec.md's backpressure-by-refusal model has no other recourse here
// (the host-visible consequence is a COBS frame boundary the packet
// assembler will resync past, not data corruption).
func (q *QueuedSerial) PollReceive() {
	data, ok := q.usb.Receive()
	if !ok || len(data) == 0 {
		return
	}

	g, ok := q.rxProd.Grant(len(data))
	if !ok {
		return
	}
	copy(g.Bytes, data)
	q.rxProd.Commit(len(data), g)
}

// PollSend drains at most one MaxPacketSize-sized chunk from the TX-bytes
// queue into usb, and inserts the zero-length packet the short-packet
// policy calls for once ShortPacketInterval consecutive full packets have
// gone out.
func (q *QueuedSerial) PollSend() {
	if !q.usb.Done() {
		return
	}

	if q.pendingZLP {
		if err := q.usb.Send(nil); err == nil {
			q.pendingZLP = false
		}
		return
	}

	rg, ok := q.txCons.Read()
	if !ok {
		return
	}

	n := len(rg.Bytes)
	if n > MaxPacketSize {
		n = MaxPacketSize
	}
	chunk := rg.Bytes[:n]

	if err := q.usb.Send(chunk); err != nil {
		return
	}
	q.txCons.Release(n, rg)

	if q.tracker.Observe(n) {
		q.pendingZLP = true
	}
}

// Poll drains one receive step and one send step; the firmware main loop
// calls this once per iteration alongside every other component's
// Process/Poll method.
func (q *QueuedSerial) Poll() {
	q.PollReceive()
	q.PollSend()
}
