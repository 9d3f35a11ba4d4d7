// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usbcdc

import "github.com/usbarmory/gpiobridge/bipbuf"

// BufferedSerial is the simpler of the two USB-CDC adapter shapes
// (original firmware: smart_serial.rs): it copies one MaxPacketSize
// scratch buffer on each poll instead of bookkeeping a short-packet
// counter tied to queue grants. It does not implement the
// SHORT_PACKET_INTERVAL policy; it exists for boards/tests that want the
// plainer half-duplex shape and do not need timely host-side buffer
// flushes.
type BufferedSerial struct {
	usb    UsbClass
	rxProd *bipbuf.Producer
	txCons *bipbuf.Consumer

	scratch [MaxPacketSize]byte
}

// NewBufferedSerial returns a BufferedSerial polling usb.
func NewBufferedSerial(usb UsbClass, rxProd *bipbuf.Producer, txCons *bipbuf.Consumer) *BufferedSerial {
	return &BufferedSerial{usb: usb, rxProd: rxProd, txCons: txCons}
}

// Poll drains one OUT packet (if any) into the RX-bytes queue and sends
// one chunk of the TX-bytes queue (if any and if the previous send has
// completed).
func (b *BufferedSerial) Poll() {
	if data, ok := b.usb.Receive(); ok && len(data) > 0 {
		if g, ok := b.rxProd.Grant(len(data)); ok {
			copy(g.Bytes, data)
			b.rxProd.Commit(len(data), g)
		}
	}

	if !b.usb.Done() {
		return
	}

	rg, ok := b.txCons.Read()
	if !ok {
		return
	}

	n := copy(b.scratch[:], rg.Bytes)
	if err := b.usb.Send(b.scratch[:n]); err != nil {
		return
	}
	b.txCons.Release(n, rg)
}
