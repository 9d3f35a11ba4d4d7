// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package usbcdc is the thin boundary between the framed byte pipeline
// (bipbuf/cobs/framing/endpoint) and the USB CDC-ACM class driver that
// spec.md §1 explicitly puts out of scope beyond an interface: "a UsbClass
// that delivers 64-byte packets and signals completion".
//
// This package does not implement a USB controller or the CDC class state
// machine (enumeration, control requests, the line-coding SET/GET
// requests) — that lives in the tamago module's own imx6/usb and
// imx6/usb/... packages on the real board build, grounded in
// soc/imx6/usb/descriptor_cdc.go's CDC functional descriptors and
// imx6/usb_device.go's descriptor fields (idVendor/idProduct/
// iManufacturer/iProduct/iSerialNumber) for the constants in Descriptor.
// What lives here is: the identification Descriptor the real class uses to
// enumerate, the UsbClass interface the bulk endpoint pair must satisfy,
// the SHORT_PACKET_INTERVAL zero-length-packet policy (spec.md §6), and
// two concrete adapters (QueuedSerial, BufferedSerial) plus a software
// Loopback implementation for tests and cmd/bridgesim.
package usbcdc

// MaxPacketSize is the bulk endpoint's maximum packet size for full-speed
// USB (spec.md §6: "Single bulk-in / bulk-out pair at 64-byte max packet
// size").
const MaxPacketSize = 64

// ShortPacketInterval is the number of consecutive full-size bulk writes
// after which a zero-length packet is transmitted even if the trailing
// write was not naturally short, so the host OS flushes its read buffer
// promptly (spec.md §6).
const ShortPacketInterval = 10

// Descriptor holds the USB identification the CDC-ACM device presents to
// the host (spec.md §6), grounded in the teacher's device-descriptor
// fields (imx6/usb_device.go's idVendor/idProduct/iManufacturer/iProduct/
// iSerialNumber) generalized from SoC-specific register writes into plain
// struct fields a board's USB glue copies into its own descriptor.
type Descriptor struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Serial       string
}

// Default is the descriptor specified for this bridge (spec.md §6).
var Default = Descriptor{
	VendorID:     0x16c0,
	ProductID:    0x27dd,
	Manufacturer: "Fake company",
	Product:      "Serial port",
	Serial:       "TEST",
}

// UsbClass is the external collaborator spec.md §1 specifies only at
// interface level. A concrete implementation owns the real USB controller
// (or, for Loopback, an in-process byte pipe) and must never block inside
// Receive/Send/Done: every method is polled from the main loop the same
// way every other step in this system is non-blocking.
type UsbClass interface {
	// Receive returns the next OUT packet delivered by the host, of at
	// most MaxPacketSize bytes. ok is false if nothing new has arrived
	// since the last call.
	Receive() (data []byte, ok bool)

	// Send queues data (at most MaxPacketSize bytes) as the next IN
	// packet. It returns once the packet is queued, not once the host
	// has acknowledged it; completion is observed through Done.
	Send(data []byte) error

	// Done reports whether the most recently queued Send has completed.
	// Implementations that queue only one packet at a time may always
	// report true once the hardware (or, for Loopback, the peer) has
	// drained it.
	Done() bool
}

// shortPacketTracker counts consecutive full-size bulk writes and reports
// when a zero-length packet must be inserted, per spec.md §6. It holds no
// reference to a UsbClass; its caller (QueuedSerial) drives it alongside
// its own Send calls. BufferedSerial does not use it.
type shortPacketTracker struct {
	consecutiveFull int
}

// Observe records one completed bulk write of n bytes and reports whether
// the caller must additionally send a zero-length packet before any more
// application data, per the ShortPacketInterval policy.
func (s *shortPacketTracker) Observe(n int) (needsZLP bool) {
	if n == MaxPacketSize {
		s.consecutiveFull++
		if s.consecutiveFull >= ShortPacketInterval {
			s.consecutiveFull = 0
			return true
		}
		return false
	}
	s.consecutiveFull = 0
	return false
}
