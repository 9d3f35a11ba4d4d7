// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

// Command gpio-firmware is the tamago,arm entrypoint for the USB armory
// Mk II: it wires the three static byte queues, the packet assembler, the
// command processor and the register-backed GPIO target together, then
// runs the single-threaded cooperative main loop spec.md §5 describes.
//
// Grounded on example/example.go's main()/init() shape (log.SetFlags(0),
// a banner print, a single main loop) generalized from tamago's own demo
// programs to this bridge's one job.
package main

import (
	"fmt"
	"log"

	"github.com/usbarmory/gpiobridge/bipbuf"
	"github.com/usbarmory/gpiobridge/board/usbarmory"
	"github.com/usbarmory/gpiobridge/endpoint"
	"github.com/usbarmory/gpiobridge/framing"
	"github.com/usbarmory/gpiobridge/internal/logx"
	"github.com/usbarmory/gpiobridge/usbcdc"
)

// Queue sizes and the worst-case decoded packet size the assembler and
// processor reserve room for. These are static allocations (spec.md §9:
// "the three byte queues live in process-wide storage initialized once at
// startup and never torn down"), sized generously for a handful of GPIO
// commands in flight at once on a half-duplex link.
const (
	rxByteQueueSize   = 4096
	txByteQueueSize   = 4096
	rxPacketQueueSize = 4096
	maxPacketSize     = 512
)

func init() {
	log.SetFlags(0)
}

func main() {
	logger := logx.Default("gpio-firmware")
	logger.Infof("gpio bridge firmware starting")

	rxBytes := bipbuf.New(rxByteQueueSize)
	rxProd, rxCons := rxBytes.Halves()

	txBytes := bipbuf.New(txByteQueueSize)
	txProd, txCons := txBytes.Halves()

	rxPackets := bipbuf.New(rxPacketQueueSize)
	pktProd, pktCons := rxPackets.Halves()

	assembler := framing.NewAssembler(rxCons, pktProd, maxPacketSize)
	txProducer := framing.NewTxProducer(txProd)
	packetConsumer := framing.NewPacketConsumer(pktCons)

	pins := usbarmory.New()
	targets := map[uint8]endpoint.Target{
		endpoint.GPIOEndpoint:     endpoint.NewGPIOTarget(pins),
		endpoint.LoopbackEndpoint: endpoint.NewLoopbackTarget(),
	}
	processor := endpoint.NewProcessor(txProducer, packetConsumer, targets)

	usb := setupUSBClass(logger)
	serial := usbcdc.NewQueuedSerial(usb, rxProd, txCons)

	logger.Infof("entering main loop (%d pins exposed)", pins.Len())

	for {
		serial.Poll()
		assembler.Process()
		processor.Process()
	}
}

// setupUSBClass supplies the usbcdc.UsbClass the main loop polls. It does
// not enumerate the board's USB controller as a CDC-ACM device: it logs
// usbcdc.Default and exits the process through logger.Fatalf, so it never
// returns and the main loop is not reached on this build. This is
// the one piece spec.md §1 explicitly scopes
// out of the core's contract ("the MCU boot/clock configuration and USB
// CDC class (a UsbClass that delivers 64-byte packets and signals
// completion)"): the concrete enumeration and control-transfer state
// machine is board bring-up, grounded in the real tamago module's
// imx6/usb package rather than anything reimplemented in this repository.
func setupUSBClass(logger *logx.Logger) usbcdc.UsbClass {
	logger.Fatalf(fmt.Sprintf(
		"wire a concrete usbcdc.UsbClass over this board's USB controller here "+
			"(CDC-ACM enumeration against usbcdc.Default = %+v is outside this core's contract, spec.md §1)",
		usbcdc.Default))
	panic("unreachable")
}
