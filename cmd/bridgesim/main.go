// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command bridgesim runs the entire device-side pipeline — the byte
// queues, the COBS packet assembler, and the command processor dispatching
// to a simulated GPIO pin set — in one host process, connected to a
// regular client.GPIO through an in-process Loopback pair instead of a
// real USB-CDC serial port. It exists so the core transport can be
// exercised end to end (spec.md §8's scenarios) without USB armory
// hardware, the same role example/example.go plays for tamago's own demo
// boards.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/usbarmory/gpiobridge/bipbuf"
	"github.com/usbarmory/gpiobridge/board/sim"
	"github.com/usbarmory/gpiobridge/client"
	"github.com/usbarmory/gpiobridge/endpoint"
	"github.com/usbarmory/gpiobridge/framing"
	"github.com/usbarmory/gpiobridge/hal"
	"github.com/usbarmory/gpiobridge/internal/logx"
	"github.com/usbarmory/gpiobridge/usbcdc"
)

const (
	rxByteQueueSize   = 4096
	txByteQueueSize   = 4096
	rxPacketQueueSize = 4096
	maxPacketSize     = 512
)

func main() {
	pins := flag.Int("pins", 4, "number of simulated GPIO pins")
	flag.Parse()

	logger := logx.Default("bridgesim")

	gpio, stop := startDevice(logger, *pins)
	defer stop()

	if err := runSelfTest(logger, gpio); err != nil {
		logger.Errorf("self-test failed: %v", err)
		os.Exit(1)
	}
	logger.Infof("self-test passed")
}

// startDevice wires a full device-side pipeline around a simulated pin set,
// runs its cooperative poll loop in a background goroutine, and returns a
// client.GPIO driving it over an in-process Loopback pair. stop ends the
// device goroutine.
func startDevice(logger *logx.Logger, numPins int) (gpio *client.GPIO, stop func()) {
	deviceUSB, hostUSB := usbcdc.NewLoopbackPair()

	rxBytes := bipbuf.New(rxByteQueueSize)
	rxProd, rxCons := rxBytes.Halves()

	txBytes := bipbuf.New(txByteQueueSize)
	txProd, txCons := txBytes.Halves()

	rxPackets := bipbuf.New(rxPacketQueueSize)
	pktProd, pktCons := rxPackets.Halves()

	assembler := framing.NewAssembler(rxCons, pktProd, maxPacketSize)
	txProducer := framing.NewTxProducer(txProd)
	packetConsumer := framing.NewPacketConsumer(pktCons)

	pinSet := sim.New(numPins)
	targets := map[uint8]endpoint.Target{
		endpoint.GPIOEndpoint:     endpoint.NewGPIOTarget(pinSet),
		endpoint.LoopbackEndpoint: endpoint.NewLoopbackTarget(),
	}
	processor := endpoint.NewProcessor(txProducer, packetConsumer, targets)

	serial := usbcdc.NewQueuedSerial(deviceUSB, rxProd, txCons)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			serial.Poll()
			assembler.Process()
			processor.Process()
		}
	}()

	conn := newLoopbackConn(hostUSB)
	stats := client.NewStats()
	ch := client.NewCommandChannel(conn, stats)
	gpio = client.NewGPIO(ch)

	logger.Infof("device pipeline running with %d simulated pins", numPins)
	return gpio, func() { close(done); conn.Close() }
}

// runSelfTest drives gpio through the basic command set, printing each
// step the way a smoke test would, and returns the first error encountered.
func runSelfTest(logger *logx.Logger, gpio *client.GPIO) error {
	pins, err := gpio.EnumeratePins()
	if err != nil {
		return fmt.Errorf("enumerate pins: %w", err)
	}
	logger.Infof("enumerated %d pins", len(pins))
	for _, p := range pins {
		logger.Debugf("pin %c%d", p.IndexMajor, p.IndexMinor)
	}

	if err := gpio.SetPinMode(0, hal.PinMode{Kind: hal.PushPullOutput}); err != nil {
		return fmt.Errorf("set pin mode: %w", err)
	}
	if err := gpio.SetPinValue(0, true); err != nil {
		return fmt.Errorf("set pin value: %w", err)
	}
	logger.Infof("pin 0 set to output, driven high")

	if err := gpio.SetPinMode(1, hal.PinMode{Kind: hal.FloatingInput}); err != nil {
		return fmt.Errorf("set pin mode: %w", err)
	}
	value, err := gpio.GetPinValue(1)
	if err != nil {
		return fmt.Errorf("get pin value: %w", err)
	}
	logger.Infof("pin 1 read as input: %v", value)

	return nil
}
