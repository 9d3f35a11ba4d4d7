// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command gpioctl is the host-side CLI for driving a gpio-firmware device
// over its USB-CDC serial port: one gpio-firmware command per invocation,
// mirroring the teacher's single-purpose cmd/tamago-style tools rather
// than a long-lived shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	// Registers /debug/charts, served alongside /debug/pprof by -monitor,
	// the same blank-import pattern example/web_server.go uses.
	_ "github.com/mkevac/debugcharts"

	"golang.org/x/time/rate"

	"github.com/usbarmory/gpiobridge/client"
	"github.com/usbarmory/gpiobridge/hal"
	"github.com/usbarmory/gpiobridge/internal/logx"
)

func main() {
	port := flag.String("port", envOr("GPIOCTL_PORT", "/dev/ttyACM0"), "serial device path ($GPIOCTL_PORT)")
	timeout := flag.Duration("timeout", 2*time.Second, "coarse serial read timeout")
	dialTimeout := flag.Duration("dial-timeout", 10*time.Second, "how long to retry opening the port before giving up")
	monitor := flag.String("monitor", "", "if set, serve /debug/charts and /debug/pprof on this address")
	cmd := flag.String("cmd", "", "enumerate | get-mode | set-mode | get-value | set-value")
	index := flag.Uint("index", 0, "pin index for get-mode/set-mode/get-value/set-value")
	mode := flag.String("mode", "", "input | output (for set-mode)")
	value := flag.Bool("value", false, "pin value (for set-value)")
	flag.Parse()

	logger := logx.Default("gpioctl")

	if *monitor != "" {
		go serveMonitor(logger, *monitor)
	}

	if *cmd == "" {
		logger.Fatalf("missing -cmd")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *dialTimeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
	conn, err := client.Dial(ctx, *port, *timeout, limiter)
	if err != nil {
		logger.Fatalf("dial %s: %v", *port, err)
	}
	defer conn.Close()

	stats := client.NewStats()
	ch := client.NewCommandChannel(conn, stats)
	if err := ch.Resync(); err != nil {
		logger.Fatalf("resync: %v", err)
	}
	gpio := client.NewGPIO(ch)

	if err := run(logger, gpio, *cmd, uint8(*index), *mode, *value); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(logger *logx.Logger, gpio *client.GPIO, cmd string, index uint8, modeFlag string, value bool) error {
	switch cmd {
	case "enumerate":
		pins, err := gpio.EnumeratePins()
		if err != nil {
			return err
		}
		for i, p := range pins {
			fmt.Printf("%d: %c%d\n", i, p.IndexMajor, p.IndexMinor)
		}
		return nil

	case "get-mode":
		m, err := gpio.GetPinMode(index)
		if err != nil {
			return err
		}
		fmt.Println(m.Kind)
		return nil

	case "set-mode":
		kind, err := parsePinModeKind(modeFlag)
		if err != nil {
			return err
		}
		return gpio.SetPinMode(index, hal.PinMode{Kind: kind})

	case "get-value":
		v, err := gpio.GetPinValue(index)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil

	case "set-value":
		return gpio.SetPinValue(index, value)

	default:
		logger.Fatalf("unknown -cmd %q", cmd)
		return nil
	}
}

func parsePinModeKind(s string) (hal.PinModeKind, error) {
	switch s {
	case "input":
		return hal.FloatingInput, nil
	case "output":
		return hal.PushPullOutput, nil
	default:
		return 0, fmt.Errorf("invalid -mode %q (want input or output)", s)
	}
}

// serveMonitor runs the debug HTTP server until it fails, logging the
// failure rather than bringing down the command being run.
func serveMonitor(logger *logx.Logger, addr string) {
	logger.Infof("monitor listening on %s (/debug/charts, /debug/pprof)", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Errorf("monitor server: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
