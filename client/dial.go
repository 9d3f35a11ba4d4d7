// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package client

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

// Dial repeatedly attempts OpenSerial(path, readTimeout), pacing retries
// with limiter so a device that is slow to enumerate (or briefly
// disconnected) does not spin the reconnect loop at full CPU. It returns
// as soon as a connection succeeds, or when ctx is done.
func Dial(ctx context.Context, path string, readTimeout time.Duration, limiter *rate.Limiter) (*SerialPort, error) {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		port, err := OpenSerial(path, readTimeout)
		if err == nil {
			return port, nil
		}

		// udev has not finished settling the device node's permissions
		// by the time it appears; a short fixed sleep on top of the
		// limiter's pacing avoids spending an entire rate-limiter tick
		// on a retry that is almost certain to fail again.
		reconnectSettleDelay()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
}

func reconnectSettleDelay() {
	ts := unix.NsecToTimespec((20 * time.Millisecond).Nanoseconds())
	unix.Nanosleep(&ts, nil)
}
