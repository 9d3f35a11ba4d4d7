// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package client

import (
	"sync"
	"time"

	"github.com/usbarmory/gpiobridge/hal"
)

// Stats accumulates command counters and latency for a CommandChannel. It
// is passive (no background goroutine): its counters are read only
// through Snapshot. cmd/gpioctl's -monitor server does not read or chart
// them; it serves only the /debug/charts and /debug/pprof handlers.
type Stats struct {
	mu sync.Mutex

	commands     uint64
	totalLatency time.Duration
	lastLatency  time.Duration
	errorCounts  map[hal.ErrorKind]uint64
}

// NewStats returns an empty Stats.
func NewStats() *Stats {
	return &Stats{errorCounts: make(map[hal.ErrorKind]uint64)}
}

func (s *Stats) recordSuccess(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands++
	s.totalLatency += d
	s.lastLatency = d
}

func (s *Stats) recordError(kind hal.ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands++
	s.errorCounts[kind]++
}

// Snapshot is a point-in-time, read-only copy of a Stats's counters.
type Snapshot struct {
	Commands     uint64
	LastLatency  time.Duration
	MeanLatency  time.Duration
	ErrorCounts  map[hal.ErrorKind]uint64
}

// Snapshot returns a copy of s's current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make(map[hal.ErrorKind]uint64, len(s.errorCounts))
	for k, v := range s.errorCounts {
		errs[k] = v
	}

	var mean time.Duration
	if s.commands > 0 {
		mean = s.totalLatency / time.Duration(s.commands)
	}

	return Snapshot{
		Commands:    s.commands,
		LastLatency: s.lastLatency,
		MeanLatency: mean,
		ErrorCounts: errs,
	}
}
