package movenet

import (
	"sync/atomic"
	"time"
)

// Stats Frame loop counters. Written by the loop, safe to read from other goroutines.
type Stats struct {
	processed    atomic.Uint64
	failures     [numKinds]atomic.Uint64
	lastLatency  atomic.Int64
	totalLatency atomic.Int64
}

// StatsSnapshot Point-in-time copy of Stats
type StatsSnapshot struct {
	Processed   uint64            `json:"processed"`
	Failures    map[string]uint64 `json:"failures"`
	LastLatency time.Duration     `json:"last_latency_ns"`
	MeanLatency time.Duration     `json:"mean_latency_ns"`
}

func (s *Stats) recordFrame(elapsed time.Duration) {
	s.processed.Add(1)
	s.lastLatency.Store(int64(elapsed))
	s.totalLatency.Add(int64(elapsed))
}

func (s *Stats) recordFailure(kind Kind) {
	if kind < 0 || kind >= numKinds {
		kind = KindUnknown
	}
	s.failures[kind].Add(1)
}

// Snapshot returns the current counters
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Processed:   s.processed.Load(),
		Failures:    make(map[string]uint64),
		LastLatency: time.Duration(s.lastLatency.Load()),
	}
	if snap.Processed > 0 {
		snap.MeanLatency = time.Duration(s.totalLatency.Load() / int64(snap.Processed))
	}
	for k := Kind(0); k < numKinds; k++ {
		if n := s.failures[k].Load(); n > 0 {
			snap.Failures[k.String()] = n
		}
	}
	return snap
}

// Skipped returns the total number of frames dropped by failures
func (snap StatsSnapshot) Skipped() uint64 {
	var n uint64
	for _, v := range snap.Failures {
		n += v
	}
	return n
}
