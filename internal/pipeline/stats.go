package pipeline

import (
	"sync/atomic"

	"firestige.xyz/ringsniff/internal/core"
)

// Stats contains per-run counters.
type Stats struct {
	Frames     atomic.Uint64
	Lost       atomic.Uint64
	Managed    atomic.Uint64
	Monitor    atomic.Uint64
	Emitted    atomic.Uint64
	Filtered   atomic.Uint64
	Handshakes atomic.Uint64
	// Rejected counts events pushed after the queue closed.
	Rejected atomic.Uint64
}

func (s *Stats) countMode(m core.Mode) {
	if m == core.ModeMonitor {
		s.Monitor.Add(1)
	} else {
		s.Managed.Add(1)
	}
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Frames:     s.Frames.Load(),
		Lost:       s.Lost.Load(),
		Managed:    s.Managed.Load(),
		Monitor:    s.Monitor.Load(),
		Emitted:    s.Emitted.Load(),
		Filtered:   s.Filtered.Load(),
		Handshakes: s.Handshakes.Load(),
		Rejected:   s.Rejected.Load(),
	}
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Frames     uint64
	Lost       uint64
	Managed    uint64
	Monitor    uint64
	Emitted    uint64
	Filtered   uint64
	Handshakes uint64
	Rejected   uint64
}
