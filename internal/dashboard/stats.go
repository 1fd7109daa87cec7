// Package dashboard renders the UDP telemetry stream in the terminal.
package dashboard

import (
	"sort"
	"sync"
	"time"

	"firestige.xyz/ringsniff/internal/telemetry"
)

// DefaultHistory is how many recent records the packet table shows.
const DefaultHistory = 20

// Entry is one received record and its local arrival time.
type Entry struct {
	At     time.Time
	Record telemetry.Record
}

// Count is a key with its tally.
type Count struct {
	Key   string
	Count int64
}

// Stats aggregates received records. Safe for concurrent use.
type Stats struct {
	mu         sync.Mutex
	history    []Entry
	next       int
	full       bool
	sources    map[string]int64
	protocols  map[string]int64
	totalBytes int64
	received   int64
	malformed  int64
}

// NewStats keeps the last historySize records.
func NewStats(historySize int) *Stats {
	if historySize <= 0 {
		historySize = DefaultHistory
	}
	return &Stats{
		history:   make([]Entry, historySize),
		sources:   make(map[string]int64),
		protocols: make(map[string]int64),
	}
}

// Add records one packet.
func (s *Stats) Add(rec telemetry.Record, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[s.next] = Entry{At: at, Record: rec}
	s.next = (s.next + 1) % len(s.history)
	if s.next == 0 {
		s.full = true
	}

	s.received++
	s.totalBytes += int64(rec.Size)
	proto := rec.Type
	if proto == "" {
		proto = telemetry.ProtoOther
	}
	s.protocols[proto]++
	if src := talker(rec); src != "" {
		s.sources[src]++
	}
}

// talker is the source IP, or the source MAC for frames without one.
func talker(rec telemetry.Record) string {
	if rec.SrcIP != "" {
		return rec.SrcIP
	}
	return rec.SrcMAC
}

func (s *Stats) addMalformed() {
	s.mu.Lock()
	s.malformed++
	s.mu.Unlock()
}

// History returns the retained records, oldest first.
func (s *Stats) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.full {
		return append([]Entry(nil), s.history[:s.next]...)
	}
	out := make([]Entry, 0, len(s.history))
	out = append(out, s.history[s.next:]...)
	return append(out, s.history[:s.next]...)
}

// TopTalkers returns up to n sources by packet count.
func (s *Stats) TopTalkers(n int) []Count {
	s.mu.Lock()
	defer s.mu.Unlock()
	return top(s.sources, n)
}

// Protocols returns every protocol by packet count.
func (s *Stats) Protocols() []Count {
	s.mu.Lock()
	defer s.mu.Unlock()
	return top(s.protocols, len(s.protocols))
}

// Totals returns bytes and records received, plus datagrams that did not
// parse.
func (s *Stats) Totals() (bytes, received, malformed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBytes, s.received, s.malformed
}

func top(m map[string]int64, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
