package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"firestige.xyz/ringsniff/internal/telemetry"
)

// maxDatagram bounds one JSON record.
const maxDatagram = 4096

// readPoll is how often a blocked read wakes to check ctx.
const readPoll = 200 * time.Millisecond

// Listener receives telemetry records over UDP into Stats.
type Listener struct {
	conn  *net.UDPConn
	stats *Stats
	now   func() time.Time
}

// Listen binds addr (host:port).
func Listen(addr string, stats *Stats) (*Listener, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Listener{conn: conn, stats: stats, now: time.Now}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Run reads datagrams until ctx is done or the listener is closed. Datagrams
// that are not a JSON record are counted and skipped.
func (l *Listener) Run(ctx context.Context) error {
	buf := make([]byte, maxDatagram)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := l.conn.SetReadDeadline(time.Now().Add(readPoll)); err != nil {
			return err
		}
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		var rec telemetry.Record
		if err := json.Unmarshal(buf[:n], &rec); err != nil {
			l.stats.addMalformed()
			continue
		}
		l.stats.Add(rec, l.now())
	}
}

func (l *Listener) Close() error {
	return l.conn.Close()
}
