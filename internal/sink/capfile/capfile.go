// Package capfile appends frames to a pcap file with Radiotap link type.
// The global header is written only when the file is empty, so repeated
// runs keep extending the same capture.
package capfile

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/ringsniff/internal/core"
)

const (
	DefaultPath = "captured_handshake.cap"

	snapLen = 65535
)

// LinkType of every record: Radiotap-wrapped 802.11.
const LinkType = layers.LinkTypeIEEE80211Radio

// Writer appends frames to a capture file. The file is created on the first
// Append.
type Writer struct {
	path string

	mu     sync.Mutex
	file   *os.File
	pcap   *pcapgo.Writer
	frames int
}

// Open returns a writer for path. No file is touched until Append.
func Open(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: handshake file path is empty", core.ErrConfigInvalid)
	}
	return &Writer{path: path}, nil
}

// Path returns the capture file path.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one record. Timestamps are stored with whole-second
// resolution; captured and original lengths both equal len(frame).
func (w *Writer) Append(frame []byte, ts time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureOpen(); err != nil {
		return err
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     ts.Truncate(time.Second),
		CaptureLength: len(frame),
		Length:        len(frame),
	}
	if err := w.pcap.WritePacket(ci, frame); err != nil {
		return fmt.Errorf("append to %s: %w", w.path, err)
	}
	w.frames++
	return nil
}

func (w *Writer) ensureOpen() error {
	if w.file != nil {
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open capture file %s: %w", w.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat capture file %s: %w", w.path, err)
	}

	pw := pcapgo.NewWriter(f)
	if info.Size() == 0 {
		if err := pw.WriteFileHeader(snapLen, LinkType); err != nil {
			f.Close()
			return fmt.Errorf("write pcap header to %s: %w", w.path, err)
		}
	}

	w.file = f
	w.pcap = pw
	return nil
}

// Frames returns how many records this writer appended.
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Close closes the underlying file if it was opened.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.pcap = nil
	return err
}
