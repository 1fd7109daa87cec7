// Package file replays frames from a pcap capture file.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/source"
)

const Name = "file"

// Source reads a classic pcap file. Next returns io.EOF once the file is
// exhausted.
type Source struct {
	path   string
	file   *os.File
	reader *pcapgo.Reader
}

var _ source.Source = (*Source)(nil)

// Open opens path and reads the pcap global header.
func Open(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: replay file path is required", core.ErrConfigInvalid)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", path, err)
	}

	r, err := pcapgo.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read pcap header of %s: %w", path, err)
	}

	return &Source{path: path, file: f, reader: r}, nil
}

// LinkType reports the file's link type.
func (s *Source) LinkType() layers.LinkType {
	return s.reader.LinkType()
}

// Mode derives the capture mode from the link type: Radiotap files are
// monitor-mode captures.
func (s *Source) Mode() core.Mode {
	if s.reader.LinkType() == layers.LinkTypeIEEE80211Radio {
		return core.ModeMonitor
	}
	return core.ModeManaged
}

func (s *Source) Next(ctx context.Context) (*source.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, ci, err := s.reader.ReadPacketData()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read packet from %s: %w", s.path, err)
	}
	return source.NewFrame(data, ci.Timestamp, ci.Length, false, nil), nil
}

func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
