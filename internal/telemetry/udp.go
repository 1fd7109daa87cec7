package telemetry

import (
	"fmt"
	"net"

	"firestige.xyz/ringsniff/internal/config"
	"firestige.xyz/ringsniff/internal/core"
)

type udpOptions struct {
	Address string `mapstructure:"address"`
}

// UDPSink sends each packet event as one JSON datagram. Sends are
// fire-and-forget: no retry, no deadline.
type UDPSink struct {
	conn    *net.UDPConn
	encoder Encoder
}

// NewUDPSink connects a datagram socket to address (host:port).
func NewUDPSink(address string, encoder Encoder) (*UDPSink, error) {
	if address == "" {
		address = config.DefaultUDPAddress
	}
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: udp address %q: %v", core.ErrConfigInvalid, address, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial udp %s: %w", address, err)
	}
	return &UDPSink{conn: conn, encoder: encoder}, nil
}

func newUDPSinkFromOptions(options map[string]any, env Env) (Sink, error) {
	var opts udpOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return NewUDPSink(opts.Address, env.Encoder)
}

func (s *UDPSink) Name() string { return config.SinkUDP }

// Addr returns the remote endpoint.
func (s *UDPSink) Addr() net.Addr { return s.conn.RemoteAddr() }

func (s *UDPSink) Accepts(ev core.LogEvent) bool {
	_, ok := ev.(core.PacketEvent)
	return ok
}

func (s *UDPSink) Send(ev core.LogEvent) error {
	pe, ok := ev.(core.PacketEvent)
	if !ok {
		return nil
	}
	payload, err := s.encoder.Marshal(&pe.Meta)
	if err != nil {
		return err
	}
	_, err = s.conn.Write(payload)
	return err
}

func (s *UDPSink) Close() error {
	return s.conn.Close()
}
