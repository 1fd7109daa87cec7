// Package decoder implements L2-L4 wired decoding and 802.11 monitor-mode
// decoding into core.PacketMetadata.
package decoder

import (
	"time"

	"firestige.xyz/ringsniff/internal/core"
)

// Decoder fills meta from one raw frame. It reports whether the frame
// produced metadata worth forwarding to telemetry.
type Decoder interface {
	Decode(frame []byte, meta *core.PacketMetadata) bool
}

// EventSink receives text events raised while decoding.
type EventSink interface {
	Push(ev core.LogEvent) error
}

// HandshakeRecorder persists frames that carry an EAPOL handshake.
type HandshakeRecorder interface {
	Append(frame []byte, ts time.Time) error
}

// Wired decodes Ethernet → IPv4/IPv6 → TCP/UDP/ICMP/ICMPv6. It holds no state.
type Wired struct{}

// Decode implements Decoder.
func (Wired) Decode(frame []byte, meta *core.PacketMetadata) bool {
	return DecodeWired(frame, meta)
}

// DecodeWired runs the wired stage chain. Each stage stops the chain on
// error, keeping whatever earlier stages filled.
//
// Frames shorter than an Ethernet header and 802.3 length-framed noise
// (EtherType < 1536) produce no telemetry.
func DecodeWired(frame []byte, meta *core.PacketMetadata) bool {
	etherType, l3, err := decodeEthernet(view(frame), meta)
	if err != nil {
		return false
	}
	if isLengthField(etherType) {
		return false
	}
	if etherType != etherTypeIPv4 && etherType != etherTypeIPv6 {
		return true
	}

	protocol, l4, err := decodeIP(l3, meta)
	if err != nil {
		return true
	}

	// Short transport headers leave the L4 fields zero.
	_ = decodeTransport(l4, protocol, meta)
	return true
}
