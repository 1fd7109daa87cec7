// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"net/netip"
)

// MAC is a 48-bit link-layer address.
type MAC [6]byte

// String renders the address as uppercase colon-separated hex.
func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsZero reports whether the address was never filled.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// TCP flag bits in the canonical bitset carried by PacketMetadata.TCPFlags.
const (
	TCPFlagFIN uint8 = 0x01
	TCPFlagSYN uint8 = 0x02
	TCPFlagRST uint8 = 0x04
	TCPFlagPSH uint8 = 0x08
	TCPFlagACK uint8 = 0x10
	TCPFlagURG uint8 = 0x20
)

// SSID sentinels written by the wireless decoder in place of a real network name.
const (
	SSIDBroadcast = "[BROADCAST]"
	SSIDHidden    = "<HIDDEN>"
	SSIDEncrypted = "[Encrypted Data]"
	SSIDHandshake = "[HANDSHAKE]"
)

// SSIDMaxLen is the longest network name an SSID element may carry.
const SSIDMaxLen = 32

// 802.11 frame kinds recorded in PacketMetadata.FrameKind.
const (
	FrameKindBeacon    = "BEACON"
	FrameKindProbeReq  = "PROBE_REQ"
	FrameKindProbeResp = "PROBE_RESP"
	FrameKindMgmt      = "MGMT"
	FrameKindCtrl      = "CTRL"
	FrameKindData      = "DATA"
	FrameKindEAPOL     = "EAPOL"
)

// PacketMetadata is the per-frame record threaded through the pipeline.
// Every field defaults to its zero value; a decoder stage only writes the
// fields its layer owns, so a frame truncated at L3 still carries valid L2.
type PacketMetadata struct {
	// Link layer
	SrcMAC    MAC
	DstMAC    MAC
	EtherType uint16 // host order

	// Network layer
	IPVersion  uint8 // 0 (unset), 4 or 6
	SrcIP      netip.Addr
	DstIP      netip.Addr
	L3Protocol uint8 // IPv4 protocol or IPv6 next header

	// Transport layer
	SrcPort  uint16
	DstPort  uint16
	TCPFlags uint8
	ICMPType uint8
	ICMPCode uint8

	// Wireless
	IsMonitorMode bool
	SignalDBm     int8
	Channel       int
	SSID          string
	FrameKind     string

	PacketSize int
}

// Mode selects which decoder receives a frame.
type Mode uint8

const (
	ModeManaged Mode = iota
	ModeMonitor
)

func (m Mode) String() string {
	switch m {
	case ModeMonitor:
		return "monitor"
	case ModeManaged:
		return "managed"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode converts a textual mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "monitor":
		return ModeMonitor, nil
	case "managed":
		return ModeManaged, nil
	default:
		return ModeManaged, fmt.Errorf("%w: unknown mode %q", ErrConfigInvalid, s)
	}
}
