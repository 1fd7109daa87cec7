package decoder

import (
	"net/netip"

	"firestige.xyz/ringsniff/internal/core"
)

const (
	ipv4HeaderMinLen = 20
	ipv6HeaderLen    = 40
)

// decodeIP dispatches on the version nibble.
// Returns the L4 protocol number and the transport payload.
func decodeIP(data view, meta *core.PacketMetadata) (uint8, view, error) {
	first, ok := data.u8(0)
	if !ok {
		return 0, nil, core.ErrPacketTooShort
	}

	switch first >> 4 {
	case 4:
		return decodeIPv4(data, meta)
	case 6:
		return decodeIPv6(data, meta)
	default:
		return 0, nil, core.ErrUnsupportedProto
	}
}

// decodeIPv4 decodes IPv4 header.
func decodeIPv4(data view, meta *core.PacketMetadata) (uint8, view, error) {
	if !data.has(0, ipv4HeaderMinLen) {
		return 0, nil, core.ErrPacketTooShort
	}

	meta.IPVersion = 4

	// Protocol (1 byte at offset 9)
	meta.L3Protocol = data[9]

	// Source IP (offset 12) and Destination IP (offset 16)
	meta.SrcIP = netip.AddrFrom4([4]byte(data[12:16]))
	meta.DstIP = netip.AddrFrom4([4]byte(data[16:20]))

	// IHL is in 32-bit words
	headerLen := int(data[0]&0x0F) * 4
	if headerLen < ipv4HeaderMinLen {
		return meta.L3Protocol, nil, core.ErrPacketTooShort
	}
	payload, ok := data.from(headerLen)
	if !ok {
		return meta.L3Protocol, nil, core.ErrPacketTooShort
	}
	return meta.L3Protocol, payload, nil
}

// decodeIPv6 decodes the fixed IPv6 header. Extension headers are not walked;
// the next-header value is reported as-is.
func decodeIPv6(data view, meta *core.PacketMetadata) (uint8, view, error) {
	if !data.has(0, ipv6HeaderLen) {
		return 0, nil, core.ErrPacketTooShort
	}

	meta.IPVersion = 6

	// Next Header (1 byte at offset 6)
	meta.L3Protocol = data[6]

	// Source IP (16 bytes at offset 8), Destination IP (16 bytes at offset 24)
	meta.SrcIP = netip.AddrFrom16([16]byte(data[8:24]))
	meta.DstIP = netip.AddrFrom16([16]byte(data[24:40]))

	payload, _ := data.from(ipv6HeaderLen)
	return meta.L3Protocol, payload, nil
}
