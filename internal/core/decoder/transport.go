package decoder

import (
	"firestige.xyz/ringsniff/internal/core"
)

const (
	tcpHeaderMinLen = 20
	udpHeaderLen    = 8
	icmpHeaderLen   = 8
	icmpv6HeaderLen = 8

	// Protocol numbers
	protocolICMP   = 1
	protocolTCP    = 6
	protocolUDP    = 17
	protocolICMPv6 = 58
)

// decodeTransport fills the L4 fields for the protocols we understand.
// Unknown protocols are not an error; the chain simply ends.
func decodeTransport(data view, protocol uint8, meta *core.PacketMetadata) error {
	switch protocol {
	case protocolTCP:
		return decodeTCP(data, meta)
	case protocolUDP:
		return decodeUDP(data, meta)
	case protocolICMP:
		return decodeICMP(data, icmpHeaderLen, meta)
	case protocolICMPv6:
		return decodeICMP(data, icmpv6HeaderLen, meta)
	default:
		return nil
	}
}

// decodeTCP decodes the fixed TCP header.
func decodeTCP(data view, meta *core.PacketMetadata) error {
	if !data.has(0, tcpHeaderMinLen) {
		return core.ErrPacketTooShort
	}

	meta.SrcPort, _ = data.be16(0)
	meta.DstPort, _ = data.be16(2)

	// Flags live in byte 13: | CWR | ECE | URG | ACK | PSH | RST | SYN | FIN |
	meta.TCPFlags = TCPFlags(data[13])
	return nil
}

// TCPFlags rebuilds the canonical flag bitset from the TCP flags octet,
// testing each wire bit individually.
func TCPFlags(wire byte) uint8 {
	var flags uint8
	if wire&0x01 != 0 {
		flags |= core.TCPFlagFIN
	}
	if wire&0x02 != 0 {
		flags |= core.TCPFlagSYN
	}
	if wire&0x04 != 0 {
		flags |= core.TCPFlagRST
	}
	if wire&0x08 != 0 {
		flags |= core.TCPFlagPSH
	}
	if wire&0x10 != 0 {
		flags |= core.TCPFlagACK
	}
	if wire&0x20 != 0 {
		flags |= core.TCPFlagURG
	}
	return flags
}

// decodeUDP decodes UDP header.
func decodeUDP(data view, meta *core.PacketMetadata) error {
	if !data.has(0, udpHeaderLen) {
		return core.ErrPacketTooShort
	}

	meta.SrcPort, _ = data.be16(0)
	meta.DstPort, _ = data.be16(2)
	return nil
}

// decodeICMP covers both ICMP and ICMPv6: type and code share the first two bytes.
func decodeICMP(data view, headerLen int, meta *core.PacketMetadata) error {
	if !data.has(0, headerLen) {
		return core.ErrPacketTooShort
	}

	meta.ICMPType = data[0]
	meta.ICMPCode = data[1]
	return nil
}
