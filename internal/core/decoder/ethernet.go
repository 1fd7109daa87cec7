package decoder

import (
	"firestige.xyz/ringsniff/internal/core"
)

const (
	// Ethernet constants
	ethernetHeaderLen = 14

	// EtherType values
	etherTypeIPv4 = 0x0800
	etherTypeARP  = 0x0806
	etherTypeIPv6 = 0x86DD

	// Values below this are IEEE 802.3 length fields, not EtherTypes.
	etherTypeMin = 1536
)

// decodeEthernet fills the link-layer fields of meta.
// Returns the EtherType (host order) and the L3 payload.
func decodeEthernet(data view, meta *core.PacketMetadata) (uint16, view, error) {
	if !data.has(0, ethernetHeaderLen) {
		return 0, nil, core.ErrPacketTooShort
	}

	// Destination MAC (6 bytes) then Source MAC (6 bytes)
	dst, _ := data.mac(0)
	src, _ := data.mac(6)
	meta.DstMAC = dst
	meta.SrcMAC = src

	// EtherType (2 bytes, network order)
	etherType, _ := data.be16(12)
	meta.EtherType = etherType

	payload, _ := data.from(ethernetHeaderLen)
	return etherType, payload, nil
}

// isLengthField reports whether an EtherType slot actually holds an 802.3 length.
func isLengthField(etherType uint16) bool {
	return etherType < etherTypeMin
}
