package telemetry

import (
	"encoding/json"
	"net/netip"
	"strings"

	"firestige.xyz/ringsniff/internal/core"
)

// Protocol names carried in the record's type field.
const (
	ProtoARP    = "ARP"
	ProtoIPv4   = "IPv4"
	ProtoIPv6   = "IPv6"
	ProtoTCP    = "TCP"
	ProtoUDP    = "UDP"
	ProtoICMP   = "ICMP"
	ProtoICMPv6 = "ICMPv6"
	Proto80211  = "802.11"
	ProtoOther  = "Other"
)

const (
	etherTypeIPv4 = 0x0800
	etherTypeARP  = 0x0806
	etherTypeIPv6 = 0x86DD

	ipProtoICMP   = 1
	ipProtoTCP    = 6
	ipProtoUDP    = 17
	ipProtoICMPv6 = 58
)

// Record is the flat JSON shape of one packet event. Field order is part of
// the wire format.
type Record struct {
	SrcMAC    string `json:"src_mac"`
	DestMAC   string `json:"dest_mac"`
	SrcIP     string `json:"src_ip"`
	DestIP    string `json:"dest_ip"`
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	SrcPort   uint16 `json:"src_port"`
	DestPort  uint16 `json:"dest_port"`
	TCPFlags  uint8  `json:"tcp_flags"`
	Size      int    `json:"size"`
	IsMonitor bool   `json:"is_monitor"`
	SignalDBm int8   `json:"signal_dbm"`
	Channel   int    `json:"channel"`
	SSID      string `json:"ssid"`
}

// Encoder turns metadata into Records. MACs are uppercase colon-hex unless
// LowerMAC is set.
type Encoder struct {
	LowerMAC bool
}

// NewEncoder builds an Encoder for a telemetry.mac_case value.
func NewEncoder(macCase string) Encoder {
	return Encoder{LowerMAC: strings.EqualFold(macCase, "lower")}
}

// Record converts meta into its wire record.
func (e Encoder) Record(meta *core.PacketMetadata) Record {
	return Record{
		SrcMAC:    e.mac(meta.SrcMAC),
		DestMAC:   e.mac(meta.DstMAC),
		SrcIP:     addr(meta.SrcIP),
		DestIP:    addr(meta.DstIP),
		Type:      ProtocolType(meta),
		Subtype:   Subtype(meta),
		SrcPort:   meta.SrcPort,
		DestPort:  meta.DstPort,
		TCPFlags:  meta.TCPFlags,
		Size:      meta.PacketSize,
		IsMonitor: meta.IsMonitorMode,
		SignalDBm: meta.SignalDBm,
		Channel:   meta.Channel,
		SSID:      meta.SSID,
	}
}

// Marshal returns the JSON encoding of meta's record.
func (e Encoder) Marshal(meta *core.PacketMetadata) ([]byte, error) {
	return json.Marshal(e.Record(meta))
}

func (e Encoder) mac(m core.MAC) string {
	s := m.String()
	if e.LowerMAC {
		return strings.ToLower(s)
	}
	return s
}

func addr(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

// ProtocolType classifies meta by monitor flag, EtherType and L3 protocol.
func ProtocolType(meta *core.PacketMetadata) string {
	if meta.IsMonitorMode {
		return Proto80211
	}
	switch meta.EtherType {
	case etherTypeARP:
		return ProtoARP
	case etherTypeIPv4:
		switch meta.L3Protocol {
		case ipProtoTCP:
			return ProtoTCP
		case ipProtoUDP:
			return ProtoUDP
		case ipProtoICMP:
			return ProtoICMP
		}
		return ProtoIPv4
	case etherTypeIPv6:
		switch meta.L3Protocol {
		case ipProtoTCP:
			return ProtoTCP
		case ipProtoUDP:
			return ProtoUDP
		case ipProtoICMPv6:
			return ProtoICMPv6
		}
		return ProtoIPv6
	}
	return ProtoOther
}

// Subtype names the 802.11 frame kind. Wired frames have none.
func Subtype(meta *core.PacketMetadata) string {
	if !meta.IsMonitorMode {
		return ""
	}
	switch meta.SSID {
	case core.SSIDBroadcast:
		return core.FrameKindProbeReq
	case core.SSIDEncrypted:
		return core.FrameKindData
	case core.SSIDHandshake:
		return core.FrameKindEAPOL
	}
	return meta.FrameKind
}
