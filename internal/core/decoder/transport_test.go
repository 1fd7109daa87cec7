package decoder

import (
	"testing"

	"firestige.xyz/ringsniff/internal/core"
)

func TestDecodeUDP(t *testing.T) {
	data := []byte{
		0x13, 0x88, // Src Port: 5000
		0x13, 0x89, // Dst Port: 5001
		0x00, 0x0C, // Length
		0x00, 0x00, // Checksum
		0x01, 0x02, 0x03, 0x04, // Payload
	}

	var meta core.PacketMetadata
	if err := decodeTransport(data, protocolUDP, &meta); err != nil {
		t.Fatalf("decodeUDP failed: %v", err)
	}

	if meta.SrcPort != 5000 {
		t.Errorf("Expected SrcPort 5000, got %d", meta.SrcPort)
	}
	if meta.DstPort != 5001 {
		t.Errorf("Expected DstPort 5001, got %d", meta.DstPort)
	}
}

func TestDecodeTCP(t *testing.T) {
	data := []byte{
		0x13, 0x88, // Src Port: 5000
		0x13, 0x89, // Dst Port: 5001
		0x00, 0x00, 0x00, 0x01, // Seq Num
		0x00, 0x00, 0x00, 0x02, // Ack Num
		0x50,       // Data Offset: 5
		0x18,       // Flags: ACK + PSH
		0x20, 0x00, // Window Size
		0x00, 0x00, // Checksum
		0x00, 0x00, // Urgent Pointer
	}

	var meta core.PacketMetadata
	if err := decodeTransport(data, protocolTCP, &meta); err != nil {
		t.Fatalf("decodeTCP failed: %v", err)
	}

	if meta.SrcPort != 5000 || meta.DstPort != 5001 {
		t.Errorf("Expected ports 5000->5001, got %d->%d", meta.SrcPort, meta.DstPort)
	}
	if meta.TCPFlags != core.TCPFlagACK|core.TCPFlagPSH {
		t.Errorf("Expected TCPFlags 0x18, got 0x%02x", meta.TCPFlags)
	}
}

func TestTCPFlags(t *testing.T) {
	tests := []struct {
		name string
		wire byte
		want uint8
	}{
		{"none", 0x00, 0},
		{"syn", 0x02, core.TCPFlagSYN},
		{"syn-ack", 0x12, core.TCPFlagSYN | core.TCPFlagACK},
		{"fin-ack", 0x11, core.TCPFlagFIN | core.TCPFlagACK},
		{"rst", 0x04, core.TCPFlagRST},
		{"urg-psh", 0x28, core.TCPFlagURG | core.TCPFlagPSH},
		{"ece-cwr ignored", 0xC0, 0},
		{"all", 0xFF, 0x3F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TCPFlags(tt.wire); got != tt.want {
				t.Errorf("TCPFlags(0x%02x) = 0x%02x, want 0x%02x", tt.wire, got, tt.want)
			}
		})
	}
}

func TestDecodeICMP(t *testing.T) {
	data := []byte{0x08, 0x00, 0xF7, 0xFF, 0x00, 0x01, 0x00, 0x01}

	var meta core.PacketMetadata
	if err := decodeTransport(data, protocolICMP, &meta); err != nil {
		t.Fatalf("decodeICMP failed: %v", err)
	}
	if meta.ICMPType != 8 || meta.ICMPCode != 0 {
		t.Errorf("Expected echo request 8/0, got %d/%d", meta.ICMPType, meta.ICMPCode)
	}

	meta = core.PacketMetadata{}
	data[0], data[1] = 1, 4 // ICMPv6 destination unreachable, port unreachable
	if err := decodeTransport(data, protocolICMPv6, &meta); err != nil {
		t.Fatalf("decodeICMPv6 failed: %v", err)
	}
	if meta.ICMPType != 1 || meta.ICMPCode != 4 {
		t.Errorf("Expected 1/4, got %d/%d", meta.ICMPType, meta.ICMPCode)
	}
}

func TestDecodeTransportTooShort(t *testing.T) {
	tests := []struct {
		protocol uint8
		size     int
	}{
		{protocolTCP, tcpHeaderMinLen - 1},
		{protocolUDP, udpHeaderLen - 1},
		{protocolICMP, icmpHeaderLen - 1},
		{protocolICMPv6, icmpv6HeaderLen - 1},
	}

	for _, tt := range tests {
		data := make([]byte, tt.size)
		for i := range data {
			data[i] = 0xFF
		}
		var meta core.PacketMetadata
		if err := decodeTransport(data, tt.protocol, &meta); err == nil {
			t.Errorf("protocol %d: expected error for %d bytes", tt.protocol, tt.size)
		}
		if meta != (core.PacketMetadata{}) {
			t.Errorf("protocol %d: expected metadata untouched, got %+v", tt.protocol, meta)
		}
	}
}

func TestDecodeTransportUnknownProtocol(t *testing.T) {
	var meta core.PacketMetadata
	if err := decodeTransport([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 132, &meta); err != nil {
		t.Errorf("Expected nil error for SCTP, got %v", err)
	}
	if meta.SrcPort != 0 {
		t.Errorf("Expected no ports for unknown protocol, got %d", meta.SrcPort)
	}
}
