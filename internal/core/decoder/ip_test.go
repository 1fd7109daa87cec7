package decoder

import (
	"errors"
	"net/netip"
	"testing"

	"firestige.xyz/ringsniff/internal/core"
)

func TestDecodeIPv4Basic(t *testing.T) {
	data := []byte{
		0x45, 0x00, 0x00, 0x1C, // Version 4, IHL 5, Total Length 28
		0x12, 0x34, 0x00, 0x00, // Identification, Flags
		0x40, 0x11, 0x00, 0x00, // TTL 64, Protocol UDP, Checksum
		192, 168, 1, 1, // Src IP
		192, 168, 1, 2, // Dst IP
		0x13, 0x88, 0x13, 0x89, 0x00, 0x08, 0x00, 0x00, // UDP header
	}

	var meta core.PacketMetadata
	protocol, payload, err := decodeIP(data, &meta)
	if err != nil {
		t.Fatalf("decodeIP failed: %v", err)
	}

	if meta.IPVersion != 4 {
		t.Errorf("Expected IPVersion 4, got %d", meta.IPVersion)
	}
	if protocol != 17 || meta.L3Protocol != 17 {
		t.Errorf("Expected protocol 17, got %d / %d", protocol, meta.L3Protocol)
	}
	if meta.SrcIP != netip.MustParseAddr("192.168.1.1") {
		t.Errorf("Expected SrcIP 192.168.1.1, got %v", meta.SrcIP)
	}
	if meta.DstIP != netip.MustParseAddr("192.168.1.2") {
		t.Errorf("Expected DstIP 192.168.1.2, got %v", meta.DstIP)
	}
	if len(payload) != 8 {
		t.Errorf("Expected payload length 8, got %d", len(payload))
	}
}

func TestDecodeIPv4WithOptions(t *testing.T) {
	data := make([]byte, 24+4)
	data[0] = 0x46 // IHL 6 → 24-byte header
	data[9] = 6
	copy(data[12:16], []byte{10, 0, 0, 1})
	copy(data[16:20], []byte{10, 0, 0, 2})

	var meta core.PacketMetadata
	_, payload, err := decodeIP(data, &meta)
	if err != nil {
		t.Fatalf("decodeIP failed: %v", err)
	}
	if len(payload) != 4 {
		t.Errorf("Expected payload after options of length 4, got %d", len(payload))
	}
}

func TestDecodeIPv4BadIHL(t *testing.T) {
	data := make([]byte, 20)
	data[0] = 0x4F // IHL 15 → 60 bytes, but only 20 present
	data[9] = 6
	copy(data[12:16], []byte{10, 0, 0, 1})

	var meta core.PacketMetadata
	protocol, payload, err := decodeIP(data, &meta)
	if !errors.Is(err, core.ErrPacketTooShort) {
		t.Fatalf("Expected ErrPacketTooShort, got %v", err)
	}
	if payload != nil {
		t.Error("Expected no transport payload")
	}
	// Header fields are still valid.
	if protocol != 6 || meta.SrcIP != netip.MustParseAddr("10.0.0.1") {
		t.Errorf("Expected L3 fields filled, got proto=%d src=%v", protocol, meta.SrcIP)
	}
}

func TestDecodeIPv6Basic(t *testing.T) {
	data := make([]byte, 40+8)
	data[0] = 0x60 // Version 6
	data[4], data[5] = 0x00, 0x08
	data[6] = 58 // Next Header: ICMPv6
	data[7] = 64 // Hop Limit
	src := netip.MustParseAddr("2001:db8::1").As16()
	dst := netip.MustParseAddr("2001:db8::2").As16()
	copy(data[8:24], src[:])
	copy(data[24:40], dst[:])

	var meta core.PacketMetadata
	protocol, payload, err := decodeIP(data, &meta)
	if err != nil {
		t.Fatalf("decodeIP failed: %v", err)
	}

	if meta.IPVersion != 6 {
		t.Errorf("Expected IPVersion 6, got %d", meta.IPVersion)
	}
	if protocol != 58 {
		t.Errorf("Expected next header 58, got %d", protocol)
	}
	if meta.SrcIP.String() != "2001:db8::1" || meta.DstIP.String() != "2001:db8::2" {
		t.Errorf("Unexpected addresses %v -> %v", meta.SrcIP, meta.DstIP)
	}
	if len(payload) != 8 {
		t.Errorf("Expected payload length 8, got %d", len(payload))
	}
}

func TestDecodeIPTooShort(t *testing.T) {
	for _, data := range [][]byte{{}, {0x45, 0x00}, make([]byte, 39)} {
		if len(data) == 39 {
			data[0] = 0x60
		}
		var meta core.PacketMetadata
		if _, _, err := decodeIP(data, &meta); err == nil {
			t.Errorf("Expected error for %d-byte header", len(data))
		}
		if meta.IPVersion != 0 {
			t.Errorf("Expected IPVersion untouched, got %d", meta.IPVersion)
		}
	}
}

func TestDecodeIPUnsupportedVersion(t *testing.T) {
	data := make([]byte, 20)
	data[0] = 0x55 // Version 5

	var meta core.PacketMetadata
	protocol, _, err := decodeIP(data, &meta)
	if !errors.Is(err, core.ErrUnsupportedProto) {
		t.Errorf("Expected ErrUnsupportedProto, got %v", err)
	}
	if protocol != 0 {
		t.Errorf("Expected protocol 0, got %d", protocol)
	}
}

func BenchmarkDecodeIPv4(b *testing.B) {
	data := make([]byte, 28)
	data[0] = 0x45
	data[9] = 17

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var meta core.PacketMetadata
		_, _, _ = decodeIP(data, &meta)
	}
}
