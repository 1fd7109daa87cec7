package decoder

import (
	"testing"

	"firestige.xyz/ringsniff/internal/core"
)

func TestDecodeEthernetBasic(t *testing.T) {
	// Simple Ethernet frame: Dst MAC, Src MAC, EtherType
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x08, 0x00, // EtherType: IPv4
		0x45, 0x00, // Payload (start of IP header)
	}

	var meta core.PacketMetadata
	etherType, payload, err := decodeEthernet(data, &meta)
	if err != nil {
		t.Fatalf("decodeEthernet failed: %v", err)
	}

	expectedDstMAC := core.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	if meta.DstMAC != expectedDstMAC {
		t.Errorf("Expected DstMAC %v, got %v", expectedDstMAC, meta.DstMAC)
	}

	expectedSrcMAC := core.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	if meta.SrcMAC != expectedSrcMAC {
		t.Errorf("Expected SrcMAC %v, got %v", expectedSrcMAC, meta.SrcMAC)
	}

	if etherType != 0x0800 || meta.EtherType != 0x0800 {
		t.Errorf("Expected EtherType 0x0800, got 0x%04x / 0x%04x", etherType, meta.EtherType)
	}

	if len(payload) != 2 {
		t.Errorf("Expected payload length 2, got %d", len(payload))
	}
}

func TestDecodeEthernetTooShort(t *testing.T) {
	data := []byte{0x00, 0x11, 0x22} // Too short

	var meta core.PacketMetadata
	_, _, err := decodeEthernet(data, &meta)
	if err == nil {
		t.Error("Expected error for too short packet, got nil")
	}
	if !meta.SrcMAC.IsZero() || !meta.DstMAC.IsZero() {
		t.Error("Expected MACs untouched on short frame")
	}
}

func TestIsLengthField(t *testing.T) {
	tests := []struct {
		etherType uint16
		want      bool
	}{
		{0x0000, true},
		{0x05DC, true},  // 1500, max 802.3 payload length
		{0x05FF, true},  // 1535
		{0x0600, false}, // 1536
		{0x0800, false},
		{0x86DD, false},
	}

	for _, tt := range tests {
		if got := isLengthField(tt.etherType); got != tt.want {
			t.Errorf("isLengthField(0x%04x) = %v, want %v", tt.etherType, got, tt.want)
		}
	}
}

func BenchmarkDecodeEthernet(b *testing.B) {
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x08, 0x00,
		0x45, 0x00,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var meta core.PacketMetadata
		_, _, err := decodeEthernet(data, &meta)
		if err != nil {
			b.Fatal(err)
		}
	}
}
