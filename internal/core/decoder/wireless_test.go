package decoder

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ringsniff/internal/core"
)

var (
	apMAC     = [6]byte{0x00, 0x1A, 0x2B, 0x3C, 0x4D, 0x5E}
	clientMAC = [6]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	bcastMAC  = [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

type eventLog struct {
	mu     sync.Mutex
	events []core.LogEvent
}

func (l *eventLog) Push(ev core.LogEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) texts() []core.TextEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []core.TextEvent
	for _, ev := range l.events {
		if te, ok := ev.(core.TextEvent); ok {
			out = append(out, te)
		}
	}
	return out
}

type memRecorder struct {
	frames [][]byte
	stamps []time.Time
	err    error
}

func (r *memRecorder) Append(frame []byte, ts time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, append([]byte(nil), frame...))
	r.stamps = append(r.stamps, ts)
	return nil
}

// radiotap builds a zeroed Radiotap header of the given length carrying
// freq at offset 26 and signal at offset 30 when long enough.
func radiotap(length int, freq uint16, signal int8) []byte {
	b := make([]byte, length)
	binary.LittleEndian.PutUint16(b[2:4], uint16(length))
	if length > radiotapSignalOffset {
		binary.LittleEndian.PutUint16(b[radiotapFreqOffset:], freq)
		b[radiotapSignalOffset] = byte(signal)
	}
	return b
}

func dot11(typ, subtype uint8, dst, src [6]byte) []byte {
	h := make([]byte, dot11HeaderLen)
	binary.LittleEndian.PutUint16(h[0:2], uint16(typ)<<2|uint16(subtype)<<4)
	copy(h[4:10], dst[:])
	copy(h[10:16], src[:])
	copy(h[16:22], src[:])
	return h
}

func tag(id byte, value []byte) []byte {
	return append([]byte{id, byte(len(value))}, value...)
}

func join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func beacon(ssid string) []byte {
	return join(
		radiotap(32, 2437, -42),
		dot11(dot11TypeMgmt, subtypeBeacon, bcastMAC, apMAC),
		make([]byte, mgmtFixedParams),
		tag(tagSSID, []byte(ssid)),
		tag(1, []byte{0x82, 0x84, 0x8B, 0x96}),
	)
}

func eapolData() []byte {
	llc := []byte{0xAA, 0xAA, 0x03, 0x00, 0x00, 0x00, 0x88, 0x8E}
	key := make([]byte, 95)
	key[0], key[1] = 0x02, 0x03 // version 2, EAPOL-Key
	return join(
		radiotap(32, 5180, -60),
		dot11(dot11TypeData, 8, clientMAC, apMAC),
		[]byte{0x00, 0x00}, // QoS control
		llc,
		key,
	)
}

func TestWirelessBeacon(t *testing.T) {
	events := &eventLog{}
	w := NewWireless(events, nil)

	var meta core.PacketMetadata
	require.True(t, w.Decode(beacon("CoffeeShop"), &meta))

	assert.True(t, meta.IsMonitorMode)
	assert.Equal(t, 6, meta.Channel)
	assert.Equal(t, int8(-42), meta.SignalDBm)
	assert.Equal(t, "CoffeeShop", meta.SSID)
	assert.Equal(t, core.FrameKindBeacon, meta.FrameKind)
	assert.Equal(t, core.MAC(apMAC), meta.SrcMAC)
	assert.Equal(t, core.MAC(bcastMAC), meta.DstMAC)

	texts := events.texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "[BEACON] [00:1A:2B:3C:4D:5E] -> 'CoffeeShop' | CH:6 | PWR:-42", texts[0].Message)
	assert.Equal(t, "CoffeeShop", texts[0].Fields["ssid"])
}

func TestWirelessHiddenAndBroadcast(t *testing.T) {
	var meta core.PacketMetadata
	w := NewWireless(nil, nil)

	require.True(t, w.Decode(beacon(""), &meta))
	assert.Equal(t, core.SSIDHidden, meta.SSID)

	probe := join(
		radiotap(32, 2412, -70),
		dot11(dot11TypeMgmt, subtypeProbeReq, bcastMAC, clientMAC),
		tag(tagSSID, nil),
	)
	meta = core.PacketMetadata{}
	require.True(t, w.Decode(probe, &meta))
	assert.Equal(t, core.SSIDBroadcast, meta.SSID)
	assert.Equal(t, core.FrameKindProbeReq, meta.FrameKind)
	assert.Equal(t, 1, meta.Channel)
}

func TestWirelessProbeResponseSkipsFixedParams(t *testing.T) {
	resp := join(
		radiotap(32, 2462, -50),
		dot11(dot11TypeMgmt, subtypeProbeResp, clientMAC, apMAC),
		make([]byte, mgmtFixedParams),
		tag(tagSSID, []byte("lab")),
	)

	var meta core.PacketMetadata
	require.True(t, NewWireless(nil, nil).Decode(resp, &meta))
	assert.Equal(t, "lab", meta.SSID)
	assert.Equal(t, core.FrameKindProbeResp, meta.FrameKind)
	assert.Equal(t, 11, meta.Channel)
}

func TestWirelessSSIDTruncatedTo32(t *testing.T) {
	long := make([]byte, 40)
	for i := range long {
		long[i] = 'a' + byte(i%26)
	}

	var meta core.PacketMetadata
	require.True(t, NewWireless(nil, nil).Decode(beacon(string(long)), &meta))
	assert.Len(t, meta.SSID, core.SSIDMaxLen)
	assert.Equal(t, string(long[:core.SSIDMaxLen]), meta.SSID)
}

func TestWirelessSSIDAfterOtherTags(t *testing.T) {
	probe := join(
		radiotap(32, 2412, -70),
		dot11(dot11TypeMgmt, subtypeProbeReq, bcastMAC, clientMAC),
		tag(1, []byte{0x02, 0x04}),
		tag(tagSSID, []byte("home")),
	)

	var meta core.PacketMetadata
	require.True(t, NewWireless(nil, nil).Decode(probe, &meta))
	assert.Equal(t, "home", meta.SSID)
}

func TestWirelessTruncatedTagIgnored(t *testing.T) {
	f := join(
		radiotap(32, 2412, -70),
		dot11(dot11TypeMgmt, subtypeProbeReq, bcastMAC, clientMAC),
		[]byte{tagSSID, 20, 'x', 'y'},
	)

	events := &eventLog{}
	var meta core.PacketMetadata
	require.True(t, NewWireless(events, nil).Decode(f, &meta))
	assert.Empty(t, meta.SSID)
	assert.Empty(t, events.texts())
}

func TestWirelessEncryptedData(t *testing.T) {
	data := join(
		radiotap(32, 2437, -55),
		dot11(dot11TypeData, 0, apMAC, clientMAC),
		make([]byte, 64),
	)

	rec := &memRecorder{}
	var meta core.PacketMetadata
	require.True(t, NewWireless(nil, rec).Decode(data, &meta))
	assert.Equal(t, core.SSIDEncrypted, meta.SSID)
	assert.Equal(t, core.FrameKindData, meta.FrameKind)
	assert.Empty(t, rec.frames)
}

func TestWirelessHandshake(t *testing.T) {
	events := &eventLog{}
	rec := &memRecorder{}
	w := NewWireless(events, rec)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	f := eapolData()
	var meta core.PacketMetadata
	require.True(t, w.Decode(f, &meta))

	assert.Equal(t, core.SSIDHandshake, meta.SSID)
	assert.Equal(t, core.FrameKindEAPOL, meta.FrameKind)
	assert.Equal(t, 36, meta.Channel)

	require.Len(t, rec.frames, 1)
	assert.Equal(t, f, rec.frames[0])
	assert.Equal(t, fixed, rec.stamps[0])

	texts := events.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, core.SeverityWarn, texts[0].Severity)
	assert.Contains(t, texts[0].Message, "EAPOL HANDSHAKE CAPTURED from 00:1A:2B:3C:4D:5E")
	assert.Contains(t, texts[1].Message, "[DISK]")
}

func TestWirelessHandshakeRecorderFailure(t *testing.T) {
	events := &eventLog{}
	rec := &memRecorder{err: errors.New("disk full")}

	var meta core.PacketMetadata
	require.True(t, NewWireless(events, rec).Decode(eapolData(), &meta))
	assert.Equal(t, core.SSIDHandshake, meta.SSID)

	texts := events.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, core.SeverityError, texts[1].Severity)
	assert.Equal(t, "disk full", texts[1].Fields["error"])
}

func TestWirelessControlFrame(t *testing.T) {
	ack := join(radiotap(32, 2412, -30), dot11(dot11TypeCtrl, 13, clientMAC, apMAC))

	var meta core.PacketMetadata
	require.True(t, NewWireless(nil, nil).Decode(ack, &meta))
	assert.Equal(t, core.FrameKindCtrl, meta.FrameKind)
	assert.Empty(t, meta.SSID)
}

func TestWirelessShort80211Header(t *testing.T) {
	f := join(radiotap(32, 2412, -30), make([]byte, 10))

	var meta core.PacketMetadata
	require.True(t, NewWireless(nil, nil).Decode(f, &meta))
	assert.True(t, meta.IsMonitorMode)
	assert.Equal(t, 1, meta.Channel)
	assert.True(t, meta.SrcMAC.IsZero())
}

func TestWirelessMalformedRadiotap(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"too short for length", []byte{0x00, 0x00, 0x20}},
		{"length below minimum", append(radiotap(10, 0, 0)[:2], 0x08, 0x00, 0, 0, 0, 0, 0, 0, 0, 0)},
		{"length equals frame", radiotap(32, 2412, -30)},
		{"length beyond frame", func() []byte {
			b := radiotap(32, 2412, -30)
			binary.LittleEndian.PutUint16(b[2:4], 200)
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var meta core.PacketMetadata
			assert.False(t, NewWireless(nil, nil).Decode(tt.frame, &meta))
			assert.False(t, meta.IsMonitorMode)
			assert.Equal(t, core.PacketMetadata{}, meta)
		})
	}
}

func TestWirelessShortRadiotapLeavesPhyZero(t *testing.T) {
	f := join(radiotap(12, 0, 0), dot11(dot11TypeMgmt, subtypeProbeReq, bcastMAC, clientMAC), tag(tagSSID, []byte("x")))

	var meta core.PacketMetadata
	require.True(t, NewWireless(nil, nil).Decode(f, &meta))
	assert.Zero(t, meta.Channel)
	assert.Zero(t, meta.SignalDBm)
	assert.Equal(t, "x", meta.SSID)
}

func TestChannelFromFrequency(t *testing.T) {
	tests := []struct {
		mhz  int
		want int
	}{
		{2412, 1},
		{2437, 6},
		{2472, 13},
		{2484, 14},
		{5180, 36},
		{5825, 165},
		{1000, 0},
		{0, 0},
		{6001, 0},
		{7000, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ChannelFromFrequency(tt.mhz), "freq %d", tt.mhz)
	}
}

func TestFindEAPOL(t *testing.T) {
	sig := []byte{0xAA, 0xAA, 0x03, 0x00, 0x00, 0x00, 0x88, 0x8E}

	assert.Equal(t, 0, FindEAPOL(sig))
	assert.Equal(t, 2, FindEAPOL(append([]byte{0x00, 0x00}, sig...)))
	assert.Equal(t, -1, FindEAPOL(sig[:7]))
	// The last start position, with the signature ending the body, is scanned.
	assert.Equal(t, 3, FindEAPOL(append([]byte{0x01, 0x02, 0x03}, sig...)))
	assert.Equal(t, -1, FindEAPOL(append([]byte{0x01, 0x02, 0x03}, sig[:7]...)))
	assert.Equal(t, -1, FindEAPOL(nil))

	ipv4 := append([]byte(nil), sig...)
	ipv4[6], ipv4[7] = 0x08, 0x00
	assert.Equal(t, -1, FindEAPOL(ipv4))
}

func BenchmarkWirelessBeacon(b *testing.B) {
	w := NewWireless(nil, nil)
	f := beacon("bench")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var meta core.PacketMetadata
		w.Decode(f, &meta)
	}
}
