package decoder

import (
	"fmt"
	"time"

	"firestige.xyz/ringsniff/internal/core"
)

const (
	dot11HeaderLen  = 24
	dot11AddrSpan   = 16 // frame control .. end of addr2
	mgmtFixedParams = 12 // timestamp(8) + beacon interval(2) + capability(2)

	dot11TypeMgmt = 0
	dot11TypeCtrl = 1
	dot11TypeData = 2

	subtypeProbeReq  = 4
	subtypeProbeResp = 5
	subtypeBeacon    = 8

	tagSSID = 0
)

// Wireless decodes Radiotap-wrapped 802.11 frames captured in monitor mode.
// It keeps no per-frame state; events and recorder are collaborators.
type Wireless struct {
	events   EventSink
	recorder HandshakeRecorder
	now      func() time.Time
}

// NewWireless creates a wireless decoder. Either collaborator may be nil.
func NewWireless(events EventSink, recorder HandshakeRecorder) *Wireless {
	return &Wireless{
		events:   events,
		recorder: recorder,
		now:      time.Now,
	}
}

// frameControl splits the 802.11 Frame Control field.
func frameControl(fc uint16) (typ, subtype uint8) {
	return uint8(fc>>2) & 0x3, uint8(fc>>4) & 0xF
}

// Decode implements Decoder. It returns false only when the Radiotap header is
// malformed; in that case meta is left untouched.
func (w *Wireless) Decode(frame []byte, meta *core.PacketMetadata) bool {
	data := view(frame)

	rt, err := decodeRadiotap(data)
	if err != nil {
		return false
	}
	meta.Channel = rt.channel
	meta.SignalDBm = rt.signalDBm
	meta.IsMonitorMode = true
	meta.SSID = ""

	offset := rt.length
	if !data.has(offset, dot11HeaderLen) {
		return true
	}

	fc, _ := data.le16(offset)
	typ, subtype := frameControl(fc)

	// Addr1 = destination, Addr2 = source
	if data.has(offset, dot11AddrSpan) {
		meta.DstMAC, _ = data.mac(offset + 4)
		meta.SrcMAC, _ = data.mac(offset + 10)
	}

	switch typ {
	case dot11TypeMgmt:
		w.decodeManagement(data, offset+dot11HeaderLen, subtype, meta)
	case dot11TypeData:
		w.decodeData(frame, offset+dot11HeaderLen, meta)
	case dot11TypeCtrl:
		meta.FrameKind = core.FrameKindCtrl
	}
	return true
}

func (w *Wireless) decodeManagement(data view, body int, subtype uint8, meta *core.PacketMetadata) {
	switch subtype {
	case subtypeBeacon:
		meta.FrameKind = core.FrameKindBeacon
		body += mgmtFixedParams
	case subtypeProbeResp:
		meta.FrameKind = core.FrameKindProbeResp
		body += mgmtFixedParams
	case subtypeProbeReq:
		meta.FrameKind = core.FrameKindProbeReq
	default:
		meta.FrameKind = core.FrameKindMgmt
		return
	}

	ssid, ok := scanSSID(data, body, subtype)
	if !ok {
		return
	}
	meta.SSID = ssid

	w.emit(core.Text(
		fmt.Sprintf("[%s] [%s] -> '%s' | CH:%d | PWR:%d",
			meta.FrameKind, meta.SrcMAC, meta.SSID, meta.Channel, meta.SignalDBm),
		map[string]any{
			"kind":    meta.FrameKind,
			"src_mac": meta.SrcMAC.String(),
			"ssid":    meta.SSID,
			"channel": meta.Channel,
			"signal":  meta.SignalDBm,
		},
	))
}

// scanSSID walks tagged parameters from body until the SSID element.
// The first SSID element wins; a truncated element ends the scan.
func scanSSID(data view, body int, subtype uint8) (string, bool) {
	for data.has(body, 2) {
		id := data[body]
		n := int(data[body+1])
		value, ok := data.sub(body+2, n)
		if !ok {
			return "", false
		}
		if id == tagSSID {
			if n == 0 {
				if subtype == subtypeProbeReq {
					return core.SSIDBroadcast, true
				}
				return core.SSIDHidden, true
			}
			if n > core.SSIDMaxLen {
				value = value[:core.SSIDMaxLen]
			}
			return string(value), true
		}
		body += 2 + n
	}
	return "", false
}

func (w *Wireless) decodeData(frame []byte, body int, meta *core.PacketMetadata) {
	meta.SSID = core.SSIDEncrypted
	meta.FrameKind = core.FrameKindData

	if body > len(frame) || FindEAPOL(frame[body:]) < 0 {
		return
	}

	meta.SSID = core.SSIDHandshake
	meta.FrameKind = core.FrameKindEAPOL
	w.emit(core.Warn(
		fmt.Sprintf("[!!!] EAPOL HANDSHAKE CAPTURED from %s", meta.SrcMAC),
		map[string]any{"src_mac": meta.SrcMAC.String(), "dest_mac": meta.DstMAC.String(), "channel": meta.Channel},
	))

	if w.recorder == nil {
		return
	}
	if err := w.recorder.Append(frame, w.now()); err != nil {
		w.emit(core.Error(
			"could not save handshake frame",
			map[string]any{"error": err.Error(), "size": len(frame)},
		))
		return
	}
	w.emit(core.Text(
		fmt.Sprintf("[DISK] saved EAPOL frame (%d bytes)", len(frame)),
		map[string]any{"size": len(frame)},
	))
}

func (w *Wireless) emit(ev core.LogEvent) {
	if w.events == nil {
		return
	}
	_ = w.events.Push(ev)
}
