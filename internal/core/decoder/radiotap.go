package decoder

import (
	"firestige.xyz/ringsniff/internal/core"
)

const (
	radiotapMinLen = 10

	// Fixed field positions used by common monitor-mode drivers. Radiotap
	// fields are variable, but channel and antenna signal land here when the
	// header is at least radiotapPhyLen long.
	radiotapPhyLen       = 30
	radiotapFreqOffset   = 26
	radiotapSignalOffset = 30
)

// radiotapHeader is the slice of physical-layer facts we extract.
type radiotapHeader struct {
	length    int
	channel   int
	signalDBm int8
}

// decodeRadiotap validates the Radiotap header and pulls frequency and signal.
// The length field is little-endian at offset 2.
func decodeRadiotap(data view) (radiotapHeader, error) {
	var rt radiotapHeader

	length, ok := data.le16(2)
	if !ok {
		return rt, core.ErrPacketTooShort
	}
	if int(length) >= len(data) || length < radiotapMinLen {
		return rt, core.ErrMalformedRadiotap
	}
	rt.length = int(length)

	if rt.length >= radiotapPhyLen {
		if freq, ok := data.le16(radiotapFreqOffset); ok {
			rt.channel = ChannelFromFrequency(int(freq))
		}
		if sig, ok := data.u8(radiotapSignalOffset); ok {
			rt.signalDBm = int8(sig)
		}
	}
	return rt, nil
}

// ChannelFromFrequency maps a center frequency in MHz to an 802.11 channel
// number. Frequencies outside 2400-6000 MHz map to channel 0.
func ChannelFromFrequency(mhz int) int {
	switch {
	case mhz < 2400 || mhz > 6000:
		return 0
	case mhz == 2484:
		return 14
	case mhz < 2484:
		return (mhz - 2407) / 5
	default:
		return (mhz - 5000) / 5
	}
}
