package decoder

import (
	"firestige.xyz/ringsniff/internal/core"
)

// Heuristic bounds for guessing a Radiotap header when the interface mode
// could not be probed.
const (
	heuristicMinLen      = 5
	heuristicMaxRadiotap = 256
)

// Dispatcher routes frames to the wired or wireless decoder.
type Dispatcher struct {
	mode     core.Mode
	probed   bool
	wired    Decoder
	wireless Decoder
}

// NewDispatcher creates a dispatcher. When probed is true the mode is fixed for
// every frame; otherwise each frame is classified by ClassifyHeuristic.
func NewDispatcher(mode core.Mode, probed bool, wired, wireless Decoder) *Dispatcher {
	if wired == nil {
		wired = Wired{}
	}
	if wireless == nil {
		wireless = NewWireless(nil, nil)
	}
	return &Dispatcher{
		mode:     mode,
		probed:   probed,
		wired:    wired,
		wireless: wireless,
	}
}

// Mode returns the fixed mode and whether it came from a probe.
func (d *Dispatcher) Mode() (core.Mode, bool) {
	return d.mode, d.probed
}

// Classify decides which decoder a frame belongs to.
func (d *Dispatcher) Classify(frame []byte) core.Mode {
	if d.probed {
		return d.mode
	}
	return ClassifyHeuristic(frame)
}

// ClassifyHeuristic guesses monitor mode from a leading Radiotap version byte
// (0x00) and a plausible Radiotap length. Wired frames whose destination MAC
// starts with 0x00 can still be misclassified.
func ClassifyHeuristic(frame []byte) core.Mode {
	if len(frame) < heuristicMinLen || frame[0] != 0x00 {
		return core.ModeManaged
	}
	rtLen, _ := view(frame).le16(2)
	if rtLen == 0 || rtLen >= heuristicMaxRadiotap || int(rtLen) > len(frame) {
		return core.ModeManaged
	}
	return core.ModeMonitor
}

// Dispatch decodes one frame into a fresh metadata record. The bool is false
// when the frame should not produce telemetry.
func (d *Dispatcher) Dispatch(frame []byte) (core.PacketMetadata, core.Mode, bool) {
	meta := core.PacketMetadata{PacketSize: len(frame)}
	mode := d.Classify(frame)
	if mode == core.ModeMonitor {
		return meta, mode, d.wireless.Decode(frame, &meta)
	}
	return meta, mode, d.wired.Decode(frame, &meta)
}
