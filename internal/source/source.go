// Package source defines the capture source abstraction shared by the ring,
// afpacket and file engines.
package source

import (
	"context"
	"time"

	"firestige.xyz/ringsniff/internal/core"
)

// Source yields raw link-layer frames one at a time.
//
// Next blocks until a frame is available, ctx is done, or the source is
// exhausted (io.EOF for finite sources). The returned Frame must be released
// before the next call.
type Source interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// Frame is one captured frame. Data may alias memory shared with the kernel
// and is only valid until Release is called.
type Frame struct {
	Data      []byte
	Timestamp time.Time
	// WireLen is the original length on the wire; Data may be shorter.
	WireLen int
	// Lost is set when the engine observed kernel drops before this frame.
	Lost bool

	release  func()
	released bool
}

// NewFrame builds a frame whose Release runs release exactly once.
// A nil release is allowed for frames that own their memory.
func NewFrame(data []byte, ts time.Time, wireLen int, lost bool, release func()) *Frame {
	return &Frame{
		Data:      data,
		Timestamp: ts,
		WireLen:   wireLen,
		Lost:      lost,
		release:   release,
	}
}

// Release hands the frame's memory back to its owner. Calling it twice
// returns core.ErrAlreadyReleased and has no other effect.
func (f *Frame) Release() error {
	if f.released {
		return core.ErrAlreadyReleased
	}
	f.released = true
	f.Data = nil
	if f.release != nil {
		f.release()
	}
	return nil
}

// Released reports whether Release has been called.
func (f *Frame) Released() bool {
	return f.released
}
