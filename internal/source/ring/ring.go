// Package ring implements a TPACKET_V2 memory-mapped RX ring.
//
// The kernel writes frames into fixed-size slots and flips each slot's
// status word to TP_STATUS_USER. The reader consumes slots strictly in
// order and hands each one back by storing TP_STATUS_KERNEL. Only one frame
// may be outstanding at a time.
package ring

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/source"
)

const DefaultPollTimeout = 100 * time.Millisecond

type options struct {
	frameSize   int
	blockCount  int
	pageSize    int
	pollTimeout time.Duration
}

// Option configures Setup.
type Option func(*options)

func WithFrameSize(n int) Option {
	return func(o *options) { o.frameSize = n }
}

func WithBlockCount(n int) Option {
	return func(o *options) { o.blockCount = n }
}

func WithPollTimeout(d time.Duration) Option {
	return func(o *options) { o.pollTimeout = d }
}

// waitFunc blocks until the socket may have data or the timeout expires.
type waitFunc func(timeout time.Duration) error

// Ring is a consumer over a mapped RX ring.
type Ring struct {
	mem         []byte
	geo         Geometry
	pollTimeout time.Duration
	wait        waitFunc
	unmap       func([]byte) error

	cursor      int
	outstanding bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	frames atomic.Uint64
	lost   atomic.Uint64
}

var _ source.Source = (*Ring)(nil)

// Setup switches fd to TPACKET_V2, requests the RX ring and maps it.
// fd must be an AF_PACKET socket already bound to an interface.
func Setup(fd int, opts ...Option) (*Ring, error) {
	o := options{
		frameSize:   DefaultFrameSize,
		blockCount:  DefaultBlockCount,
		pageSize:    os.Getpagesize(),
		pollTimeout: DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	geo, err := ComputeGeometry(o.frameSize, o.blockCount, o.pageSize)
	if err != nil {
		return nil, err
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_PACKET, unix.PACKET_VERSION, unix.TPACKET_V2); err != nil {
		return nil, fmt.Errorf("set PACKET_VERSION: %w", err)
	}

	req := unix.TpacketReq{
		Block_size: uint32(geo.BlockSize),
		Block_nr:   uint32(geo.BlockCount),
		Frame_size: uint32(geo.FrameSize),
		Frame_nr:   uint32(geo.FrameCount),
	}
	if err := unix.SetsockoptTpacketReq(fd, unix.SOL_PACKET, unix.PACKET_RX_RING, &req); err != nil {
		return nil, fmt.Errorf("set PACKET_RX_RING: %w", err)
	}

	mem, err := unix.Mmap(fd, 0, geo.Size(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap rx ring: %w", err)
	}

	return newRing(mem, geo, o.pollTimeout, pollWaiter(fd), unix.Munmap), nil
}

func newRing(mem []byte, geo Geometry, pollTimeout time.Duration, wait waitFunc, unmap func([]byte) error) *Ring {
	return &Ring{
		mem:         mem,
		geo:         geo,
		pollTimeout: pollTimeout,
		wait:        wait,
		unmap:       unmap,
	}
}

// pollWaiter polls fd for readability. EINTR and timeouts are not errors;
// the caller re-checks the slot either way.
func pollWaiter(fd int) waitFunc {
	return func(timeout time.Duration) error {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN | unix.POLLERR}}
		_, err := unix.Poll(fds, int(timeout/time.Millisecond))
		if err != nil && !errors.Is(err, unix.EINTR) {
			return fmt.Errorf("poll rx ring: %w", err)
		}
		return nil
	}
}

// Geometry returns the ring layout.
func (r *Ring) Geometry() Geometry {
	return r.geo
}

// header returns the tpacket2 header of slot i.
func (r *Ring) header(i int) *unix.Tpacket2Hdr {
	return (*unix.Tpacket2Hdr)(unsafe.Pointer(&r.mem[r.geo.offset(i)]))
}

// Next blocks until the slot at the cursor belongs to user space and returns
// it as a Frame aliasing ring memory. ctx is checked between polls.
func (r *Ring) Next(ctx context.Context) (*source.Frame, error) {
	if r.closed.Load() {
		return nil, core.ErrRingClosed
	}
	if r.outstanding {
		return nil, core.ErrFrameOutstanding
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.closed.Load() {
			return nil, core.ErrRingClosed
		}

		hdr := r.header(r.cursor)
		status := atomic.LoadUint32(&hdr.Status)
		if status&unix.TP_STATUS_USER == 0 {
			if err := r.wait(r.pollTimeout); err != nil {
				return nil, err
			}
			continue
		}

		if f, ok := r.frame(hdr, status); ok {
			return f, nil
		}
		// Slot offsets point outside the frame; give it back and move on.
		r.handBack(hdr)
	}
}

func (r *Ring) frame(hdr *unix.Tpacket2Hdr, status uint32) (*source.Frame, bool) {
	base := r.geo.offset(r.cursor)
	start := int(hdr.Mac)
	end := start + int(hdr.Snaplen)
	if start < unix.SizeofTpacket2Hdr || end > r.geo.FrameSize {
		return nil, false
	}

	lost := status&unix.TP_STATUS_LOSING != 0
	if lost {
		r.lost.Add(1)
	}
	r.frames.Add(1)
	r.outstanding = true

	ts := time.Unix(int64(hdr.Sec), int64(hdr.Nsec))
	data := r.mem[base+start : base+end : base+end]
	return source.NewFrame(data, ts, int(hdr.Len), lost, func() { r.handBack(hdr) }), true
}

// handBack returns the current slot to the kernel and advances the cursor.
func (r *Ring) handBack(hdr *unix.Tpacket2Hdr) {
	if !r.closed.Load() {
		atomic.StoreUint32(&hdr.Status, unix.TP_STATUS_KERNEL)
	}
	r.cursor = (r.cursor + 1) % r.geo.FrameCount
	r.outstanding = false
}

// Stats returns frames delivered and frames that carried the loss flag.
func (r *Ring) Stats() (frames, lost uint64) {
	return r.frames.Load(), r.lost.Load()
}

// Close unmaps the ring. It is safe to call more than once; the socket
// itself is owned by the caller.
func (r *Ring) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		if r.unmap != nil {
			r.closeErr = r.unmap(r.mem)
		}
	})
	return r.closeErr
}
