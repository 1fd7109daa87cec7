package ring

import (
	"fmt"

	"golang.org/x/sys/unix"

	"firestige.xyz/ringsniff/internal/core"
)

const (
	DefaultFrameSize  = 2048
	DefaultBlockCount = 64
)

// Geometry describes the RX ring layout requested from the kernel.
type Geometry struct {
	FrameSize  int
	BlockSize  int
	BlockCount int
	FrameCount int
}

// Size is the number of bytes to map.
func (g Geometry) Size() int {
	return g.BlockSize * g.BlockCount
}

func (g Geometry) framesPerBlock() int {
	return g.BlockSize / g.FrameSize
}

// offset returns the byte offset of frame slot i. Frames never straddle blocks.
func (g Geometry) offset(i int) int {
	fpb := g.framesPerBlock()
	return (i/fpb)*g.BlockSize + (i%fpb)*g.FrameSize
}

// ComputeGeometry starts the block at one page and doubles it until it holds
// at least one frame.
func ComputeGeometry(frameSize, blockCount, pageSize int) (Geometry, error) {
	if frameSize <= unix.SizeofTpacket2Hdr || frameSize%unix.TPACKET_ALIGNMENT != 0 {
		return Geometry{}, fmt.Errorf("%w: frame size %d must exceed %d and be a multiple of %d",
			core.ErrConfigInvalid, frameSize, unix.SizeofTpacket2Hdr, unix.TPACKET_ALIGNMENT)
	}
	if blockCount <= 0 {
		return Geometry{}, fmt.Errorf("%w: block count must be positive, got %d", core.ErrConfigInvalid, blockCount)
	}
	if pageSize <= 0 {
		return Geometry{}, fmt.Errorf("%w: page size must be positive, got %d", core.ErrConfigInvalid, pageSize)
	}

	blockSize := pageSize
	for blockSize < frameSize {
		blockSize <<= 1
	}

	g := Geometry{
		FrameSize:  frameSize,
		BlockSize:  blockSize,
		BlockCount: blockCount,
	}
	g.FrameCount = g.framesPerBlock() * blockCount
	return g, nil
}
