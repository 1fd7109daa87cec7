package afpacket

import (
	"fmt"

	"firestige.xyz/ringsniff/internal/core"
)

const (
	tpacketAlignment = 16
	// TPACKET3 block descriptor plus per-frame header, rounded up.
	tpacketHdrLen = 52
	maxBlockSize  = 4 << 20
)

// layoutForBudget sizes a TPACKET_V3 ring so that blockSize*numBlocks is close
// to bufferMB megabytes. blockSize is page aligned and a multiple of frameSize.
func layoutForBudget(bufferMB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if bufferMB <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: buffer_mb must be positive, got %d", core.ErrConfigInvalid, bufferMB)
	}
	if snapLen <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: snap length must be positive, got %d", core.ErrConfigInvalid, snapLen)
	}
	if pageSize <= 0 || pageSize%tpacketAlignment != 0 {
		return 0, 0, 0, fmt.Errorf("%w: page size %d not a multiple of %d", core.ErrConfigInvalid, pageSize, tpacketAlignment)
	}

	frameSize = alignUp(tpacketHdrLen+snapLen, tpacketAlignment)

	blockSize = lcm(pageSize, frameSize)
	if blockSize > maxBlockSize {
		// A power-of-two frame always tiles a page-aligned block.
		frameSize = nextPow2(frameSize)
		blockSize = max(pageSize, frameSize)
	}

	numBlocks = max(bufferMB<<20/blockSize, 1)
	return frameSize, blockSize, numBlocks, nil
}

func alignUp(n, to int) int {
	return (n + to - 1) / to * to
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
