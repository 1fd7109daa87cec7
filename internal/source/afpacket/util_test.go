package afpacket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ringsniff/internal/core"
)

func TestLayoutForBudget(t *testing.T) {
	tests := []struct {
		name     string
		bufferMB int
		snapLen  int
		pageSize int
	}{
		{"default snap", 8, 2048, 4096},
		{"jumbo", 64, 9000, 4096},
		{"small", 1, 128, 4096},
		{"odd snap", 4, 1517, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, block, blocks, err := layoutForBudget(tt.bufferMB, tt.snapLen, tt.pageSize)
			require.NoError(t, err)

			assert.Zero(t, frame%tpacketAlignment, "frame aligned")
			assert.GreaterOrEqual(t, frame, tt.snapLen+tpacketHdrLen)
			assert.Zero(t, block%tt.pageSize, "block page aligned")
			assert.Zero(t, block%frame, "block holds whole frames")
			assert.LessOrEqual(t, block, maxBlockSize)
			assert.GreaterOrEqual(t, blocks, 1)
		})
	}
}

func TestLayoutForBudgetInvalid(t *testing.T) {
	for _, args := range [][3]int{{0, 2048, 4096}, {8, 0, 4096}, {8, 2048, 0}, {8, 2048, 4095}} {
		_, _, _, err := layoutForBudget(args[0], args[1], args[2])
		assert.ErrorIs(t, err, core.ErrConfigInvalid, "args %v", args)
	}
}
