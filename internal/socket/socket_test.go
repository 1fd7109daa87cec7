package socket

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ringsniff/internal/core"
)

func TestHtons(t *testing.T) {
	assert.Equal(t, uint16(0x0300), htons(0x0003))
	assert.Equal(t, uint16(0xDD86), htons(0x86DD))
}

func TestProbeLoopbackIsManaged(t *testing.T) {
	monitor, err := IsMonitorMode("lo")
	require.NoError(t, err)
	assert.False(t, monitor)

	mode, err := ProbeMode("lo")
	require.NoError(t, err)
	assert.Equal(t, core.ModeManaged, mode)
}

func TestProbeUnknownInterface(t *testing.T) {
	_, err := IsMonitorMode("nosuchif0")
	assert.ErrorIs(t, err, core.ErrInterfaceNotFound)

	mode, err := ProbeMode("nosuchif0")
	assert.Error(t, err)
	assert.Equal(t, core.ModeManaged, mode)
}

func TestOpenUnknownInterface(t *testing.T) {
	_, err := Open("nosuchif0", false)
	assert.ErrorIs(t, err, core.ErrInterfaceNotFound)
}

func TestOpenLoopback(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("raw sockets require CAP_NET_RAW")
	}

	s, err := Open("lo", false)
	require.NoError(t, err)
	assert.Greater(t, s.FD(), 0)
	assert.Equal(t, "lo", s.Interface())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
