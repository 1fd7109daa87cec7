package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTelemetry(t *testing.T) {
	sent := testutil.ToFloat64(TelemetryEventsTotal.WithLabelValues("udp", ResultSent))
	failed := testutil.ToFloat64(TelemetryEventsTotal.WithLabelValues("udp", ResultFailed))

	ObserveTelemetry("udp", nil)
	ObserveTelemetry("udp", nil)
	ObserveTelemetry("udp", errors.New("refused"))

	assert.Equal(t, sent+2, testutil.ToFloat64(TelemetryEventsTotal.WithLabelValues("udp", ResultSent)))
	assert.Equal(t, failed+1, testutil.ToFloat64(TelemetryEventsTotal.WithLabelValues("udp", ResultFailed)))
}

func TestServerExposesMetrics(t *testing.T) {
	s := NewServer("127.0.0.1:0", "")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	CaptureFramesTotal.WithLabelValues("lo", "ring").Add(3)
	HandshakesTotal.Inc()

	resp, err := http.Get("http://" + s.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ringsniff_capture_frames_total{engine="ring",interface="lo"}`)
	assert.Contains(t, string(body), "ringsniff_handshakes_total")
}

func TestServerStartFailsOnBusyAddress(t *testing.T) {
	first := NewServer("127.0.0.1:0", "/m")
	require.NoError(t, first.Start(context.Background()))
	defer first.Stop(context.Background())

	second := NewServer(first.Addr().String(), "/m")
	assert.Error(t, second.Start(context.Background()))
	assert.NoError(t, second.Stop(context.Background()))
}
