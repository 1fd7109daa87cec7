// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CaptureFramesTotal counts frames read from a capture source.
	CaptureFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringsniff_capture_frames_total",
			Help: "Total number of frames read from the capture source",
		},
		[]string{"interface", "engine"},
	)

	// CaptureLossTotal counts loss reports from the kernel ring.
	CaptureLossTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringsniff_capture_loss_total",
			Help: "Total number of frames flagged by the kernel as following a drop",
		},
		[]string{"interface", "engine"},
	)

	// DecodedFramesTotal counts decoded frames by dispatch mode and outcome
	// (emitted or filtered).
	DecodedFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringsniff_decoded_frames_total",
			Help: "Total number of frames decoded, by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// HandshakesTotal counts EAPOL frames detected.
	HandshakesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ringsniff_handshakes_total",
			Help: "Total number of EAPOL handshake frames detected",
		},
	)

	// TelemetryEventsTotal counts delivery attempts per sink and result.
	TelemetryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringsniff_telemetry_events_total",
			Help: "Total number of telemetry delivery attempts, by sink and result",
		},
		[]string{"sink", "result"},
	)

	// TelemetryQueueDepth tracks events waiting for the telemetry worker.
	TelemetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ringsniff_telemetry_queue_depth",
			Help: "Number of events waiting in the telemetry queue",
		},
	)
)

// Outcome labels for DecodedFramesTotal.
const (
	OutcomeEmitted  = "emitted"
	OutcomeFiltered = "filtered"
)

// Result labels for TelemetryEventsTotal.
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// ObserveTelemetry records one delivery attempt.
func ObserveTelemetry(sink string, err error) {
	result := ResultSent
	if err != nil {
		result = ResultFailed
	}
	TelemetryEventsTotal.WithLabelValues(sink, result).Inc()
}
