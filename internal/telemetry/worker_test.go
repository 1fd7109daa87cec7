package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ringsniff/internal/core"
)

type recordingSink struct {
	name     string
	packets  bool
	failOn   int
	mu       sync.Mutex
	got      []core.LogEvent
	closed   int
	closeErr error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Accepts(ev core.LogEvent) bool {
	_, isPacket := ev.(core.PacketEvent)
	return isPacket == s.packets
}

func (s *recordingSink) Send(ev core.LogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	if s.failOn > 0 && len(s.got) == s.failOn {
		return errors.New("send failed")
	}
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.closeErr
}

func (s *recordingSink) events() []core.LogEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LogEvent(nil), s.got...)
}

func TestWorkerRoutesAndDrains(t *testing.T) {
	q := NewQueue(0)
	packets := &recordingSink{name: "udp", packets: true}
	texts := &recordingSink{name: "text"}

	require.NoError(t, q.Push(core.Text("first", nil)))
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Push(core.PacketEvent{Meta: core.PacketMetadata{PacketSize: i}}))
	}
	require.NoError(t, q.Push(core.Warn("last", nil)))
	q.Close()

	w := NewWorker(q, []Sink{packets, texts})
	require.NoError(t, w.Run())

	gotPackets := packets.events()
	require.Len(t, gotPackets, 3)
	for i, ev := range gotPackets {
		assert.Equal(t, i+1, ev.(core.PacketEvent).Meta.PacketSize)
	}
	gotTexts := texts.events()
	require.Len(t, gotTexts, 2)
	assert.Equal(t, "first", gotTexts[0].(core.TextEvent).Message)
	assert.Equal(t, "last", gotTexts[1].(core.TextEvent).Message)

	assert.Equal(t, 1, packets.closed)
	assert.Equal(t, 1, texts.closed)
	assert.Equal(t, WorkerStats{Events: 5, Packets: 3, Texts: 2, Sent: 5}, w.Stats())
}

func TestWorkerAbsorbsSendFailures(t *testing.T) {
	q := NewQueue(0)
	sink := &recordingSink{name: "udp", packets: true, failOn: 2}

	var (
		mu       sync.Mutex
		observed []error
	)
	w := NewWorker(q, []Sink{sink}, WithObserver(func(name string, ev core.LogEvent, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "udp", name)
		observed = append(observed, err)
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(core.PacketEvent{}))
	}
	q.Close()
	require.NoError(t, w.Run())

	assert.Len(t, sink.events(), 3)
	stats := w.Stats()
	assert.Equal(t, uint64(2), stats.Sent)
	assert.Equal(t, uint64(1), stats.Failed)
	require.Len(t, observed, 3)
	assert.NoError(t, observed[0])
	assert.Error(t, observed[1])
	assert.NoError(t, observed[2])
}

func TestWorkerDeliversEventsPushedWhileRunning(t *testing.T) {
	q := NewQueue(0)
	sink := &recordingSink{name: "udp", packets: true}
	w := NewWorker(q, []Sink{sink})

	done := make(chan error, 1)
	go func() { done <- w.Run() }()

	for i := 0; i < 100; i++ {
		require.NoError(t, q.Push(core.PacketEvent{Meta: core.PacketMetadata{PacketSize: i}}))
	}
	q.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after close")
	}

	got := sink.events()
	require.Len(t, got, 100)
	for i, ev := range got {
		assert.Equal(t, i, ev.(core.PacketEvent).Meta.PacketSize)
	}
}

func TestWorkerJoinsCloseErrors(t *testing.T) {
	q := NewQueue(0)
	q.Close()
	bad := &recordingSink{name: "kafka", closeErr: errors.New("flush failed")}
	w := NewWorker(q, []Sink{bad, &recordingSink{name: "text"}})

	err := w.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close kafka sink")
}
