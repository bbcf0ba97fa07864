package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHubDeliversInOrder verifies every sink sees every event in emission order.
func TestHubDeliversInOrder(t *testing.T) {
	t.Parallel()

	a, b := newStubSink(nil), newStubSink(nil)
	hub := NewHub(Config{}, a, nil, b)

	for row := 2; row < 6; row++ {
		evt := sampleEvent(StageRowWritten)
		evt.Row = row
		hub.Emit(context.Background(), evt)
	}

	for _, sink := range []*stubSink{a, b} {
		rows := []int{}
		for _, evt := range sink.Events() {
			rows = append(rows, evt.Row)
		}
		assert.Equal(t, []int{2, 3, 4, 5}, rows)
	}
}

// TestHubDropsInvalidEvents ensures validation failures never reach sinks.
func TestHubDropsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := newStubSink(nil)
	hub := NewHub(Config{}, sink)

	evt := sampleEvent(StageRowWritten)
	evt.RunID = ""
	hub.Emit(context.Background(), evt)
	require.Empty(t, sink.Events())
}

// TestHubSinkErrorDoesNotStopFanOut asserts a failing sink does not starve later sinks.
func TestHubSinkErrorDoesNotStopFanOut(t *testing.T) {
	t.Parallel()

	failing := newStubSink(errors.New("boom"))
	ok := newStubSink(nil)
	hub := NewHub(Config{}, failing, ok)

	hub.Emit(context.Background(), sampleEvent(StagePageStart))
	require.Len(t, ok.Events(), 1)
}

// TestHubSinkContextSurvivesCancel verifies sinks receive a live context after the caller's is canceled.
func TestHubSinkContextSurvivesCancel(t *testing.T) {
	t.Parallel()

	sink := newStubSink(nil)
	hub := NewHub(Config{SinkTimeout: time.Second}, sink)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hub.Emit(ctx, sampleEvent(StageRunDone))
	require.Len(t, sink.Events(), 1)
	assert.NoError(t, sink.lastCtxErr)
}

// TestHubCloseIsIdempotent ensures Close closes sinks once and stops delivery.
func TestHubCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	sink := newStubSink(nil)
	hub := NewHub(Config{}, sink)
	require.NoError(t, hub.Close(context.Background()))
	require.NoError(t, hub.Close(context.Background()))
	assert.Equal(t, 1, sink.closed)

	hub.Emit(context.Background(), sampleEvent(StageRunStart))
	assert.Empty(t, sink.Events())
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Event) {}},
		{name: "missing ts", mutate: func(e *Event) { e.TS = time.Time{} }, wantErr: true},
		{name: "header row", mutate: func(e *Event) { e.Row = 1 }, wantErr: true},
		{name: "unknown stage", mutate: func(e *Event) { e.Stage = "NOPE" }, wantErr: true},
		{name: "negative dur", mutate: func(e *Event) { e.Dur = -time.Second }, wantErr: true},
		{name: "run level", mutate: func(e *Event) { e.Stage = StageRunStart; e.Page = ""; e.Row = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			evt := sampleEvent(StageRowWritten)
			tt.mutate(&evt)
			if tt.wantErr {
				assert.Error(t, evt.Validate())
			} else {
				assert.NoError(t, evt.Validate())
			}
		})
	}
}

type stubSink struct {
	mu         sync.Mutex
	events     []Event
	err        error
	closed     int
	lastCtxErr error
}

func newStubSink(err error) *stubSink {
	return &stubSink{err: err}
}

func (s *stubSink) Consume(ctx context.Context, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	s.lastCtxErr = ctx.Err()
	return s.err
}

func (s *stubSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *stubSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func sampleEvent(stage Stage) Event {
	return Event{
		RunID: "run-1",
		TS:    time.Now().UTC(),
		Stage: stage,
		Page:  "1.1",
		Row:   2,
		URL:   "https://example.com/a.pdf",
	}
}
