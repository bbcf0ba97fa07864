package sinks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/progress"
	"github.com/JakeFAU/citesync/internal/publisher/memory"
)

func rowEvent(rec *citation.Record) progress.Event {
	return progress.Event{
		RunID:  "run-1",
		TS:     time.Now().UTC(),
		Stage:  progress.StageRowWritten,
		Page:   "1.1",
		Row:    2,
		URL:    "https://example.com/a.pdf",
		Record: rec,
	}
}

func TestLogSinkSummaryTruncatesForDisplayOnly(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 80)
	rec := &citation.Record{
		Metadata:  citation.Metadata{Title: long, Authors: "Ada Lovelace", Year: "1843", Keywords: citation.NotAvailable},
		PageCount: citation.Pages(12),
	}
	sink := NewLogSink(nil, 0)

	got := sink.Summary(rowEvent(rec))
	assert.Equal(t,
		"Results: Title="+strings.Repeat("é", DefaultDisplayWidth)+", Authors=Ada Lovelace, Year=1843, Keywords=N/A, Number of pages: 12",
		got)
	assert.Equal(t, long, rec.Title)
}

func TestLogSinkLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	sink := NewLogSink(zap.New(core), 10)
	rec := &citation.Record{Metadata: citation.UnknownMetadata(), PageCount: citation.UnknownPageCount}

	require.NoError(t, sink.Consume(context.Background(), rowEvent(rec)))
	failed := rowEvent(rec)
	failed.Stage = progress.StageWriteFailed
	require.NoError(t, sink.Consume(context.Background(), failed))
	skipped := rowEvent(nil)
	skipped.Stage = progress.StageRowSkipped
	require.NoError(t, sink.Consume(context.Background(), skipped))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "Number of pages: N/A")
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, int64(2), entries[0].ContextMap()["row"])
}

func TestPublishSink(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	sink, err := NewPublishSink(pub, "citesync-progress")
	require.NoError(t, err)

	evt := rowEvent(nil)
	require.NoError(t, sink.Consume(context.Background(), evt))
	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "citesync-progress", msgs[0].Topic)
	assert.Equal(t, evt, msgs[0].Payload)
	require.NoError(t, sink.Close(context.Background()))
}

func TestPublishSinkErrors(t *testing.T) {
	t.Parallel()

	_, err := NewPublishSink(nil, "topic")
	require.Error(t, err)
	_, err = NewPublishSink(memory.New(), "")
	require.Error(t, err)

	sink, err := NewPublishSink(failingPublisher{}, "topic")
	require.NoError(t, err)
	err = sink.Consume(context.Background(), rowEvent(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROW_WRITTEN")
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) (string, error) {
	return "", errors.New("unavailable")
}
