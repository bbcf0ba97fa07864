package sinks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/citesync/internal/progress"
)

// DefaultDisplayWidth is the number of runes kept from each free-text field in the summary line.
const DefaultDisplayWidth = 50

// LogSink writes one structured log entry per event. Row events carry a human
// readable summary whose free-text fields are cut to the display width; the
// values written to the sheet are never affected.
type LogSink struct {
	logger *zap.Logger
	width  int
}

// NewLogSink wires a Zap logger to the sink interface. A width <= 0 selects DefaultDisplayWidth.
func NewLogSink(logger *zap.Logger, width int) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if width <= 0 {
		width = DefaultDisplayWidth
	}
	return &LogSink{logger: logger, width: width}
}

// Consume logs the event using structured fields.
func (s *LogSink) Consume(_ context.Context, evt progress.Event) error {
	fields := []zap.Field{
		zap.String("run_id", evt.RunID),
		zap.String("stage", string(evt.Stage)),
	}
	if evt.Page != "" {
		fields = append(fields, zap.String("page", evt.Page))
	}
	if evt.Row > 0 {
		fields = append(fields, zap.Int("row", evt.Row))
	}
	if evt.URL != "" {
		fields = append(fields, zap.String("url", evt.URL))
	}
	if evt.DocumentHash != "" {
		fields = append(fields, zap.String("document_hash", evt.DocumentHash))
	}
	if evt.Dur > 0 {
		fields = append(fields, zap.Duration("dur", evt.Dur))
	}
	if evt.Note != "" {
		fields = append(fields, zap.String("note", evt.Note))
	}

	switch evt.Stage {
	case progress.StageRowWritten:
		s.logger.Info(s.Summary(evt), fields...)
	case progress.StageWriteFailed, progress.StagePageError:
		s.logger.Error("progress event", fields...)
	case progress.StageRowSkipped:
		s.logger.Warn("progress event", fields...)
	default:
		s.logger.Info("progress event", fields...)
	}
	return nil
}

// Summary renders the record carried by a row event as a single display line.
func (s *LogSink) Summary(evt progress.Event) string {
	if evt.Record == nil {
		return fmt.Sprintf("row %d processed", evt.Row)
	}
	r := evt.Record
	return fmt.Sprintf("Results: Title=%s, Authors=%s, Year=%s, Keywords=%s, Number of pages: %s",
		truncate(r.Title, s.width),
		truncate(r.Authors, s.width),
		r.Year,
		truncate(r.Keywords, s.width),
		r.PageCount,
	)
}

// Close implements the Sink interface; it flushes the logger.
func (s *LogSink) Close(context.Context) error {
	_ = s.logger.Sync()
	return nil
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width])
}
