package progress

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Config controls the Hub.
//   - SinkTimeout: per-sink timeout for each event (default 10s).
//   - Logger: optional structured logger used for warnings.
type Config struct {
	SinkTimeout time.Duration
	Logger      *zap.Logger
}

const defaultSinkTimeout = 10 * time.Second

// Hub fans each Event out to the registered sinks in registration order. Emit
// returns once every sink has seen the event, so events reach sinks in the
// order they were emitted.
type Hub struct {
	cfg    Config
	sinks  []Sink
	logger *zap.Logger
	closed bool
}

// NewHub initializes a Hub with the supplied sinks. Nil sinks are ignored.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = defaultSinkTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{cfg: cfg, logger: logger}
	for _, s := range sinks {
		if s != nil {
			h.sinks = append(h.sinks, s)
		}
	}
	return h
}

// Emit validates evt and hands it to every sink. Invalid events are dropped
// with a debug log; sink errors are logged as warnings.
func (h *Hub) Emit(ctx context.Context, evt Event) {
	if h == nil || h.closed {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, sink := range h.sinks {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.cfg.SinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			h.logger.Warn("progress sink consume failed",
				zap.String("stage", string(evt.Stage)),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Close closes every sink. Subsequent Emit calls are ignored.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil || h.closed {
		return nil
	}
	h.closed = true
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, sink := range h.sinks {
		if err := sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
