package sinks

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/progress"
)

// PublishSink forwards events to a Publisher topic as JSON payloads.
type PublishSink struct {
	publisher citation.Publisher
	topic     string
}

// NewPublishSink wires a Publisher to the sink interface.
func NewPublishSink(publisher citation.Publisher, topic string) (*PublishSink, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	return &PublishSink{publisher: publisher, topic: topic}, nil
}

// Consume publishes the event.
func (s *PublishSink) Consume(ctx context.Context, evt progress.Event) error {
	if _, err := s.publisher.Publish(ctx, s.topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", evt.Stage, err)
	}
	return nil
}

// Close implements the Sink interface.
func (s *PublishSink) Close(context.Context) error {
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
