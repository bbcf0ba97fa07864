package progress

import "context"

// Sink consumes progress events one at a time, in emission order.
type Sink interface {
	Consume(ctx context.Context, evt Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// batch can remain agnostic about where events end up.
type Emitter interface {
	Emit(ctx context.Context, evt Event)
}

// Discard is an Emitter that drops every event.
type Discard struct{}

// Emit implements Emitter.
func (Discard) Emit(context.Context, Event) {}
