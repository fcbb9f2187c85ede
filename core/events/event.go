package events

import "nttcore/core/types"

// Event is anything that can report its own canonical type string before
// being handed to an Emitter.
type Event interface {
	EventType() string
	Payload() *types.Event
}

// Emitter broadcasts events to downstream subscribers (indexers, RPC
// streams, metrics scrapers). The rate limiter, aggregator and manager
// engines each hold one and never assume a particular sink.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event. It is the default for every engine
// until a caller installs a real sink via SetEmitter.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}

type wrapped struct {
	evt *types.Event
}

func (w wrapped) EventType() string {
	if w.evt == nil {
		return ""
	}
	return w.evt.Type
}

func (w wrapped) Payload() *types.Event { return w.evt }

// Wrap adapts a *types.Event into the Event interface expected by an
// Emitter.
func Wrap(evt *types.Event) Event { return wrapped{evt: evt} }
