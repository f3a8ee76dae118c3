package emit

import "context"

// NullEmitter implements Emitter by discarding all events. It is the
// default emitter of a workflow: zero overhead, safe for concurrent
// use.
type NullEmitter struct{}

// NewNullEmitter creates an emitter that discards everything.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(Event) {}

// Flush does nothing and returns nil.
func (n *NullEmitter) Flush(context.Context) error { return nil }
