package emit

import (
	"context"
	"sync"
)

// BufferedEmitter implements Emitter by capturing events in memory,
// organized per workflow. It backs tests, debugging sessions, and
// post-execution analysis.
//
// Everything stays in memory: long-running deployments with many
// workflows should Clear finished runs or use a different backend.
//
//	emitter := emit.NewBufferedEmitter()
//	w, _ := workflow.New(4, workflow.WithEmitter(emitter), workflow.WithID("run-001"))
//	// ... run the workflow ...
//	history := emitter.History("run-001")
//	skips := emitter.HistoryMatching("run-001", emit.Filter{Msg: "operation_skipped"})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// Filter selects a subset of a workflow's history. Empty fields match
// everything; set fields are combined with AND.
type Filter struct {
	// Operation matches events for one operation name.
	Operation string

	// Msg matches one event kind, e.g. "operation_complete".
	Msg string
}

// NewBufferedEmitter creates an empty in-memory emitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit appends the event to its workflow's history.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.WorkflowID] = append(b.events[event.WorkflowID], event)
}

// History returns a copy of all events captured for a workflow, in
// emission order.
func (b *BufferedEmitter) History(workflowID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[workflowID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// HistoryMatching returns the events of a workflow that match the
// filter, in emission order.
func (b *BufferedEmitter) HistoryMatching(workflowID string, filter Filter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Event
	for _, event := range b.events[workflowID] {
		if filter.Operation != "" && event.Operation != filter.Operation {
			continue
		}
		if filter.Msg != "" && event.Msg != filter.Msg {
			continue
		}
		out = append(out, event)
	}
	return out
}

// Clear drops the captured history of one workflow.
func (b *BufferedEmitter) Clear(workflowID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, workflowID)
}

// ClearAll drops all captured history.
func (b *BufferedEmitter) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(map[string][]Event)
}

// Flush is a no-op: events are already in memory.
func (b *BufferedEmitter) Flush(context.Context) error { return nil }
