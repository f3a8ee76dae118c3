// Package emit provides pluggable observability for workflow execution.
package emit

import "context"

// Emitter receives observability events from workflow execution.
//
// Emitters make the backend pluggable: logging, in-memory capture for
// tests and dashboards, or distributed tracing. Implementations should
// be:
//
//   - Non-blocking: Emit is called on scheduler goroutines and must not
//     stall execution.
//   - Thread-safe: events arrive concurrently from multiple operations.
//   - Resilient: a failing backend must not panic or fail the workflow.
type Emitter interface {
	// Emit sends one event. Errors are handled internally; Emit must
	// not panic.
	Emit(event Event)

	// Flush delivers any buffered events, blocking until they are sent,
	// the context is cancelled, or delivery fails. It is idempotent.
	// Call it before shutdown to avoid losing events.
	Flush(ctx context.Context) error
}
