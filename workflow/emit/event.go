package emit

// Event describes a single observability event from workflow execution.
//
// The scheduler emits events at the boundaries of its state machine:
//
//   - "workflow_start", "workflow_complete", "workflow_failed" for the
//     workflow itself (Operation is empty),
//   - "operation_start", "operation_complete", "operation_skipped",
//     "operation_cancelled" for individual operations.
type Event struct {
	// WorkflowID identifies the workflow execution that emitted the
	// event.
	WorkflowID string

	// Operation is the name of the operation the event concerns, or ""
	// for workflow-level events and unnamed operations.
	Operation string

	// Msg names the event kind.
	Msg string

	// Meta carries additional structured data. Common keys:
	//   - "error": error text for failures
	//   - "failed": whether an operation completed with a failure
	//   - "duration_ms": operation execution time in milliseconds
	//   - "operations": operation count for workflow-level events
	Meta map[string]any
}
