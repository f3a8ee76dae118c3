package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogEmitter implements Emitter by writing structured log output to a
// writer.
//
// Two output modes are supported:
//   - Text mode (default): human-readable key=value lines.
//   - JSON mode: one JSON object per line (JSONL), machine-readable.
//
// Example text output:
//
//	[operation_start] workflow=run-001 operation=fetch
//	[operation_complete] workflow=run-001 operation=fetch meta={"failed":false}
//
// Example JSON output:
//
//	{"workflowID":"run-001","operation":"fetch","msg":"operation_start","meta":null}
//
// Writes are serialized internally, so a LogEmitter may be shared by
// concurrent workflows even over an unsynchronized writer.
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to the given writer. A nil
// writer defaults to os.Stdout. jsonMode selects JSONL output over the
// text format.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes one event in the configured format.
func (l *LogEmitter) Emit(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		WorkflowID string         `json:"workflowID"`
		Operation  string         `json:"operation"`
		Msg        string         `json:"msg"`
		Meta       map[string]any `json:"meta"`
	}{
		WorkflowID: event.WorkflowID,
		Operation:  event.Operation,
		Msg:        event.Msg,
		Meta:       event.Meta,
	})
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] workflow=%s operation=%s",
		event.Msg, event.WorkflowID, event.Operation)

	if len(event.Meta) > 0 {
		metaJSON, err := json.Marshal(event.Meta)
		if err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			_, _ = fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}

	_, _ = fmt.Fprint(l.writer, "\n")
}

// Flush is a no-op: LogEmitter writes through to the underlying writer.
// Wrap the writer in a bufio.Writer and flush that if buffering is
// wanted.
func (l *LogEmitter) Flush(context.Context) error { return nil }
