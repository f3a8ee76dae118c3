package emit

import (
	"context"
	"sync"
	"testing"
)

func TestBufferedEmitter_History(t *testing.T) {
	emitter := NewBufferedEmitter()

	emitter.Emit(Event{WorkflowID: "run-1", Msg: "workflow_start"})
	emitter.Emit(Event{WorkflowID: "run-1", Operation: "a", Msg: "operation_start"})
	emitter.Emit(Event{WorkflowID: "run-2", Msg: "workflow_start"})

	history := emitter.History("run-1")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Msg != "workflow_start" || history[1].Operation != "a" {
		t.Errorf("history out of order: %+v", history)
	}
	if len(emitter.History("run-2")) != 1 {
		t.Error("runs must be kept separate")
	}
	if len(emitter.History("unknown")) != 0 {
		t.Error("unknown run should have empty history")
	}
}

func TestBufferedEmitter_HistoryIsACopy(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{WorkflowID: "run-1", Msg: "workflow_start"})

	history := emitter.History("run-1")
	history[0].Msg = "mutated"

	if got := emitter.History("run-1")[0].Msg; got != "workflow_start" {
		t.Errorf("stored event mutated through returned slice: %q", got)
	}
}

func TestBufferedEmitter_Filter(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{WorkflowID: "r", Operation: "a", Msg: "operation_start"})
	emitter.Emit(Event{WorkflowID: "r", Operation: "a", Msg: "operation_complete"})
	emitter.Emit(Event{WorkflowID: "r", Operation: "b", Msg: "operation_start"})

	byOp := emitter.HistoryMatching("r", Filter{Operation: "a"})
	if len(byOp) != 2 {
		t.Errorf("filter by operation = %d events, want 2", len(byOp))
	}
	byMsg := emitter.HistoryMatching("r", Filter{Msg: "operation_start"})
	if len(byMsg) != 2 {
		t.Errorf("filter by msg = %d events, want 2", len(byMsg))
	}
	both := emitter.HistoryMatching("r", Filter{Operation: "b", Msg: "operation_start"})
	if len(both) != 1 {
		t.Errorf("combined filter = %d events, want 1", len(both))
	}
}

func TestBufferedEmitter_Clear(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{WorkflowID: "r1", Msg: "workflow_start"})
	emitter.Emit(Event{WorkflowID: "r2", Msg: "workflow_start"})

	emitter.Clear("r1")
	if len(emitter.History("r1")) != 0 {
		t.Error("Clear should drop the run's history")
	}
	if len(emitter.History("r2")) != 1 {
		t.Error("Clear must not touch other runs")
	}

	emitter.ClearAll()
	if len(emitter.History("r2")) != 0 {
		t.Error("ClearAll should drop everything")
	}
}

func TestBufferedEmitter_ConcurrentEmit(t *testing.T) {
	emitter := NewBufferedEmitter()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				emitter.Emit(Event{WorkflowID: "r", Msg: "operation_start"})
			}
		}()
	}
	wg.Wait()

	if got := len(emitter.History("r")); got != 400 {
		t.Errorf("captured %d events, want 400", got)
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush = %v, want nil", err)
	}
}
