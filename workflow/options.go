package workflow

import (
	"errors"

	"github.com/avaneyev/workflow-go/workflow/emit"
)

// Option configures a workflow at construction.
//
// Options keep New small and extensible:
//
//	w, err := workflow.New(4,
//	    workflow.WithDelegate(delegate, workflow.NewSerialTarget()),
//	    workflow.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	)
type Option func(w *Workflow) error

// WithDelegate sets the delegate notified of terminal workflow events,
// and the target its calls are posted to. The target is required when a
// delegate is set: delegate calls are never made inline on scheduler
// goroutines.
func WithDelegate(delegate Delegate, target Target) Option {
	return func(w *Workflow) error {
		if delegate != nil && target == nil {
			return errors.New("workflow: a delegate requires a delegate target")
		}
		w.delegate = delegate
		w.delegateTarget = target
		return nil
	}
}

// WithMainTarget overrides the target used for operations that require
// the main thread. By default the workflow owns a private serial target
// that it tears down when it finishes.
func WithMainTarget(target Target) Option {
	return func(w *Workflow) error {
		if target == nil {
			return errors.New("workflow: main target must not be nil")
		}
		w.mainTarget = target
		return nil
	}
}

// WithBackgroundTarget overrides the target used for operations that do
// not require the main thread. Defaults to BackgroundTarget().
func WithBackgroundTarget(target Target) Option {
	return func(w *Workflow) error {
		if target == nil {
			return errors.New("workflow: background target must not be nil")
		}
		w.backgroundTarget = target
		return nil
	}
}

// WithEmitter routes the workflow's observability events to the given
// emitter. Defaults to emit.NewNullEmitter().
func WithEmitter(emitter emit.Emitter) Option {
	return func(w *Workflow) error {
		if emitter == nil {
			return errors.New("workflow: emitter must not be nil")
		}
		w.emitter = emitter
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection for the workflow.
// A nil Metrics disables collection, which is also the default.
func WithMetrics(m *Metrics) Option {
	return func(w *Workflow) error {
		w.metrics = m
		return nil
	}
}

// WithID assigns the workflow identifier carried by events and exposed
// through ID. Defaults to a random UUID.
func WithID(id string) Option {
	return func(w *Workflow) error {
		if id == "" {
			return errors.New("workflow: id must not be empty")
		}
		w.id = id
		return nil
	}
}
