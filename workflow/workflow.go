package workflow

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avaneyev/workflow-go/workflow/emit"
)

// Delegate receives terminal workflow notifications. Calls are posted
// to the delegate target supplied with WithDelegate and never made
// while the scheduler holds its lock. Exactly one of the two methods is
// invoked per workflow, exactly once.
type Delegate interface {
	// WorkflowDidComplete is sent when the workflow successfully
	// completes: every operation either finished or was skipped.
	WorkflowDidComplete(w *Workflow)

	// WorkflowDidFail is sent when the workflow fails validation or
	// deadlocks. The error is an *Error carrying the failure code.
	WorkflowDidFail(w *Workflow, err error)
}

type workflowState int

const (
	workflowIdle workflowState = iota
	workflowActive
	workflowCompleted
	workflowFailed
)

type edgeKind int

const (
	edgeDependency edgeKind = iota
	edgeSegue
)

// edge is a connection resolved to concrete operation states.
type edge struct {
	kind      edgeKind
	source    *operationState
	target    *operationState
	condition Condition // segues only; nil always passes
}

// operationState is the scheduler-owned bookkeeping for one operation.
// All fields are guarded by the workflow mutex.
type operationState struct {
	op    Operation
	index int // insertion order, tiebreak for ready ordering
	name  string

	active   bool
	finished bool
	started  bool
	skipped  bool
	queued   bool

	// blockedBy counts incoming dependency edges with unfinished
	// sources plus incoming segue edges that have not resolved yet.
	blockedBy int

	// segueCount and seguePending track incoming segues; an operation
	// with incoming segues may start only once at least one of them
	// fired. When all resolve and none fired, the operation is skipped.
	segueCount     int
	seguePending   int
	segueSatisfied bool

	outgoing []*edge

	startedAt time.Time
}

// reached reports whether the operation is reachable: some incoming
// segue fired, or it has none.
func (s *operationState) reached() bool {
	return s.segueCount == 0 || s.segueSatisfied
}

func (s *operationState) displayName() string {
	if s.name != "" {
		return s.name
	}
	return fmt.Sprintf("#%d", s.index)
}

// Workflow owns a set of operations and the connections between them,
// and executes the operations under a concurrency ceiling once started.
//
// A workflow is built while idle (operations, dependencies, and segues
// may be added in any order) and started exactly once. Start resolves
// named references, validates the graph (duplicate names, unresolvable
// endpoints, cycles, deadlock topology), and begins dispatching ready
// operations: an operation is ready when all its dependency sources
// have finished and, if it has incoming segues, all of them have
// resolved and at least one of them fired. Operations that require the main thread are dispatched on the
// main target, everything else on the background target.
//
// Operation failures do not fail the workflow: a dependency is about
// ordering, not success, and segue conditions are the tool for
// branching on results. The workflow ends in one of two terminal
// states: completed, when every operation finished or was skipped; or
// failed, when validation rejected the graph or execution drained with
// operations still blocked (Deadlocked).
//
//	a := workflow.NewBlockOperation("a", false, produce)
//	b := workflow.NewBlockOperation("b", false, consume)
//	w, _ := workflow.New(2)
//	_ = w.AddOperation(a)
//	_ = w.AddOperation(b)
//	_ = w.AddDependency(workflow.NewDependency(a, b))
//	if err := w.Start(); err != nil {
//	    // validation failed
//	}
//	<-w.Done()
type Workflow struct {
	mu sync.Mutex

	id            string
	maxConcurrent int

	state workflowState
	err   error

	context *Context

	operations   []Operation
	states       map[Operation]*operationState
	dependencies []Dependency
	segues       []Segue

	// ready is the FIFO of dispatchable operations; inFlight counts
	// operations between dispatch and completion. settling counts
	// completions whose segue conditions are being evaluated outside
	// the lock, so terminal detection waits for their edges to apply.
	ready    []*operationState
	inFlight int
	settling int

	mainTarget       Target
	backgroundTarget Target
	ownMain          *SerialTarget

	delegate       Delegate
	delegateTarget Target

	emitter emit.Emitter
	metrics *Metrics

	done chan struct{}
}

// New creates an idle workflow. maxConcurrent bounds the number of
// operations executing at any moment and must be positive.
func New(maxConcurrent int, opts ...Option) (*Workflow, error) {
	if maxConcurrent <= 0 {
		return nil, fmt.Errorf("workflow: maximum concurrent operations must be positive, got %d", maxConcurrent)
	}
	w := &Workflow{
		maxConcurrent:    maxConcurrent,
		states:           make(map[Operation]*operationState),
		backgroundTarget: BackgroundTarget(),
		emitter:          emit.NewNullEmitter(),
		done:             make(chan struct{}),
	}
	w.context = newContext(w)
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	if w.id == "" {
		w.id = uuid.NewString()
	}
	return w, nil
}

// ID returns the workflow identifier.
func (w *Workflow) ID() string { return w.id }

// Context returns the workflow's shared store.
func (w *Workflow) Context() *Context { return w.context }

// Active reports whether the workflow has started and not yet reached a
// terminal state.
func (w *Workflow) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == workflowActive
}

// Completed reports whether the workflow reached successful completion.
func (w *Workflow) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == workflowCompleted
}

// Failed reports whether the workflow failed.
func (w *Workflow) Failed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == workflowFailed
}

// Err returns the failure of a failed workflow, or nil.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Operations returns the operations added so far, in insertion order.
func (w *Workflow) Operations() []Operation {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Operation, len(w.operations))
	copy(out, w.operations)
	return out
}

// OperationCount returns the number of operations added so far.
func (w *Workflow) OperationCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.operations)
}

// Done returns a channel closed when the workflow reaches a terminal
// state, after all results are applied to the context.
func (w *Workflow) Done() <-chan struct{} {
	return w.done
}

// AddOperation adds an operation to an idle workflow. The same
// operation may be added once; name uniqueness is validated at Start.
func (w *Workflow) AddOperation(op Operation) error {
	if op == nil {
		return errors.New("workflow: operation must not be nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != workflowIdle {
		return errors.New("workflow: operations may be added only before start")
	}
	if _, present := w.states[op]; present {
		return errors.New("workflow: operation already added")
	}
	st := &operationState{op: op, index: len(w.operations), name: op.Name()}
	w.operations = append(w.operations, op)
	w.states[op] = st
	return nil
}

// AddDependency adds a dependency to an idle workflow. The descriptor
// goes through quick sanity checks and is copied; endpoint resolution
// happens at Start.
func (w *Workflow) AddDependency(dependency *Dependency) error {
	if dependency == nil {
		return errors.New("workflow: dependency must not be nil")
	}
	if err := sanityCheckConnection(&dependency.Connection, "dependency"); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != workflowIdle {
		return errors.New("workflow: dependencies may be added only before start")
	}
	w.dependencies = append(w.dependencies, *dependency)
	return nil
}

// AddSegue adds a segue to an idle workflow. The descriptor goes
// through quick sanity checks and is copied; endpoint resolution
// happens at Start.
func (w *Workflow) AddSegue(segue *Segue) error {
	if segue == nil {
		return errors.New("workflow: segue must not be nil")
	}
	if err := sanityCheckConnection(&segue.Connection, "segue"); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != workflowIdle {
		return errors.New("workflow: segues may be added only before start")
	}
	w.segues = append(w.segues, *segue)
	return nil
}

func sanityCheckConnection(c *Connection, kind string) error {
	if c.SourceOperation == nil && c.SourceName == "" {
		return fmt.Errorf("workflow: %s requires a source operation or name", kind)
	}
	if c.TargetOperation == nil && c.TargetName == "" {
		return fmt.Errorf("workflow: %s requires a target operation or name", kind)
	}
	return nil
}

// Start validates the graph and begins execution. It is single-shot:
// a second call is rejected regardless of the first call's outcome.
//
// Validation failures transition the workflow to failed, notify the
// delegate, and are also returned synchronously. An empty workflow
// completes immediately.
func (w *Workflow) Start() error {
	w.mu.Lock()
	if w.state != workflowIdle {
		w.mu.Unlock()
		return errors.New("workflow: start is single-shot and the workflow is not idle")
	}

	if err := w.validateLocked(); err != nil {
		w.state = workflowFailed
		w.err = err
		w.mu.Unlock()
		w.finishTerminal(false, err)
		return err
	}

	w.state = workflowActive
	if len(w.operations) == 0 {
		w.state = workflowCompleted
		w.mu.Unlock()
		w.emitWorkflow("workflow_start", map[string]any{"operations": 0})
		w.finishTerminal(true, nil)
		return nil
	}

	if w.mainTarget == nil {
		w.ownMain = NewSerialTarget()
		w.mainTarget = w.ownMain
	}

	// Seed the ready queue in insertion order.
	for _, op := range w.operations {
		st := w.states[op]
		if st.blockedBy == 0 && st.reached() {
			st.queued = true
			w.ready = append(w.ready, st)
		}
	}
	total := len(w.operations)
	launches := w.takeLaunchesLocked()
	w.mu.Unlock()

	w.emitWorkflow("workflow_start", map[string]any{"operations": total})
	w.launch(launches)
	return nil
}

// validateLocked resolves names and edges and rejects invalid graphs.
// It mutates per-operation bookkeeping; on failure the workflow never
// becomes active, so partially applied counts are inert.
func (w *Workflow) validateLocked() error {
	names := make(map[string]*operationState, len(w.operations))
	for _, op := range w.operations {
		st := w.states[op]
		if st.name == "" {
			continue
		}
		if _, dup := names[st.name]; dup {
			return newError(DuplicateNames, "two operations share the name %q", st.name)
		}
		names[st.name] = st
	}

	for i := range w.dependencies {
		d := &w.dependencies[i]
		source, err := w.resolveEndpointLocked(d.SourceOperation, d.SourceName, names, InvalidDependency, "dependency source")
		if err != nil {
			return err
		}
		target, err := w.resolveEndpointLocked(d.TargetOperation, d.TargetName, names, InvalidDependency, "dependency target")
		if err != nil {
			return err
		}
		e := &edge{kind: edgeDependency, source: source, target: target}
		source.outgoing = append(source.outgoing, e)
		target.blockedBy++
	}

	for i := range w.segues {
		s := &w.segues[i]
		source, err := w.resolveEndpointLocked(s.SourceOperation, s.SourceName, names, InvalidSegue, "segue source")
		if err != nil {
			return err
		}
		target, err := w.resolveEndpointLocked(s.TargetOperation, s.TargetName, names, InvalidSegue, "segue target")
		if err != nil {
			return err
		}
		e := &edge{kind: edgeSegue, source: source, target: target, condition: s.Condition}
		source.outgoing = append(source.outgoing, e)
		target.blockedBy++
		target.segueCount++
		target.seguePending++
	}

	if err := w.detectCycleLocked(); err != nil {
		return err
	}

	if len(w.operations) > 0 {
		ready := false
		for _, op := range w.operations {
			st := w.states[op]
			if st.blockedBy == 0 && st.reached() {
				ready = true
				break
			}
		}
		if !ready {
			return newError(Deadlocked, "no operation is ready to start")
		}
	}
	return nil
}

// resolveEndpointLocked resolves one connection endpoint. An operation
// object wins over a name; either must identify an operation added to
// the workflow.
func (w *Workflow) resolveEndpointLocked(op Operation, name string, names map[string]*operationState, code ErrorCode, what string) (*operationState, error) {
	if op != nil {
		st, present := w.states[op]
		if !present {
			return nil, newError(code, "%s operation was never added to the workflow", what)
		}
		return st, nil
	}
	if name != "" {
		st, present := names[name]
		if !present {
			return nil, newError(code, "%s name %q does not resolve to an operation", what, name)
		}
		return st, nil
	}
	return nil, newError(code, "%s specifies neither an operation nor a name", what)
}

// detectCycleLocked runs an iterative depth-first traversal over all
// edges, conditional segues included: a declared connection is a
// declared ordering, whether or not its condition ends up passing.
func (w *Workflow) detectCycleLocked() error {
	const (
		white = iota
		grey
		black
	)
	type frame struct {
		st   *operationState
		next int
	}

	color := make(map[*operationState]int, len(w.operations))
	for _, op := range w.operations {
		start := w.states[op]
		if color[start] != white {
			continue
		}
		color[start] = grey
		stack := []frame{{st: start}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(f.st.outgoing) {
				e := f.st.outgoing[f.next]
				f.next++
				switch color[e.target] {
				case white:
					color[e.target] = grey
					stack = append(stack, frame{st: e.target})
				case grey:
					return newError(DependencyCycle, "connection cycle through operation %s", e.target.displayName())
				}
			} else {
				color[f.st] = black
				stack = stack[:len(stack)-1]
			}
		}
	}
	return nil
}

// takeLaunchesLocked pops ready operations while the concurrency
// ceiling allows, marking them dispatched.
func (w *Workflow) takeLaunchesLocked() []*operationState {
	var launches []*operationState
	for w.inFlight < w.maxConcurrent && len(w.ready) > 0 {
		st := w.ready[0]
		w.ready = w.ready[1:]
		st.started = true
		st.active = true
		st.startedAt = time.Now()
		w.inFlight++
		launches = append(launches, st)
	}
	w.metrics.setInflight(w.inFlight)
	w.metrics.setReady(len(w.ready))
	return launches
}

// launch prepares and dispatches operations picked by
// takeLaunchesLocked. Runs without the scheduler lock.
func (w *Workflow) launch(launches []*operationState) {
	for _, st := range launches {
		if c, ok := st.op.(Cancelable); ok && c.Cancelled() {
			// Cancelled before dispatch: never started, finishes with a
			// synthesized cancellation failure.
			w.operationFinished(st, Failure(ErrCancelled), true)
			continue
		}

		st.op.Prepare(w.context)
		w.emitOperation("operation_start", st, nil)

		complete := w.completionFor(st)
		target := w.backgroundTarget
		if st.op.RequiresMainThread() {
			target = w.mainTarget
		}
		op := st.op
		target.Async(func() {
			op.Start(complete)
		})
	}
}

// completionFor returns the completion continuation handed to one
// operation. A nil result is treated as a success with no payload.
func (w *Workflow) completionFor(st *operationState) Completion {
	return func(result *Result) {
		if result == nil {
			result = Success(nil)
		}
		w.operationFinished(st, result, false)
	}
}

// operationFinished applies one operation's completion: records state
// and result, resolves outgoing edges, enqueues newly ready targets,
// and detects the terminal state. Segue conditions are evaluated with
// the lock released; the settling counter keeps terminal detection from
// firing while their effects are pending.
func (w *Workflow) operationFinished(st *operationState, result *Result, cancelled bool) {
	w.mu.Lock()
	if st.finished {
		w.mu.Unlock()
		panic(fmt.Sprintf("workflow: operation %s completed more than once", st.displayName()))
	}
	st.finished = true
	st.active = false
	w.inFlight--
	w.settling++
	duration := time.Since(st.startedAt)

	if st.name != "" {
		w.context.setResult(result, st.name)
	}

	// Dependency edges resolve immediately; segues hold their targets
	// until the condition verdict is in.
	var segues []*edge
	for _, e := range st.outgoing {
		if e.kind == edgeDependency {
			e.target.blockedBy--
		} else {
			segues = append(segues, e)
		}
	}
	w.mu.Unlock()

	status := "completed"
	switch {
	case cancelled:
		status = "cancelled"
		w.emitOperation("operation_cancelled", st, nil)
	case result.Failed():
		status = "failed"
		w.emitOperation("operation_complete", st, map[string]any{
			"failed":      true,
			"error":       result.Err().Error(),
			"duration_ms": duration.Milliseconds(),
		})
	default:
		w.emitOperation("operation_complete", st, map[string]any{
			"failed":      false,
			"duration_ms": duration.Milliseconds(),
		})
	}
	w.metrics.observeOperation(st.name, duration, status)

	passed := make([]bool, len(segues))
	for i, e := range segues {
		passed[i] = e.condition == nil || e.condition(result)
	}

	w.mu.Lock()
	var skips []*operationState
	for i, e := range segues {
		t := e.target
		t.blockedBy--
		t.seguePending--
		if passed[i] {
			t.segueSatisfied = true
		} else if t.seguePending == 0 && !t.segueSatisfied && !t.started && !t.skipped {
			// Every incoming segue resolved and none fired: the target
			// will never start and never produce a result.
			t.skipped = true
			skips = append(skips, t)
		}
	}

	// Enqueue targets that just became ready, in insertion order.
	var candidates []*operationState
	for _, e := range st.outgoing {
		t := e.target
		if !t.started && !t.skipped && !t.queued && t.blockedBy == 0 && t.reached() {
			t.queued = true
			candidates = append(candidates, t)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].index < candidates[j].index
	})
	w.ready = append(w.ready, candidates...)

	launches := w.takeLaunchesLocked()

	w.settling--
	terminal := false
	terminalCompleted := false
	var terminalErr error
	if w.state == workflowActive && w.inFlight == 0 && w.settling == 0 && len(w.ready) == 0 {
		remaining := 0
		for _, op := range w.operations {
			s := w.states[op]
			if !s.finished && !s.skipped {
				remaining++
			}
		}
		terminal = true
		if remaining == 0 {
			w.state = workflowCompleted
			terminalCompleted = true
		} else {
			terminalErr = newError(Deadlocked, "no operation can become ready; %d remain unfinished", remaining)
			w.state = workflowFailed
			w.err = terminalErr
		}
	}
	w.mu.Unlock()

	for _, t := range skips {
		w.emitOperation("operation_skipped", t, nil)
		w.metrics.countSkipped()
	}

	w.launch(launches)

	if terminal {
		w.finishTerminal(terminalCompleted, terminalErr)
	}
}

// finishTerminal emits the terminal event, notifies the delegate on the
// delegate target, tears down the private main target, and closes Done.
// Runs exactly once, without the scheduler lock.
func (w *Workflow) finishTerminal(completed bool, err error) {
	if completed {
		w.emitWorkflow("workflow_complete", map[string]any{"operations": w.OperationCount()})
		w.metrics.countRun("completed")
	} else {
		w.emitWorkflow("workflow_failed", map[string]any{"error": err.Error()})
		w.metrics.countRun("failed")
	}

	if w.delegate != nil {
		delegate := w.delegate
		w.delegateTarget.Async(func() {
			if completed {
				delegate.WorkflowDidComplete(w)
			} else {
				delegate.WorkflowDidFail(w, err)
			}
		})
	}

	if w.ownMain != nil {
		w.ownMain.Close()
	}
	close(w.done)
}

func (w *Workflow) emitWorkflow(msg string, meta map[string]any) {
	w.emitter.Emit(emit.Event{WorkflowID: w.id, Msg: msg, Meta: meta})
}

func (w *Workflow) emitOperation(msg string, st *operationState, meta map[string]any) {
	w.emitter.Emit(emit.Event{WorkflowID: w.id, Operation: st.name, Msg: msg, Meta: meta})
}
