package workflow

// Connection describes a directed link between two operations, a source
// and a target. Each endpoint is given either as an operation object or
// as an operation name; names are resolved against the workflow's
// operations when it starts, and an endpoint that resolves to nothing
// fails validation. If both the object and the name are set, the object
// wins and the name is ignored.
//
// Referencing operations by name rather than by object supports loosely
// coupled workflow construction, where the code declaring a connection
// never holds the operations themselves.
//
// Connections are plain data. A workflow copies descriptors as they are
// added, so callers may reuse or mutate their originals afterwards.
type Connection struct {
	// SourceOperation is the operation the connection leads from. The
	// source has to finish for the connection to take effect.
	SourceOperation Operation

	// SourceName names the source operation when the object is not at
	// hand. Ignored if SourceOperation is set.
	SourceName string

	// TargetOperation is the operation the connection leads to. Its
	// start is gated, in the way the connection kind defines, on the
	// source finishing.
	TargetOperation Operation

	// TargetName names the target operation when the object is not at
	// hand. Ignored if TargetOperation is set.
	TargetName string
}

// Dependency is an unconditional ordering connection: the target may
// not start until the source has finished, regardless of the source's
// result. An operation with several incoming dependencies waits for all
// of their sources.
type Dependency struct {
	Connection
}

// NewDependency creates a dependency between two operation objects.
func NewDependency(from, to Operation) *Dependency {
	return &Dependency{Connection{SourceOperation: from, TargetOperation: to}}
}

// NewNamedDependency creates a dependency between two named operations,
// resolved when the workflow starts.
func NewNamedDependency(from, to string) *Dependency {
	return &Dependency{Connection{SourceName: from, TargetName: to}}
}

// Segue is a conditional connection. When the source finishes, the
// condition is evaluated against its result; only if it passes does the
// target become eligible to start. A nil condition always passes.
//
// An operation whose incoming segues all resolve without one passing is
// skipped: it never starts and never produces a result.
type Segue struct {
	Connection

	// Condition gates the segue. Evaluated with the source operation's
	// result on the goroutine that processes the source completion,
	// with no scheduler lock held.
	Condition Condition
}

// NewSegue creates a segue between two operation objects. A nil
// condition always passes.
func NewSegue(from, to Operation, condition Condition) *Segue {
	return &Segue{Connection{SourceOperation: from, TargetOperation: to}, condition}
}

// NewNamedSegue creates a segue between two named operations, resolved
// when the workflow starts. A nil condition always passes.
func NewNamedSegue(from, to string, condition Condition) *Segue {
	return &Segue{Connection{SourceName: from, TargetName: to}, condition}
}
