// Package workflow provides an embeddable engine that executes a set of
// asynchronous operations arranged as a directed graph of dependencies
// and conditional segues.
package workflow

import (
	"errors"
	"fmt"
)

// ErrorDomain identifies errors produced by workflow validation and
// execution.
const ErrorDomain = "WEWorkflow"

// ErrorCode classifies workflow validation and execution failures.
type ErrorCode int

const (
	// InvalidDependency indicates a dependency that is malformed or
	// whose endpoints could not be resolved to workflow operations.
	InvalidDependency ErrorCode = iota + 1

	// DependencyCycle indicates the connection graph contains a cycle.
	DependencyCycle

	// Deadlocked indicates no operation can become ready although
	// unfinished operations remain.
	Deadlocked

	// DuplicateNames indicates two operations share a non-empty name.
	DuplicateNames

	// InvalidSegue indicates a segue that is malformed or whose
	// endpoints could not be resolved to workflow operations.
	InvalidSegue
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case InvalidDependency:
		return "InvalidDependency"
	case DependencyCycle:
		return "DependencyCycle"
	case Deadlocked:
		return "Deadlocked"
	case DuplicateNames:
		return "DuplicateNames"
	case InvalidSegue:
		return "InvalidSegue"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error is a workflow validation or execution failure. It is the type
// recorded by Workflow.Err and passed to Delegate.WorkflowDidFail.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode

	// Message is a human-readable description of the failure.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return ErrorDomain + ": " + e.Message
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrCancelled is the failure recorded for an operation that was
// cancelled before it could produce a natural result.
var ErrCancelled = errors.New("operation cancelled")
