package workflow

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Condition decides whether a segue fires, given the source operation's
// result. Conditions are evaluated outside the scheduler lock and
// should be pure and fast; long-running work belongs in operations.
type Condition func(result *Result) bool

// ConditionExpr compiles a CEL expression into a segue condition.
//
// The expression is evaluated with three variables bound from the
// source result:
//   - failed (bool): whether the source operation failed
//   - payload (dyn): the success payload, or null
//   - error (string): the failure error text, or ""
//
// Examples:
//
//	cond, err := workflow.ConditionExpr(`payload == 1`)
//	cond, err := workflow.ConditionExpr(`!failed && payload.status == "ready"`)
//	cond, err := workflow.ConditionExpr(`failed && error.contains("timeout")`)
//
// Compilation errors are reported immediately. An expression that fails
// at evaluation time, or evaluates to a non-boolean, is treated as not
// passing.
func ConditionExpr(expr string) (Condition, error) {
	env, err := cel.NewEnv(
		cel.Variable("failed", cel.BoolType),
		cel.Variable("payload", cel.DynType),
		cel.Variable("error", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create condition environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid condition expression %q: %w", expr, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("compile condition expression %q: %w", expr, err)
	}

	return func(r *Result) bool {
		errText := ""
		if r.Err() != nil {
			errText = r.Err().Error()
		}
		out, _, err := program.Eval(map[string]any{
			"failed":  r.Failed(),
			"payload": r.Value(),
			"error":   errText,
		})
		if err != nil {
			return false
		}
		passed, ok := out.Value().(bool)
		return ok && passed
	}, nil
}
