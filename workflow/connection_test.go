package workflow

import "testing"

func TestDependencyConstructors(t *testing.T) {
	a := NewBlockOperation("a", false, func(c Completion) { c(nil) })
	b := NewBlockOperation("b", false, func(c Completion) { c(nil) })

	t.Run("by object", func(t *testing.T) {
		d := NewDependency(a, b)
		if d.SourceOperation != Operation(a) || d.TargetOperation != Operation(b) {
			t.Error("endpoints should carry the operations")
		}
		if d.SourceName != "" || d.TargetName != "" {
			t.Error("names should be empty when objects are given")
		}
	})

	t.Run("by name", func(t *testing.T) {
		d := NewNamedDependency("a", "b")
		if d.SourceName != "a" || d.TargetName != "b" {
			t.Errorf("names = %q, %q, want a, b", d.SourceName, d.TargetName)
		}
		if d.SourceOperation != nil || d.TargetOperation != nil {
			t.Error("operations should be nil when names are given")
		}
	})
}

func TestSegueConstructors(t *testing.T) {
	a := NewBlockOperation("a", false, func(c Completion) { c(nil) })
	b := NewBlockOperation("b", false, func(c Completion) { c(nil) })
	cond := func(*Result) bool { return true }

	t.Run("by object", func(t *testing.T) {
		s := NewSegue(a, b, cond)
		if s.SourceOperation != Operation(a) || s.TargetOperation != Operation(b) {
			t.Error("endpoints should carry the operations")
		}
		if s.Condition == nil {
			t.Error("condition should be set")
		}
	})

	t.Run("by name without condition", func(t *testing.T) {
		s := NewNamedSegue("a", "b", nil)
		if s.SourceName != "a" || s.TargetName != "b" {
			t.Errorf("names = %q, %q, want a, b", s.SourceName, s.TargetName)
		}
		if s.Condition != nil {
			t.Error("condition should be nil")
		}
	})
}
