package workflow

import (
	"sync"
	"testing"
)

func TestContext_Values(t *testing.T) {
	c := newContext(nil)

	if got := c.ValueFor("missing"); got != nil {
		t.Errorf("ValueFor(missing) = %v, want nil", got)
	}

	c.SetValue("answer", 42)
	if got := c.ValueFor("answer"); got != 42 {
		t.Errorf("ValueFor(answer) = %v, want 42", got)
	}

	c.SetValue("answer", 43)
	if got := c.ValueFor("answer"); got != 43 {
		t.Errorf("ValueFor(answer) after overwrite = %v, want 43", got)
	}

	c.RemoveValue("answer")
	if got := c.ValueFor("answer"); got != nil {
		t.Errorf("ValueFor(answer) after removal = %v, want nil", got)
	}

	// Removal of an absent key is a no-op.
	c.RemoveValue("answer")
}

func TestContext_StructKeys(t *testing.T) {
	type key struct{ tenant, field string }
	c := newContext(nil)

	c.SetValue(key{"acme", "limit"}, 10)
	if got := c.ValueFor(key{"acme", "limit"}); got != 10 {
		t.Errorf("struct keys must match by value equality, got %v", got)
	}
	if got := c.ValueFor(key{"acme", "other"}); got != nil {
		t.Errorf("distinct keys must not collide, got %v", got)
	}
}

func TestContext_Results(t *testing.T) {
	c := newContext(nil)

	if got := c.ResultFor("op"); got != nil {
		t.Errorf("ResultFor before any write = %v, want nil", got)
	}

	r := Success("payload")
	c.setResult(r, "op")
	if got := c.ResultFor("op"); got != r {
		t.Errorf("ResultFor = %v, want the recorded result", got)
	}
}

func TestContext_DuplicateResultPanics(t *testing.T) {
	c := newContext(nil)
	c.setResult(Success(nil), "op")
	defer func() {
		if recover() == nil {
			t.Error("duplicate result write should panic")
		}
	}()
	c.setResult(Success(nil), "op")
}

func TestContext_ConcurrentAccess(t *testing.T) {
	c := newContext(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.SetValue(n, j)
				_ = c.ValueFor(n)
				_ = c.ResultFor("never")
			}
		}(i)
	}
	wg.Wait()
}
