package workflow

import (
	"testing"
	"time"
)

func TestSerialTarget_RunsInOrder(t *testing.T) {
	target := NewSerialTarget()
	defer target.Close()

	const n = 100
	order := make([]int, 0, n)
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		i := i
		target.Async(func() {
			// No extra locking: the target serializes execution.
			order = append(order, i)
			if i == n-1 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serial target did not drain in time")
	}
	if len(order) != n {
		t.Fatalf("ran %d functions, want %d", len(order), n)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d] = %d, submissions must run in order", i, got)
		}
	}
}

func TestSerialTarget_CloseIsIdempotent(t *testing.T) {
	target := NewSerialTarget()

	ran := make(chan struct{})
	target.Async(func() { close(ran) })
	target.Close()
	target.Close()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("queued function should still run after Close")
	}
}

func TestBackgroundTarget_Runs(t *testing.T) {
	target := BackgroundTarget()

	ran := make(chan struct{})
	target.Async(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("background target did not run the function")
	}
}
