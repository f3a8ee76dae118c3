package workflow

import (
	"errors"
	"testing"
)

func TestResult_Success(t *testing.T) {
	t.Run("with payload", func(t *testing.T) {
		r := Success(42)
		if r.Failed() {
			t.Error("success result must not report failed")
		}
		if r.Value() != 42 {
			t.Errorf("Value = %v, want 42", r.Value())
		}
		if r.Err() != nil {
			t.Errorf("Err = %v, want nil", r.Err())
		}
	})

	t.Run("without payload", func(t *testing.T) {
		r := Success(nil)
		if r.Failed() {
			t.Error("success result must not report failed")
		}
		if r.Value() != nil {
			t.Errorf("Value = %v, want nil", r.Value())
		}
	})
}

func TestResult_Failure(t *testing.T) {
	cause := errors.New("boom")
	r := Failure(cause)
	if !r.Failed() {
		t.Error("failure result must report failed")
	}
	if !errors.Is(r.Err(), cause) {
		t.Errorf("Err = %v, want %v", r.Err(), cause)
	}
	if r.Value() != nil {
		t.Errorf("Value = %v, want nil", r.Value())
	}
}

func TestResult_FailureRequiresError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Failure(nil) should panic")
		}
	}()
	_ = Failure(nil)
}
