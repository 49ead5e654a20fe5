package faultinject

import "testing"

func TestFailWithProbabilityZeroNeverFails(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if err := FailWithProbability(0, "handler_entry"); err != nil {
			t.Fatalf("expected no failure at probability 0, got %v", err)
		}
	}
}

func TestFailWithProbabilityOneAlwaysFails(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if err := FailWithProbability(1, "handler_entry"); err == nil {
			t.Fatal("expected failure at probability 1")
		}
	}
}

func TestSimulatedFailureErrorMessage(t *testing.T) {
	err := FailWithProbability(1, "joiner_index_update")
	sf, ok := err.(*SimulatedFailure)
	if !ok {
		t.Fatalf("expected *SimulatedFailure, got %T", err)
	}
	if sf.Error() == "" {
		t.Error("expected non-empty error message")
	}

	bare := &SimulatedFailure{}
	if bare.Error() == "" {
		t.Error("expected non-empty default error message")
	}
}
