package verifier

import "testing"

func TestVerifyUnknownTagIsClean(t *testing.T) {
	// No real process carries this tag, so both live-table samples are 0
	// regardless of the host running the test.
	result, err := Verify("treekill-test-tag-that-cannot-exist", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Clean() {
		t.Fatalf("expected a clean result, got %+v", result)
	}
	if result.Survivors != 0 {
		t.Fatalf("expected 0 survivors, got %d", result.Survivors)
	}
}

func TestResultCleanReflectsSurvivorCount(t *testing.T) {
	clean := Result{FirstCount: 0, SecondCount: 0, Survivors: 0}
	if !clean.Clean() {
		t.Fatalf("expected Clean() true for zero survivors")
	}

	dirty := Result{FirstCount: 3, SecondCount: 1, Survivors: 1}
	if dirty.Clean() {
		t.Fatalf("expected Clean() false for nonzero survivors")
	}
}
