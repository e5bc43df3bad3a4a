package report_test

import (
	"testing"

	"github.com/Grego-GT/spielberg/internal/report"
	"github.com/Grego-GT/spielberg/internal/types"
)

func TestRecord_AppendsInOrder(t *testing.T) {
	var trail report.Trail

	trail.Record(1, "build-1", types.BuildFailed, report.ActionRepairBuild, 30)
	trail.Record(2, "build-2", types.BuildSucceeded, report.ActionSuccess, 45)

	if len(trail.Iterations) != 2 {
		t.Fatalf("Iterations len: got %d, want 2", len(trail.Iterations))
	}
	first := trail.Iterations[0]
	if first.Number != 1 {
		t.Errorf("Number: got %d, want 1", first.Number)
	}
	if first.BuildStatus != types.BuildFailed {
		t.Errorf("BuildStatus: got %q, want FAILED", first.BuildStatus)
	}
	if first.Action != report.ActionRepairBuild {
		t.Errorf("Action: got %q, want %q", first.Action, report.ActionRepairBuild)
	}
}

func TestTotalSeconds_SumsAllIterations(t *testing.T) {
	var trail report.Trail

	trail.Record(1, "build-1", types.BuildFailed, report.ActionRepairBuild, 100)
	trail.Record(2, "build-2", types.BuildFailed, report.ActionRepairBuild, 200)
	trail.Record(3, "build-3", types.BuildSucceeded, report.ActionSuccess, 50)

	if got := trail.TotalSeconds(); got != 350 {
		t.Errorf("TotalSeconds: got %d, want 350", got)
	}
}

func TestTotalSeconds_EmptyTrail(t *testing.T) {
	var trail report.Trail

	if got := trail.TotalSeconds(); got != 0 {
		t.Errorf("TotalSeconds: got %d, want 0", got)
	}
}
