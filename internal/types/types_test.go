package types_test

import (
	"testing"

	"github.com/Grego-GT/spielberg/internal/types"
)

// ---------------------------------------------------------------------------
// BuildStatus.Terminal tests
// ---------------------------------------------------------------------------

func TestBuildStatus_Terminal(t *testing.T) {
	tests := []struct {
		status types.BuildStatus
		want   bool
	}{
		{types.BuildSucceeded, true},
		{types.BuildFailed, true},
		{types.BuildAborted, true},
		{types.BuildTimedOut, true},
		{types.BuildRunning, false},
		{types.BuildReady, false},
		{types.BuildStatus(""), false},
		{types.BuildStatus("SNAPSHOTTING"), false}, // unrecognized → keep polling
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Patch.Merge tests
// ---------------------------------------------------------------------------

func TestPatch_Merge_OverlaysOnlyPatchedPaths(t *testing.T) {
	fresh := types.FileSet{
		"src/main.py":      "original main",
		"requirements.txt": "apify>=3.0.0\n",
		"Dockerfile":       "FROM base",
	}
	patch := types.Patch{
		"src/main.py": "patched main",
	}

	merged := patch.Merge(fresh)

	if merged["src/main.py"] != "patched main" {
		t.Errorf("patched path = %q, want %q", merged["src/main.py"], "patched main")
	}
	if merged["requirements.txt"] != "apify>=3.0.0\n" {
		t.Errorf("non-patched path drifted: %q", merged["requirements.txt"])
	}
	if merged["Dockerfile"] != "FROM base" {
		t.Errorf("non-patched path drifted: %q", merged["Dockerfile"])
	}
	if len(merged) != 3 {
		t.Errorf("merged has %d entries, want 3", len(merged))
	}
}

func TestPatch_Merge_DoesNotMutateFresh(t *testing.T) {
	fresh := types.FileSet{"a.txt": "one"}
	patch := types.Patch{"a.txt": "two"}

	_ = patch.Merge(fresh)

	if fresh["a.txt"] != "one" {
		t.Errorf("Merge mutated the fresh FileSet: %q", fresh["a.txt"])
	}
}

func TestPatch_Merge_IdempotentPerFile(t *testing.T) {
	patch := types.Patch{"src/main.py": "fixed"}

	// Merging the same patch over any fresh FileSet always yields the
	// patch's content for the patched path.
	for _, fresh := range []types.FileSet{
		{"src/main.py": "v1"},
		{"src/main.py": "v2", "README.md": "docs"},
		{},
	} {
		merged := patch.Merge(fresh)
		if merged["src/main.py"] != "fixed" {
			t.Errorf("merged content = %q, want %q", merged["src/main.py"], "fixed")
		}
	}
}
