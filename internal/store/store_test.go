package store_test

import (
	"path/filepath"
	"testing"

	"github.com/Grego-GT/spielberg/internal/store"
	"github.com/Grego-GT/spielberg/internal/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "spielberg.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunRecord_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	rec := &types.RunRecord{
		ID:         "run-abc",
		Prompt:     "scrape news headlines",
		ActorName:  "news-scraper",
		ActorID:    "actor-1",
		Status:     types.StatusSuccess,
		Iterations: 2,
		CreatedAt:  "2026-01-02T03:04:05Z",
	}
	if err := s.SaveRunRecord(rec); err != nil {
		t.Fatalf("SaveRunRecord: %v", err)
	}

	got, err := s.GetRunRecord("run-abc")
	if err != nil {
		t.Fatalf("GetRunRecord: %v", err)
	}
	if *got != *rec {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, rec)
	}

	records, err := s.ListRunRecords()
	if err != nil {
		t.Fatalf("ListRunRecords: %v", err)
	}
	if len(records) != 1 || records[0].ID != "run-abc" {
		t.Errorf("ListRunRecords = %+v, want one record", records)
	}
}

func TestRequirements_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	req := &types.Requirements{
		ActorName: "news-scraper",
		InputFields: []types.InputField{
			{Name: "startUrl", Type: "string", Default: "https://example.com"},
		},
	}
	if err := s.SaveRequirements("run-1", req); err != nil {
		t.Fatalf("SaveRequirements: %v", err)
	}

	got, err := s.GetRequirements("run-1")
	if err != nil {
		t.Fatalf("GetRequirements: %v", err)
	}
	if got.ActorName != "news-scraper" || len(got.InputFields) != 1 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestFileSet_PerPathStorage(t *testing.T) {
	s := openTestStore(t)

	files := types.FileSet{
		"src/main.py": "print('hi')",
		"Dockerfile":  "FROM base",
	}
	if err := s.SaveFileSet("run-1", files); err != nil {
		t.Fatalf("SaveFileSet: %v", err)
	}

	content, err := s.GetFile("run-1", "src/main.py")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if content != "print('hi')" {
		t.Errorf("content = %q", content)
	}

	// Files are namespaced by run ID.
	if _, err := s.GetFile("run-2", "src/main.py"); err == nil {
		t.Error("expected not-found for other run's namespace")
	}
}

func TestResult_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	result := &types.ValidationResult{
		Status:     types.StatusFailed,
		ActorID:    "actor-1",
		BuildID:    "build-3",
		Iterations: 3,
		Message:    "Build failed after 3 attempts",
		Error:      "SyntaxError: invalid syntax",
	}
	if err := s.SaveResult("run-1", result); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	got, err := s.GetResult("run-1")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got.Status != types.StatusFailed || got.Error == "" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestGet_MissingKey(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetRunRecord("nope"); err == nil {
		t.Error("expected error for missing run record")
	}
	if _, err := s.GetResult("nope"); err == nil {
		t.Error("expected error for missing result")
	}
}
