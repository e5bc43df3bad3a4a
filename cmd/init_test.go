package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitProject_GeneratesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := initProject(dir, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"spielberg.yaml", ".env.example"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("file %s not created: %v", name, err)
		}
	}
}

func TestInitProject_ScaffoldContent(t *testing.T) {
	dir := t.TempDir()
	if err := initProject(dir, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "spielberg.yaml"))
	if err != nil {
		t.Fatalf("read spielberg.yaml: %v", err)
	}
	content := string(data)
	for _, field := range []string{
		"model:",
		"platform_base_url:",
		"max_iterations:",
		"probe_timeout_seconds:",
		"store_path:",
	} {
		if !strings.Contains(content, field) {
			t.Errorf("spielberg.yaml missing field %q", field)
		}
	}

	env, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	if err != nil {
		t.Fatalf("read .env.example: %v", err)
	}
	for _, key := range []string{"OPENAI_API_KEY=", "APIFY_TOKEN="} {
		if !strings.Contains(string(env), key) {
			t.Errorf(".env.example missing key %q", key)
		}
	}
}

func TestInitProject_SkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	original := "model: my-custom-model\n"
	if err := os.WriteFile(filepath.Join(dir, "spielberg.yaml"), []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := initProject(dir, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "spielberg.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != original {
		t.Error("existing spielberg.yaml was overwritten without --force")
	}

	// The other scaffold file is still created.
	if _, err := os.Stat(filepath.Join(dir, ".env.example")); err != nil {
		t.Errorf(".env.example not created: %v", err)
	}
}

func TestInitProject_Force(t *testing.T) {
	dir := t.TempDir()
	original := "model: my-custom-model\n"
	if err := os.WriteFile(filepath.Join(dir, "spielberg.yaml"), []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := initProject(dir, true); err != nil {
		t.Fatalf("unexpected error with force=true: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "spielberg.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == original {
		t.Error("spielberg.yaml was not overwritten with --force")
	}
	if !strings.Contains(string(data), "platform_base_url:") {
		t.Errorf("spielberg.yaml does not contain scaffold content; got:\n%s", data)
	}
}
