package log_test

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/Grego-GT/spielberg/internal/log"
)

// captureOutput redirects os.Stdout during fn and returns what was written.
func captureOutput(fn func()) string {
	r, w, _ := os.Pipe()
	old := os.Stdout
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	io.Copy(&buf, r) //nolint:errcheck
	return buf.String()
}

func TestInfo(t *testing.T) {
	out := captureOutput(func() { log.Info("test message") })
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("Info output missing [INFO]: %q", out)
	}
	if !strings.Contains(out, "test message") {
		t.Errorf("Info output missing message: %q", out)
	}
}

func TestSuccess(t *testing.T) {
	out := captureOutput(func() { log.Success("test message") })
	if !strings.Contains(out, "[SUCCESS]") {
		t.Errorf("Success output missing [SUCCESS]: %q", out)
	}
}

func TestWarning(t *testing.T) {
	out := captureOutput(func() { log.Warning("test message") })
	if !strings.Contains(out, "[WARNING]") {
		t.Errorf("Warning output missing [WARNING]: %q", out)
	}
}

func TestError(t *testing.T) {
	out := captureOutput(func() { log.Error("test message") })
	if !strings.Contains(out, "[ERROR]") {
		t.Errorf("Error output missing [ERROR]: %q", out)
	}
}

func TestFatal_CallsOsExit(t *testing.T) {
	exitCode := -1
	orig := log.OsExit
	log.OsExit = func(code int) { exitCode = code }
	defer func() { log.OsExit = orig }()

	_ = captureOutput(func() { log.Fatal("boom") })

	if exitCode != 1 {
		t.Errorf("Fatal exit code = %d, want 1", exitCode)
	}
}

func TestSection(t *testing.T) {
	out := captureOutput(func() { log.Section("STEP 1") })
	if !strings.Contains(out, "STEP 1") {
		t.Errorf("Section output missing title: %q", out)
	}
}
