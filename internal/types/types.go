// Package types defines all shared structs and typed constants used by the
// spielberg pipeline. JSON struct tags match the wire schema used by the
// requirements analyzer and the hosting platform API (snake_case for
// requirements fields, camelCase for platform resources).
package types

// ---------------------------------------------------------------------------
// Typed constants
// ---------------------------------------------------------------------------

// BuildStatus represents the lifecycle state of a platform build.
type BuildStatus string

const (
	BuildSucceeded BuildStatus = "SUCCEEDED"
	BuildFailed    BuildStatus = "FAILED"
	BuildAborted   BuildStatus = "ABORTED"
	BuildTimedOut  BuildStatus = "TIMED-OUT"
	BuildRunning   BuildStatus = "RUNNING"
	BuildReady     BuildStatus = "READY"
)

// Terminal reports whether this build status is final. Any value outside the
// four terminal constants (including values this version does not know about)
// is treated as still in flight, so the caller keeps polling.
func (s BuildStatus) Terminal() bool {
	switch s {
	case BuildSucceeded, BuildFailed, BuildAborted, BuildTimedOut:
		return true
	}
	return false
}

// ResultStatus is the terminal status of a validation run.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailed  ResultStatus = "failed"
)

// ---------------------------------------------------------------------------
// Requirements
// ---------------------------------------------------------------------------

// Requirements is the structured record produced once per run by the
// analyzer. It is immutable after creation: the generator and the validation
// loop's repair prompts consume it but never modify it.
type Requirements struct {
	ActorName       string            `json:"actor_name"`
	ActorTitle      string            `json:"actor_title"`
	Description     string            `json:"description"`
	ActorType       string            `json:"actor_type"`
	Dependencies    []string          `json:"dependencies"`
	InputFields     []InputField      `json:"input_fields"`
	OutputStructure map[string]string `json:"output_structure"`
	TechnicalNotes  string            `json:"technical_notes"`
}

// InputField describes one declared Actor input parameter.
//
// Default is nil when the analyzer declared no default. The distinction
// matters: probe-input synthesis includes a field if and only if Default is
// non-nil (fields without defaults are omitted entirely, never guessed).
type InputField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Editor      string `json:"editor,omitempty"`
}

// ---------------------------------------------------------------------------
// FileSet and Patch
// ---------------------------------------------------------------------------

// FileSet maps relative file paths to file contents. The generator produces a
// fresh FileSet from Requirements; the validation loop never mutates one in
// place. A repair produces a Patch that is merged over a freshly regenerated
// FileSet, so non-patched files never drift from pure templating output.
type FileSet map[string]string

// Patch is a sparse path→replacement-content mapping returned by the repair
// service. Values are full file contents, not diffs.
type Patch map[string]string

// Merge returns a new FileSet equal to fresh with every entry of p overlaid.
// fresh itself is not modified.
func (p Patch) Merge(fresh FileSet) FileSet {
	merged := make(FileSet, len(fresh))
	for path, content := range fresh {
		merged[path] = content
	}
	for path, content := range p {
		merged[path] = content
	}
	return merged
}

// ---------------------------------------------------------------------------
// Deployment and probe types
// ---------------------------------------------------------------------------

// Deployment identifies the remote Actor and its most recent triggered build.
// BuildID is replaced each time the loop triggers a new build; ActorID is
// stable for the life of a run.
type Deployment struct {
	ActorID    string `json:"actor_id"`
	BuildID    string `json:"build_id"`
	ConsoleURL string `json:"console_url"`
}

// RunProbe is the result of a single bounded test invocation of a built
// Actor. Ephemeral: produced once per build-succeeded branch.
type RunProbe struct {
	Success   bool
	ItemCount int
	Message   string
	Log       string
}

// ---------------------------------------------------------------------------
// ValidationResult
// ---------------------------------------------------------------------------

// ValidationResult is the single terminal record returned by the validation
// loop. Error is populated only when Status is StatusFailed and is bounded to
// the last ~1000 characters of the relevant log.
type ValidationResult struct {
	Status     ResultStatus `json:"status"`
	ActorID    string       `json:"actor_id"`
	BuildID    string       `json:"build_id"`
	ConsoleURL string       `json:"console_url"`
	Iterations int          `json:"iterations"`
	Message    string       `json:"message"`
	Error      string       `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Run records (artifact store)
// ---------------------------------------------------------------------------

// RunRecord is the store-side summary of one generation run, persisted so
// past runs can be inspected after the process exits.
type RunRecord struct {
	ID         string       `json:"id"`
	Prompt     string       `json:"prompt"`
	ActorName  string       `json:"actor_name"`
	ActorID    string       `json:"actor_id"`
	Status     ResultStatus `json:"status"`
	Iterations int          `json:"iterations"`
	CreatedAt  string       `json:"created_at"`
}
