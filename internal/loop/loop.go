// Package loop implements the build-validate-repair state machine that
// drives a freshly deployed Actor to a terminal verdict. Each pass waits for
// the current build, probes the built Actor with a bounded test run, and on a
// deficiency asks the completion service for a patch, pushes the repaired
// files, and builds again, until the Actor works or the iteration budget runs
// out.
package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Grego-GT/spielberg/internal/llm"
	"github.com/Grego-GT/spielberg/internal/log"
	"github.com/Grego-GT/spielberg/internal/platform"
	"github.com/Grego-GT/spielberg/internal/report"
	"github.com/Grego-GT/spielberg/internal/types"
)

// errExcerptLimit bounds the Error field of a failed result to the last
// portion of the build log, which is where the actionable error lives.
const errExcerptLimit = 1000

// ---------------------------------------------------------------------------
// Collaborator interfaces
// ---------------------------------------------------------------------------

// Platform is the subset of the hosting platform client the loop drives.
type Platform interface {
	WaitForBuild(ctx context.Context, actorID, buildID string) (types.BuildStatus, error)
	GetBuildLog(ctx context.Context, actorID, buildID string) (string, error)
	UpdateActorVersion(ctx context.Context, actorID, version string, files types.FileSet) error
	TriggerBuild(ctx context.Context, actorID, version string) (string, error)
	InvokeTestRun(ctx context.Context, actorID string, input map[string]any) (*types.RunProbe, error)
}

// Generator regenerates a complete FileSet from the original requirements.
// Repairs always start from a fresh generation so unpatched files never drift.
type Generator interface {
	Generate(ctx context.Context, req *types.Requirements) (types.FileSet, error)
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// Runner holds the collaborators for one validation run. It keeps no state
// between calls to Run.
type Runner struct {
	Platform  Platform
	Generator Generator
	LLM       llm.Client

	// ActorVersion is the platform version label repairs are pushed under.
	ActorVersion string

	// RetryDelay is the pause before re-polling a build that reported an
	// unexpected non-terminal status.
	RetryDelay time.Duration

	// Trail, when non-nil, receives one entry per consumed iteration for
	// the end-of-run summary.
	Trail *report.Trail
}

// New returns a Runner with the default version label and retry delay.
func New(p Platform, g Generator, client llm.Client) *Runner {
	return &Runner{
		Platform:     p,
		Generator:    g,
		LLM:          client,
		ActorVersion: "0.1",
		RetryDelay:   10 * time.Second,
	}
}

// Run validates the deployed Actor and repairs it until it works or the
// iteration budget is spent:
//
//  1. Wait for the current build to reach a terminal status. A polling
//     timeout ends the run immediately with a failed result.
//  2. SUCCEEDED: invoke a bounded test run with input synthesized from the
//     declared field defaults. Output produced means the run is done. A
//     failed or empty run is repaired as a runtime deficiency while budget
//     remains; once spent it is reported as success with a zero-output
//     caveat, since a clean build whose target happens to yield no data is
//     not a code failure.
//  3. FAILED, ABORTED, or TIMED-OUT: fetch the build log and repair as a
//     build deficiency while budget remains; once spent the run fails with
//     a log excerpt as the error payload.
//  4. A repair pushes a new Actor version, triggers a new build, swaps the
//     current build ID, and consumes one iteration.
//
// Faults in polling, regenerating, pushing, or building collapse the run to
// a failed result. Run returns a non-nil error only for invalid arguments.
func (r *Runner) Run(ctx context.Context, dep *types.Deployment, req *types.Requirements, maxIterations int) (*types.ValidationResult, error) {
	if maxIterations < 1 {
		return nil, fmt.Errorf("max iterations must be at least 1, got %d", maxIterations)
	}

	actorID := dep.ActorID
	buildID := dep.BuildID
	consoleURL := dep.ConsoleURL

	log.Section(fmt.Sprintf("Validating Actor %s", actorID))

	iteration := 0
	for iteration < maxIterations {
		log.Info(fmt.Sprintf("Validation iteration %d/%d", iteration+1, maxIterations))
		started := time.Now()

		status, err := r.Platform.WaitForBuild(ctx, actorID, buildID)
		if err != nil {
			message := "Validation error"
			if errors.Is(err, platform.ErrBuildPollTimeout) {
				message = "Build timed out"
			}
			log.Error(fmt.Sprintf("%s: %v", message, err))
			r.record(iteration+1, buildID, status, report.ActionGaveUp, started)
			return r.failed(actorID, buildID, consoleURL, iteration+1, message, err.Error()), nil
		}

		switch {
		case status == types.BuildSucceeded:
			log.Success("Build succeeded")
			probe := r.probe(ctx, actorID, req)

			if probe.Success {
				log.Success(fmt.Sprintf("Test run successful, produced %d items", probe.ItemCount))
				r.record(iteration+1, buildID, status, report.ActionSuccess, started)
				return &types.ValidationResult{
					Status:     types.StatusSuccess,
					ActorID:    actorID,
					BuildID:    buildID,
					ConsoleURL: consoleURL,
					Iterations: iteration + 1,
					Message:    fmt.Sprintf("Actor built and tested successfully (%d items)", probe.ItemCount),
				}, nil
			}

			log.Warning(fmt.Sprintf("Test run issue: %s", probe.Message))

			if iteration >= maxIterations-1 {
				// The build itself is sound; zero output on the last
				// attempt is reported as success with a caveat, not
				// downgraded to failure.
				r.record(iteration+1, buildID, status, report.ActionGaveUp, started)
				return &types.ValidationResult{
					Status:     types.StatusSuccess,
					ActorID:    actorID,
					BuildID:    buildID,
					ConsoleURL: consoleURL,
					Iterations: iteration + 1,
					Message:    fmt.Sprintf("Build succeeded but test run produced no data: %s", probe.Message),
				}, nil
			}

			log.Info("Attempting to fix runtime issues...")
			newBuildID, err := r.repairAndRebuild(ctx, actorID, req, probe.Log, classRuntime)
			if err != nil {
				log.Error(fmt.Sprintf("Validation error: %v", err))
				r.record(iteration+1, buildID, status, report.ActionGaveUp, started)
				return r.failed(actorID, buildID, consoleURL, iteration+1, "Validation error", err.Error()), nil
			}
			r.record(iteration+1, buildID, status, report.ActionRepairRuntime, started)
			buildID = newBuildID
			iteration++

		case status.Terminal():
			// FAILED, ABORTED, or TIMED-OUT.
			log.Warning(fmt.Sprintf("Build %s", strings.ToLower(string(status))))

			buildLog, err := r.Platform.GetBuildLog(ctx, actorID, buildID)
			if err != nil {
				log.Error(fmt.Sprintf("Validation error: %v", err))
				r.record(iteration+1, buildID, status, report.ActionGaveUp, started)
				return r.failed(actorID, buildID, consoleURL, iteration+1, "Validation error", err.Error()), nil
			}
			log.Info(fmt.Sprintf("Build log excerpt: %s", tail(buildLog, 500)))

			if iteration >= maxIterations-1 {
				errText := tail(buildLog, errExcerptLimit)
				if errText == "" {
					errText = "No logs available"
				}
				r.record(iteration+1, buildID, status, report.ActionGaveUp, started)
				return r.failed(actorID, buildID, consoleURL, iteration+1,
					fmt.Sprintf("Build failed after %d attempts", maxIterations), errText), nil
			}

			log.Info("Attempting to fix build errors...")
			newBuildID, err := r.repairAndRebuild(ctx, actorID, req, buildLog, classBuild)
			if err != nil {
				log.Error(fmt.Sprintf("Validation error: %v", err))
				r.record(iteration+1, buildID, status, report.ActionGaveUp, started)
				return r.failed(actorID, buildID, consoleURL, iteration+1, "Validation error", err.Error()), nil
			}
			r.record(iteration+1, buildID, status, report.ActionRepairBuild, started)
			buildID = newBuildID
			iteration++

		default:
			// A status WaitForBuild should never hand back. Wait and
			// re-poll without consuming an iteration.
			log.Warning(fmt.Sprintf("Unexpected build status: %s", status))
			select {
			case <-ctx.Done():
				return r.failed(actorID, buildID, consoleURL, iteration+1, "Validation error", ctx.Err().Error()), nil
			case <-time.After(r.RetryDelay):
			}
		}
	}

	// Unreachable through the normal branches, which all return before the
	// budget is overrun.
	return r.failed(actorID, buildID, consoleURL, maxIterations,
		fmt.Sprintf("Could not fix errors in %d attempts", maxIterations), ""), nil
}

// probe invokes one bounded test run of the built Actor. Invocation faults
// are absorbed into a failed probe so they drive the runtime repair branch
// instead of ending the run.
func (r *Runner) probe(ctx context.Context, actorID string, req *types.Requirements) *types.RunProbe {
	input := ProbeInput(req)
	log.Info(fmt.Sprintf("Running test with input: %v", input))

	probe, err := r.Platform.InvokeTestRun(ctx, actorID, input)
	if err != nil {
		log.Warning(fmt.Sprintf("Test run failed: %v", err))
		return &types.RunProbe{
			Message: fmt.Sprintf("Test run error: %v", err),
			Log:     err.Error(),
		}
	}
	return probe
}

// ProbeInput builds the minimal test-run input from the declared input
// fields: every field with a non-nil default contributes {name: default}.
// Fields without a default are omitted entirely, never guessed.
func ProbeInput(req *types.Requirements) map[string]any {
	input := make(map[string]any)
	for _, field := range req.InputFields {
		if field.Default != nil {
			input[field.Name] = field.Default
		}
	}
	return input
}

// failed builds a failed result. errText may be empty, in which case the
// Error field is omitted from the serialized record.
func (r *Runner) failed(actorID, buildID, consoleURL string, iterations int, message, errText string) *types.ValidationResult {
	return &types.ValidationResult{
		Status:     types.StatusFailed,
		ActorID:    actorID,
		BuildID:    buildID,
		ConsoleURL: consoleURL,
		Iterations: iterations,
		Message:    message,
		Error:      errText,
	}
}

// record appends one iteration to the trail, when one is attached.
func (r *Runner) record(number int, buildID string, status types.BuildStatus, action string, started time.Time) {
	if r.Trail == nil {
		return
	}
	r.Trail.Record(number, buildID, status, action, int(time.Since(started).Seconds()))
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
