// Package report collects per-iteration timing for a validation run and
// prints the end-of-run summary table.
package report

import (
	"fmt"

	"github.com/Grego-GT/spielberg/internal/types"
)

// Action labels recorded per iteration.
const (
	ActionSuccess       = "success"
	ActionRepairBuild   = "repair-build"
	ActionRepairRuntime = "repair-runtime"
	ActionGaveUp        = "gave-up"
)

// Iteration is one recorded pass of the validation loop.
type Iteration struct {
	Number          int
	BuildID         string
	BuildStatus     types.BuildStatus
	Action          string
	DurationSeconds int
}

// Trail accumulates the iterations of a single run in order.
type Trail struct {
	Iterations []Iteration
}

// Record appends one iteration to the trail.
func (t *Trail) Record(number int, buildID string, status types.BuildStatus, action string, durationSeconds int) {
	t.Iterations = append(t.Iterations, Iteration{
		Number:          number,
		BuildID:         buildID,
		BuildStatus:     status,
		Action:          action,
		DurationSeconds: durationSeconds,
	})
}

// TotalSeconds returns the summed wall time of all recorded iterations.
func (t *Trail) TotalSeconds() int {
	total := 0
	for _, it := range t.Iterations {
		total += it.DurationSeconds
	}
	return total
}

// PrintSummary prints a box-draw table to stdout summarizing the completed
// run: one row per iteration, then the terminal status, message, and console
// URL from the validation result.
func PrintSummary(result *types.ValidationResult, trail *Trail) {
	const line = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	fmt.Printf("\n%s\n", line)
	fmt.Println("RUN SUMMARY")
	fmt.Printf("%s\n", line)

	if trail != nil {
		for _, it := range trail.Iterations {
			fmt.Printf("  iteration %d: build %-12s %-10s %-15s %s\n",
				it.Number, it.BuildID, it.BuildStatus, it.Action, formatDuration(it.DurationSeconds))
		}
		if len(trail.Iterations) > 0 {
			fmt.Printf("  %-22s %s\n", "Total Time:", formatDuration(trail.TotalSeconds()))
		}
	}

	fmt.Printf("  %-22s %s\n", "Status:", string(result.Status))
	fmt.Printf("  %-22s %d\n", "Iterations:", result.Iterations)
	fmt.Printf("  %-22s %s\n", "Message:", result.Message)
	if result.Error != "" {
		fmt.Printf("  %-22s %s\n", "Error:", result.Error)
	}
	if result.ConsoleURL != "" {
		fmt.Printf("  %-22s %s\n", "Console:", result.ConsoleURL)
	}
	fmt.Printf("%s\n\n", line)
}

// formatDuration converts a duration in seconds to a human-readable string.
// Examples: "0s", "45s", "3m 15s", "1h 2m 30s".
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0s"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
