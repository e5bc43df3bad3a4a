package loop

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Grego-GT/spielberg/internal/llm"
	"github.com/Grego-GT/spielberg/internal/log"
	"github.com/Grego-GT/spielberg/internal/templates"
	"github.com/Grego-GT/spielberg/internal/types"
)

// repairClass selects the guidance prompt and log tail size for one repair.
// Build failures carry compiler and packaging errors near the end of the
// log; runtime logs need a longer tail because the extraction trace matters.
type repairClass int

const (
	classBuild repairClass = iota
	classRuntime
)

const (
	buildLogTail    = 2000
	runtimeLogTail  = 3000
	repairMaxTokens = 8000
)

const buildRepairPrompt = `An Actor build failed. Analyze the error and generate fixed code.

Original Requirements:
%s

Build Error Log:
%s

Generate corrected Actor files. Focus on fixing the specific error shown in the logs.`

const runtimeRepairPrompt = `An Actor ran successfully but produced no output data.

Original Requirements:
%s

Runtime Log:
%s

The Actor needs to be fixed to correctly extract data. Analyze the log to understand what went wrong.`

// repairAndRebuild runs the shared repair sequence for both deficiency
// classes:
//
//  1. Regenerate a fresh FileSet from the original requirements.
//  2. Ask the completion service for a patch keyed on the supplied log.
//  3. Merge the patch over the fresh files. A failed or malformed patch
//     degrades to pushing the fresh files unchanged, so every repair ends
//     in another build attempt.
//  4. Push the merged files as a new Actor version and trigger a build.
//
// Generation and platform faults are returned to the caller; repair-service
// faults never are.
func (r *Runner) repairAndRebuild(ctx context.Context, actorID string, req *types.Requirements, logText string, class repairClass) (string, error) {
	fresh, err := r.Generator.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("regenerate files: %w", err)
	}

	files := fresh
	patch, err := r.requestPatch(ctx, req, logText, class, fresh)
	if err != nil {
		log.Warning(fmt.Sprintf("Repair request failed, retrying with regenerated files: %v", err))
	} else {
		log.Info(fmt.Sprintf("Service suggested fixes for %d files", len(patch)))
		files = patch.Merge(fresh)
	}

	if err := r.Platform.UpdateActorVersion(ctx, actorID, r.ActorVersion, files); err != nil {
		return "", fmt.Errorf("push repaired version: %w", err)
	}

	newBuildID, err := r.Platform.TriggerBuild(ctx, actorID, r.ActorVersion)
	if err != nil {
		return "", fmt.Errorf("trigger rebuild: %w", err)
	}
	log.Info(fmt.Sprintf("Triggered new build: %s", newBuildID))
	return newBuildID, nil
}

// requestPatch asks the completion service for repaired file contents and
// parses the response against the set of known file paths.
func (r *Runner) requestPatch(ctx context.Context, req *types.Requirements, logText string, class repairClass, known types.FileSet) (types.Patch, error) {
	system := templates.RepairBuildSystem
	prompt := buildRepairPrompt
	tailLen := buildLogTail
	if class == classRuntime {
		system = templates.RepairRuntimeSystem
		prompt = runtimeRepairPrompt
		tailLen = runtimeLogTail
	}

	reqJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal requirements: %w", err)
	}

	user := fmt.Sprintf(prompt, reqJSON, tail(logText, tailLen))

	raw, err := r.LLM.Complete(ctx, system, user, repairMaxTokens)
	if err != nil {
		return nil, err
	}
	return parsePatch(raw, known)
}

// parsePatch decodes the repair response into a Patch and validates that
// every patched path already exists in the known FileSet. Any other shape,
// including non-object JSON or an unknown path, is a parse failure that the
// caller absorbs into a no-op retry.
func parsePatch(raw string, known types.FileSet) (types.Patch, error) {
	var patch types.Patch
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &patch); err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}
	for path := range patch {
		if _, ok := known[path]; !ok {
			return nil, fmt.Errorf("patch references unknown file %q", path)
		}
	}
	return patch, nil
}
