// Package analyzer turns a free-text Actor request into a structured
// requirements record via a single completion call. It is stateless: one
// request, one response, no retries.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Grego-GT/spielberg/internal/llm"
	"github.com/Grego-GT/spielberg/internal/log"
	"github.com/Grego-GT/spielberg/internal/templates"
	"github.com/Grego-GT/spielberg/internal/types"
)

// maxTokens bounds the analysis response; requirements records are small.
const maxTokens = 4096

// ErrEmptyResponse is returned when the completion service returns no text.
var ErrEmptyResponse = errors.New("analyzer: service returned empty requirements")

// MalformedResponseError is returned when the service's output is not
// parseable as a structured requirements record.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	excerpt := e.Raw
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}
	return fmt.Sprintf("malformed requirements response: %v (raw: %q)", e.Err, excerpt)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Analyzer maps a natural-language prompt to a Requirements record.
type Analyzer struct {
	client llm.Client
}

// New creates an Analyzer backed by the given completion client.
func New(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze sends the user prompt to the completion service and parses the JSON
// requirements record from the response. Markdown code fences are stripped
// before parsing.
//
// Typed errors:
//   - ErrEmptyResponse          – service returned no text
//   - *MalformedResponseError   – response is not valid requirements JSON
//
// Missing recommended fields (actor_name, actor_title, description,
// actor_type) are logged as warnings, not treated as errors: the generator
// substitutes defaults for absent values.
func (a *Analyzer) Analyze(ctx context.Context, prompt string) (*types.Requirements, error) {
	raw, err := a.client.Complete(ctx, templates.AnalyzerSystem, prompt, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("requirements analysis: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	cleaned := llm.StripFences(raw)

	var req types.Requirements
	if err := json.Unmarshal([]byte(cleaned), &req); err != nil {
		return nil, &MalformedResponseError{Raw: cleaned, Err: err}
	}

	for _, f := range missingRecommendedFields(&req) {
		log.Warning(fmt.Sprintf("requirements missing recommended field %q", f))
	}

	return &req, nil
}

// missingRecommendedFields lists the recommended top-level fields absent from
// req. The record is still usable without them.
func missingRecommendedFields(req *types.Requirements) []string {
	var missing []string
	if req.ActorName == "" {
		missing = append(missing, "actor_name")
	}
	if req.ActorTitle == "" {
		missing = append(missing, "actor_title")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.ActorType == "" {
		missing = append(missing, "actor_type")
	}
	return missing
}
