// Package generator produces the complete FileSet for an Actor from a
// requirements record. Only the main source file needs the completion
// service; every other file is deterministic templating, so regenerating a
// FileSet from the same Requirements always yields identical manifests,
// schemas, and build files.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Grego-GT/spielberg/internal/llm"
	"github.com/Grego-GT/spielberg/internal/log"
	"github.com/Grego-GT/spielberg/internal/templates"
	"github.com/Grego-GT/spielberg/internal/types"
)

// maxTokens bounds the code-generation response.
const maxTokens = 8000

// minSourceLength is the shortest plausible main.py. Anything shorter after
// fence stripping is treated as a failed generation, not a tiny program.
const minSourceLength = 100

// GenerationFailureError is returned when the completion service produces
// empty or implausibly short source code.
type GenerationFailureError struct {
	Length int
}

func (e *GenerationFailureError) Error() string {
	return fmt.Sprintf("generated source is invalid or too short (%d chars)", e.Length)
}

// Generator produces Actor FileSets from Requirements.
type Generator struct {
	client llm.Client
}

// New creates a Generator backed by the given completion client.
func New(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate returns the full FileSet for the Actor described by req:
//
//	src/main.py                – generated by the completion service
//	src/__init__.py            – static package marker
//	src/__main__.py            – static entry point
//	.actor/actor.json          – templated manifest
//	.actor/input_schema.json   – templated input schema
//	requirements.txt           – templated dependency list
//	Dockerfile                 – templated build file (Playwright-aware)
//	README.md                  – templated documentation
//
// req is never modified. Deterministic modulo the service's variance on
// src/main.py.
func (g *Generator) Generate(ctx context.Context, req *types.Requirements) (types.FileSet, error) {
	mainSrc, err := g.generateMainSource(ctx, req)
	if err != nil {
		return nil, err
	}

	files := types.FileSet{
		"src/main.py":     mainSrc,
		"src/__init__.py": "\"\"\"Actor package.\"\"\"\n",
		"src/__main__.py": mainEntryPoint,
	}

	files[".actor/actor.json"], err = actorManifest(req)
	if err != nil {
		return nil, fmt.Errorf("render actor.json: %w", err)
	}
	files[".actor/input_schema.json"], err = inputSchema(req)
	if err != nil {
		return nil, fmt.Errorf("render input_schema.json: %w", err)
	}
	files["requirements.txt"] = requirementsTxt(req)
	files["Dockerfile"] = dockerfile(req)
	files["README.md"] = readme(req)

	return files, nil
}

// mainEntryPoint is the static src/__main__.py content.
const mainEntryPoint = `"""Entry point for the Actor."""

import asyncio
from .main import main

if __name__ == '__main__':
    asyncio.run(main())
`

// generateMainSource asks the completion service for src/main.py and
// validates the result. A missing main() function is logged as a warning but
// not rejected; an empty or too-short response is a *GenerationFailureError.
func (g *Generator) generateMainSource(ctx context.Context, req *types.Requirements) (string, error) {
	inputFields, err := json.MarshalIndent(req.InputFields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal input fields: %w", err)
	}
	outputShape, err := json.MarshalIndent(req.OutputStructure, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal output structure: %w", err)
	}

	deps := req.Dependencies
	if len(deps) == 0 {
		deps = []string{"apify"}
	}
	notes := req.TechnicalNotes
	if notes == "" {
		notes = "None"
	}

	user := fmt.Sprintf(`Generate a complete main.py for an Apify Actor with these requirements:

Actor Name: %s
Description: %s
Actor Type: %s

Input Fields:
%s

Expected Output:
%s

Technical Notes:
%s

Dependencies Available:
%s

Generate complete, production-ready Python code following Apify best practices.`,
		req.ActorName, req.Description, req.ActorType,
		inputFields, outputShape, notes, strings.Join(deps, ", "))

	raw, err := g.client.Complete(ctx, templates.CodegenSystem, user, maxTokens)
	if err != nil {
		return "", fmt.Errorf("source generation: %w", err)
	}

	code := llm.StripFences(raw)
	if len(strings.TrimSpace(code)) < minSourceLength {
		return "", &GenerationFailureError{Length: len(strings.TrimSpace(code))}
	}
	if !strings.Contains(code, "def main") {
		log.Warning("generated source does not contain a main() function")
	}

	return code, nil
}

// ---------------------------------------------------------------------------
// Deterministic templating
// ---------------------------------------------------------------------------

// actorManifest renders .actor/actor.json.
func actorManifest(req *types.Requirements) (string, error) {
	name := req.ActorName
	if name == "" {
		name = "generated-actor"
	}
	title := req.ActorTitle
	if title == "" {
		title = "Generated Actor"
	}
	desc := req.Description
	if desc == "" {
		desc = "Actor generated by spielberg"
	}

	manifest := struct {
		ActorSpecification int               `json:"actorSpecification"`
		Name               string            `json:"name"`
		Title              string            `json:"title"`
		Description        string            `json:"description"`
		Version            string            `json:"version"`
		BuildTag           string            `json:"buildTag"`
		Meta               map[string]string `json:"meta"`
		Dockerfile         string            `json:"dockerfile"`
	}{
		ActorSpecification: 1,
		Name:               name,
		Title:              title,
		Description:        desc,
		Version:            "0.1",
		BuildTag:           "latest",
		Meta: map[string]string{
			"templateId":  "python-empty",
			"generatedBy": "spielberg-v1.0",
		},
		Dockerfile: "./Dockerfile",
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// schemaProperty is one entry in the input schema's properties object.
type schemaProperty struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Editor      string `json:"editor,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// inputSchema renders .actor/input_schema.json from the declared input
// fields. Fields marked required are listed in the schema's required array.
func inputSchema(req *types.Requirements) (string, error) {
	properties := make(map[string]schemaProperty, len(req.InputFields))
	required := []string{}

	for _, field := range req.InputFields {
		title := field.Title
		if title == "" {
			title = titleFromName(field.Name)
		}
		fieldType := field.Type
		if fieldType == "" {
			fieldType = "string"
		}
		properties[field.Name] = schemaProperty{
			Title:       title,
			Type:        fieldType,
			Description: field.Description,
			Editor:      field.Editor,
			Default:     field.Default,
		}
		if field.Required {
			required = append(required, field.Name)
		}
	}

	title := req.ActorTitle
	if title == "" {
		title = "Actor"
	}

	schema := struct {
		Title         string                    `json:"title"`
		Type          string                    `json:"type"`
		SchemaVersion int                       `json:"schemaVersion"`
		Properties    map[string]schemaProperty `json:"properties"`
		Required      []string                  `json:"required"`
	}{
		Title:         title + " Input",
		Type:          "object",
		SchemaVersion: 1,
		Properties:    properties,
		Required:      required,
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// titleFromName converts a snake_case or camelCase-ish field name into a
// human title: "start_url" → "Start Url".
func titleFromName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// requirementsTxt renders requirements.txt. The SDK package is always
// present and pinned to a minimum version; declared dependencies keep any
// version constraint the analyzer supplied.
func requirementsTxt(req *types.Requirements) string {
	deps := req.Dependencies
	hasSDK := false
	for _, d := range deps {
		if d == "apify" || strings.HasPrefix(d, "apify>") || strings.HasPrefix(d, "apify=") || strings.HasPrefix(d, "apify<") {
			hasSDK = true
		}
	}
	if !hasSDK {
		deps = append([]string{"apify"}, deps...)
	}

	lines := make([]string, 0, len(deps))
	for _, dep := range deps {
		if dep == "apify" {
			lines = append(lines, "apify>=1.7.0")
			continue
		}
		lines = append(lines, dep)
	}
	return strings.Join(lines, "\n") + "\n"
}

// dockerfile selects the Playwright-enabled base image when any declared
// dependency mentions playwright ("crawlee[playwright]", "playwright", ...).
func dockerfile(req *types.Requirements) string {
	for _, dep := range req.Dependencies {
		if strings.Contains(strings.ToLower(dep), "playwright") {
			return templates.DockerfilePlaywright
		}
	}
	return templates.Dockerfile
}

// readme renders README.md from the requirements record.
func readme(req *types.Requirements) string {
	title := req.ActorTitle
	if title == "" {
		title = "Generated Actor"
	}
	desc := req.Description
	if desc == "" {
		desc = "Actor generated by spielberg"
	}
	actorType := req.ActorType
	if actorType == "" {
		actorType = "general"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", title, desc)
	fmt.Fprintf(&b, "## Description\n\nThis Actor was automatically generated by spielberg, an AI-powered Actor generator.\n\n")
	fmt.Fprintf(&b, "**Actor Type:** %s\n\n", actorType)

	b.WriteString("## Input\n\nThis Actor accepts the following input parameters:\n\n")
	for _, field := range req.InputFields {
		fieldType := field.Type
		if fieldType == "" {
			fieldType = "string"
		}
		fieldDesc := field.Description
		if fieldDesc == "" {
			fieldDesc = "No description"
		}
		requiredness := "Optional"
		if field.Required {
			requiredness = "**Required**"
		}
		fmt.Fprintf(&b, "- **%s** (%s, %s): %s\n", field.Name, fieldType, requiredness, fieldDesc)
	}

	b.WriteString("\n## Output\n\nThe Actor saves results to the default dataset. Expected output structure:\n\n")
	if len(req.OutputStructure) > 0 {
		data, err := json.MarshalIndent(req.OutputStructure, "", "  ")
		if err == nil {
			fmt.Fprintf(&b, "```json\n%s\n```\n", data)
		}
	} else {
		b.WriteString("See Actor runs for output format.\n")
	}

	b.WriteString("\n## Usage\n\nRun the Actor from the console or via API:\n\n")
	fmt.Fprintf(&b, "```bash\napify call %s --input '{\"field\": \"value\"}'\n```\n", req.ActorName)

	notes := req.TechnicalNotes
	if notes == "" {
		notes = "None provided"
	}
	fmt.Fprintf(&b, "\n## Technical Notes\n\n%s\n", notes)
	b.WriteString("\n---\n\n*Generated by spielberg*\n")

	return b.String()
}
