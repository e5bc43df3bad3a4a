package generator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Grego-GT/spielberg/internal/generator"
	"github.com/Grego-GT/spielberg/internal/types"
)

// fakeLLM returns a canned response (or error) for every Complete call.
type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(_ context.Context, _, _ string, _ int) (string, error) {
	return f.response, f.err
}

// generatedMain is a plausible main.py long enough to pass validation.
const generatedMain = `from apify import Actor

async def main() -> None:
    """Main Actor entry point."""
    async with Actor:
        actor_input = await Actor.get_input() or {}
        Actor.log.info('Actor starting...')
        await Actor.push_data({'result': 'data'})
        Actor.log.info('Actor finished successfully')
`

func scraperRequirements() *types.Requirements {
	return &types.Requirements{
		ActorName:   "news-scraper",
		ActorTitle:  "News Scraper",
		Description: "Scrapes headlines",
		ActorType:   "scraper",
		Dependencies: []string{
			"beautifulsoup4",
			"httpx",
		},
		InputFields: []types.InputField{
			{Name: "startUrl", Type: "string", Title: "Start URL", Required: true, Default: "https://example.com"},
			{Name: "maxItems", Type: "integer", Description: "Cap on results"},
		},
		OutputStructure: map[string]string{"headline": "article headline"},
		TechnicalNotes:  "Static HTML.",
	}
}

func TestGenerate_FileManifest(t *testing.T) {
	g := generator.New(&fakeLLM{response: generatedMain})

	files, err := g.Generate(context.Background(), scraperRequirements())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []string{
		"src/main.py",
		"src/__init__.py",
		"src/__main__.py",
		".actor/actor.json",
		".actor/input_schema.json",
		"requirements.txt",
		"Dockerfile",
		"README.md",
	}
	for _, path := range want {
		if _, ok := files[path]; !ok {
			t.Errorf("missing file %s", path)
		}
	}
	if len(files) != len(want) {
		t.Errorf("generated %d files, want %d", len(files), len(want))
	}
}

func TestGenerate_MainSourceFenceStripped(t *testing.T) {
	g := generator.New(&fakeLLM{response: "```python\n" + generatedMain + "\n```"})

	files, err := g.Generate(context.Background(), scraperRequirements())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(files["src/main.py"], "```") {
		t.Errorf("main.py still contains markdown fences:\n%s", files["src/main.py"])
	}
	if !strings.Contains(files["src/main.py"], "async def main") {
		t.Errorf("main.py missing generated body:\n%s", files["src/main.py"])
	}
}

func TestGenerate_TooShortSource(t *testing.T) {
	g := generator.New(&fakeLLM{response: "print('hi')"})

	_, err := g.Generate(context.Background(), scraperRequirements())
	if err == nil {
		t.Fatal("expected error for too-short source, got nil")
	}
	var genErr *generator.GenerationFailureError
	if !errors.As(err, &genErr) {
		t.Errorf("error type = %T, want *GenerationFailureError", err)
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	g := generator.New(&fakeLLM{err: errors.New("unavailable")})

	if _, err := g.Generate(context.Background(), scraperRequirements()); err == nil {
		t.Fatal("expected error when the service fails, got nil")
	}
}

func TestGenerate_RequirementsTxtPinsSDK(t *testing.T) {
	g := generator.New(&fakeLLM{response: generatedMain})

	files, err := g.Generate(context.Background(), scraperRequirements())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(files["requirements.txt"]), "\n")
	if lines[0] != "apify>=1.7.0" {
		t.Errorf("first requirement = %q, want pinned apify", lines[0])
	}
	joined := files["requirements.txt"]
	if !strings.Contains(joined, "beautifulsoup4") || !strings.Contains(joined, "httpx") {
		t.Errorf("declared dependencies missing from requirements.txt:\n%s", joined)
	}
}

func TestGenerate_DockerfileSelection(t *testing.T) {
	tests := []struct {
		name           string
		deps           []string
		wantPlaywright bool
	}{
		{"static scraper", []string{"beautifulsoup4", "httpx"}, false},
		{"playwright extra", []string{"crawlee[playwright]"}, true},
		{"bare playwright", []string{"Playwright"}, true},
		{"no deps", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := scraperRequirements()
			req.Dependencies = tt.deps

			g := generator.New(&fakeLLM{response: generatedMain})
			files, err := g.Generate(context.Background(), req)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}

			gotPlaywright := strings.Contains(files["Dockerfile"], "actor-python-playwright")
			if gotPlaywright != tt.wantPlaywright {
				t.Errorf("playwright base = %v, want %v", gotPlaywright, tt.wantPlaywright)
			}
		})
	}
}

func TestGenerate_InputSchema(t *testing.T) {
	g := generator.New(&fakeLLM{response: generatedMain})

	files, err := g.Generate(context.Background(), scraperRequirements())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	schema := files[".actor/input_schema.json"]
	for _, want := range []string{
		`"schemaVersion": 1`,
		`"startUrl"`,
		`"maxItems"`,
		`"default": "https://example.com"`,
		`"required": [
    "startUrl"
  ]`,
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("input schema missing %q:\n%s", want, schema)
		}
	}
}

func TestGenerate_ManifestIdentity(t *testing.T) {
	g := generator.New(&fakeLLM{response: generatedMain})

	files, err := g.Generate(context.Background(), scraperRequirements())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	manifest := files[".actor/actor.json"]
	for _, want := range []string{
		`"name": "news-scraper"`,
		`"title": "News Scraper"`,
		`"version": "0.1"`,
		`"dockerfile": "./Dockerfile"`,
	} {
		if !strings.Contains(manifest, want) {
			t.Errorf("manifest missing %q:\n%s", want, manifest)
		}
	}
}
