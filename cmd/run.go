package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Grego-GT/spielberg/internal/analyzer"
	"github.com/Grego-GT/spielberg/internal/config"
	"github.com/Grego-GT/spielberg/internal/generator"
	"github.com/Grego-GT/spielberg/internal/llm"
	"github.com/Grego-GT/spielberg/internal/log"
	"github.com/Grego-GT/spielberg/internal/loop"
	"github.com/Grego-GT/spielberg/internal/platform"
	"github.com/Grego-GT/spielberg/internal/report"
	"github.com/Grego-GT/spielberg/internal/store"
	"github.com/Grego-GT/spielberg/internal/types"
)

// runFlags holds CLI flag values that override spielberg.yaml settings.
// Only flags explicitly changed by the user are applied (checked via
// cmd.Flags().Changed).
var runFlags struct {
	prompt        string
	model         string
	maxIterations int
	storePath     string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate, deploy, and validate an Actor",
	Long:  "Turn a natural-language prompt into a deployed Actor, then build, test, and repair it until it works or the iteration budget runs out.",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.prompt, "prompt", "", "what the Actor should do (required)")
	runCmd.Flags().StringVar(&runFlags.model, "model", "", "override model from spielberg.yaml")
	runCmd.Flags().IntVar(&runFlags.maxIterations, "max-iterations", 0, "override max_iterations from spielberg.yaml")
	runCmd.Flags().StringVar(&runFlags.storePath, "store", "", "override store_path from spielberg.yaml")
}

// runPipeline implements the full generation pipeline for the "run"
// subcommand:
//
//  1. Load config from spielberg.yaml; apply CLI flag overrides; validate.
//  2. Load credentials from the environment (seeded from .env if present).
//  3. Analyze the prompt into a structured requirements record.
//  4. Generate the Actor's files from the requirements.
//  5. Deploy the files and trigger the initial build.
//  6. Run the validation loop until the Actor works or the budget is spent.
//
// Requirements, generated files, and the terminal result are persisted to
// the local artifact store as they are produced, so a run that dies midway
// still leaves an inspectable trail.
func runPipeline(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(runFlags.prompt)
	if prompt == "" {
		return fmt.Errorf("--prompt is required: describe what the Actor should do")
	}

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	// A missing spielberg.yaml returns sane defaults without error.
	cfg, err := config.LoadConfig(filepath.Join(dir, "spielberg.yaml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Apply CLI flag overrides — only when the user explicitly set the flag.
	if cmd.Flags().Changed("model") {
		cfg.Model = runFlags.model
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.MaxIterations = runFlags.maxIterations
	}
	if cmd.Flags().Changed("store") {
		cfg.StorePath = runFlags.storePath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	secrets, err := config.LoadSecrets(dir)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	runID := uuid.NewString()
	client := llm.NewOpenAIClient(secrets.OpenAIKey, cfg.Model)

	// Step 1: prompt → structured requirements.
	log.Section("Analyzing requirements")
	req, err := analyzer.New(client).Analyze(ctx, prompt)
	if err != nil {
		return fmt.Errorf("analyze prompt: %w", err)
	}
	if req.ActorName == "" {
		req.ActorName = "generated-actor"
	}
	log.Success(fmt.Sprintf("Actor: %s (%s)", req.ActorName, req.ActorType))
	if err := db.SaveRequirements(runID, req); err != nil {
		return fmt.Errorf("persist requirements: %w", err)
	}

	// Step 2: requirements → complete FileSet.
	log.Section("Generating Actor files")
	gen := generator.New(client)
	files, err := gen.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate files: %w", err)
	}
	log.Success(fmt.Sprintf("Generated %d files", len(files)))
	if err := db.SaveFileSet(runID, files); err != nil {
		return fmt.Errorf("persist generated files: %w", err)
	}

	// Step 3: push to the platform and trigger the initial build.
	log.Section("Deploying Actor")
	pc := platform.NewClient(cfg.PlatformBaseURL, cfg.ConsoleBaseURL, secrets.PlatformToken)
	pc.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second
	pc.BuildTimeout = time.Duration(cfg.BuildTimeoutSeconds) * time.Second
	pc.ProbeTimeout = time.Duration(cfg.ProbeTimeoutSeconds) * time.Second
	pc.ProbeMemoryMB = cfg.ProbeMemoryMB

	dep, err := pc.Deploy(ctx, req.ActorName, cfg.ActorVersion, files)
	if err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	log.Success(fmt.Sprintf("Deployed as %s, build %s", dep.ActorID, dep.BuildID))

	// Step 4: validate and repair until done.
	runner := loop.New(pc, gen, client)
	runner.ActorVersion = cfg.ActorVersion
	trail := &report.Trail{}
	runner.Trail = trail

	result, err := runner.Run(ctx, dep, req, cfg.MaxIterations)
	if err != nil {
		return fmt.Errorf("validation loop: %w", err)
	}

	// Persist the outcome before reporting it; a failed save should not mask
	// the run's actual result, so it is only logged.
	if err := db.SaveResult(runID, result); err != nil {
		log.Warning(fmt.Sprintf("persist result: %v", err))
	}
	if err := db.SaveRunRecord(&types.RunRecord{
		ID:         runID,
		Prompt:     prompt,
		ActorName:  req.ActorName,
		ActorID:    result.ActorID,
		Status:     result.Status,
		Iterations: result.Iterations,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Warning(fmt.Sprintf("persist run record: %v", err))
	}

	report.PrintSummary(result, trail)

	if result.Status != types.StatusSuccess {
		return fmt.Errorf("actor created but validation failed: %s", result.Message)
	}
	log.Success("Actor is live: " + result.ConsoleURL)
	return nil
}
