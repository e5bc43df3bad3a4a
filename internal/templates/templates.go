// Package templates holds the embedded prompt and scaffold files used by the
// pipeline. All templates are compiled into the binary at build time via
// //go:embed.
//
// Three subdirectories serve different purposes:
//
//   - prompts/ — system prompts sent to the completion service by the
//     analyzer, the generator, and the two repair classes.
//
//   - scaffold/ — deterministic file templates stamped into every generated
//     Actor (Dockerfile variants).
//
//   - init/ — files copied into the user's working directory by
//     `spielberg init`.
package templates

import "embed"

// Init holds files copied to the working directory by `spielberg init`.
//
//go:embed init
var Init embed.FS

// AnalyzerSystem is the system prompt for turning a free-text request into a
// structured requirements record.
//
//go:embed prompts/analyzer_system.txt
var AnalyzerSystem string

// CodegenSystem is the system prompt for generating the Actor's main source
// file from a requirements record.
//
//go:embed prompts/codegen_system.txt
var CodegenSystem string

// RepairBuildSystem is the system prompt for the build-failure repair class.
//
//go:embed prompts/repair_build.txt
var RepairBuildSystem string

// RepairRuntimeSystem is the system prompt for the empty-output repair class.
//
//go:embed prompts/repair_runtime.txt
var RepairRuntimeSystem string

// Dockerfile is the container build file for Actors without browser
// automation.
//
//go:embed scaffold/Dockerfile
var Dockerfile string

// DockerfilePlaywright is the container build file for Actors whose
// dependency list requires Playwright.
//
//go:embed scaffold/Dockerfile.playwright
var DockerfilePlaywright string
