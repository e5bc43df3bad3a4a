// Package integration contains the end-to-end smoke test for the spielberg
// pipeline. The test wires the real analyzer, generator, platform client,
// and validation loop together against an httptest platform server and a
// scripted completion service, then checks the terminal result and the
// persisted artifacts.
//
// Run with: go test ./integration/... -v -timeout 60s
package integration
