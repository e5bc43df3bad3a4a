// Package platform implements the hosting-platform REST client used to
// deploy Actors, trigger and observe builds, and invoke bounded test runs.
// All methods take a context and suspend until the remote call completes.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Grego-GT/spielberg/internal/log"
	"github.com/Grego-GT/spielberg/internal/types"
)

// ErrBuildPollTimeout is returned by WaitForBuild when the build does not
// reach a terminal status within the client's BuildTimeout. Callers treat
// this as fatal, not retryable.
var ErrBuildPollTimeout = errors.New("build did not reach a terminal status in time")

// APIError is returned for any non-2xx platform response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300]
	}
	return fmt.Sprintf("platform API error %d: %s", e.StatusCode, body)
}

// Client talks to the hosting platform's HTTP API.
//
// PollInterval and BuildTimeout govern WaitForBuild; ProbeTimeout and
// ProbeMemoryMB bound test runs. Zero values fall back to conservative
// defaults in NewClient.
type Client struct {
	BaseURL        string
	ConsoleBaseURL string
	Token          string
	PollInterval   time.Duration
	BuildTimeout   time.Duration
	ProbeTimeout   time.Duration
	ProbeMemoryMB  int

	httpClient *http.Client
}

// NewClient creates a platform Client for the given API base URL, console
// base URL, and API token.
func NewClient(baseURL, consoleBaseURL, token string) *Client {
	return &Client{
		BaseURL:        baseURL,
		ConsoleBaseURL: consoleBaseURL,
		Token:          token,
		PollInterval:   10 * time.Second,
		BuildTimeout:   10 * time.Minute,
		ProbeTimeout:   60 * time.Second,
		ProbeMemoryMB:  256,
		httpClient:     &http.Client{Timeout: 2 * time.Minute},
	}
}

// ConsoleURL returns the console page for the given Actor, derived
// deterministically from the configured console base URL.
func (c *Client) ConsoleURL(actorID string) string {
	return c.ConsoleBaseURL + "/actors/" + actorID
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

// sourceFile is one entry in an Actor version's source file list.
type sourceFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Format  string `json:"format"`
}

// envelope is the platform's standard {"data": ...} response wrapper.
type envelope[T any] struct {
	Data T `json:"data"`
}

type actorResource struct {
	ID string `json:"id"`
}

type buildResource struct {
	ID     string            `json:"id"`
	Status types.BuildStatus `json:"status"`
}

type runResource struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

type datasetResource struct {
	ItemCount int `json:"itemCount"`
}

// toSourceFiles converts a FileSet to the platform's source file list.
func toSourceFiles(files types.FileSet) []sourceFile {
	out := make([]sourceFile, 0, len(files))
	for path, content := range files {
		out = append(out, sourceFile{Name: path, Content: content, Format: "TEXT"})
	}
	return out
}

// ---------------------------------------------------------------------------
// Actor and version management
// ---------------------------------------------------------------------------

// CreateOrUpdateActor ensures an Actor named name exists with the given
// source files at the given version. A fresh Actor is created when possible;
// if the name is already taken on this account, the existing Actor's version
// is replaced instead. The returned Deployment has no BuildID yet.
func (c *Client) CreateOrUpdateActor(ctx context.Context, name, version string, files types.FileSet) (*types.Deployment, error) {
	payload := map[string]any{
		"name": name,
		"versions": []map[string]any{
			{
				"versionNumber": version,
				"buildTag":      "latest",
				"sourceType":    "SOURCE_FILES",
				"sourceFiles":   toSourceFiles(files),
			},
		},
	}

	var created envelope[actorResource]
	err := c.do(ctx, http.MethodPost, "/acts", payload, &created)
	if err == nil {
		return &types.Deployment{ActorID: created.Data.ID, ConsoleURL: c.ConsoleURL(created.Data.ID)}, nil
	}

	// Name collision: fall back to updating the existing Actor's version.
	var apiErr *APIError
	if !errors.As(err, &apiErr) || (apiErr.StatusCode != http.StatusBadRequest && apiErr.StatusCode != http.StatusConflict) {
		return nil, fmt.Errorf("create actor: %w", err)
	}

	actorID, lookupErr := c.lookupActorID(ctx, name)
	if lookupErr != nil {
		return nil, fmt.Errorf("create actor failed (%v) and lookup by name failed: %w", err, lookupErr)
	}
	log.Warning(fmt.Sprintf("actor %q already exists (id %s) — updating version %s", name, actorID, version))

	if err := c.UpdateActorVersion(ctx, actorID, version, files); err != nil {
		return nil, err
	}
	return &types.Deployment{ActorID: actorID, ConsoleURL: c.ConsoleURL(actorID)}, nil
}

// lookupActorID finds the caller's Actor with the given name.
func (c *Client) lookupActorID(ctx context.Context, name string) (string, error) {
	var listing envelope[struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}]
	if err := c.do(ctx, http.MethodGet, "/acts?my=1&limit=1000", nil, &listing); err != nil {
		return "", err
	}
	for _, item := range listing.Data.Items {
		if item.Name == name {
			return item.ID, nil
		}
	}
	return "", fmt.Errorf("no actor named %q found", name)
}

// UpdateActorVersion replaces the source files of the given Actor version.
func (c *Client) UpdateActorVersion(ctx context.Context, actorID, version string, files types.FileSet) error {
	payload := map[string]any{
		"versionNumber": version,
		"buildTag":      "latest",
		"sourceType":    "SOURCE_FILES",
		"sourceFiles":   toSourceFiles(files),
	}
	path := fmt.Sprintf("/acts/%s/versions/%s", actorID, version)
	if err := c.do(ctx, http.MethodPut, path, payload, nil); err != nil {
		return fmt.Errorf("update actor version: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builds
// ---------------------------------------------------------------------------

// TriggerBuild starts a build of the given Actor version and returns the new
// build's ID.
func (c *Client) TriggerBuild(ctx context.Context, actorID, version string) (string, error) {
	path := fmt.Sprintf("/acts/%s/builds?version=%s", actorID, url.QueryEscape(version))
	var resp envelope[buildResource]
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return "", fmt.Errorf("trigger build: %w", err)
	}
	return resp.Data.ID, nil
}

// GetBuildStatus fetches the current status of one build.
func (c *Client) GetBuildStatus(ctx context.Context, actorID, buildID string) (types.BuildStatus, error) {
	path := fmt.Sprintf("/acts/%s/builds/%s", actorID, buildID)
	var resp envelope[buildResource]
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("get build status: %w", err)
	}
	return resp.Data.Status, nil
}

// WaitForBuild polls the build until it reaches a terminal status. The wait
// is bounded by the client's BuildTimeout; exceeding it returns
// ErrBuildPollTimeout, which callers must treat as fatal rather than
// retryable.
func (c *Client) WaitForBuild(ctx context.Context, actorID, buildID string) (types.BuildStatus, error) {
	deadline := time.Now().Add(c.BuildTimeout)

	for {
		status, err := c.GetBuildStatus(ctx, actorID, buildID)
		if err != nil {
			return "", err
		}
		if status.Terminal() {
			return status, nil
		}

		if time.Now().After(deadline) {
			return status, fmt.Errorf("%w (last status %s after %s)", ErrBuildPollTimeout, status, c.BuildTimeout)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

// GetBuildLog fetches the plain-text log of one build.
func (c *Client) GetBuildLog(ctx context.Context, actorID, buildID string) (string, error) {
	path := fmt.Sprintf("/acts/%s/builds/%s/log", actorID, buildID)
	text, err := c.doText(ctx, path)
	if err != nil {
		return "", fmt.Errorf("get build log: %w", err)
	}
	return text, nil
}

// ---------------------------------------------------------------------------
// Test runs
// ---------------------------------------------------------------------------

// InvokeTestRun starts a bounded, low-memory run of the Actor with the given
// input, waits for it to finish, and inspects the default dataset's item
// count. Run-level anomalies (non-succeeded status, missing dataset, zero
// items) are reported as an unsuccessful probe, not as an error; an error is
// returned only for transport or decoding failures.
func (c *Client) InvokeTestRun(ctx context.Context, actorID string, input map[string]any) (*types.RunProbe, error) {
	timeoutSecs := int(c.ProbeTimeout.Seconds())
	path := fmt.Sprintf("/acts/%s/runs?timeout=%d&memory=%d&waitForFinish=%d",
		actorID, timeoutSecs, c.ProbeMemoryMB, timeoutSecs)

	var resp envelope[runResource]
	if err := c.do(ctx, http.MethodPost, path, input, &resp); err != nil {
		return nil, fmt.Errorf("invoke test run: %w", err)
	}
	run := resp.Data

	// The run log is diagnostic input for the repair prompt; failing to
	// fetch it must not fail the probe.
	logText, err := c.doText(ctx, "/logs/"+run.ID)
	if err != nil {
		logText = "Could not fetch run log"
	}

	if run.Status != string(types.BuildSucceeded) {
		return &types.RunProbe{
			Success: false,
			Message: fmt.Sprintf("Run failed with status: %s", run.Status),
			Log:     logText,
		}, nil
	}

	if run.DefaultDatasetID == "" {
		return &types.RunProbe{Success: false, Message: "No dataset found", Log: logText}, nil
	}

	var ds envelope[datasetResource]
	if err := c.do(ctx, http.MethodGet, "/datasets/"+run.DefaultDatasetID, nil, &ds); err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}

	if ds.Data.ItemCount == 0 {
		return &types.RunProbe{
			Success: false,
			Message: "Run succeeded but produced no data",
			Log:     logText,
		}, nil
	}

	return &types.RunProbe{
		Success:   true,
		ItemCount: ds.Data.ItemCount,
		Message:   fmt.Sprintf("Produced %d items", ds.Data.ItemCount),
		Log:       logText,
	}, nil
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

// do performs one JSON request against the platform API. A nil body sends no
// payload; a nil out discards the response body. Non-2xx responses become
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doText performs one GET returning the raw response body as text.
func (c *Client) doText(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return string(data), nil
}
