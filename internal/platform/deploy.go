package platform

import (
	"context"
	"fmt"

	"github.com/Grego-GT/spielberg/internal/types"
)

// Deploy pushes the FileSet as an Actor named name and triggers the initial
// build. The returned Deployment carries the Actor ID, the in-flight build
// ID, and the console URL; the caller hands it to the validation loop, which
// owns all subsequent build cycles.
func (c *Client) Deploy(ctx context.Context, name, version string, files types.FileSet) (*types.Deployment, error) {
	dep, err := c.CreateOrUpdateActor(ctx, name, version, files)
	if err != nil {
		return nil, err
	}

	buildID, err := c.TriggerBuild(ctx, dep.ActorID, version)
	if err != nil {
		return nil, fmt.Errorf("initial build: %w", err)
	}
	dep.BuildID = buildID
	return dep, nil
}
