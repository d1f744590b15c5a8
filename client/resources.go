package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arkflow-dev/gozeebe/gateway"
)

// readResources loads each path into a gateway.Resource named after its
// base filename. Stops at the first unreadable path.
func readResources(paths []string) ([]gateway.Resource, error) {
	resources := make([]gateway.Resource, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("client: read resource %s: %w", p, err)
		}
		resources = append(resources, gateway.Resource{Name: filepath.Base(p), Content: content})
	}
	return resources, nil
}
