package config

import (
	"context"

	"github.com/specialistvlad/meshboot/internal/topology"
)

// Loader is the interface for a format-specific topology loader.
type Loader interface {
	// Extensions lists the file extensions the loader handles, with the
	// leading dot (".hcl").
	Extensions() []string
	// LoadFile reads a single file and returns the nodes it declares.
	LoadFile(ctx context.Context, path string) (*topology.Topology, error)
}
