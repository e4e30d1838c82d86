// Package yamlconfig provides the YAML implementation of config.Loader.
//
//	relays:
//	  - id: 0
//	    neighbors: [1, 3, 10]
//	    drop_probability: 0.05
//	clients:
//	  - id: 10
//	    neighbors: [0]
//	servers:
//	  - id: 12
//	    neighbors: [2, 3]
package yamlconfig

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/meshboot/internal/config"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML topology loader.
func NewLoader() *Loader {
	return &Loader{}
}

type document struct {
	Relays  []relayEntry `yaml:"relays"`
	Clients []edgeEntry  `yaml:"clients"`
	Servers []edgeEntry  `yaml:"servers"`
}

type relayEntry struct {
	ID              *int    `yaml:"id"`
	Neighbors       []int   `yaml:"neighbors"`
	DropProbability float64 `yaml:"drop_probability"`
}

type edgeEntry struct {
	ID        *int  `yaml:"id"`
	Neighbors []int `yaml:"neighbors"`
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".yaml", ".yml"} }

// LoadFile implements config.Loader. Unknown keys are rejected and an empty
// file declares nothing.
func (l *Loader) LoadFile(ctx context.Context, path string) (*topology.Topology, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing YAML topology file.", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open YAML file %s: %w", path, err)
	}
	defer f.Close()

	var doc document
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}

	var decls []config.Declaration
	for i, r := range doc.Relays {
		d, err := declaration(path, "relays", i, config.KindRelay, r.ID, r.Neighbors)
		if err != nil {
			return nil, err
		}
		d.DropProbability = r.DropProbability
		decls = append(decls, d)
	}
	for i, c := range doc.Clients {
		d, err := declaration(path, "clients", i, config.KindClient, c.ID, c.Neighbors)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	for i, s := range doc.Servers {
		d, err := declaration(path, "servers", i, config.KindServer, s.ID, s.Neighbors)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}

	t, err := config.ToTopology(decls)
	if err != nil {
		return nil, err
	}
	logger.Debug("YAML topology file decoded.", "path", path, "relays", len(t.Relays), "clients", len(t.Ingress), "servers", len(t.Termini))
	return t, nil
}

func declaration(path, list string, index int, kind config.Kind, id *int, neighbors []int) (config.Declaration, error) {
	source := fmt.Sprintf("%s: %s[%d]", path, list, index)
	if id == nil {
		return config.Declaration{}, fmt.Errorf("%s: missing id", source)
	}
	return config.Declaration{Kind: kind, ID: *id, Neighbors: neighbors, Source: source}, nil
}
