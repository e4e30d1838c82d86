package config

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/meshboot/internal/topology"
)

// Kind is the declared role of a node as written in a topology file.
type Kind string

const (
	KindRelay  Kind = "relay"
	KindClient Kind = "client"
	KindServer Kind = "server"
)

// ErrIDRange is returned when an id does not fit a topology.NodeID.
var ErrIDRange = errors.New("id out of range 0-255")

// Declaration is the format-agnostic representation of one node block.
// Loaders decode their own syntax into declarations and leave the range
// checks and conversion to ToTopology.
type Declaration struct {
	Kind            Kind
	ID              int
	Neighbors       []int
	DropProbability float64
	// Source locates the declaration for error messages ("ring.hcl: relay \"3\"").
	Source string
}

// ToTopology converts declarations into a topology, keeping declaration
// order within each role. Structural rules are left to the validate package.
func ToTopology(decls []Declaration) (*topology.Topology, error) {
	t := &topology.Topology{}
	for _, d := range decls {
		id, err := nodeID(d.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Source, err)
		}
		neighbors := make([]topology.NodeID, 0, len(d.Neighbors))
		for _, n := range d.Neighbors {
			nid, err := nodeID(n)
			if err != nil {
				return nil, fmt.Errorf("%s: neighbor: %w", d.Source, err)
			}
			neighbors = append(neighbors, nid)
		}

		switch d.Kind {
		case KindRelay:
			t.Relays = append(t.Relays, topology.Relay{ID: id, Neighbors: neighbors, DropProbability: d.DropProbability})
		case KindClient:
			t.Ingress = append(t.Ingress, topology.Ingress{ID: id, Neighbors: neighbors})
		case KindServer:
			t.Termini = append(t.Termini, topology.Terminus{ID: id, Neighbors: neighbors})
		default:
			return nil, fmt.Errorf("%s: unknown node kind '%s'", d.Source, d.Kind)
		}
	}
	return t, nil
}

func nodeID(v int) (topology.NodeID, error) {
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%w: %d", ErrIDRange, v)
	}
	return topology.NodeID(v), nil
}
