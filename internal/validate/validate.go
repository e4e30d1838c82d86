// Package validate enforces the structural rules a topology must satisfy
// before it can be bootstrapped: unique ids, sane drop probabilities,
// well-formed adjacency per role, symmetric edges, full connectivity, and
// edge nodes placed at the periphery of the relay mesh.
//
// Every predicate is a pure function. Validate combines them in a fixed
// order and stops at the first failure; Report runs all of them.
package validate

import (
	"math"

	"go.uber.org/multierr"

	"github.com/specialistvlad/meshboot/internal/topology"
)

const (
	// MinIngressNeighbors and MaxIngressNeighbors bound a client's fan-out.
	MinIngressNeighbors = 1
	MaxIngressNeighbors = 2
	// MinTerminusNeighbors is the redundancy a server needs.
	MinTerminusNeighbors = 2
)

// Validate returns nil if t satisfies every structural rule, or the
// *Violation of the first rule that fails.
func Validate(t *topology.Topology) error {
	for _, check := range topologyChecks {
		if v := check(t); v != nil {
			return v
		}
	}
	g := topology.NewGraph(t)
	for _, check := range graphChecks {
		if v := check(g); v != nil {
			return v
		}
	}
	return nil
}

// Valid reports whether t passes Validate.
func Valid(t *topology.Topology) bool {
	return Validate(t) == nil
}

// Report runs every check, without stopping at the first failure, and
// returns all violations combined. Use multierr.Errors to split the result.
func Report(t *topology.Topology) error {
	var err error
	for _, check := range topologyChecks {
		if v := check(t); v != nil {
			err = multierr.Append(err, v)
		}
	}
	g := topology.NewGraph(t)
	for _, check := range graphChecks {
		if v := check(g); v != nil {
			err = multierr.Append(err, v)
		}
	}
	return err
}

var topologyChecks = []func(*topology.Topology) *Violation{
	checkUniqueIDs,
	checkDropProbability,
	checkRelayConnections,
	checkIngressConnections,
	checkTerminusConnections,
}

var graphChecks = []func(*topology.Graph) *Violation{
	checkSymmetricAndConnected,
	checkEdgeNodesAreLeaves,
}

// UniqueIDs reports whether no id is declared twice across all roles.
func UniqueIDs(t *topology.Topology) bool { return checkUniqueIDs(t) == nil }

// DropProbabilityInRange reports whether every relay's drop probability is a
// number in [0, 1].
func DropProbabilityInRange(t *topology.Topology) bool { return checkDropProbability(t) == nil }

// RelayConnections reports whether every relay's neighbour list is free of
// self-loops and duplicates.
func RelayConnections(t *topology.Topology) bool { return checkRelayConnections(t) == nil }

// IngressConnections reports whether every client has one or two distinct
// relay neighbours and no self-loop.
func IngressConnections(t *topology.Topology) bool { return checkIngressConnections(t) == nil }

// TerminusConnections reports whether every server has at least two distinct
// relay neighbours and no self-loop.
func TerminusConnections(t *topology.Topology) bool { return checkTerminusConnections(t) == nil }

// SymmetricAndConnected reports whether every declared edge is declared in
// both directions and every node is reachable from the lowest relay.
func SymmetricAndConnected(g *topology.Graph) bool { return checkSymmetricAndConnected(g) == nil }

// EdgeNodesAreLeaves reports whether the relays stay connected once clients
// and servers are removed, i.e. no edge node is a forwarding point.
func EdgeNodesAreLeaves(g *topology.Graph) bool { return checkEdgeNodesAreLeaves(g) == nil }

func checkUniqueIDs(t *topology.Topology) *Violation {
	seen := make(map[topology.NodeID]struct{}, t.Len())
	for _, id := range t.IDs() {
		if _, dup := seen[id]; dup {
			return nodeViolation(CheckUniqueIDs, ErrIDCollision, id, "id %d is declared more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func checkDropProbability(t *topology.Topology) *Violation {
	for _, r := range t.Relays {
		p := r.DropProbability
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nodeViolation(CheckDropProbability, ErrProbabilityRange, r.ID, "drop probability %v is outside [0, 1]", p)
		}
	}
	return nil
}

func checkRelayConnections(t *topology.Topology) *Violation {
	for _, r := range t.Relays {
		if v := checkNeighborList(CheckRelayConnections, ErrRelayConnections, r.ID, r.Neighbors, nil); v != nil {
			return v
		}
	}
	return nil
}

func checkIngressConnections(t *topology.Topology) *Violation {
	relays := relaySet(t)
	for _, c := range t.Ingress {
		if n := len(c.Neighbors); n < MinIngressNeighbors || n > MaxIngressNeighbors {
			return nodeViolation(CheckIngressConnections, ErrIngressConnections, c.ID,
				"client has %d neighbours, want between %d and %d", n, MinIngressNeighbors, MaxIngressNeighbors)
		}
		if v := checkNeighborList(CheckIngressConnections, ErrIngressConnections, c.ID, c.Neighbors, relays); v != nil {
			return v
		}
	}
	return nil
}

func checkTerminusConnections(t *topology.Topology) *Violation {
	relays := relaySet(t)
	for _, s := range t.Termini {
		if n := len(s.Neighbors); n < MinTerminusNeighbors {
			return nodeViolation(CheckTerminusConnections, ErrTerminusConnections, s.ID,
				"server has %d neighbours, want at least %d", n, MinTerminusNeighbors)
		}
		if v := checkNeighborList(CheckTerminusConnections, ErrTerminusConnections, s.ID, s.Neighbors, relays); v != nil {
			return v
		}
	}
	return nil
}

// checkNeighborList rejects self-loops, duplicates and, when allowed is not
// nil, neighbours outside the allowed set.
func checkNeighborList(c Check, reason error, id topology.NodeID, neighbors []topology.NodeID, allowed map[topology.NodeID]struct{}) *Violation {
	seen := make(map[topology.NodeID]struct{}, len(neighbors))
	for _, n := range neighbors {
		if n == id {
			return edgeViolation(c, reason, id, n, "self-loop")
		}
		if _, dup := seen[n]; dup {
			return edgeViolation(c, reason, id, n, "neighbour %d listed twice", n)
		}
		seen[n] = struct{}{}
		if allowed != nil {
			if _, ok := allowed[n]; !ok {
				return edgeViolation(c, reason, id, n, "neighbour %d is not a relay", n)
			}
		}
	}
	return nil
}

func relaySet(t *topology.Topology) map[topology.NodeID]struct{} {
	set := make(map[topology.NodeID]struct{}, len(t.Relays))
	for _, r := range t.Relays {
		set[r.ID] = struct{}{}
	}
	return set
}

func checkSymmetricAndConnected(g *topology.Graph) *Violation {
	return traverse(g, CheckSymmetricAndConnected, ErrDisconnected)
}

func checkEdgeNodesAreLeaves(g *topology.Graph) *Violation {
	return traverse(g.RelayProjection(), CheckLeafPlacement, ErrNonLeafEdgeNode)
}

// traverse runs a breadth-first search from the lowest relay id. Each edge
// a→b met on the way must have its reverse b→a declared; afterwards every
// node of g must have been visited exactly once.
func traverse(g *topology.Graph, c Check, unreached error) *Violation {
	relays := g.Relays()
	if len(relays) == 0 {
		return &Violation{Check: c, Reason: unreached, Detail: "topology has no relays"}
	}

	start := relays[0]
	visited := map[topology.NodeID]struct{}{start: {}}
	queue := []topology.NodeID{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range g.Neighbors(cur) {
			if _, known := g.Role(next); !known {
				return edgeViolation(c, ErrAsymmetricEdge, cur, next, "neighbour %d is not declared", next)
			}
			if !g.HasEdge(next, cur) {
				return edgeViolation(c, ErrAsymmetricEdge, cur, next, "%d does not list %d back", next, cur)
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	if len(visited) == g.Len() {
		return nil
	}
	for _, id := range g.Nodes() {
		if _, ok := visited[id]; !ok {
			return nodeViolation(c, unreached, id, "reached %d of %d nodes from relay %d", len(visited), g.Len(), start)
		}
	}
	return nil
}
