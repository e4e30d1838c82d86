package topology

import (
	"slices"
)

// Graph is the directed adjacency of a topology: an edge a→b exists whenever
// b appears in a's declared neighbour list. It is never mutated after
// NewGraph returns, so concurrent readers need no locking.
type Graph struct {
	// order holds node ids in declaration order (relays, ingress, termini).
	order []NodeID
	roles map[NodeID]Role
	// adj keeps each node's neighbours in declared order.
	adj map[NodeID][]NodeID
	// edges is a set view of adj for O(1) HasEdge.
	edges map[NodeID]map[NodeID]struct{}
	drop  map[NodeID]float64
}

// NewGraph builds the adjacency of t. If an id is declared more than once only
// its first declaration is kept; callers that care must check uniqueness first.
func NewGraph(t *Topology) *Graph {
	g := &Graph{
		order: make([]NodeID, 0, t.Len()),
		roles: make(map[NodeID]Role, t.Len()),
		adj:   make(map[NodeID][]NodeID, t.Len()),
		edges: make(map[NodeID]map[NodeID]struct{}, t.Len()),
		drop:  make(map[NodeID]float64, len(t.Relays)),
	}
	for _, r := range t.Relays {
		if g.add(r.ID, RoleRelay, r.Neighbors) {
			g.drop[r.ID] = r.DropProbability
		}
	}
	for _, c := range t.Ingress {
		g.add(c.ID, RoleIngress, c.Neighbors)
	}
	for _, s := range t.Termini {
		g.add(s.ID, RoleTerminus, s.Neighbors)
	}
	return g
}

func (g *Graph) add(id NodeID, role Role, neighbors []NodeID) bool {
	if _, exists := g.roles[id]; exists {
		return false
	}
	g.order = append(g.order, id)
	g.roles[id] = role
	g.adj[id] = slices.Clone(neighbors)
	set := make(map[NodeID]struct{}, len(neighbors))
	for _, n := range neighbors {
		set[n] = struct{}{}
	}
	g.edges[id] = set
	return true
}

// Len returns the number of distinct nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Nodes returns all node ids in declaration order.
func (g *Graph) Nodes() []NodeID {
	return slices.Clone(g.order)
}

// Relays returns the relay ids sorted ascending.
func (g *Graph) Relays() []NodeID {
	return g.byRole(RoleRelay)
}

// Ingress returns the ingress ids sorted ascending.
func (g *Graph) Ingress() []NodeID {
	return g.byRole(RoleIngress)
}

// Termini returns the terminus ids sorted ascending.
func (g *Graph) Termini() []NodeID {
	return g.byRole(RoleTerminus)
}

func (g *Graph) byRole(role Role) []NodeID {
	var ids []NodeID
	for _, id := range g.order {
		if g.roles[id] == role {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Role reports the role of id. The boolean is false for unknown ids.
func (g *Graph) Role(id NodeID) (Role, bool) {
	r, ok := g.roles[id]
	return r, ok
}

// Neighbors returns the declared neighbours of id, in declaration order.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	return slices.Clone(g.adj[id])
}

// HasEdge reports whether b is declared as a neighbour of a.
func (g *Graph) HasEdge(a, b NodeID) bool {
	_, ok := g.edges[a][b]
	return ok
}

// DropProbability returns the declared drop probability of a relay.
func (g *Graph) DropProbability(id NodeID) float64 {
	return g.drop[id]
}

// RelayProjection returns the subgraph made of relays and relay-to-relay
// edges only.
func (g *Graph) RelayProjection() *Graph {
	p := &Graph{
		roles: make(map[NodeID]Role),
		adj:   make(map[NodeID][]NodeID),
		edges: make(map[NodeID]map[NodeID]struct{}),
		drop:  make(map[NodeID]float64),
	}
	for _, id := range g.order {
		if g.roles[id] != RoleRelay {
			continue
		}
		var kept []NodeID
		for _, n := range g.adj[id] {
			if g.roles[n] == RoleRelay {
				kept = append(kept, n)
			}
		}
		p.add(id, RoleRelay, kept)
		p.drop[id] = g.drop[id]
	}
	return p
}
