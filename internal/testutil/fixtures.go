package testutil

import "github.com/specialistvlad/meshboot/internal/topology"

// RingTopology returns four relays in a ring (0-1-2-3-0) with drop
// probability 0, client 11 attached to relay 0 and server 12 attached to
// relays 2 and 3. It is valid.
func RingTopology() *topology.Topology {
	return &topology.Topology{
		Relays: []topology.Relay{
			{ID: 0, Neighbors: []topology.NodeID{1, 3, 11}},
			{ID: 1, Neighbors: []topology.NodeID{0, 2}},
			{ID: 2, Neighbors: []topology.NodeID{1, 3, 12}},
			{ID: 3, Neighbors: []topology.NodeID{0, 2, 12}},
		},
		Ingress: []topology.Ingress{
			{ID: 11, Neighbors: []topology.NodeID{0}},
		},
		Termini: []topology.Terminus{
			{ID: 12, Neighbors: []topology.NodeID{2, 3}},
		},
	}
}

// DoubleChain returns two parallel chains of five relays (0-4 and 5-9) with
// rungs between them, clients 10 and 11 on relays 0 and 5, and servers 12
// and 13 attached to relays 4 and 9. It is valid.
func DoubleChain() *topology.Topology {
	return &topology.Topology{
		Relays: []topology.Relay{
			{ID: 0, Neighbors: []topology.NodeID{1, 5, 10}},
			{ID: 1, Neighbors: []topology.NodeID{0, 2, 6}},
			{ID: 2, Neighbors: []topology.NodeID{1, 3, 7}},
			{ID: 3, Neighbors: []topology.NodeID{2, 4, 8}},
			{ID: 4, Neighbors: []topology.NodeID{3, 9, 12, 13}},
			{ID: 5, Neighbors: []topology.NodeID{0, 6, 11}},
			{ID: 6, Neighbors: []topology.NodeID{5, 7, 1}},
			{ID: 7, Neighbors: []topology.NodeID{6, 8, 2}},
			{ID: 8, Neighbors: []topology.NodeID{7, 9, 3}},
			{ID: 9, Neighbors: []topology.NodeID{8, 4, 12, 13}},
		},
		Ingress: []topology.Ingress{
			{ID: 10, Neighbors: []topology.NodeID{0}},
			{ID: 11, Neighbors: []topology.NodeID{5}},
		},
		Termini: []topology.Terminus{
			{ID: 12, Neighbors: []topology.NodeID{4, 9}},
			{ID: 13, Neighbors: []topology.NodeID{4, 9}},
		},
	}
}

// Edges returns every declared directed edge of t.
func Edges(t *topology.Topology) [][2]topology.NodeID {
	var out [][2]topology.NodeID
	for _, r := range t.Relays {
		for _, n := range r.Neighbors {
			out = append(out, [2]topology.NodeID{r.ID, n})
		}
	}
	for _, c := range t.Ingress {
		for _, n := range c.Neighbors {
			out = append(out, [2]topology.NodeID{c.ID, n})
		}
	}
	for _, s := range t.Termini {
		for _, n := range s.Neighbors {
			out = append(out, [2]topology.NodeID{s.ID, n})
		}
	}
	return out
}
