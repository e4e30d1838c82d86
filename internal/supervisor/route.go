package supervisor

import (
	"slices"

	"github.com/specialistvlad/meshboot/internal/topology"
)

// Route returns a shortest path from one node to another whose interior hops
// are all relays, or false if there is none. Neighbours are explored in
// ascending id order, so the result is deterministic.
func Route(g *topology.Graph, from, to topology.NodeID) ([]topology.NodeID, bool) {
	if _, ok := g.Role(from); !ok {
		return nil, false
	}
	if _, ok := g.Role(to); !ok {
		return nil, false
	}
	if from == to {
		return []topology.NodeID{from}, true
	}

	prev := map[topology.NodeID]topology.NodeID{}
	visited := map[topology.NodeID]struct{}{from: {}}
	queue := []topology.NodeID{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		next := g.Neighbors(cur)
		slices.Sort(next)
		for _, n := range next {
			if _, seen := visited[n]; seen {
				continue
			}
			if n != to {
				if role, _ := g.Role(n); role != topology.RoleRelay {
					continue
				}
			}
			visited[n] = struct{}{}
			prev[n] = cur
			if n == to {
				return unwind(prev, from, to), true
			}
			queue = append(queue, n)
		}
	}
	return nil, false
}

func unwind(prev map[topology.NodeID]topology.NodeID, from, to topology.NodeID) []topology.NodeID {
	path := []topology.NodeID{to}
	for cur := to; cur != from; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}
