package topology

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ringTopology() *Topology {
	return &Topology{
		Relays: []Relay{
			{ID: 0, Neighbors: []NodeID{1, 3, 11}},
			{ID: 1, Neighbors: []NodeID{0, 2}, DropProbability: 0.8},
			{ID: 2, Neighbors: []NodeID{1, 3, 12}},
			{ID: 3, Neighbors: []NodeID{0, 2, 12}},
		},
		Ingress: []Ingress{{ID: 11, Neighbors: []NodeID{0}}},
		Termini: []Terminus{{ID: 12, Neighbors: []NodeID{2, 3}}},
	}
}

func TestNewGraph(t *testing.T) {
	t.Parallel()

	g := NewGraph(ringTopology())

	assert.Equal(t, 6, g.Len())
	assert.Equal(t, []NodeID{0, 1, 2, 3, 11, 12}, g.Nodes())
	assert.Equal(t, []NodeID{0, 1, 2, 3}, g.Relays())
	assert.Equal(t, []NodeID{11}, g.Ingress())
	assert.Equal(t, []NodeID{12}, g.Termini())

	role, ok := g.Role(12)
	require.True(t, ok)
	assert.Equal(t, RoleTerminus, role)

	_, ok = g.Role(42)
	assert.False(t, ok)

	assert.True(t, g.HasEdge(0, 11))
	assert.True(t, g.HasEdge(11, 0))
	assert.False(t, g.HasEdge(1, 3))
	assert.Equal(t, []NodeID{1, 3, 11}, g.Neighbors(0))
	assert.InDelta(t, 0.8, g.DropProbability(1), 1e-9)
}

func TestNewGraph_DuplicateKeepsFirst(t *testing.T) {
	t.Parallel()

	topo := ringTopology()
	topo.Ingress = append(topo.Ingress, Ingress{ID: 0, Neighbors: []NodeID{2}})

	g := NewGraph(topo)

	role, _ := g.Role(0)
	assert.Equal(t, RoleRelay, role)
	assert.Equal(t, 6, g.Len())
}

func TestRelayProjection(t *testing.T) {
	t.Parallel()

	p := NewGraph(ringTopology()).RelayProjection()

	assert.Equal(t, []NodeID{0, 1, 2, 3}, p.Nodes())
	assert.Equal(t, []NodeID{1, 3}, p.Neighbors(0))
	assert.Equal(t, []NodeID{1, 3}, p.Neighbors(2))
	assert.False(t, p.HasEdge(0, 11))
	assert.InDelta(t, 0.8, p.DropProbability(1), 1e-9)
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	orig := ringTopology()
	clone := orig.Clone()
	require.Empty(t, cmp.Diff(orig, clone))

	clone.Relays[0].Neighbors[0] = 99
	clone.Termini[0].Neighbors = append(clone.Termini[0].Neighbors, 1)

	assert.Equal(t, NodeID(1), orig.Relays[0].Neighbors[0])
	assert.Len(t, orig.Termini[0].Neighbors, 2)
}

func TestIDsAndMerge(t *testing.T) {
	t.Parallel()

	a := &Topology{Relays: []Relay{{ID: 1}}}
	b := &Topology{Ingress: []Ingress{{ID: 2}}, Termini: []Terminus{{ID: 1}}}

	a.Merge(b)
	a.Merge(nil)

	assert.Equal(t, []NodeID{1, 2, 1}, a.IDs())
	assert.Equal(t, 3, a.Len())
}

func TestRoleString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "relay", RoleRelay.String())
	assert.Equal(t, "ingress", RoleIngress.String())
	assert.Equal(t, "terminus", RoleTerminus.String())
	assert.Equal(t, "role(0)", RoleUnknown.String())
}
