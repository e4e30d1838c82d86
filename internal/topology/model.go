package topology

import (
	"fmt"
	"slices"
)

// NodeID identifies a node. Relays, ingress and terminus nodes share a single
// namespace.
type NodeID uint8

// Role distinguishes the three kinds of nodes in a topology.
type Role int

const (
	// RoleUnknown is returned for ids that are not part of the topology.
	RoleUnknown Role = iota
	// RoleRelay forwards traffic and never originates or terminates requests.
	RoleRelay
	// RoleIngress originates application requests (a client).
	RoleIngress
	// RoleTerminus serves application requests (a server).
	RoleTerminus
)

func (r Role) String() string {
	switch r {
	case RoleRelay:
		return "relay"
	case RoleIngress:
		return "ingress"
	case RoleTerminus:
		return "terminus"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Relay is a forwarding node of the mesh.
type Relay struct {
	ID        NodeID
	Neighbors []NodeID
	// DropProbability is the chance of discarding a forwarded packet, in [0, 1].
	DropProbability float64
}

// Ingress is an edge node originating requests. It attaches to one or two relays.
type Ingress struct {
	ID        NodeID
	Neighbors []NodeID
}

// Terminus is an edge node serving requests. It attaches to at least two relays.
type Terminus struct {
	ID        NodeID
	Neighbors []NodeID
}

// Topology is the complete declared network.
type Topology struct {
	Relays  []Relay
	Ingress []Ingress
	Termini []Terminus
}

// Len returns the total number of declared nodes.
func (t *Topology) Len() int {
	return len(t.Relays) + len(t.Ingress) + len(t.Termini)
}

// RelayIDs returns the relay ids in declaration order.
func (t *Topology) RelayIDs() []NodeID {
	ids := make([]NodeID, 0, len(t.Relays))
	for _, r := range t.Relays {
		ids = append(ids, r.ID)
	}
	return ids
}

// IDs returns every declared id: relays first, then ingress, then termini.
// Duplicates are kept.
func (t *Topology) IDs() []NodeID {
	ids := make([]NodeID, 0, t.Len())
	ids = append(ids, t.RelayIDs()...)
	for _, c := range t.Ingress {
		ids = append(ids, c.ID)
	}
	for _, s := range t.Termini {
		ids = append(ids, s.ID)
	}
	return ids
}

// Clone returns a deep copy that shares no slices with t.
func (t *Topology) Clone() *Topology {
	out := &Topology{
		Relays:  make([]Relay, len(t.Relays)),
		Ingress: make([]Ingress, len(t.Ingress)),
		Termini: make([]Terminus, len(t.Termini)),
	}
	for i, r := range t.Relays {
		r.Neighbors = slices.Clone(r.Neighbors)
		out.Relays[i] = r
	}
	for i, c := range t.Ingress {
		c.Neighbors = slices.Clone(c.Neighbors)
		out.Ingress[i] = c
	}
	for i, s := range t.Termini {
		s.Neighbors = slices.Clone(s.Neighbors)
		out.Termini[i] = s
	}
	return out
}

// Merge appends the nodes of other to t. It is used by loaders that read a
// topology split across several files.
func (t *Topology) Merge(other *Topology) {
	if other == nil {
		return
	}
	t.Relays = append(t.Relays, other.Relays...)
	t.Ingress = append(t.Ingress, other.Ingress...)
	t.Termini = append(t.Termini, other.Termini...)
}
