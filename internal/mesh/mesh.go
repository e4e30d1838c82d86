// Package mesh allocates the data-plane queues of a topology: one inbound
// queue per node and, for every declared edge a→b, a sender from a into b's
// inbound queue. Control pairs are allocated separately with NewControl so
// each role gets its own command and event types.
package mesh

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/meshboot/internal/mailbox"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/topology"
)

type slot struct {
	tx    mailbox.Sender[packet.Packet]
	rx    *mailbox.Receiver[packet.Packet]
	taken bool
}

// Mesh holds the data plane of a topology. Lookups for ids that are not part
// of the graph panic: the orchestrator only asks for ids it took from the
// same graph.
type Mesh struct {
	graph *topology.Graph

	mu    sync.Mutex
	slots map[topology.NodeID]*slot
}

// Build allocates a queue for every node of g.
func Build(g *topology.Graph) *Mesh {
	m := &Mesh{
		graph: g,
		slots: make(map[topology.NodeID]*slot, g.Len()),
	}
	for _, id := range g.Nodes() {
		tx, rx := mailbox.New[packet.Packet]()
		m.slots[id] = &slot{tx: tx, rx: rx}
	}
	return m
}

func (m *Mesh) slot(id topology.NodeID) *slot {
	s, ok := m.slots[id]
	if !ok {
		panic(fmt.Sprintf("mesh: no queue for node %d", id))
	}
	return s
}

// TakeInbound hands out the receiver of id's inbound queue. Each receiver can
// be taken once; a second call panics.
func (m *Mesh) TakeInbound(id topology.NodeID) *mailbox.Receiver[packet.Packet] {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.slot(id)
	if s.taken {
		panic(fmt.Sprintf("mesh: inbound queue of node %d taken twice", id))
	}
	s.taken = true
	return s.rx
}

// Injector returns a sender into id's inbound queue, for use outside the mesh.
func (m *Mesh) Injector(id topology.NodeID) mailbox.Sender[packet.Packet] {
	return m.slot(id).tx
}

// Outbound returns a fresh map of senders, one per declared neighbour of id.
// A neighbour that is not a node of the graph panics.
func (m *Mesh) Outbound(id topology.NodeID) node.Outbound {
	neighbors := m.graph.Neighbors(id)
	out := make(node.Outbound, len(neighbors))
	for _, n := range neighbors {
		out[n] = m.slot(n).tx
	}
	return out
}

// Len returns the number of allocated inbound queues.
func (m *Mesh) Len() int {
	return len(m.slots)
}

// ControlPair is a node's control plane: commands flow from the supervisor to
// the node, events from the node to the supervisor.
type ControlPair[C, E any] struct {
	CommandTx mailbox.Sender[C]
	CommandRx *mailbox.Receiver[C]
	EventTx   mailbox.Sender[E]
	EventRx   *mailbox.Receiver[E]
}

// NewControl allocates a control pair.
func NewControl[C, E any]() ControlPair[C, E] {
	var p ControlPair[C, E]
	p.CommandTx, p.CommandRx = mailbox.New[C]()
	p.EventTx, p.EventRx = mailbox.New[E]()
	return p
}
