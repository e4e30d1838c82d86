package bootstrap

import (
	"context"

	"github.com/google/uuid"

	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/mailbox"
	"github.com/specialistvlad/meshboot/internal/mesh"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Handle is the supervisor's grip on one launched node.
type Handle[C, E any] struct {
	ID topology.NodeID
	// Behavior is the name of the factory that built the node.
	Behavior string
	Commands mailbox.Sender[C]
	Events   *mailbox.Receiver[E]
	// Injector feeds the node's inbound data queue directly.
	Injector mailbox.Sender[packet.Packet]
	Status   *node.Status
}

func newHandle[C, E any](id topology.NodeID, behavior string, pair mesh.ControlPair[C, E], m *mesh.Mesh) *Handle[C, E] {
	return &Handle[C, E]{
		ID:       id,
		Behavior: behavior,
		Commands: pair.CommandTx,
		Events:   pair.EventRx,
		Injector: m.Injector(id),
		Status:   node.NewStatus(),
	}
}

type (
	RelayHandle  = Handle[control.RelayCommand, control.RelayEvent]
	WebHandle    = Handle[control.WebCommand, control.WebEvent]
	ChatHandle   = Handle[control.ChatCommand, control.ChatEvent]
	ServerHandle = Handle[control.ServerCommand, control.ServerEvent]
)

// Handoff is everything a supervisor receives once every node is running.
type Handoff struct {
	RunID uuid.UUID
	// Topology is a private copy of the bootstrapped topology.
	Topology *topology.Topology
	Graph    *topology.Graph

	Relays      map[topology.NodeID]*RelayHandle
	WebClients  map[topology.NodeID]*WebHandle
	ChatClients map[topology.NodeID]*ChatHandle
	Servers     map[topology.NodeID]*ServerHandle

	// Launched counts the node goroutines started.
	Launched int

	statuses []*node.Status
}

func newHandoff(t *topology.Topology, g *topology.Graph) *Handoff {
	return &Handoff{
		RunID:       uuid.New(),
		Topology:    t.Clone(),
		Graph:       g,
		Relays:      make(map[topology.NodeID]*RelayHandle, len(g.Relays())),
		WebClients:  make(map[topology.NodeID]*WebHandle),
		ChatClients: make(map[topology.NodeID]*ChatHandle),
		Servers:     make(map[topology.NodeID]*ServerHandle, len(g.Termini())),
	}
}

// Injector returns the data-plane sender of any node.
func (h *Handoff) Injector(id topology.NodeID) (mailbox.Sender[packet.Packet], bool) {
	if r, ok := h.Relays[id]; ok {
		return r.Injector, true
	}
	if c, ok := h.WebClients[id]; ok {
		return c.Injector, true
	}
	if c, ok := h.ChatClients[id]; ok {
		return c.Injector, true
	}
	if s, ok := h.Servers[id]; ok {
		return s.Injector, true
	}
	return mailbox.Sender[packet.Packet]{}, false
}

// Wait blocks until every launched node has returned or ctx is done.
func (h *Handoff) Wait(ctx context.Context) error {
	for _, s := range h.statuses {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Running returns how many launched nodes have not returned yet.
func (h *Handoff) Running() int {
	n := 0
	for _, s := range h.statuses {
		select {
		case <-s.Done():
		default:
			n++
		}
	}
	return n
}
