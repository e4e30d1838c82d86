package forwarder

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/registry"
)

// Module implements the registry.Module interface for this package. It
// registers the plain forwarder and, when Delay is set, a delayed variant.
type Module struct {
	// Seed makes drop decisions reproducible. Each relay mixes in its id.
	Seed uint64
	// Delay is the per-hop latency of the "delayed" variant. Zero disables
	// that variant.
	Delay time.Duration
}

// Relay forwards source-routed packets one hop, dropping each with its drop
// probability.
type Relay struct {
	params registry.RelayParams
	rand   func() float64
	delay  time.Duration
	pdr    float64
}

// New builds a relay. rnd returns values in [0, 1); nil uses a generator
// seeded with seed and the relay id.
func New(p registry.RelayParams, seed uint64, delay time.Duration, rnd func() float64) *Relay {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(seed, uint64(p.ID))).Float64
	}
	if p.Outbound == nil {
		p.Outbound = node.Outbound{}
	}
	return &Relay{params: p, rand: rnd, delay: delay, pdr: p.DropProbability}
}

// Run processes commands and packets until ctx is done or a Crash arrives.
func (r *Relay) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	node.Loop(ctx, r.params.Commands, r.params.Inbound,
		func(cmd control.RelayCommand) bool { return r.handleCommand(logger, cmd) },
		func(p packet.Packet) bool { return r.handlePacket(ctx, logger, p) },
	)
}

func (r *Relay) handleCommand(logger *slog.Logger, cmd control.RelayCommand) bool {
	switch c := cmd.(type) {
	case control.AddSender:
		logger.Debug("Neighbour added.", "neighbor", c.ID)
		r.params.Outbound[c.ID] = c.Sender
	case control.RemoveSender:
		logger.Debug("Neighbour removed.", "neighbor", c.ID)
		delete(r.params.Outbound, c.ID)
	case control.SetDropProbability:
		logger.Debug("Drop probability changed.", "from", r.pdr, "to", c.Probability)
		r.pdr = c.Probability
	case control.Crash:
		logger.Info("Relay crashed on command.")
		return false
	}
	return true
}

func (r *Relay) handlePacket(ctx context.Context, logger *slog.Logger, p packet.Packet) bool {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return false
		}
	}

	if r.pdr > 0 && r.rand() < r.pdr {
		logger.Debug("Packet dropped.", "session", p.Session, "kind", p.Kind)
		r.params.Events.Send(control.PacketDropped{By: r.params.ID, Packet: p})
		return true
	}

	sent, err := node.Forward(r.params.ID, r.params.Outbound, p)
	switch {
	case err == nil:
		r.params.Events.Send(control.PacketSent{From: r.params.ID, Packet: sent})
	case errors.Is(err, node.ErrNoNeighbor):
		logger.Debug("Next hop unreachable; handing packet to the controller.", "session", p.Session)
		r.params.Events.Send(control.ControllerShortcut{By: r.params.ID, Packet: p})
	default:
		logger.Warn("Packet discarded.", "session", p.Session, "route", p.Route, "hop", p.Hop, "error", err)
	}
	return true
}

// Register registers the relay factories with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRelay("forwarder", registry.RelayFactoryFunc(func(p registry.RelayParams) (node.Runnable, error) {
		return New(p, m.Seed, 0, nil), nil
	}))
	if m.Delay > 0 {
		r.RegisterRelay("delayed", registry.RelayFactoryFunc(func(p registry.RelayParams) (node.Runnable, error) {
			return New(p, m.Seed, m.Delay, nil), nil
		}))
	}
}
