// Package bootstrap turns a validated topology into running nodes.
//
// Run allocates the data plane, builds every node with the factory the
// registry selects for its id, and only when every construction succeeded
// launches one goroutine per node. A failed bootstrap leaves nothing running.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/mesh"
	"github.com/specialistvlad/meshboot/internal/metrics"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/registry"
	"github.com/specialistvlad/meshboot/internal/topology"
	"github.com/specialistvlad/meshboot/internal/validate"
)

var (
	// ErrFactoryPanic wraps the value recovered from a panicking factory.
	ErrFactoryPanic = errors.New("factory panicked")
	// ErrNilRunnable is returned when a factory reports success without a node.
	ErrNilRunnable = errors.New("factory returned no node")
)

// NodeError reports the node whose construction aborted the bootstrap.
type NodeError struct {
	ID       topology.NodeID
	Role     topology.Role
	Behavior string
	Err      error
}

func (e *NodeError) Error() string {
	if e.Behavior == "" {
		return fmt.Sprintf("%s %d: %v", e.Role, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %d (%s): %v", e.Role, e.ID, e.Behavior, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Options tunes a bootstrap run. The zero value is usable.
type Options struct {
	// Parallelism caps concurrent node constructions. Zero or less means
	// no cap.
	Parallelism int
	// Metrics is optional.
	Metrics *metrics.Registry
}

// built is a constructed, not yet launched node.
type built struct {
	id       topology.NodeID
	role     topology.Role
	behavior string
	runnable node.Runnable
	status   *node.Status
	attach   func(*Handoff)
}

// plan constructs one node. It runs on the construction pool.
type plan struct {
	id       topology.NodeID
	role     topology.Role
	behavior string
	build    func() (*built, error)
}

// Run validates t, builds every node and launches them. Nodes run until ctx
// is cancelled or they stop on their own.
func Run(ctx context.Context, t *topology.Topology, reg *registry.Registry, opts Options) (*Handoff, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	err := validate.Validate(t)
	opts.Metrics.RecordValidation(err)
	if err != nil {
		logger.Error("Topology rejected.", "error", err)
		return nil, fmt.Errorf("topology rejected: %w", err)
	}

	handoff, err := bootstrap(ctx, t, reg, opts)
	opts.Metrics.RecordBootstrap(time.Since(start), err)
	if err != nil {
		logger.Error("Bootstrap aborted; no node was launched.", "error", err)
		return nil, err
	}

	logger.Info("🏁 Bootstrap complete.",
		"runID", handoff.RunID,
		"launched", handoff.Launched,
		"duration", time.Since(start),
	)
	return handoff, nil
}

func bootstrap(ctx context.Context, t *topology.Topology, reg *registry.Registry, opts Options) (*Handoff, error) {
	logger := ctxlog.FromContext(ctx)

	if err := reg.Covers(ctx, t); err != nil {
		return nil, err
	}

	g := topology.NewGraph(t)
	m := mesh.Build(g)
	handoff := newHandoff(t, g)
	logger.Info("🚀 Bootstrapping topology.",
		"runID", handoff.RunID,
		"relays", len(g.Relays()),
		"clients", len(g.Ingress()),
		"servers", len(g.Termini()),
	)

	plans, err := makePlans(g, m, reg)
	if err != nil {
		return nil, err
	}

	nodes, err := construct(ctx, plans, opts.Parallelism)
	if err != nil {
		return nil, err
	}

	for _, b := range nodes {
		b.attach(handoff)
		handoff.statuses = append(handoff.statuses, b.status)
	}
	for _, b := range nodes {
		launch(ctx, b, opts.Metrics)
		handoff.Launched++
	}
	return handoff, nil
}

// makePlans selects a factory for every node. It touches no queue, so a
// selection error leaves the mesh untouched.
func makePlans(g *topology.Graph, m *mesh.Mesh, reg *registry.Registry) ([]plan, error) {
	plans := make([]plan, 0, g.Len())

	for _, id := range g.Relays() {
		name, f, err := reg.SelectRelay(id)
		if err != nil {
			return nil, &NodeError{ID: id, Role: topology.RoleRelay, Err: err}
		}
		plans = append(plans, relayPlan(g, m, id, name, f))
	}
	for _, id := range g.Ingress() {
		f, err := reg.SelectIngress(id)
		if err != nil {
			return nil, &NodeError{ID: id, Role: topology.RoleIngress, Err: err}
		}
		p, err := ingressPlan(m, id, f)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	for _, id := range g.Termini() {
		name, f, err := reg.SelectTerminus(id)
		if err != nil {
			return nil, &NodeError{ID: id, Role: topology.RoleTerminus, Err: err}
		}
		plans = append(plans, terminusPlan(m, id, name, f))
	}
	return plans, nil
}

func endpoints[C, E any](m *mesh.Mesh, id topology.NodeID, pair mesh.ControlPair[C, E]) node.Endpoints[C, E] {
	return node.Endpoints[C, E]{
		ID:       id,
		Events:   pair.EventTx,
		Commands: pair.CommandRx,
		Inbound:  m.TakeInbound(id),
		Outbound: m.Outbound(id),
	}
}

func relayPlan(g *topology.Graph, m *mesh.Mesh, id topology.NodeID, name string, f registry.RelayFactory) plan {
	return plan{id: id, role: topology.RoleRelay, behavior: name, build: func() (*built, error) {
		pair := mesh.NewControl[control.RelayCommand, control.RelayEvent]()
		r, err := f.NewRelay(registry.RelayParams{
			Endpoints:       endpoints(m, id, pair),
			DropProbability: g.DropProbability(id),
		})
		if err != nil {
			return nil, err
		}
		h := newHandle(id, name, pair, m)
		return &built{runnable: r, status: h.Status, attach: func(ho *Handoff) { ho.Relays[id] = h }}, nil
	}}
}

func ingressPlan(m *mesh.Mesh, id topology.NodeID, f registry.IngressFactory) (plan, error) {
	switch f := f.(type) {
	case registry.WebIngress:
		return plan{id: id, role: topology.RoleIngress, behavior: f.Name, build: func() (*built, error) {
			pair := mesh.NewControl[control.WebCommand, control.WebEvent]()
			r, err := f.New(registry.WebParams{Endpoints: endpoints(m, id, pair)})
			if err != nil {
				return nil, err
			}
			h := newHandle(id, f.Name, pair, m)
			return &built{runnable: r, status: h.Status, attach: func(ho *Handoff) { ho.WebClients[id] = h }}, nil
		}}, nil
	case registry.ChatIngress:
		return plan{id: id, role: topology.RoleIngress, behavior: f.Name, build: func() (*built, error) {
			pair := mesh.NewControl[control.ChatCommand, control.ChatEvent]()
			r, err := f.New(registry.ChatParams{Endpoints: endpoints(m, id, pair)})
			if err != nil {
				return nil, err
			}
			h := newHandle(id, f.Name, pair, m)
			return &built{runnable: r, status: h.Status, attach: func(ho *Handoff) { ho.ChatClients[id] = h }}, nil
		}}, nil
	default:
		return plan{}, &NodeError{ID: id, Role: topology.RoleIngress, Err: fmt.Errorf("unsupported ingress factory %T", f)}
	}
}

func terminusPlan(m *mesh.Mesh, id topology.NodeID, name string, f registry.TerminusFactory) plan {
	return plan{id: id, role: topology.RoleTerminus, behavior: name, build: func() (*built, error) {
		pair := mesh.NewControl[control.ServerCommand, control.ServerEvent]()
		r, err := f.NewTerminus(registry.TerminusParams{Endpoints: endpoints(m, id, pair)})
		if err != nil {
			return nil, err
		}
		h := newHandle(id, name, pair, m)
		return &built{runnable: r, status: h.Status, attach: func(ho *Handoff) { ho.Servers[id] = h }}, nil
	}}
}

// construct runs every plan on a bounded pool and stops at the first failure.
func construct(ctx context.Context, plans []plan, parallelism int) ([]*built, error) {
	logger := ctxlog.FromContext(ctx)
	out := make([]*built, len(plans))

	eg, egCtx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		eg.SetLimit(parallelism)
	}
	for i, p := range plans {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			b, err := buildOne(p)
			if err != nil {
				return err
			}
			logger.Debug("Node constructed.", "nodeID", p.id, "role", p.role, "behavior", p.behavior)
			out[i] = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// buildOne runs a single plan, turning a factory panic into a NodeError.
func buildOne(p plan) (b *built, err error) {
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = &NodeError{ID: p.id, Role: p.role, Behavior: p.behavior, Err: fmt.Errorf("%w: %v", ErrFactoryPanic, r)}
		}
	}()

	b, err = p.build()
	if err != nil {
		return nil, &NodeError{ID: p.id, Role: p.role, Behavior: p.behavior, Err: err}
	}
	if b.runnable == nil {
		return nil, &NodeError{ID: p.id, Role: p.role, Behavior: p.behavior, Err: ErrNilRunnable}
	}
	b.id, b.role, b.behavior = p.id, p.role, p.behavior
	return b, nil
}

// launch starts b in its own goroutine. A panic inside the node is logged and
// recorded on its status; it does not take the process down.
func launch(ctx context.Context, b *built, m *metrics.Registry) {
	nodeCtx := ctxlog.With(ctx, "nodeID", b.id, "role", b.role.String(), "behavior", b.behavior)
	role := b.role.String()

	b.status.SetRunning()
	m.NodeStarted(role)

	go func() {
		logger := ctxlog.FromContext(nodeCtx)
		defer m.NodeStopped(role)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Node panicked.", "panic", r, "stack", string(debug.Stack()))
				b.status.Finish(node.Failed, fmt.Errorf("node panicked: %v", r))
			}
		}()

		logger.Debug("Node started.")
		b.runnable.Run(nodeCtx)
		b.status.Finish(node.Done, nil)
		logger.Debug("Node stopped.")
	}()
}
