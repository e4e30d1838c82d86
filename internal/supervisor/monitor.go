package supervisor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/specialistvlad/meshboot/internal/bootstrap"
	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/mailbox"
	"github.com/specialistvlad/meshboot/internal/metrics"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// DefaultInterval is how often Monitor polls event queues.
const DefaultInterval = 10 * time.Millisecond

// Monitor is the reference Supervisor. It polls every event queue without
// blocking, logs and counts each event, forwards it to its sinks and
// delivers packets relays hand over with ControllerShortcut.
type Monitor struct {
	Interval time.Duration
	Sinks    []Sink
	Metrics  *metrics.Registry
	// Probe makes every web client ask every reachable server for its type
	// once supervision starts.
	Probe bool

	mu     sync.Mutex
	counts map[string]int
}

// Counts returns how many events of each name were observed so far.
func (m *Monitor) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// Supervise watches h until ctx is done. Sinks are closed on return.
func (m *Monitor) Supervise(ctx context.Context, h *bootstrap.Handoff) error {
	logger := ctxlog.FromContext(ctx).With("runID", h.RunID)
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger.Info("🩺 Supervising mesh.", "nodes", h.Launched, "interval", interval, "sinks", len(m.Sinks))

	if m.Probe {
		m.probe(logger, h)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// One last drain so nothing reported before cancellation is lost.
			m.poll(context.WithoutCancel(ctx), logger, h)
			logger.Info("Supervision stopped.", "events", m.Counts())
			return m.closeSinks()
		case <-ticker.C:
			m.poll(ctx, logger, h)
		}
	}
}

func (m *Monitor) probe(logger *slog.Logger, h *bootstrap.Handoff) {
	for _, cid := range sortedKeys(h.WebClients) {
		client := h.WebClients[cid]
		for _, sid := range sortedKeys(h.Servers) {
			route, ok := Route(h.Graph, cid, sid)
			if !ok {
				logger.Warn("No route from client to server.", "client", cid, "server", sid)
				continue
			}
			logger.Debug("Probing server type.", "client", cid, "server", sid, "route", route)
			client.Commands.Send(control.AskServerType{Route: route})
		}
	}
}

func (m *Monitor) poll(ctx context.Context, logger *slog.Logger, h *bootstrap.Handoff) {
	for _, id := range sortedKeys(h.Relays) {
		drain(h.Relays[id].Events, func(ev control.RelayEvent) {
			m.observe(ctx, logger, h, id, topology.RoleRelay, ev)
			if sc, ok := ev.(control.ControllerShortcut); ok {
				m.shortcut(logger, h, sc)
			}
		})
	}
	for _, id := range sortedKeys(h.WebClients) {
		drain(h.WebClients[id].Events, func(ev control.WebEvent) {
			m.observe(ctx, logger, h, id, topology.RoleIngress, ev)
		})
	}
	for _, id := range sortedKeys(h.ChatClients) {
		drain(h.ChatClients[id].Events, func(ev control.ChatEvent) {
			m.observe(ctx, logger, h, id, topology.RoleIngress, ev)
		})
	}
	for _, id := range sortedKeys(h.Servers) {
		drain(h.Servers[id].Events, func(ev control.ServerEvent) {
			m.observe(ctx, logger, h, id, topology.RoleTerminus, ev)
		})
	}
}

func drain[E any](rx *mailbox.Receiver[E], fn func(E)) {
	for {
		ev, ok := rx.TryRecv()
		if !ok {
			return
		}
		fn(ev)
	}
}

func (m *Monitor) observe(ctx context.Context, logger *slog.Logger, h *bootstrap.Handoff, id topology.NodeID, role topology.Role, ev control.Event) {
	name := ev.EventName()
	detail := describe(ev)

	m.mu.Lock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[name]++
	m.mu.Unlock()

	m.Metrics.RecordEvent(role.String(), name)
	logger.Debug("Node event.", "nodeID", id, "role", role, "event", name, "detail", detail)

	out := Event{RunID: h.RunID, Node: id, Role: role, Name: name, Time: time.Now(), Detail: detail}
	for _, s := range m.Sinks {
		if err := s.Publish(ctx, out); err != nil {
			m.Metrics.RecordSinkFailure(s.Name())
			logger.Warn("Sink rejected event.", "sink", s.Name(), "event", name, "error", err)
		}
	}
}

// shortcut delivers a packet straight to its destination.
func (m *Monitor) shortcut(logger *slog.Logger, h *bootstrap.Handoff, sc control.ControllerShortcut) {
	p := sc.Packet
	dst := p.Destination()
	inj, ok := h.Injector(dst)
	if !ok {
		logger.Warn("Shortcut destination is unknown; packet lost.", "by", sc.By, "destination", dst, "session", p.Session)
		return
	}
	delivered := packet.Packet{
		Session: p.Session,
		Kind:    p.Kind,
		Route:   p.Route,
		Hop:     len(p.Route) - 1,
		Payload: p.Payload,
	}
	inj.Send(delivered)
	m.Metrics.RecordShortcut()
	logger.Debug("Shortcut delivered.", "by", sc.By, "destination", dst, "session", p.Session)
}

func (m *Monitor) closeSinks() error {
	var err error
	for _, s := range m.Sinks {
		err = multierr.Append(err, s.Close())
	}
	return err
}

func sortedKeys[V any](in map[topology.NodeID]V) []topology.NodeID {
	out := make([]topology.NodeID, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
