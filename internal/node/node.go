package node

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/meshboot/internal/mailbox"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Runnable is the only capability the orchestrator needs from a node. Run
// blocks until ctx is cancelled or the node decides to stop.
type Runnable interface {
	Run(ctx context.Context)
}

// RunFunc adapts a function to Runnable.
type RunFunc func(ctx context.Context)

// Run calls f(ctx).
func (f RunFunc) Run(ctx context.Context) { f(ctx) }

// Outbound maps a neighbour id to the sender feeding its inbound queue.
type Outbound map[topology.NodeID]mailbox.Sender[packet.Packet]

// Clone returns an independent copy of o. The senders inside are clones of
// the same queues.
func (o Outbound) Clone() Outbound {
	return maps.Clone(o)
}

// Endpoints is everything a node is wired to: its control pair, its own
// inbound data queue and one sender per declared neighbour.
type Endpoints[C, E any] struct {
	ID       topology.NodeID
	Events   mailbox.Sender[E]
	Commands *mailbox.Receiver[C]
	Inbound  *mailbox.Receiver[packet.Packet]
	Outbound Outbound
}

// Forwarding failures.
var (
	ErrNotHolder  = errors.New("packet is not held by this node")
	ErrRouteEnd   = errors.New("packet is already at its destination")
	ErrNoNeighbor = errors.New("next hop is not a neighbour")
)

// Forward advances p one hop and hands it to the next node on its route. It
// returns the advanced packet as sent. self must be the current holder.
func Forward(self topology.NodeID, out Outbound, p packet.Packet) (packet.Packet, error) {
	if cur, ok := p.Current(); !ok || cur != self {
		return p, fmt.Errorf("node %d: %w", self, ErrNotHolder)
	}
	next, ok := p.Next()
	if !ok {
		return p, ErrRouteEnd
	}
	tx, ok := out[next]
	if !ok {
		return p, fmt.Errorf("node %d to %d: %w", self, next, ErrNoNeighbor)
	}
	p = p.Advance()
	tx.Send(p)
	return p, nil
}

// Loop multiplexes a node's command and data queues until ctx is done or a
// handler returns false. Pending commands are always handled before packets.
func Loop[C any](ctx context.Context, commands *mailbox.Receiver[C], inbound *mailbox.Receiver[packet.Packet], onCommand func(C) bool, onPacket func(packet.Packet) bool) {
	for {
		for {
			cmd, ok := commands.TryRecv()
			if !ok {
				break
			}
			if !onCommand(cmd) {
				return
			}
		}
		if p, ok := inbound.TryRecv(); ok {
			if !onPacket(p) {
				return
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-commands.Ready():
		case <-inbound.Ready():
		}
	}
}

// State is the lifecycle state of a launched node.
type State int32

const (
	// Pending means the node was built but its goroutine has not started.
	Pending State = iota
	// Running means Run is executing.
	Running
	// Done means Run returned normally.
	Done
	// Failed means Run panicked.
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Status tracks a node's lifecycle state. It is safe for concurrent use.
type Status struct {
	state    atomic.Int32
	err      atomic.Value
	doneOnce sync.Once
	done     chan struct{}
}

// NewStatus returns a Status in the Pending state.
func NewStatus() *Status {
	return &Status{done: make(chan struct{})}
}

// SetRunning marks the node as running.
func (s *Status) SetRunning() {
	s.state.Store(int32(Running))
}

// Finish records the final state exactly once. err is kept only for Failed.
func (s *Status) Finish(state State, err error) {
	s.doneOnce.Do(func() {
		if err != nil {
			s.err.Store(err)
		}
		s.state.Store(int32(state))
		close(s.done)
	})
}

// State atomically returns the current state.
func (s *Status) State() State {
	return State(s.state.Load())
}

// Err returns the failure recorded by Finish, if any.
func (s *Status) Err() error {
	if err, ok := s.err.Load().(error); ok {
		return err
	}
	return nil
}

// Done is closed once the node has finished.
func (s *Status) Done() <-chan struct{} {
	return s.done
}
