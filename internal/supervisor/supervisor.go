// Package supervisor receives the Handoff of a bootstrapped mesh and
// watches it: it drains every node's event queue, reports what happened and
// performs the deliveries relays delegate to the controller.
package supervisor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/meshboot/internal/bootstrap"
	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Supervisor takes over a running mesh. Supervise blocks until ctx is done.
type Supervisor interface {
	Supervise(ctx context.Context, h *bootstrap.Handoff) error
}

// Event is a node event flattened for sinks.
type Event struct {
	RunID  uuid.UUID
	Node   topology.NodeID
	Role   topology.Role
	Name   string
	Time   time.Time
	Detail map[string]any
}

// Payload returns e as a JSON-friendly map.
func (e Event) Payload() map[string]any {
	out := map[string]any{
		"run_id": e.RunID.String(),
		"node":   int(e.Node),
		"role":   e.Role.String(),
		"event":  e.Name,
		"time":   e.Time.UTC().Format(time.RFC3339Nano),
	}
	if len(e.Detail) > 0 {
		out["detail"] = e.Detail
	}
	return out
}

// Sink receives every event the supervisor observes.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev Event) error
	Close() error
}

func routeIDs(r []topology.NodeID) []int {
	out := make([]int, len(r))
	for i, id := range r {
		out[i] = int(id)
	}
	return out
}

// describe extracts the loggable fields of a node event.
func describe(ev control.Event) map[string]any {
	switch e := ev.(type) {
	case control.PacketSent:
		return map[string]any{"from": int(e.From), "session": e.Packet.Session, "kind": e.Packet.Kind.String(), "route": routeIDs(e.Packet.Route), "hop": e.Packet.Hop}
	case control.PacketDropped:
		return map[string]any{"by": int(e.By), "session": e.Packet.Session, "kind": e.Packet.Kind.String(), "hop": e.Packet.Hop}
	case control.ControllerShortcut:
		return map[string]any{"by": int(e.By), "session": e.Packet.Session, "destination": int(e.Packet.Destination())}
	case control.ServerType:
		return map[string]any{"server": int(e.Server), "type": e.Type}
	case control.FileReceived:
		return map[string]any{"server": int(e.Server), "name": e.Name, "bytes": len(e.Data)}
	case control.FileList:
		return map[string]any{"server": int(e.Server), "files": e.Names}
	case control.Unsupported:
		return map[string]any{"server": int(e.Server), "kind": e.Kind.String()}
	case control.MessageReceived:
		return map[string]any{"from": int(e.From), "body": e.Body}
	case control.RequestServed:
		return map[string]any{"client": int(e.Client), "kind": e.Kind.String()}
	default:
		return nil
	}
}
