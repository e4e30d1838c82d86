package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/meshboot/internal/topology"
)

// Check names one structural predicate.
type Check int

const (
	CheckUniqueIDs Check = iota + 1
	CheckDropProbability
	CheckRelayConnections
	CheckIngressConnections
	CheckTerminusConnections
	CheckSymmetricAndConnected
	CheckLeafPlacement
)

var checkNames = map[Check]string{
	CheckUniqueIDs:             "unique_ids",
	CheckDropProbability:       "drop_probability_range",
	CheckRelayConnections:      "relay_connections",
	CheckIngressConnections:    "ingress_connections",
	CheckTerminusConnections:   "terminus_connections",
	CheckSymmetricAndConnected: "symmetric_and_connected",
	CheckLeafPlacement:         "edge_nodes_are_leaves",
}

func (c Check) String() string {
	if name, ok := checkNames[c]; ok {
		return name
	}
	return fmt.Sprintf("check(%d)", int(c))
}

// Reasons a topology can be rejected. Every Violation matches exactly one of
// them with errors.Is.
var (
	ErrIDCollision         = errors.New("id collision")
	ErrProbabilityRange    = errors.New("probability range")
	ErrRelayConnections    = errors.New("malformed relay adjacency")
	ErrIngressConnections  = errors.New("malformed ingress adjacency")
	ErrTerminusConnections = errors.New("malformed terminus adjacency")
	ErrAsymmetricEdge      = errors.New("broken symmetry")
	ErrDisconnected        = errors.New("broken connectivity")
	ErrNonLeafEdgeNode     = errors.New("non-leaf edge node")
)

// Violation describes the first structural problem found in a topology.
type Violation struct {
	Check  Check
	Reason error
	// Node is the offending node, when one can be singled out.
	Node    topology.NodeID
	HasNode bool
	// Peer is the other end of the offending edge, when the problem is an edge.
	Peer    topology.NodeID
	HasPeer bool
	Detail  string
}

func (v *Violation) Error() string {
	var sb strings.Builder
	sb.WriteString(v.Reason.Error())
	switch {
	case v.HasNode && v.HasPeer:
		fmt.Fprintf(&sb, " (edge %d -> %d)", v.Node, v.Peer)
	case v.HasNode:
		fmt.Fprintf(&sb, " (node %d)", v.Node)
	}
	if v.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(v.Detail)
	}
	return sb.String()
}

// Unwrap exposes the reason sentinel to errors.Is.
func (v *Violation) Unwrap() error {
	return v.Reason
}

func nodeViolation(c Check, reason error, id topology.NodeID, format string, args ...any) *Violation {
	return &Violation{
		Check:   c,
		Reason:  reason,
		Node:    id,
		HasNode: true,
		Detail:  fmt.Sprintf(format, args...),
	}
}

func edgeViolation(c Check, reason error, from, to topology.NodeID, format string, args ...any) *Violation {
	v := nodeViolation(c, reason, from, format, args...)
	v.Peer = to
	v.HasPeer = true
	return v
}
