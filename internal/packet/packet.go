// Package packet defines the source-routed data-plane message exchanged
// between nodes. The payload is opaque to the mesh.
package packet

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/meshboot/internal/topology"
)

// Kind tags what a packet carries so endpoints can dispatch on it.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindServerTypeRequest
	KindServerTypeResponse
	KindFileRequest
	KindFileResponse
	KindChatMessage
	KindFileListRequest
	KindFileListResponse
	// KindUnsupported answers a request the endpoint cannot serve. Its
	// payload is the rejected kind.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindServerTypeRequest:
		return "server_type_request"
	case KindServerTypeResponse:
		return "server_type_response"
	case KindFileRequest:
		return "file_request"
	case KindFileResponse:
		return "file_response"
	case KindChatMessage:
		return "chat_message"
	case KindFileListRequest:
		return "file_list_request"
	case KindFileListResponse:
		return "file_list_response"
	case KindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Packet travels along Route. Route[Hop] is the node currently holding it.
type Packet struct {
	Session uint64
	Kind    Kind
	Route   []topology.NodeID
	Hop     int
	Payload []byte
}

// Current returns the node that holds the packet.
func (p Packet) Current() (topology.NodeID, bool) {
	if p.Hop < 0 || p.Hop >= len(p.Route) {
		return 0, false
	}
	return p.Route[p.Hop], true
}

// Next returns the node the packet should be handed to, or false when the
// current holder is the destination.
func (p Packet) Next() (topology.NodeID, bool) {
	if p.Hop < 0 || p.Hop+1 >= len(p.Route) {
		return 0, false
	}
	return p.Route[p.Hop+1], true
}

// Advance returns a copy of p positioned one hop further.
func (p Packet) Advance() Packet {
	p.Hop++
	return p
}

// AtDestination reports whether the current holder is the last hop.
func (p Packet) AtDestination() bool {
	return len(p.Route) > 0 && p.Hop == len(p.Route)-1
}

// Source returns the first hop of the route.
func (p Packet) Source() topology.NodeID {
	if len(p.Route) == 0 {
		return 0
	}
	return p.Route[0]
}

// Destination returns the last hop of the route.
func (p Packet) Destination() topology.NodeID {
	if len(p.Route) == 0 {
		return 0
	}
	return p.Route[len(p.Route)-1]
}

// Reply builds the answer to p: same session, reversed route starting at
// the current holder.
func (p Packet) Reply(kind Kind, payload []byte) Packet {
	end := p.Hop + 1
	if end > len(p.Route) {
		end = len(p.Route)
	}
	route := slices.Clone(p.Route[:end])
	slices.Reverse(route)
	return Packet{
		Session: p.Session,
		Kind:    kind,
		Route:   route,
		Payload: payload,
	}
}

func (p Packet) String() string {
	return fmt.Sprintf("%s#%d %v@%d (%d bytes)", p.Kind, p.Session, p.Route, p.Hop, len(p.Payload))
}
