package webclient

import (
	"context"
	"log/slog"
	"strings"

	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/registry"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Client is a web browser at the edge of the mesh: it asks servers for their
// type, their file list and individual files, and reports the answers.
type Client struct {
	params  registry.WebParams
	session uint64
	// pending maps an outstanding file request to the requested name.
	pending map[uint64]string
}

// New builds a web client.
func New(p registry.WebParams) *Client {
	if p.Outbound == nil {
		p.Outbound = node.Outbound{}
	}
	return &Client{params: p, pending: make(map[uint64]string)}
}

// Run processes commands and packets until ctx is done.
func (c *Client) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	node.Loop(ctx, c.params.Commands, c.params.Inbound,
		func(cmd control.WebCommand) bool {
			c.handleCommand(logger, cmd)
			return true
		},
		func(p packet.Packet) bool {
			c.handlePacket(logger, p)
			return true
		},
	)
}

// nextSession returns a session id unique across the mesh: the client id in
// the high bits, a per-client counter in the low bits.
func (c *Client) nextSession() uint64 {
	c.session++
	return uint64(c.params.ID)<<32 | c.session
}

func (c *Client) handleCommand(logger *slog.Logger, cmd control.WebCommand) {
	switch cmd := cmd.(type) {
	case control.AddSender:
		c.params.Outbound[cmd.ID] = cmd.Sender
	case control.RemoveSender:
		delete(c.params.Outbound, cmd.ID)
	case control.AskServerType:
		c.send(logger, packet.KindServerTypeRequest, cmd.Route, nil)
	case control.AskFileList:
		c.send(logger, packet.KindFileListRequest, cmd.Route, nil)
	case control.RequestFile:
		if s, ok := c.send(logger, packet.KindFileRequest, cmd.Route, []byte(cmd.Name)); ok {
			c.pending[s] = cmd.Name
		}
	}
}

func (c *Client) send(logger *slog.Logger, kind packet.Kind, route []topology.NodeID, payload []byte) (uint64, bool) {
	p := packet.Packet{
		Session: c.nextSession(),
		Kind:    kind,
		Route:   fromSelf(c.params.ID, route),
		Payload: payload,
	}
	sent, err := node.Forward(c.params.ID, c.params.Outbound, p)
	if err != nil {
		logger.Warn("Request not sent.", "kind", kind, "route", p.Route, "error", err)
		return 0, false
	}
	c.params.Events.Send(control.PacketSent{From: c.params.ID, Packet: sent})
	return p.Session, true
}

func (c *Client) handlePacket(logger *slog.Logger, p packet.Packet) {
	if !p.AtDestination() {
		logger.Warn("Client received a packet in transit; dropping it.", "session", p.Session, "route", p.Route, "hop", p.Hop)
		return
	}
	server := p.Source()
	switch p.Kind {
	case packet.KindServerTypeResponse:
		c.params.Events.Send(control.ServerType{Server: server, Type: string(p.Payload)})
	case packet.KindFileListResponse:
		var names []string
		if len(p.Payload) > 0 {
			names = strings.Split(string(p.Payload), "\n")
		}
		c.params.Events.Send(control.FileList{Server: server, Names: names})
	case packet.KindFileResponse:
		name := c.pending[p.Session]
		delete(c.pending, p.Session)
		c.params.Events.Send(control.FileReceived{Server: server, Name: name, Data: p.Payload})
	case packet.KindUnsupported:
		delete(c.pending, p.Session)
		kind := packet.KindUnknown
		if len(p.Payload) > 0 {
			kind = packet.Kind(p.Payload[0])
		}
		c.params.Events.Send(control.Unsupported{Server: server, Kind: kind})
	default:
		logger.Debug("Ignoring packet.", "kind", p.Kind, "session", p.Session)
	}
}

// fromSelf makes sure route starts at id.
func fromSelf(id topology.NodeID, route []topology.NodeID) []topology.NodeID {
	if len(route) > 0 && route[0] == id {
		return route
	}
	return append([]topology.NodeID{id}, route...)
}

// Register registers the web client factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterIngress(registry.WebIngress{
		Name: "web",
		New: func(p registry.WebParams) (node.Runnable, error) {
			return New(p), nil
		},
	})
}
