package chatclient

import (
	"context"

	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/registry"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Client sends text messages along a route and reports the ones it receives.
type Client struct {
	params  registry.ChatParams
	session uint64
}

// New builds a chat client.
func New(p registry.ChatParams) *Client {
	if p.Outbound == nil {
		p.Outbound = node.Outbound{}
	}
	return &Client{params: p}
}

// Run processes commands and packets until ctx is done.
func (c *Client) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	id := c.params.ID

	node.Loop(ctx, c.params.Commands, c.params.Inbound,
		func(cmd control.ChatCommand) bool {
			switch cmd := cmd.(type) {
			case control.AddSender:
				c.params.Outbound[cmd.ID] = cmd.Sender
			case control.RemoveSender:
				delete(c.params.Outbound, cmd.ID)
			case control.SendMessage:
				c.session++
				route := cmd.Route
				if len(route) == 0 || route[0] != id {
					route = append([]topology.NodeID{id}, route...)
				}
				p := packet.Packet{
					Session: uint64(id)<<32 | c.session,
					Kind:    packet.KindChatMessage,
					Route:   route,
					Payload: []byte(cmd.Body),
				}
				sent, err := node.Forward(id, c.params.Outbound, p)
				if err != nil {
					logger.Warn("Message not sent.", "route", route, "error", err)
					return true
				}
				c.params.Events.Send(control.PacketSent{From: id, Packet: sent})
			}
			return true
		},
		func(p packet.Packet) bool {
			if !p.AtDestination() || p.Kind != packet.KindChatMessage {
				logger.Debug("Ignoring packet.", "kind", p.Kind, "session", p.Session, "hop", p.Hop)
				return true
			}
			c.params.Events.Send(control.MessageReceived{From: p.Source(), Body: string(p.Payload)})
			return true
		},
	)
}

// Register registers the chat client factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterIngress(registry.ChatIngress{
		Name: "chat",
		New: func(p registry.ChatParams) (node.Runnable, error) {
			return New(p), nil
		},
	})
}
