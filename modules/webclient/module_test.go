package webclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/mailbox"
	"github.com/specialistvlad/meshboot/internal/mesh"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/registry"
	"github.com/specialistvlad/meshboot/internal/testutil"
	"github.com/specialistvlad/meshboot/internal/topology"
)

type harness struct {
	commands mailbox.Sender[control.WebCommand]
	events   *mailbox.Receiver[control.WebEvent]
	inbound  mailbox.Sender[packet.Packet]
	relay    *mailbox.Receiver[packet.Packet]
}

// start runs client 11 attached to relay 0.
func start(t *testing.T) *harness {
	t.Helper()
	pair := mesh.NewControl[control.WebCommand, control.WebEvent]()
	inTx, inRx := mailbox.New[packet.Packet]()
	relayTx, relayRx := mailbox.New[packet.Packet]()

	c := New(registry.WebParams{Endpoints: node.Endpoints[control.WebCommand, control.WebEvent]{
		ID:       11,
		Events:   pair.EventTx,
		Commands: pair.CommandRx,
		Inbound:  inRx,
		Outbound: node.Outbound{0: relayTx},
	}})
	ctx, _ := testutil.Context(t)
	go c.Run(ctx)

	return &harness{commands: pair.CommandTx, events: pair.EventRx, inbound: inTx, relay: relayRx}
}

func (h *harness) event(t *testing.T) control.WebEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ev, err := h.events.Recv(ctx)
	require.NoError(t, err)
	return ev
}

func (h *harness) sent(t *testing.T) packet.Packet {
	t.Helper()
	ev := h.event(t)
	sent, ok := ev.(control.PacketSent)
	require.True(t, ok, "got %T", ev)
	p, ok := h.relay.TryRecv()
	require.True(t, ok)
	require.Equal(t, sent.Packet, p)
	return p
}

func TestClient_AskServerType(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	h := start(t)

	// --- Act ---
	h.commands.Send(control.AskServerType{Route: []topology.NodeID{0, 3, 12}})

	// --- Assert ---
	p := h.sent(t)
	assert.Equal(t, []topology.NodeID{11, 0, 3, 12}, p.Route)
	assert.Equal(t, 1, p.Hop)
	assert.Equal(t, packet.KindServerTypeRequest, p.Kind)
	assert.Equal(t, uint64(11)<<32|1, p.Session)

	resp := packet.Packet{Session: p.Session, Kind: packet.KindServerTypeResponse, Route: []topology.NodeID{12, 3, 0, 11}, Hop: 3, Payload: []byte("text")}
	h.inbound.Send(resp)
	assert.Equal(t, control.ServerType{Server: 12, Type: "text"}, h.event(t))
}

func TestClient_RequestFile(t *testing.T) {
	t.Parallel()

	h := start(t)
	h.commands.Send(control.RequestFile{Route: []topology.NodeID{11, 0, 12}, Name: "index.html"})

	p := h.sent(t)
	assert.Equal(t, "index.html", string(p.Payload))

	h.inbound.Send(packet.Packet{Session: p.Session, Kind: packet.KindFileResponse, Route: []topology.NodeID{12, 0, 11}, Hop: 2, Payload: []byte("<html/>")})

	got := h.event(t)
	assert.Equal(t, control.FileReceived{Server: 12, Name: "index.html", Data: []byte("<html/>")}, got)
}

func TestClient_FileListAndUnsupported(t *testing.T) {
	t.Parallel()

	h := start(t)
	route := []topology.NodeID{12, 0, 11}

	h.inbound.Send(packet.Packet{Kind: packet.KindFileListResponse, Route: route, Hop: 2, Payload: []byte("a.txt\nb.html")})
	assert.Equal(t, control.FileList{Server: 12, Names: []string{"a.txt", "b.html"}}, h.event(t))

	h.inbound.Send(packet.Packet{Kind: packet.KindFileListResponse, Route: route, Hop: 2})
	assert.Equal(t, control.FileList{Server: 12}, h.event(t))

	h.inbound.Send(packet.Packet{Kind: packet.KindUnsupported, Route: route, Hop: 2, Payload: []byte{byte(packet.KindFileRequest)}})
	assert.Equal(t, control.Unsupported{Server: 12, Kind: packet.KindFileRequest}, h.event(t))
}

func TestClient_IgnoresTransitAndUnknownRoutes(t *testing.T) {
	t.Parallel()

	h := start(t)

	// Not addressed to the client, and a route whose first hop is not a neighbour.
	h.inbound.Send(packet.Packet{Kind: packet.KindServerTypeResponse, Route: []topology.NodeID{12, 11, 3}, Hop: 1})
	h.commands.Send(control.AskFileList{Route: []topology.NodeID{5, 12}})
	// A valid request afterwards proves the client is still alive.
	h.commands.Send(control.AskFileList{Route: []topology.NodeID{0, 12}})

	p := h.sent(t)
	assert.Equal(t, packet.KindFileListRequest, p.Kind)
	assert.Equal(t, []topology.NodeID{11, 0, 12}, p.Route)
	assert.Zero(t, h.events.Len())
}

func TestModule_Register(t *testing.T) {
	t.Parallel()

	r := registry.New()
	(&Module{}).Register(r)

	f, err := r.SelectIngress(3)
	require.NoError(t, err)
	web, ok := f.(registry.WebIngress)
	require.True(t, ok)
	assert.Equal(t, "web", web.Name)
}
