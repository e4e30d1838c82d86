package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/meshboot/internal/topology"
)

func TestPacket_Walk(t *testing.T) {
	t.Parallel()

	p := Packet{Session: 7, Kind: KindFileRequest, Route: []topology.NodeID{11, 0, 3, 12}}

	cur, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, topology.NodeID(11), cur)
	assert.Equal(t, topology.NodeID(11), p.Source())
	assert.Equal(t, topology.NodeID(12), p.Destination())

	var visited []topology.NodeID
	for !p.AtDestination() {
		next, ok := p.Next()
		require.True(t, ok)
		p = p.Advance()
		cur, _ := p.Current()
		require.Equal(t, next, cur)
		visited = append(visited, cur)
	}
	assert.Equal(t, []topology.NodeID{0, 3, 12}, visited)

	_, ok = p.Next()
	assert.False(t, ok)
}

func TestPacket_Reply(t *testing.T) {
	t.Parallel()

	req := Packet{Session: 9, Kind: KindServerTypeRequest, Route: []topology.NodeID{11, 0, 3, 12}, Hop: 3}

	resp := req.Reply(KindServerTypeResponse, []byte("text"))

	assert.Equal(t, []topology.NodeID{12, 3, 0, 11}, resp.Route)
	assert.Equal(t, 0, resp.Hop)
	assert.Equal(t, uint64(9), resp.Session)
	assert.Equal(t, KindServerTypeResponse, resp.Kind)
	assert.Equal(t, "text", string(resp.Payload))
	// The request route must be untouched.
	assert.Equal(t, []topology.NodeID{11, 0, 3, 12}, req.Route)
}

func TestPacket_ReplyMidRoute(t *testing.T) {
	t.Parallel()

	p := Packet{Route: []topology.NodeID{1, 2, 3, 4}, Hop: 1}

	assert.Equal(t, []topology.NodeID{2, 1}, p.Reply(KindUnknown, nil).Route)
}

func TestPacket_EmptyRoute(t *testing.T) {
	t.Parallel()

	var p Packet
	_, ok := p.Current()
	assert.False(t, ok)
	_, ok = p.Next()
	assert.False(t, ok)
	assert.False(t, p.AtDestination())
	assert.Empty(t, p.Reply(KindUnknown, nil).Route)
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "chat_message", KindChatMessage.String())
	assert.Equal(t, "kind(200)", Kind(200).String())
	assert.Equal(t, "file_request#1 [1 2]@0 (3 bytes)",
		Packet{Session: 1, Kind: KindFileRequest, Route: []topology.NodeID{1, 2}, Payload: []byte("abc")}.String())
}
