package mesh_traffic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/meshboot/internal/bootstrap"
	"github.com/specialistvlad/meshboot/internal/mailbox"
	"github.com/specialistvlad/meshboot/internal/registry"
	"github.com/specialistvlad/meshboot/internal/supervisor"
	"github.com/specialistvlad/meshboot/internal/testutil"
	"github.com/specialistvlad/meshboot/internal/topology"
	"github.com/specialistvlad/meshboot/modules/chatclient"
	"github.com/specialistvlad/meshboot/modules/forwarder"
	"github.com/specialistvlad/meshboot/modules/servers"
	"github.com/specialistvlad/meshboot/modules/webclient"
)

// startDoubleChain bootstraps the double chain with the built-in behaviours:
// client 10 browses, client 11 chats, server 12 serves text and 13 media.
func startDoubleChain(t *testing.T) *bootstrap.Handoff {
	t.Helper()
	ctx, _ := testutil.Context(t)
	reg := registry.New().Install(
		&forwarder.Module{Seed: 1},
		&webclient.Module{},
		&chatclient.Module{},
		&servers.Module{},
	)
	h, err := bootstrap.Run(ctx, testutil.DoubleChain(), reg, bootstrap.Options{})
	require.NoError(t, err)
	require.Equal(t, 14, h.Launched)
	return h
}

func route(t *testing.T, h *bootstrap.Handoff, from, to topology.NodeID) []topology.NodeID {
	t.Helper()
	r, ok := supervisor.Route(h.Graph, from, to)
	require.True(t, ok, "no route %d -> %d", from, to)
	return r
}

// collect reads events until n of them are of type T, skipping the rest.
func collect[T any, E any](t *testing.T, rx *mailbox.Receiver[E], n int) []T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out []T
	for len(out) < n {
		ev, err := rx.Recv(ctx)
		require.NoError(t, err, "waiting for %d events, have %d", n, len(out))
		if match, ok := any(ev).(T); ok {
			out = append(out, match)
		}
	}
	return out
}
