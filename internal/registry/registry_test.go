package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/testutil"
	"github.com/specialistvlad/meshboot/internal/topology"
)

func noopRelay(RelayParams) (node.Runnable, error) {
	return node.RunFunc(func(context.Context) {}), nil
}

func noopTerminus(TerminusParams) (node.Runnable, error) {
	return node.RunFunc(func(context.Context) {}), nil
}

type fakeModule struct{}

func (fakeModule) Register(r *Registry) {
	r.RegisterRelay("a", RelayFactoryFunc(noopRelay))
	r.RegisterRelay("b", RelayFactoryFunc(noopRelay))
	r.RegisterRelay("c", RelayFactoryFunc(noopRelay))
	r.RegisterIngress(WebIngress{Name: "web", New: func(WebParams) (node.Runnable, error) { return nil, nil }})
	r.RegisterIngress(ChatIngress{Name: "chat", New: func(ChatParams) (node.Runnable, error) { return nil, nil }})
	r.RegisterTerminus("text", TerminusFactoryFunc(noopTerminus))
	r.RegisterTerminus("media", TerminusFactoryFunc(noopTerminus))
}

func TestSelect_ModuloLength(t *testing.T) {
	t.Parallel()

	r := New().Install(fakeModule{})

	for id, want := range map[topology.NodeID]string{0: "a", 1: "b", 2: "c", 3: "a", 7: "b", 255: "a"} {
		name, f, err := r.SelectRelay(id)
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, want, name, "relay %d", id)
	}

	f, err := r.SelectIngress(10)
	require.NoError(t, err)
	assert.IsType(t, WebIngress{}, f)
	f, err = r.SelectIngress(11)
	require.NoError(t, err)
	assert.IsType(t, ChatIngress{}, f)

	name, _, err := r.SelectTerminus(12)
	require.NoError(t, err)
	assert.Equal(t, "text", name)
	name, _, err = r.SelectTerminus(13)
	require.NoError(t, err)
	assert.Equal(t, "media", name)

	assert.Equal(t, []string{"a", "b", "c"}, r.RelayNames())
	assert.Equal(t, []string{"web", "chat"}, r.IngressNames())
	assert.Equal(t, []string{"text", "media"}, r.TerminusNames())
}

func TestSelect_EmptyList(t *testing.T) {
	t.Parallel()

	r := New()

	_, _, err := r.SelectRelay(1)
	assert.ErrorIs(t, err, ErrNoFactory)
	_, err = r.SelectIngress(1)
	assert.ErrorIs(t, err, ErrNoFactory)
	_, _, err = r.SelectTerminus(1)
	assert.ErrorIs(t, err, ErrNoFactory)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterRelay("a", RelayFactoryFunc(noopRelay))

	assert.PanicsWithValue(t, "relay factory with name 'a' already registered", func() {
		r.RegisterRelay("a", RelayFactoryFunc(noopRelay))
	})
	// Names are scoped per role.
	assert.NotPanics(t, func() { r.RegisterTerminus("a", TerminusFactoryFunc(noopTerminus)) })
	assert.Panics(t, func() { r.RegisterIngress(WebIngress{Name: "nil"}) })
}

func TestCovers(t *testing.T) {
	t.Parallel()

	ctx, _ := testutil.Context(t)
	topo := testutil.RingTopology()

	require.NoError(t, New().Install(fakeModule{}).Covers(ctx, topo))

	r := New()
	r.RegisterRelay("a", RelayFactoryFunc(noopRelay))
	err := r.Covers(ctx, topo)
	require.ErrorIs(t, err, ErrNoFactory)
	assert.Contains(t, err.Error(), "no ingress factory")
	assert.Contains(t, err.Error(), "no terminus factory")
	assert.NotContains(t, err.Error(), "no relay factory")
}
