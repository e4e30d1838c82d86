package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/meshboot/internal/topology"
)

// stubLoader declares a single relay whose id is the file size.
type stubLoader struct {
	exts   []string
	loaded []string
	err    error
}

func (s *stubLoader) Extensions() []string { return s.exts }

func (s *stubLoader) LoadFile(_ context.Context, path string) (*topology.Topology, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.loaded = append(s.loaded, filepath.Base(path))
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &topology.Topology{Relays: []topology.Relay{{ID: topology.NodeID(info.Size())}}}, nil
}

func touch(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
}

func TestLoad_DispatchesByExtension(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.hcl"), 2)
	touch(t, filepath.Join(dir, "a.YAML"), 1)
	touch(t, filepath.Join(dir, "nested", "c.hcl"), 3)
	touch(t, filepath.Join(dir, "readme.md"), 9)
	hcl := &stubLoader{exts: []string{".hcl"}}
	yml := &stubLoader{exts: []string{".yaml", ".yml"}}

	// --- Act ---
	got, err := Load(context.Background(), dir, hcl, yml)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []topology.NodeID{1, 2, 3}, got.RelayIDs())
	assert.Equal(t, []string{"b.hcl", "c.hcl"}, hcl.loaded)
	assert.Equal(t, []string{"a.YAML"}, yml.loaded)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "x.hcl"), 0)
	boom := errors.New("boom")

	_, err := Load(context.Background(), dir, &stubLoader{exts: []string{".hcl"}, err: boom})
	assert.ErrorIs(t, err, boom)

	_, err = Load(context.Background(), filepath.Join(dir, "x.hcl"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(context.Background(), filepath.Join(dir, "x.hcl"), &stubLoader{exts: []string{".yaml"}})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(context.Background(), dir, &stubLoader{exts: []string{".yaml"}})
	assert.ErrorIs(t, err, ErrNoFiles)

	assert.Panics(t, func() {
		_, _ = Load(context.Background(), dir, &stubLoader{exts: []string{".hcl"}}, &stubLoader{exts: []string{".HCL"}})
	})
}

func TestToTopology(t *testing.T) {
	t.Parallel()

	got, err := ToTopology([]Declaration{
		{Kind: KindServer, ID: 9, Neighbors: []int{1, 2}},
		{Kind: KindRelay, ID: 1, Neighbors: []int{2, 9}, DropProbability: 0.5},
		{Kind: KindClient, ID: 255, Neighbors: []int{1}},
		{Kind: KindRelay, ID: 2, Neighbors: []int{1, 9}},
	})
	require.NoError(t, err)
	assert.Equal(t, &topology.Topology{
		Relays: []topology.Relay{
			{ID: 1, Neighbors: []topology.NodeID{2, 9}, DropProbability: 0.5},
			{ID: 2, Neighbors: []topology.NodeID{1, 9}},
		},
		Ingress: []topology.Ingress{{ID: 255, Neighbors: []topology.NodeID{1}}},
		Termini: []topology.Terminus{{ID: 9, Neighbors: []topology.NodeID{1, 2}}},
	}, got)

	_, err = ToTopology([]Declaration{{Kind: KindRelay, ID: 256, Source: "f.hcl"}})
	assert.ErrorIs(t, err, ErrIDRange)
	assert.ErrorContains(t, err, "f.hcl: id out of range")

	_, err = ToTopology([]Declaration{{Kind: "gateway", ID: 1, Source: "f.hcl"}})
	assert.ErrorContains(t, err, "unknown node kind 'gateway'")
}
