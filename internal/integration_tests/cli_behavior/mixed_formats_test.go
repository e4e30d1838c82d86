package cli_behavior

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/meshboot/internal/app"
	"github.com/specialistvlad/meshboot/internal/cli"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// Test for: a topology split across HCL and YAML files in one directory is
// merged and validated as a whole, with variables from the command line.
func TestCLI_MixedFormatDirectory(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	write(t, dir, "relays.hcl", `
relay "0" { neighbors = [1, 3, 10] }
relay "1" {
  neighbors        = [0, 2]
  drop_probability = var.pdr
}
relay "2" { neighbors = [1, 3, var.server] }
relay "3" { neighbors = [0, 2, var.server] }
`)
	write(t, dir, "edges/edge.yaml", `
clients:
  - {id: 10, neighbors: [0]}
servers:
  - {id: 12, neighbors: [2, 3]}
`)
	out := &bytes.Buffer{}
	cfg, exit, err := cli.Parse([]string{"-check", "-log-level", "error", "-var", "pdr=0.5", "-var", "server=12", dir}, out)
	require.NoError(t, err)
	require.False(t, exit)

	// --- Act ---
	err = app.NewApp(out, cfg).Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), "relays: 4")
	assert.Contains(t, out.String(), "clients: 1")
	assert.Contains(t, out.String(), "valid: true")
}

// Test for: a missing variable makes loading fail with the HCL diagnostic.
func TestCLI_MissingVariable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "relays.hcl", `relay "0" { neighbors = [var.peer] }`)
	cfg, _, err := cli.Parse([]string{"-check", "-log-level", "error", dir}, &bytes.Buffer{})
	require.NoError(t, err)

	err = app.NewApp(&bytes.Buffer{}, cfg).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode HCL file")
	assert.Equal(t, 1, cli.ExitCode(err))
}
