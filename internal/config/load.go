package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/fsutil"
	"github.com/specialistvlad/meshboot/internal/topology"
)

var (
	// ErrUnsupportedFormat is returned for a file no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported topology file format")
	// ErrNoFiles is returned when a directory holds no topology files.
	ErrNoFiles = errors.New("no topology files found")
)

// Load reads the topology at path, a single file or a directory that is
// walked recursively. Every file is handed to the loader registered for its
// extension and the results are merged in lexical path order.
func Load(ctx context.Context, path string, loaders ...Loader) (*topology.Topology, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Topology loader started.", "path", path, "loaders", len(loaders))

	byExt := make(map[string]Loader)
	var exts []string
	for _, l := range loaders {
		for _, ext := range l.Extensions() {
			ext = strings.ToLower(ext)
			if _, dup := byExt[ext]; dup {
				panic(fmt.Sprintf("loader for extension '%s' already registered", ext))
			}
			byExt[ext] = l
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("%w: no loaders configured", ErrUnsupportedFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		if _, ok := byExt[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, path, strings.Join(exts, ", "))
		}
	}

	files, err := fsutil.FindFiles(path, exts...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s (supported: %s)", ErrNoFiles, path, strings.Join(exts, ", "))
	}
	logger.Debug("Discovered topology files.", "count", len(files))

	merged := &topology.Topology{}
	for _, file := range files {
		l := byExt[strings.ToLower(filepath.Ext(file))]
		t, err := l.LoadFile(ctx, file)
		if err != nil {
			return nil, err
		}
		merged.Merge(t)
	}

	logger.Debug("Topology loading complete.",
		"relays", len(merged.Relays), "clients", len(merged.Ingress), "servers", len(merged.Termini))
	return merged, nil
}
