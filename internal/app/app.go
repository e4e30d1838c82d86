package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/meshboot/internal/config"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/hclconfig"
	"github.com/specialistvlad/meshboot/internal/metrics"
	"github.com/specialistvlad/meshboot/internal/registry"
	"github.com/specialistvlad/meshboot/internal/topology"
	"github.com/specialistvlad/meshboot/internal/yamlconfig"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	metrics    *metrics.Registry
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry and
// metrics. Without modules the core node behaviours are installed.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules(cfg)
	}
	reg := registry.New().Install(modules...)
	logger.Debug("All Go modules registered.",
		"count", len(modules),
		"relays", reg.RelayNames(),
		"ingress", reg.IngressNames(),
		"termini", reg.TerminusNames(),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		metrics:  metrics.NewRegistry(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the application's metrics registry.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// LoadTopology reads the configured topology path with every supported
// file format. Variables are resolved here so a malformed -var fails the
// load rather than the process start.
func (a *App) LoadTopology(ctx context.Context) (*topology.Topology, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	vars, err := hclconfig.ParseVariables(a.config.Variables)
	if err != nil {
		return nil, err
	}
	return config.Load(ctx, a.config.TopologyPath, hclconfig.NewLoader(vars), yamlconfig.NewLoader())
}
