package app

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/meshboot/internal/bootstrap"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/supervisor"
)

// shutdownGrace bounds how long Run waits for nodes to stop.
const shutdownGrace = 5 * time.Second

// Run executes the main application logic: load and validate the topology,
// bootstrap every node and supervise the mesh until ctx is cancelled or the
// configured duration elapses. With CheckOnly it only runs Check.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.CheckOnly {
		return a.Check(ctx)
	}

	t, err := a.LoadTopology(ctx)
	if err != nil {
		return fmt.Errorf("failed to load topology: %w", err)
	}

	if err := a.startHealthCheckServer(a.config.HealthcheckPort); err != nil {
		return err
	}
	defer func() {
		if cerr := a.closeHealthCheckServer(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var sinks []supervisor.Sink
	if a.config.EventsURL != "" {
		sink, err := supervisor.DialSocketIO(ctx, supervisor.SocketIOOptions{URL: a.config.EventsURL})
		if err != nil {
			return fmt.Errorf("failed to connect event sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.config.Duration > 0 {
		var stop context.CancelFunc
		runCtx, stop = context.WithTimeout(runCtx, a.config.Duration)
		defer stop()
	}

	a.logger.Info("🚀 Starting mesh...", "topology", a.config.TopologyPath, "nodes", t.Len())
	handoff, err := bootstrap.Run(runCtx, t, a.registry, bootstrap.Options{
		Parallelism: a.config.Parallelism,
		Metrics:     a.metrics,
	})
	if err != nil {
		for _, s := range sinks {
			_ = s.Close()
		}
		return err
	}

	monitor := &supervisor.Monitor{
		Interval: a.config.PollInterval,
		Sinks:    sinks,
		Metrics:  a.metrics,
		Probe:    a.config.Probe,
	}
	serr := monitor.Supervise(runCtx, handoff)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer waitCancel()
	if werr := handoff.Wait(waitCtx); werr != nil {
		a.logger.Warn("Nodes did not stop in time.", "running", handoff.Running(), "error", werr)
	}

	a.logger.Info("🏁 Mesh stopped.", "events", monitor.Counts())
	if serr != nil {
		return fmt.Errorf("supervision failed: %w", serr)
	}
	return nil
}
