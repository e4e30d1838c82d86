package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/validate"
)

// Report is the document Check prints.
type Report struct {
	Topology   string          `yaml:"topology"`
	Relays     int             `yaml:"relays"`
	Clients    int             `yaml:"clients"`
	Servers    int             `yaml:"servers"`
	Valid      bool            `yaml:"valid"`
	Violations []ViolationInfo `yaml:"violations,omitempty"`
}

// ViolationInfo is one failed check of a Report.
type ViolationInfo struct {
	Check   string `yaml:"check"`
	Reason  string `yaml:"reason"`
	Node    *int   `yaml:"node,omitempty"`
	Peer    *int   `yaml:"peer,omitempty"`
	Message string `yaml:"message"`
}

// Check loads and validates the topology without creating any node and
// writes a YAML report to the app's output. The returned error wraps the
// collected violations, so errors.As finds a *validate.Violation.
func (a *App) Check(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	t, err := a.LoadTopology(ctx)
	if err != nil {
		return fmt.Errorf("failed to load topology: %w", err)
	}

	verr := validate.Report(t)
	a.metrics.RecordValidation(verr)

	report := Report{
		Topology: a.config.TopologyPath,
		Relays:   len(t.Relays),
		Clients:  len(t.Ingress),
		Servers:  len(t.Termini),
		Valid:    verr == nil,
	}
	for _, e := range multierr.Errors(verr) {
		var v *validate.Violation
		if !errors.As(e, &v) {
			continue
		}
		info := ViolationInfo{Check: v.Check.String(), Reason: v.Reason.Error(), Message: v.Error()}
		if v.HasNode {
			n := int(v.Node)
			info.Node = &n
		}
		if v.HasPeer {
			p := int(v.Peer)
			info.Peer = &p
		}
		report.Violations = append(report.Violations, info)
	}

	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if verr != nil {
		a.logger.Warn("Topology is invalid.", "violations", len(report.Violations))
		return fmt.Errorf("topology rejected: %w", verr)
	}
	a.logger.Info("Topology is valid.", "nodes", t.Len())
	return nil
}
