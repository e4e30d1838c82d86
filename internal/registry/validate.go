package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Covers checks that every role present in t has at least one factory, so
// bootstrap cannot fail half-way on an empty list.
func (r *Registry) Covers(ctx context.Context, t *topology.Topology) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	if len(t.Relays) > 0 && len(r.relays) == 0 {
		errs = append(errs, fmt.Sprintf("%d relays declared but no relay factory", len(t.Relays)))
	}
	if len(t.Ingress) > 0 && len(r.ingress) == 0 {
		errs = append(errs, fmt.Sprintf("%d clients declared but no ingress factory", len(t.Ingress)))
	}
	if len(t.Termini) > 0 && len(r.termini) == 0 {
		errs = append(errs, fmt.Sprintf("%d servers declared but no terminus factory", len(t.Termini)))
	}
	if len(t.Relays) > 0 && len(r.relays) > len(t.Relays) {
		logger.Warn("More relay factories than relays; some will never be selected.", "factories", len(r.relays), "relays", len(t.Relays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrNoFactory, strings.Join(errs, "\n- "))
	}
	return nil
}
