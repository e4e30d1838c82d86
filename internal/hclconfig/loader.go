package hclconfig

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/tryfunc"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/specialistvlad/meshboot/internal/config"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	vars map[string]cty.Value
}

// NewLoader creates a new HCL topology loader. vars are exposed to
// expressions as var.<name>.
func NewLoader(vars map[string]cty.Value) *Loader {
	return &Loader{vars: vars}
}

// fileRoot lists every top-level block a topology file may contain. Unknown
// blocks are rejected by the decoder.
type fileRoot struct {
	Relays  []*relayBlock `hcl:"relay,block"`
	Clients []*edgeBlock  `hcl:"client,block"`
	Servers []*edgeBlock  `hcl:"server,block"`
}

type relayBlock struct {
	ID              string  `hcl:"id,label"`
	Neighbors       []int   `hcl:"neighbors"`
	DropProbability float64 `hcl:"drop_probability,optional"`
}

type edgeBlock struct {
	ID        string `hcl:"id,label"`
	Neighbors []int  `hcl:"neighbors"`
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".hcl"} }

// LoadFile implements config.Loader.
func (l *Loader) LoadFile(ctx context.Context, path string) (*topology.Topology, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing HCL topology file.", "path", path)

	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, l.evalContext(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	var decls []config.Declaration
	for _, r := range root.Relays {
		d, err := declaration(path, config.KindRelay, r.ID, r.Neighbors)
		if err != nil {
			return nil, err
		}
		d.DropProbability = r.DropProbability
		decls = append(decls, d)
	}
	for _, group := range []struct {
		kind   config.Kind
		blocks []*edgeBlock
	}{{config.KindClient, root.Clients}, {config.KindServer, root.Servers}} {
		for _, b := range group.blocks {
			d, err := declaration(path, group.kind, b.ID, b.Neighbors)
			if err != nil {
				return nil, err
			}
			decls = append(decls, d)
		}
	}

	t, err := config.ToTopology(decls)
	if err != nil {
		return nil, err
	}
	logger.Debug("HCL topology file decoded.", "path", path, "relays", len(t.Relays), "clients", len(t.Ingress), "servers", len(t.Termini))
	return t, nil
}

func declaration(path string, kind config.Kind, label string, neighbors []int) (config.Declaration, error) {
	source := fmt.Sprintf("%s: %s %q", path, kind, label)
	id, err := strconv.Atoi(label)
	if err != nil {
		return config.Declaration{}, fmt.Errorf("%s: label is not a node id", source)
	}
	return config.Declaration{Kind: kind, ID: id, Neighbors: neighbors, Source: source}, nil
}

func (l *Loader) evalContext() *hcl.EvalContext {
	vars := l.vars
	if vars == nil {
		vars = map[string]cty.Value{}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(vars)},
		Functions: map[string]function.Function{
			"concat": stdlib.ConcatFunc,
			"range":  stdlib.RangeFunc,
			"min":    stdlib.MinFunc,
			"max":    stdlib.MaxFunc,
			"try":    tryfunc.TryFunc,
			"can":    tryfunc.CanFunc,
		},
	}
}
