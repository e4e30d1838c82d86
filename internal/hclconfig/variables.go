package hclconfig

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ParseVariables turns "name=value" assignments into variables for
// NewLoader. A value is read as an HCL expression (3, 0.25, [1, 2],
// "quoted"); anything that does not evaluate on its own is kept as a plain
// string. Later assignments override earlier ones.
func ParseVariables(assignments []string) (map[string]cty.Value, error) {
	vars := make(map[string]cty.Value, len(assignments))
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok {
			return nil, fmt.Errorf("invalid variable %q: expected name=value", a)
		}
		if !hclsyntax.ValidIdentifier(name) {
			return nil, fmt.Errorf("invalid variable name %q", name)
		}
		vars[name] = parseValue(name, raw)
	}
	return vars, nil
}

func parseValue(name, raw string) cty.Value {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<var."+name+">", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.StringVal(raw)
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() || !v.IsWhollyKnown() {
		return cty.StringVal(raw)
	}
	return v
}
