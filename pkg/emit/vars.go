package emit

import (
	"strings"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/expr"
	"github.com/mkessel/flowscribe/pkg/flow"
)

// VarDecl is one variable ready for a target's declaration section: the
// target-spelled identifier (prefix included) and the rendered default.
type VarDecl struct {
	Ident string
	Value string
}

// DeclareVars converts the resolved variable table into target declarations,
// preserving declaration order. Multi-select variables apply the configured
// lossy policy: flattened to one boolean per option, or joined into a single
// string. Either conversion records a warning. Flattening synthetic idents
// through the shared flattener keeps collision detection airtight across
// authored and derived names.
func DeclareVars(vars *flow.VarSet, tr *expr.Transpiler, lossy LossyOptions, c *diag.Collector) ([]VarDecl, error) {
	if vars == nil {
		return nil, nil
	}
	var decls []VarDecl
	for _, v := range vars.Vars {
		if v.Type != flow.VarMultiSelect {
			ident, err := tr.Ref(v.Ref)
			if err != nil {
				return nil, err
			}
			decls = append(decls, VarDecl{Ident: ident, Value: tr.Literal(v.DefaultFor())})
			continue
		}

		if lossy.FlattenMultiSelect {
			c.Warnf("", "multi_select",
				"multi-select variable %q flattened to %d booleans", v.Ref, len(v.Options))
			selected := selectedOptions(v.Default)
			for _, opt := range v.Options {
				ident, err := tr.Ref(flow.VarRef{
					Sheet: v.Ref.Sheet,
					Name:  v.Ref.Name + "_" + expr.SanitizeIdent(opt),
				})
				if err != nil {
					return nil, err
				}
				decls = append(decls, VarDecl{Ident: ident, Value: tr.Literal(selected[opt])})
			}
			continue
		}

		c.Warnf("", "multi_select",
			"multi-select variable %q joined into a single string", v.Ref)
		ident, err := tr.Ref(v.Ref)
		if err != nil {
			return nil, err
		}
		// Preserve declared option order, not map order.
		selected := selectedOptions(v.Default)
		var joined []string
		for _, opt := range v.Options {
			if selected[opt] {
				joined = append(joined, opt)
			}
		}
		decls = append(decls, VarDecl{Ident: ident, Value: tr.Literal(strings.Join(joined, ","))})
	}
	return decls, nil
}

// selectedOptions normalizes a multi-select default (a string slice, however
// the decoder delivered it) into a membership map.
func selectedOptions(def any) map[string]bool {
	out := make(map[string]bool)
	switch vals := def.(type) {
	case []string:
		for _, v := range vals {
			out[v] = true
		}
	case []any:
		for _, v := range vals {
			if s, ok := v.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}
