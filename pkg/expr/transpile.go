package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/flow"
)

// Transpiler renders conditions and instructions in one target syntax. It is
// stateless apart from the flattener it shares with the rest of the run, so
// variable identifiers stay consistent across all compiled fragments.
type Transpiler struct {
	syn *Syntax
	fl  *Flattener
}

// NewTranspiler creates a transpiler for the given syntax and flattener.
// The flattener must be shared with anything else in the run that flattens
// references (the metadata sidecar, variable declarations).
func NewTranspiler(syn *Syntax, fl *Flattener) *Transpiler {
	return &Transpiler{syn: syn, fl: fl}
}

// Syntax returns the target syntax this transpiler renders.
func (t *Transpiler) Syntax() *Syntax { return t.syn }

// Ref returns the target spelling of a variable reference, prefix included.
// A collision error is fatal for the whole run.
func (t *Transpiler) Ref(ref flow.VarRef) (string, error) {
	ident, err := t.fl.Flatten(ref)
	if err != nil {
		return "", err
	}
	return t.syn.VarPrefix + ident, nil
}

// Condition compiles spec into one boolean fragment. Unsupported operators
// compile to the target's placeholder and record a warning on c naming the
// operator and the originating node; the run never aborts for them. The
// returned fragment is always syntactically valid for the target.
func (t *Transpiler) Condition(spec *flow.ConditionSpec, nodeID string, c *diag.Collector) (string, error) {
	if spec == nil || len(spec.Rules) == 0 {
		return t.syn.Placeholder, nil
	}

	// Unknown logic values degrade to the stricter "all" combination.
	join := " " + t.syn.AndOp + " "
	if spec.Logic == flow.LogicAny {
		join = " " + t.syn.OrOp + " "
	}

	parts := make([]string, 0, len(spec.Rules))
	for _, rule := range spec.Rules {
		part, err := t.rule(rule, nodeID, c)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return strings.Join(parts, join), nil
}

// Instruction compiles spec into one statement per assignment, in order.
// The statements carry no target decoration (no "~" or "<<...>>"); emitters
// wrap them per their own line grammar.
func (t *Transpiler) Instruction(spec *flow.InstructionSpec, nodeID string, c *diag.Collector) ([]string, error) {
	if spec == nil {
		return nil, nil
	}
	stmts := make([]string, 0, len(spec.Assignments))
	for _, a := range spec.Assignments {
		target, err := t.Ref(a.Target)
		if err != nil {
			return nil, err
		}
		tmpl, ok := t.syn.Assign[a.Op]
		if !ok {
			c.Warnf(nodeID, string(a.Op), "assignment operation %q has no %s form, emitting plain set", a.Op, t.syn.Name)
			tmpl = t.syn.Assign[flow.AssignSet]
		}
		stmts = append(stmts, fmt.Sprintf(tmpl, target, t.Literal(a.Value)))
	}
	return stmts, nil
}

func (t *Transpiler) rule(r flow.Rule, nodeID string, c *diag.Collector) (string, error) {
	ref, err := t.Ref(r.Subject)
	if err != nil {
		return "", err
	}

	if r.Op.Unary() {
		return t.unary(ref, r.Op, nodeID, c), nil
	}

	lit, ok := t.syn.Operators[r.Op]
	if !ok {
		c.Warnf(nodeID, string(r.Op),
			"operator %q is not supported by target %s, substituting %q", r.Op, t.syn.Name, t.syn.Placeholder)
		return t.syn.Placeholder, nil
	}
	return ref + " " + lit + " " + t.Literal(r.Operand), nil
}

// unary renders an operandless test against ref. Operators without a
// spelling in any current target (is_nil) degrade to the placeholder.
func (t *Transpiler) unary(ref string, op flow.Operator, nodeID string, c *diag.Collector) string {
	switch op {
	case flow.OpIsTrue:
		if t.syn.BoolShorthand {
			return ref
		}
		return ref + " " + t.syn.EqOp + " " + t.syn.TrueLit
	case flow.OpIsFalse:
		if t.syn.BoolShorthand {
			return t.syn.NotPrefix + ref
		}
		return ref + " " + t.syn.EqOp + " " + t.syn.FalseLit
	case flow.OpIsEmpty:
		return ref + " " + t.syn.EqOp + " " + t.syn.EmptyLit
	}
	c.Warnf(nodeID, string(op),
		"operator %q is not supported by target %s, substituting %q", op, t.syn.Name, t.syn.Placeholder)
	return t.syn.Placeholder
}

// Literal renders a Go value as a target literal. Strings are quoted with
// backslash escaping, booleans use the target's literals, and numbers print
// in their shortest exact form. nil renders as the empty-value literal.
func (t *Transpiler) Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return t.syn.EmptyLit
	case bool:
		if val {
			return t.syn.TrueLit
		}
		return t.syn.FalseLit
	case string:
		return strconv.Quote(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}
