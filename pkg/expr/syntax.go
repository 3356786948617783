package expr

import "github.com/mkessel/flowscribe/pkg/flow"

// Syntax describes how one target language spells expressions. It is pure
// configuration: the transpiler consults it and never branches on the target
// name. Operators missing from the table are unsupported for the target and
// compile to Placeholder with a warning.
type Syntax struct {
	// Name identifies the target (e.g. "ink", "yarn").
	Name string

	// Operators maps binary rule operators to their literal spelling.
	Operators map[flow.Operator]string

	// AndOp and OrOp join multi-rule conditions per ConditionSpec.Logic.
	AndOp string
	OrOp  string

	// NotPrefix negates a bare reference (used by is_false shorthand).
	NotPrefix string

	// EqOp is the equality operator used for explicit comparisons when
	// shorthand forms are unavailable, and for is_empty.
	EqOp string

	// TrueLit, FalseLit and EmptyLit are the target's boolean and
	// empty-value literals.
	TrueLit  string
	FalseLit string
	EmptyLit string

	// BoolShorthand selects bare-reference compilation for is_true/is_false
	// instead of an explicit comparison against a boolean literal.
	BoolShorthand bool

	// Placeholder is the always-true fragment substituted for unsupported
	// operators. It must be syntactically valid in any condition position.
	Placeholder string

	// VarPrefix is prepended to every flattened identifier ("$" for
	// Yarn-style targets, empty for Ink-style).
	VarPrefix string

	// IdentSep replaces the dot in sheet.name references during flattening.
	IdentSep string

	// Assign maps assignment operations to fmt templates. %[1]s is the
	// flattened target reference, %[2]s the rendered value. Operations
	// without native compound forms expand to explicit arithmetic.
	Assign map[flow.AssignOp]string
}

// Ink is the syntax table for the Ink-like target. Containment maps to the
// "?" / "!?" operators; prefix/suffix string tests and date ordering have no
// Ink spelling and degrade to the placeholder.
var Ink = &Syntax{
	Name: "ink",
	Operators: map[flow.Operator]string{
		flow.OpEquals:         "==",
		flow.OpNotEquals:      "!=",
		flow.OpGreaterThan:    ">",
		flow.OpLessThan:       "<",
		flow.OpGreaterOrEqual: ">=",
		flow.OpLessOrEqual:    "<=",
		flow.OpContains:       "?",
		flow.OpNotContains:    "!?",
	},
	AndOp:         "&&",
	OrOp:          "||",
	NotPrefix:     "!",
	EqOp:          "==",
	TrueLit:       "true",
	FalseLit:      "false",
	EmptyLit:      `""`,
	BoolShorthand: true,
	Placeholder:   "true",
	VarPrefix:     "",
	IdentSep:      "_",
	Assign: map[flow.AssignOp]string{
		flow.AssignSet:       "%[1]s = %[2]s",
		flow.AssignIncrement: "%[1]s = %[1]s + %[2]s",
		flow.AssignDecrement: "%[1]s = %[1]s - %[2]s",
		flow.AssignAppend:    "%[1]s = %[1]s + %[2]s",
	},
}

// Yarn is the syntax table for the Yarn-like target. Yarn has no containment
// or string-shape operators; those degrade to the placeholder.
var Yarn = &Syntax{
	Name: "yarn",
	Operators: map[flow.Operator]string{
		flow.OpEquals:         "==",
		flow.OpNotEquals:      "!=",
		flow.OpGreaterThan:    ">",
		flow.OpLessThan:       "<",
		flow.OpGreaterOrEqual: ">=",
		flow.OpLessOrEqual:    "<=",
	},
	AndOp:         "&&",
	OrOp:          "||",
	NotPrefix:     "!",
	EqOp:          "==",
	TrueLit:       "true",
	FalseLit:      "false",
	EmptyLit:      `""`,
	BoolShorthand: true,
	Placeholder:   "true",
	VarPrefix:     "$",
	IdentSep:      "_",
	Assign: map[flow.AssignOp]string{
		flow.AssignSet:       "set %[1]s to %[2]s",
		flow.AssignIncrement: "set %[1]s to %[1]s + %[2]s",
		flow.AssignDecrement: "set %[1]s to %[1]s - %[2]s",
		flow.AssignAppend:    "set %[1]s to %[1]s + %[2]s",
	},
}

// Supports reports whether the binary operator has a native spelling in this
// syntax. Unary operators are resolved separately by the transpiler.
func (s *Syntax) Supports(op flow.Operator) bool {
	_, ok := s.Operators[op]
	return ok
}
