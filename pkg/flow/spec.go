package flow

import "fmt"

// Operator is a comparison or test applied by a condition rule. The set is
// format-agnostic; individual targets support a subset and degrade gracefully
// on the rest (see pkg/expr).
type Operator string

// Rule operators.
const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "not_equals"
	OpGreaterThan    Operator = "greater_than"
	OpLessThan       Operator = "less_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessOrEqual    Operator = "less_or_equal"
	OpIsTrue         Operator = "is_true"
	OpIsFalse        Operator = "is_false"
	OpIsEmpty        Operator = "is_empty"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
	OpStartsWith     Operator = "starts_with"
	OpEndsWith       Operator = "ends_with"
	OpIsNil          Operator = "is_nil"
	OpBefore         Operator = "before"
	OpAfter          Operator = "after"
)

// Unary reports whether the operator tests its subject without an operand.
func (o Operator) Unary() bool {
	switch o {
	case OpIsTrue, OpIsFalse, OpIsEmpty, OpIsNil:
		return true
	}
	return false
}

// Logic joins the rules of a condition: all rules must hold, or any one.
type Logic string

// Rule combination modes.
const (
	LogicAll Logic = "all"
	LogicAny Logic = "any"
)

// VarRef addresses a declared variable with dotted sheet.name notation.
// Targets flatten this into their own legal identifier syntax; the
// flattening must stay injective within one run.
type VarRef struct {
	Sheet string `json:"sheet" bson:"sheet"`
	Name  string `json:"name" bson:"name"`
}

// String returns the dotted form, e.g. "quest.progress".
func (v VarRef) String() string {
	if v.Sheet == "" {
		return v.Name
	}
	return v.Sheet + "." + v.Name
}

// Rule is one test in a condition: subject operator operand. Operand is nil
// for unary operators.
type Rule struct {
	Subject VarRef   `json:"subject" bson:"subject"`
	Op      Operator `json:"op" bson:"op"`
	Operand any      `json:"operand,omitempty" bson:"operand,omitempty"`
}

// ConditionSpec is a format-agnostic boolean expression: an ordered rule
// sequence joined with the target's logical AND or OR literal. Rule order
// affects only readability, never semantics.
type ConditionSpec struct {
	Logic Logic  `json:"logic" bson:"logic"`
	Rules []Rule `json:"rules" bson:"rules"`
}

// AssignOp is the mutation applied by one assignment.
type AssignOp string

// Assignment operations.
const (
	AssignSet       AssignOp = "set"
	AssignIncrement AssignOp = "increment"
	AssignDecrement AssignOp = "decrement"
	AssignAppend    AssignOp = "append"
)

// Assignment mutates one variable. Value is a literal; increment and
// decrement treat it as a numeric delta, append as a string suffix.
type Assignment struct {
	Target VarRef   `json:"target" bson:"target"`
	Op     AssignOp `json:"op" bson:"op"`
	Value  any      `json:"value,omitempty" bson:"value,omitempty"`
}

// InstructionSpec is an ordered sequence of assignments executed when the
// instruction node is reached.
type InstructionSpec struct {
	Assignments []Assignment `json:"assignments" bson:"assignments"`
}

// VarType is the declared type of an authored variable.
type VarType string

// Variable types. Multi-select variables hold a set of chosen options from a
// declared option list; most script targets cannot express them directly and
// apply a configurable lossy conversion on export.
const (
	VarBool        VarType = "bool"
	VarNumber      VarType = "number"
	VarString      VarType = "string"
	VarMultiSelect VarType = "multi_select"
)

// Variable is one declared variable from the authoring application's
// namespace table, with its type and default value. Options is populated for
// multi_select variables only.
type Variable struct {
	Ref     VarRef   `json:"ref" bson:"ref"`
	Type    VarType  `json:"type" bson:"type"`
	Default any      `json:"default,omitempty" bson:"default,omitempty"`
	Options []string `json:"options,omitempty" bson:"options,omitempty"`
}

// VarSet is the resolved variable table supplied alongside a flow. Order is
// preserved from declaration; emitters rely on it for stable VAR sections.
type VarSet struct {
	Vars []Variable `json:"vars" bson:"vars"`
}

// Lookup returns the declaration for ref and true, or a zero Variable and
// false when the reference is undeclared.
func (s *VarSet) Lookup(ref VarRef) (Variable, bool) {
	if s == nil {
		return Variable{}, false
	}
	for _, v := range s.Vars {
		if v.Ref == ref {
			return v, true
		}
	}
	return Variable{}, false
}

// DefaultFor returns the default value for a variable, substituting the
// type's zero value when no default was declared.
func (v Variable) DefaultFor() any {
	if v.Default != nil {
		return v.Default
	}
	switch v.Type {
	case VarBool:
		return false
	case VarNumber:
		return 0
	case VarString:
		return ""
	}
	return nil
}

// GoString aids debugging output in tests.
func (r Rule) GoString() string {
	return fmt.Sprintf("Rule{%s %s %v}", r.Subject, r.Op, r.Operand)
}
