// Package expr compiles format-agnostic condition and instruction
// specifications into the literal syntax of one target scripting language.
//
// Each target is described by a [Syntax]: a small data-driven configuration
// holding its operator table, logical connectives, literals, and assignment
// templates. Adding a target means supplying a new Syntax value, not new
// branching code.
//
// Compilation is pure and deterministic. Operators absent from a target's
// table are normal, not errors: the transpiler emits the target's
// always-true placeholder and records one warning diagnostic naming the
// operator and the node it came from. The only fatal condition is a variable
// flattening collision, where two distinct dotted references would map to
// the same target identifier; silently merging variables is unacceptable.
package expr
