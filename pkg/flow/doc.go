// Package flow defines the input model for the export transpiler: a named
// directed graph of narrative/logic nodes, the condition and instruction
// specifications attached to those nodes, and the declared variable table.
//
// A [Flow] is a read-only snapshot owned by the caller. The transpiler never
// mutates it; every transformation operates on transient state scoped to a
// single run, which makes concurrent exports of different flows safe without
// coordination.
//
// # Node variants
//
// Nodes form a closed tagged union over [NodeType]. Exactly one payload field
// is set per node, matching its type:
//
//   - entry: flow start, no content, single outgoing edge
//   - exit: flow end, no outgoing edges
//   - dialogue: speaker-tagged text with zero or more response sockets
//   - condition: a ConditionSpec with true/false branches
//   - instruction: an ordered list of variable assignments
//   - hub: a named re-entry point (always labeled in linear output)
//   - jump: an explicit transfer to a hub, never inline content
//
// Consumers (the linearizer and each emitter) switch exhaustively over
// [NodeType]; adding a variant forces every consumption site to be updated.
//
// # Validation
//
// [Validate] checks structural integrity before any transpilation: exactly
// one entry node, unique node IDs, edges referencing existing nodes through
// sockets the source node actually exposes, and jump targets resolving to
// hubs. Any violation is fatal; the transpiler never produces partial output
// from a malformed graph.
package flow
