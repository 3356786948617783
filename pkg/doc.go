// Package pkg provides the core libraries for Flowscribe flow export.
//
// # Overview
//
// Flowscribe turns node-based dialogue and logic graphs from the authoring
// application into linear script files for narrative runtimes. The pkg
// directory is organized into five main areas:
//
//  1. [flow] - Graph model (nodes, edges, conditions, variables, validation)
//  2. [linearize] - Graph flattening (traversal, labels, block programs)
//  3. [emit] - Target writers (ink and yarn emitters, expr for expressions)
//  4. [export] - Orchestration (validate → linearize → emit, with caching)
//  5. [infra] - Supporting services (cache, io, source, diag, preview)
//
// # Architecture
//
// The typical data flow through Flowscribe:
//
//	Flow Document (JSON or MongoDB)
//	         ↓
//	flow.Validate + flow.NewIndex
//	         ↓
//	linearize.Linearize → Program (blocks, labels, directives)
//	         ↓
//	emit (ink, yarn) → script files + diagnostics
//
// The export package drives the whole pipeline with content-addressed
// caching at two stages: the linearized program (keyed by the canonical
// document bytes) and the rendered artifacts (keyed by program hash and
// emit options). Cache hits replay the stage's recorded diagnostics so a
// cached run reports identical warnings to a fresh one.
//
// # Determinism
//
// Every stage is deterministic for an unchanged input: edges are traversed
// in the fixed order of [flow.CompareEdges], labels are derived from node
// IDs, and emitters iterate blocks in program order. Byte-identical input
// yields byte-identical output, which is what makes content-hash caching
// sound.
package pkg
