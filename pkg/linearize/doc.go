// Package linearize flattens a validated flow graph into an ordered block
// program with explicit control transfers.
//
// The linearizer walks the graph once, in a single deterministic order
// (outgoing edges sorted by source ID, then socket key), and produces one
// [Block] per reachable node. Nodes that are merge points (in-degree above
// one), loop-back targets, hubs, or targets of branch edges receive a
// synthetic label; every reference to an already-visited node compiles to a
// divert, never a re-emission. This visitation rule guarantees termination
// and single emission on any finite graph, cycles and self-loops included.
//
// Label names are a pure function of the graph's structure, so two runs on
// identical input produce identical programs. Unreachable nodes are skipped
// silently unless strict coverage is requested, in which case each produces
// a warning diagnostic.
package linearize
