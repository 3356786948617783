package flow

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNoEntry is returned by [Validate] when the flow has no entry node.
	// Every flow needs exactly one unambiguous start.
	ErrNoEntry = errors.New("flow has no entry node")

	// ErrMultipleEntries is returned by [Validate] when more than one entry
	// node exists. The start of the flow must be unambiguous.
	ErrMultipleEntries = errors.New("flow has multiple entry nodes")

	// ErrDuplicateNodeID is returned by [Validate] when two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidNodeID is returned by [Validate] for nodes with an empty ID.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrUnknownNodeType is returned by [Validate] when a node carries a type
	// outside the defined variant set. This indicates a schema violation
	// upstream and is always fatal.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrDanglingEdge is returned by [Validate] when an edge references a
	// node ID that does not exist in the flow.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrUnknownSocket is returned by [Validate] when an edge leaves a node
	// through a socket that node does not expose.
	ErrUnknownSocket = errors.New("edge uses socket not exposed by source node")

	// ErrEntryHasIncoming is returned by [Validate] when an edge targets the
	// entry node. The entry must have no incoming edges.
	ErrEntryHasIncoming = errors.New("entry node has incoming edges")

	// ErrExitHasOutgoing is returned by [Validate] when an edge leaves an
	// exit node. Exits terminate a branch and expose no sockets.
	ErrExitHasOutgoing = errors.New("exit node has outgoing edges")

	// ErrBadJumpTarget is returned by [Validate] when a jump node's target is
	// missing or does not resolve to a hub node.
	ErrBadJumpTarget = errors.New("jump target is not a hub")

	// ErrMissingPayload is returned by [Validate] when a node lacks the
	// payload its type requires (e.g. a jump without a target).
	ErrMissingPayload = errors.New("node payload missing for its type")
)

// Validate checks structural integrity of a flow. It returns nil for a valid
// flow and a wrapped sentinel error naming the offending node or edge
// otherwise. Transpilation must not be attempted on a flow that fails
// validation; all violations here are fatal.
//
// Checks, in order: node IDs non-empty and unique, node types known with the
// required payload present, exactly one entry node, every edge referencing
// existing nodes through an exposed socket, no incoming edges on the entry,
// no outgoing edges on exits, and jump targets resolving to hub nodes.
//
// Nodes and edges are examined in sorted order so the first reported
// violation is deterministic regardless of input ordering.
func Validate(f *Flow) error {
	ids := make(map[string]NodeType, len(f.Nodes))
	byID := make(map[string]*Node, len(f.Nodes))
	sortedNodes := make([]*Node, len(f.Nodes))
	for i := range f.Nodes {
		sortedNodes[i] = &f.Nodes[i]
	}
	slices.SortStableFunc(sortedNodes, func(a, b *Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	entries := 0
	for _, n := range sortedNodes {
		if n.ID == "" {
			return ErrInvalidNodeID
		}
		if _, exists := ids[n.ID]; exists {
			return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateNodeID)
		}
		if !n.Type.Known() {
			return fmt.Errorf("node %q has type %q: %w", n.ID, n.Type, ErrUnknownNodeType)
		}
		if err := validatePayload(n); err != nil {
			return err
		}
		ids[n.ID] = n.Type
		byID[n.ID] = n
		if n.Type == NodeEntry {
			entries++
		}
	}

	if entries == 0 {
		return ErrNoEntry
	}
	if entries > 1 {
		return ErrMultipleEntries
	}

	sortedEdges := slices.Clone(f.Edges)
	slices.SortStableFunc(sortedEdges, CompareEdges)

	for _, e := range sortedEdges {
		srcType, okSrc := ids[e.From]
		dstType, okDst := ids[e.To]
		if !okSrc {
			return fmt.Errorf("edge %s(%s)->%s: source: %w", e.From, e.Socket, e.To, ErrDanglingEdge)
		}
		if !okDst {
			return fmt.Errorf("edge %s(%s)->%s: target: %w", e.From, e.Socket, e.To, ErrDanglingEdge)
		}
		if srcType == NodeExit {
			return fmt.Errorf("edge %s(%s)->%s: %w", e.From, e.Socket, e.To, ErrExitHasOutgoing)
		}
		if dstType == NodeEntry {
			return fmt.Errorf("edge %s(%s)->%s: %w", e.From, e.Socket, e.To, ErrEntryHasIncoming)
		}
		if !slices.Contains(byID[e.From].Sockets(), e.Socket) {
			return fmt.Errorf("edge %s(%s)->%s: %w", e.From, e.Socket, e.To, ErrUnknownSocket)
		}
	}

	for _, n := range sortedNodes {
		if n.Type != NodeJump {
			continue
		}
		target, ok := ids[n.Jump.Target]
		if !ok || target != NodeHub {
			return fmt.Errorf("jump %q targets %q: %w", n.ID, n.Jump.Target, ErrBadJumpTarget)
		}
	}

	return nil
}

func validatePayload(n *Node) error {
	var ok bool
	switch n.Type {
	case NodeDialogue:
		ok = n.Dialogue != nil
	case NodeCondition:
		ok = n.Condition != nil
	case NodeInstruction:
		ok = n.Instruction != nil
	case NodeJump:
		ok = n.Jump != nil && n.Jump.Target != ""
	case NodeEntry, NodeExit, NodeHub:
		ok = true
	}
	if !ok {
		return fmt.Errorf("node %q (%s): %w", n.ID, n.Type, ErrMissingPayload)
	}
	return nil
}
