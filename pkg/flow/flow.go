package flow

import "slices"

// NodeType identifies a node variant. The set is closed: consumers switch
// exhaustively over these values and treat anything else as a schema
// violation from upstream.
type NodeType string

// Node variants.
const (
	NodeEntry       NodeType = "entry"
	NodeExit        NodeType = "exit"
	NodeDialogue    NodeType = "dialogue"
	NodeCondition   NodeType = "condition"
	NodeInstruction NodeType = "instruction"
	NodeHub         NodeType = "hub"
	NodeJump        NodeType = "jump"
)

// Known reports whether t is one of the defined node variants.
func (t NodeType) Known() bool {
	switch t {
	case NodeEntry, NodeExit, NodeDialogue, NodeCondition, NodeInstruction, NodeHub, NodeJump:
		return true
	}
	return false
}

// Socket keys for node outputs. Dialogue nodes with responses use the
// response keys as sockets instead of SocketOut.
const (
	SocketOut   = "out"
	SocketTrue  = "true"
	SocketFalse = "false"
)

// Response is one selectable answer on a dialogue node. Each response is an
// output socket of the node; the response Key doubles as the edge socket key.
type Response struct {
	Key   string         `json:"key" bson:"key"`
	Text  string         `json:"text" bson:"text"`
	Guard *ConditionSpec `json:"guard,omitempty" bson:"guard,omitempty"`
}

// DialogueData is the payload of a dialogue node.
type DialogueData struct {
	Speaker   string     `json:"speaker,omitempty" bson:"speaker,omitempty"`
	Text      string     `json:"text" bson:"text"`
	Responses []Response `json:"responses,omitempty" bson:"responses,omitempty"`
}

// HubData is the payload of a hub node. The name is used to derive the hub's
// label in linear output; it falls back to the node ID when empty.
type HubData struct {
	Name string `json:"name,omitempty" bson:"name,omitempty"`
}

// JumpData is the payload of a jump node. Target references a hub node by ID.
type JumpData struct {
	Target string `json:"target" bson:"target"`
}

// Node is a vertex in the flow graph. Exactly one payload field is non-nil,
// matching Type. Nodes are immutable inputs to the transpiler.
type Node struct {
	ID   string   `json:"id" bson:"id"`
	Type NodeType `json:"type" bson:"type"`

	Dialogue    *DialogueData    `json:"dialogue,omitempty" bson:"dialogue,omitempty"`
	Condition   *ConditionSpec   `json:"condition,omitempty" bson:"condition,omitempty"`
	Instruction *InstructionSpec `json:"instruction,omitempty" bson:"instruction,omitempty"`
	Hub         *HubData         `json:"hub,omitempty" bson:"hub,omitempty"`
	Jump        *JumpData        `json:"jump,omitempty" bson:"jump,omitempty"`
}

// Sockets returns the output socket keys this node exposes, in emission
// order. Exit and jump nodes expose none: exits terminate a branch and jumps
// transfer control through their payload target.
func (n *Node) Sockets() []string {
	switch n.Type {
	case NodeEntry, NodeInstruction, NodeHub:
		return []string{SocketOut}
	case NodeDialogue:
		if n.Dialogue == nil || len(n.Dialogue.Responses) == 0 {
			return []string{SocketOut}
		}
		keys := make([]string, len(n.Dialogue.Responses))
		for i, r := range n.Dialogue.Responses {
			keys[i] = r.Key
		}
		return keys
	case NodeCondition:
		return []string{SocketTrue, SocketFalse}
	case NodeExit, NodeJump:
		return nil
	}
	return nil
}

// Edge is a directed connection from one node's output socket to another
// node. Socket disambiguates multiple outputs of one node (each dialogue
// response, or a condition's true/false branches).
type Edge struct {
	From   string `json:"from" bson:"from"`
	Socket string `json:"socket" bson:"socket"`
	To     string `json:"to" bson:"to"`
}

// Flow is a named dialogue/logic graph. It is the unit of transpilation:
// one flow in, one set of script files out.
type Flow struct {
	ID    string `json:"id" bson:"id"`
	Title string `json:"title,omitempty" bson:"title,omitempty"`
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node returns the node with the given ID and true, or nil and false.
// Lookup is linear; callers doing repeated lookups should use [Flow.Index].
func (f *Flow) Node(id string) (*Node, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// Entry returns the flow's entry node, or nil if absent. Validation
// guarantees exactly one entry on any flow accepted for transpilation.
func (f *Flow) Entry() *Node {
	for i := range f.Nodes {
		if f.Nodes[i].Type == NodeEntry {
			return &f.Nodes[i]
		}
	}
	return nil
}

// Index is a read-only lookup view over a flow, built once per run.
// Outgoing edges are kept in the deterministic transpilation order:
// sorted by source node ID, then socket key, then target ID.
type Index struct {
	flow     *Flow
	nodes    map[string]*Node
	outgoing map[string][]Edge
	incoming map[string][]Edge
}

// NewIndex builds a lookup view for f. The flow itself is not copied or
// modified; the index borrows its node storage.
func NewIndex(f *Flow) *Index {
	idx := &Index{
		flow:     f,
		nodes:    make(map[string]*Node, len(f.Nodes)),
		outgoing: make(map[string][]Edge, len(f.Nodes)),
		incoming: make(map[string][]Edge, len(f.Nodes)),
	}
	for i := range f.Nodes {
		idx.nodes[f.Nodes[i].ID] = &f.Nodes[i]
	}
	sorted := slices.Clone(f.Edges)
	slices.SortStableFunc(sorted, CompareEdges)
	for _, e := range sorted {
		idx.outgoing[e.From] = append(idx.outgoing[e.From], e)
		idx.incoming[e.To] = append(idx.incoming[e.To], e)
	}
	return idx
}

// CompareEdges orders edges by source ID, then socket key, then target ID.
// This single fixed order underpins the determinism guarantee: two runs on
// an unchanged flow traverse edges identically.
func CompareEdges(a, b Edge) int {
	if a.From != b.From {
		if a.From < b.From {
			return -1
		}
		return 1
	}
	if a.Socket != b.Socket {
		if a.Socket < b.Socket {
			return -1
		}
		return 1
	}
	if a.To != b.To {
		if a.To < b.To {
			return -1
		}
		return 1
	}
	return 0
}

// Flow returns the indexed flow.
func (x *Index) Flow() *Flow { return x.flow }

// Node returns the node with the given ID and true, or nil and false.
func (x *Index) Node(id string) (*Node, bool) {
	n, ok := x.nodes[id]
	return n, ok
}

// Outgoing returns the outgoing edges of a node in deterministic order.
// The returned slice is a read-only view.
func (x *Index) Outgoing(id string) []Edge { return x.outgoing[id] }

// Incoming returns the incoming edges of a node in deterministic order.
// The returned slice is a read-only view.
func (x *Index) Incoming(id string) []Edge { return x.incoming[id] }

// InDegree returns the number of incoming edges of a node.
func (x *Index) InDegree(id string) int { return len(x.incoming[id]) }

// OutDegree returns the number of outgoing edges of a node.
func (x *Index) OutDegree(id string) int { return len(x.outgoing[id]) }
