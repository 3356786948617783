package linearize

import (
	"fmt"
	"slices"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/flow"
)

// DirectiveKind classifies how control leaves a block.
type DirectiveKind int

const (
	// Fallthrough continues into the next block in program order.
	Fallthrough DirectiveKind = iota
	// DivertToLabel transfers control to a labeled block.
	DivertToLabel
	// DivertToEnd terminates the story branch.
	DivertToEnd
)

// Directive is one explicit control transfer. Label is set only for
// DivertToLabel.
type Directive struct {
	Kind  DirectiveKind
	Label string
}

// Branch is one divergent continuation of a branching block (a dialogue
// response or a condition outcome), keyed by the socket it leaves through.
// Branch continuations are always diverts or ends, never fallthrough, so the
// program stays a flat ordered list.
type Branch struct {
	Socket string
	Next   Directive
}

// Block is the linear form of one node. Label is non-empty when the node is
// a divert target. Branching nodes carry Branches and an unset Exit;
// everything else carries Exit alone.
type Block struct {
	NodeID   string
	Label    string
	Exit     Directive
	Branches []Branch
}

// Branching reports whether the block diverges into multiple continuations.
func (b *Block) Branching() bool { return len(b.Branches) > 0 }

// Program is the ordered block sequence for one flow, ready for emission.
type Program struct {
	FlowID string
	Title  string
	Blocks []Block
}

// LabelCount returns the number of labeled blocks.
func (p *Program) LabelCount() int {
	n := 0
	for i := range p.Blocks {
		if p.Blocks[i].Label != "" {
			n++
		}
	}
	return n
}

// Options controls linearization behavior.
type Options struct {
	// StrictCoverage records a warning for every node that is declared in
	// the flow but unreachable from the entry. Off by default: unreachable
	// islands are normal during authoring.
	StrictCoverage bool
}

// Linearize flattens the indexed flow into a Program. The flow must have
// passed [flow.Validate]; an unknown node variant is still an error here.
// Non-fatal findings are recorded on c: unreachable nodes under strict
// coverage as warnings, ambiguous sockets (extra edges dropped) as
// error-severity diagnostics.
func Linearize(idx *flow.Index, opts Options, c *diag.Collector) (*Program, error) {
	entry := idx.Flow().Entry()
	if entry == nil {
		return nil, flow.ErrNoEntry
	}

	l := &linearizer{
		idx:     idx,
		visited: make(map[string]bool),
		c:       c,
	}
	l.discover(entry.ID)
	l.assignLabels()

	if err := l.layout(entry.ID); err != nil {
		return nil, err
	}

	// A hub referenced only through jump payloads has no inbound edge, so the
	// edge-driven walk above never reaches it. Lay such hubs out as extra
	// roots, repeating until no reachable jump points at an unvisited hub: a
	// freshly laid-out subtree can itself contain jumps into further hubs.
	// Visited bookkeeping keeps nodes already emitted from appearing twice.
	for {
		var hubs []string
		for id := range l.reachable {
			n := mustNode(l.idx, id)
			if n.Type == flow.NodeJump && !l.visited[n.Jump.Target] {
				hubs = append(hubs, n.Jump.Target)
			}
		}
		if len(hubs) == 0 {
			break
		}
		slices.Sort(hubs)
		for _, id := range hubs {
			if !l.visited[id] {
				if err := l.layout(id); err != nil {
					return nil, err
				}
			}
		}
	}

	if opts.StrictCoverage {
		l.warnUnreachable()
	}

	return &Program{
		FlowID: idx.Flow().ID,
		Title:  idx.Flow().Title,
		Blocks: l.blocks,
	}, nil
}

// linearizer holds the transient state of one run: reachability, the label
// table, the visited set, and the growing block list. Nothing survives the
// call.
type linearizer struct {
	idx *flow.Index
	c   *diag.Collector

	reachable   map[string]bool
	backTargets map[string]bool
	labels      map[string]string
	visited     map[string]bool
	blocks      []Block
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// discover computes the reachable set and the targets of back-edges using a
// depth-first walk in deterministic successor order. A step into a gray node
// closes a cycle: its target must be labeled.
func (l *linearizer) discover(entryID string) {
	l.reachable = make(map[string]bool)
	l.backTargets = make(map[string]bool)
	color := make(map[string]int)

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = colorGray
		l.reachable[id] = true
		for _, to := range l.successors(id) {
			switch color[to] {
			case colorWhite:
				dfs(to)
			case colorGray:
				l.backTargets[to] = true
			}
		}
		color[id] = colorBlack
	}
	dfs(entryID)
}

// successors returns a node's traversal successors: the targets of its
// outgoing edges, plus the payload target of a jump node. Jumps expose no
// sockets, so their hub is referenced without an edge and would otherwise be
// invisible to the walk.
func (l *linearizer) successors(id string) []string {
	node := mustNode(l.idx, id)
	edges := l.idx.Outgoing(id)
	out := make([]string, 0, len(edges)+1)
	for _, e := range edges {
		out = append(out, e.To)
	}
	if node.Type == flow.NodeJump {
		out = append(out, node.Jump.Target)
	}
	return out
}

// assignLabels builds the label table: hubs, merge points (in-degree over
// one counting only reachable sources), back-edge targets, and targets of
// branch edges. Names derive from hub names or node IDs; ties are broken
// with a short content hash so the result is a pure function of the graph.
func (l *linearizer) assignLabels() {
	indeg := make(map[string]int)
	branchTarget := make(map[string]bool)
	for id := range l.reachable {
		node, _ := l.idx.Node(id)
		edges := l.idx.Outgoing(id)
		for _, e := range edges {
			indeg[e.To]++
		}
		if branching(node) {
			for _, e := range edges {
				branchTarget[e.To] = true
			}
		}
	}

	var need []string
	for id := range l.reachable {
		node, _ := l.idx.Node(id)
		if node.Type == flow.NodeHub || indeg[id] > 1 || l.backTargets[id] || branchTarget[id] {
			need = append(need, id)
		}
	}
	slices.Sort(need)

	l.labels = make(map[string]string, len(need))
	taken := make(map[string]bool, len(need))
	for _, id := range need {
		name := labelBase(mustNode(l.idx, id))
		if taken[name] {
			name = name + "_" + shortHash(id)
		}
		taken[name] = true
		l.labels[id] = name
	}
}

// layout emits blocks depth-first. Once a node is visited all further
// references compile to diverts, which bounds the walk by the node count.
func (l *linearizer) layout(id string) error {
	node := mustNode(l.idx, id)
	l.visited[id] = true
	b := Block{NodeID: id, Label: l.labels[id]}

	switch node.Type {
	case flow.NodeExit:
		b.Exit = Directive{Kind: DivertToEnd}
		l.blocks = append(l.blocks, b)
		return nil

	case flow.NodeJump:
		// Jumps never inline their target's content.
		b.Exit = Directive{Kind: DivertToLabel, Label: l.labels[node.Jump.Target]}
		l.blocks = append(l.blocks, b)
		return nil

	case flow.NodeEntry, flow.NodeInstruction, flow.NodeHub:
		return l.layoutLinear(node, b)

	case flow.NodeDialogue:
		if len(node.Dialogue.Responses) == 0 {
			return l.layoutLinear(node, b)
		}
		return l.layoutBranching(node, b)

	case flow.NodeCondition:
		return l.layoutBranching(node, b)
	}

	return fmt.Errorf("node %q has type %q: %w", node.ID, node.Type, flow.ErrUnknownNodeType)
}

// layoutLinear handles single-socket nodes: fall through to an unvisited
// target, divert to a visited one, end when no edge leaves the node.
func (l *linearizer) layoutLinear(node *flow.Node, b Block) error {
	edges := l.idx.Outgoing(node.ID)
	if len(edges) == 0 {
		b.Exit = Directive{Kind: DivertToEnd}
		l.blocks = append(l.blocks, b)
		return nil
	}
	if len(edges) > 1 {
		l.c.Errorf(node.ID, edges[0].Socket,
			"socket %q has %d outgoing edges, following the first", edges[0].Socket, len(edges))
	}

	to := edges[0].To
	if l.visited[to] {
		b.Exit = Directive{Kind: DivertToLabel, Label: l.labels[to]}
		l.blocks = append(l.blocks, b)
		return nil
	}
	b.Exit = Directive{Kind: Fallthrough}
	l.blocks = append(l.blocks, b)
	return l.layout(to)
}

// layoutBranching handles dialogue responses and condition outcomes. Every
// socket produces a Branch whose continuation is a divert (branch targets
// are always labeled) or an end when the socket is unwired. Unvisited
// targets are laid out afterwards in socket order.
func (l *linearizer) layoutBranching(node *flow.Node, b Block) error {
	var pending []string
	for _, socket := range node.Sockets() {
		target := l.edgeTarget(node.ID, socket)
		if target == "" {
			b.Branches = append(b.Branches, Branch{Socket: socket, Next: Directive{Kind: DivertToEnd}})
			continue
		}
		b.Branches = append(b.Branches, Branch{
			Socket: socket,
			Next:   Directive{Kind: DivertToLabel, Label: l.labels[target]},
		})
		pending = append(pending, target)
	}
	l.blocks = append(l.blocks, b)

	for _, to := range pending {
		if !l.visited[to] {
			if err := l.layout(to); err != nil {
				return err
			}
		}
	}
	return nil
}

// edgeTarget returns the target wired to a socket, or "" when the socket has
// no edge. Multiple edges on one socket are reported; the first wins.
func (l *linearizer) edgeTarget(id, socket string) string {
	var found []string
	for _, e := range l.idx.Outgoing(id) {
		if e.Socket == socket {
			found = append(found, e.To)
		}
	}
	if len(found) == 0 {
		return ""
	}
	if len(found) > 1 {
		l.c.Errorf(id, socket, "socket %q has %d outgoing edges, following the first", socket, len(found))
	}
	return found[0]
}

func (l *linearizer) warnUnreachable() {
	var ids []string
	for i := range l.idx.Flow().Nodes {
		id := l.idx.Flow().Nodes[i].ID
		if !l.reachable[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		l.c.Warnf(id, "unreachable", "node is not reachable from the entry and was not exported")
	}
}

// branching reports whether a node's continuations diverge (several output
// sockets that each start their own sub-sequence).
func branching(n *flow.Node) bool {
	switch n.Type {
	case flow.NodeCondition:
		return true
	case flow.NodeDialogue:
		return len(n.Dialogue.Responses) > 0
	}
	return false
}

func mustNode(idx *flow.Index, id string) *flow.Node {
	n, ok := idx.Node(id)
	if !ok {
		panic(fmt.Sprintf("linearize: node %q vanished from index", id))
	}
	return n
}
