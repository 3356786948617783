package linearize

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/flow"
)

func run(t *testing.T, f *flow.Flow, opts Options) (*Program, *diag.Collector) {
	t.Helper()
	if err := flow.Validate(f); err != nil {
		t.Fatalf("fixture does not validate: %v", err)
	}
	var c diag.Collector
	p, err := Linearize(flow.NewIndex(f), opts, &c)
	if err != nil {
		t.Fatalf("Linearize() error: %v", err)
	}
	return p, &c
}

func blockByID(t *testing.T, p *Program, id string) *Block {
	t.Helper()
	for i := range p.Blocks {
		if p.Blocks[i].NodeID == id {
			return &p.Blocks[i]
		}
	}
	t.Fatalf("program has no block for node %q", id)
	return nil
}

func order(p *Program) []string {
	ids := make([]string, len(p.Blocks))
	for i := range p.Blocks {
		ids[i] = p.Blocks[i].NodeID
	}
	return ids
}

func TestLinearChain(t *testing.T) {
	f := &flow.Flow{
		ID: "chain",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "a", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "One."}},
			{ID: "b", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "Two."}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "a"},
			{From: "a", Socket: flow.SocketOut, To: "b"},
			{From: "b", Socket: flow.SocketOut, To: "end"},
		},
	}

	p, c := run(t, f, Options{})
	if got, want := order(p), []string{"start", "a", "b", "end"}; !reflect.DeepEqual(got, want) {
		t.Errorf("block order = %v, want %v", got, want)
	}
	for _, id := range []string{"start", "a", "b"} {
		if b := blockByID(t, p, id); b.Exit.Kind != Fallthrough {
			t.Errorf("block %q exit = %v, want Fallthrough", id, b.Exit)
		}
	}
	if b := blockByID(t, p, "end"); b.Exit.Kind != DivertToEnd {
		t.Errorf("end exit = %v, want DivertToEnd", b.Exit)
	}
	if p.LabelCount() != 0 {
		t.Errorf("linear chain should need no labels, got %d", p.LabelCount())
	}
	if c.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", c.All())
	}
}

func TestBranchingDialogue(t *testing.T) {
	f := &flow.Flow{
		ID: "branch",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "ask", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{
				Text: "Which way?",
				Responses: []flow.Response{
					{Key: "left", Text: "Left"},
					{Key: "right", Text: "Right"},
				},
			}},
			{ID: "west", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "Westward."}},
			{ID: "east", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "Eastward."}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "ask"},
			{From: "ask", Socket: "left", To: "west"},
			{From: "ask", Socket: "right", To: "east"},
			{From: "west", Socket: flow.SocketOut, To: "end"},
			{From: "east", Socket: flow.SocketOut, To: "end"},
		},
	}

	p, _ := run(t, f, Options{})

	ask := blockByID(t, p, "ask")
	if !ask.Branching() || len(ask.Branches) != 2 {
		t.Fatalf("ask branches = %v", ask.Branches)
	}
	for i, socket := range []string{"left", "right"} {
		br := ask.Branches[i]
		if br.Socket != socket {
			t.Errorf("branch %d socket = %q, want %q", i, br.Socket, socket)
		}
		if br.Next.Kind != DivertToLabel || br.Next.Label == "" {
			t.Errorf("branch %q continuation = %v, want labeled divert", socket, br.Next)
		}
	}

	// Branch targets must be labeled, and so must the shared merge node.
	for _, id := range []string{"west", "east", "end"} {
		if b := blockByID(t, p, id); b.Label == "" {
			t.Errorf("node %q should carry a label", id)
		}
	}

	// The second branch target diverts to the already-visited merge node.
	if b := blockByID(t, p, "east"); b.Exit.Kind != DivertToLabel {
		t.Errorf("east exit = %v, want DivertToLabel", b.Exit)
	}
}

func TestConditionUnwiredSocket(t *testing.T) {
	f := &flow.Flow{
		ID: "cond",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "check", Type: flow.NodeCondition, Condition: &flow.ConditionSpec{
				Logic: flow.LogicAll,
				Rules: []flow.Rule{{Subject: flow.VarRef{Sheet: "s", Name: "v"}, Op: flow.OpIsTrue}},
			}},
			{ID: "yes", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "Yes."}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "check"},
			{From: "check", Socket: flow.SocketTrue, To: "yes"},
			{From: "yes", Socket: flow.SocketOut, To: "end"},
		},
	}

	p, _ := run(t, f, Options{})
	check := blockByID(t, p, "check")
	if len(check.Branches) != 2 {
		t.Fatalf("condition branches = %v", check.Branches)
	}
	if check.Branches[0].Socket != flow.SocketTrue || check.Branches[0].Next.Kind != DivertToLabel {
		t.Errorf("true branch = %v", check.Branches[0])
	}
	if check.Branches[1].Socket != flow.SocketFalse || check.Branches[1].Next.Kind != DivertToEnd {
		t.Errorf("false branch = %v, want DivertToEnd for the unwired socket", check.Branches[1])
	}
}

func cyclicFlow() *flow.Flow {
	return &flow.Flow{
		ID: "loop",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "camp", Type: flow.NodeHub, Hub: &flow.HubData{Name: "Camp Fire"}},
			{ID: "talk", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "Again?"}},
			{ID: "back", Type: flow.NodeJump, Jump: &flow.JumpData{Target: "camp"}},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "camp"},
			{From: "camp", Socket: flow.SocketOut, To: "talk"},
			{From: "talk", Socket: flow.SocketOut, To: "back"},
		},
	}
}

func TestCycleThroughJump(t *testing.T) {
	p, c := run(t, cyclicFlow(), Options{})

	camp := blockByID(t, p, "camp")
	if camp.Label == "" {
		t.Fatal("hub should carry a label")
	}
	if camp.Label != "Camp_Fire" {
		t.Errorf("hub label = %q, want %q (derived from the hub name)", camp.Label, "Camp_Fire")
	}

	back := blockByID(t, p, "back")
	if back.Exit.Kind != DivertToLabel || back.Exit.Label != camp.Label {
		t.Errorf("jump exit = %v, want divert to %q", back.Exit, camp.Label)
	}
	if c.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", c.All())
	}
}

func TestDeterministicOutput(t *testing.T) {
	a, _ := run(t, cyclicFlow(), Options{})

	// Same graph, different declaration order.
	f := cyclicFlow()
	for i, j := 0, len(f.Edges)-1; i < j; i, j = i+1, j-1 {
		f.Edges[i], f.Edges[j] = f.Edges[j], f.Edges[i]
	}
	b, _ := run(t, f, Options{})

	if !reflect.DeepEqual(a, b) {
		t.Errorf("programs differ across declaration orders:\n%+v\n%+v", a, b)
	}
}

func TestStrictCoverageWarnsUnreachable(t *testing.T) {
	f := cyclicFlow()
	f.Nodes = append(f.Nodes,
		flow.Node{ID: "island", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "Lost."}})

	p, c := run(t, f, Options{StrictCoverage: true})
	if len(c.Warnings()) != 1 {
		t.Fatalf("warnings = %v, want one unreachable warning", c.Warnings())
	}
	if c.Warnings()[0].NodeID != "island" {
		t.Errorf("warning node = %q, want %q", c.Warnings()[0].NodeID, "island")
	}
	for _, blk := range p.Blocks {
		if blk.NodeID == "island" {
			t.Error("unreachable node must not be emitted")
		}
	}

	// Without strict coverage the island is silently dropped.
	_, c2 := run(t, f, Options{})
	if c2.Len() != 0 {
		t.Errorf("diagnostics without strict coverage = %v", c2.All())
	}
}

func TestAmbiguousSocketReported(t *testing.T) {
	f := cyclicFlow()
	f.Edges = append(f.Edges, flow.Edge{From: "camp", Socket: flow.SocketOut, To: "back"})

	_, c := run(t, f, Options{})
	if c.Len() != 1 {
		t.Fatalf("diagnostics = %v, want one ambiguity finding", c.All())
	}
	// Dropping an edge loses authored content, so the finding carries error
	// severity while the run keeps going. Deterministic edge order picks
	// "back" over "talk" for camp/out.
	d := c.All()[0]
	if d.Severity != diag.SeverityError {
		t.Errorf("severity = %q, want %q", d.Severity, diag.SeverityError)
	}
	if d.NodeID != "camp" {
		t.Errorf("diagnostic node = %q, want %q", d.NodeID, "camp")
	}
	if len(c.Warnings()) != 0 {
		t.Errorf("ambiguity must not count as a warning: %v", c.Warnings())
	}
}

func TestHubReachedOnlyByJump(t *testing.T) {
	// The hub's only inbound reference is the jump's payload target; no edge
	// points at it.
	f := &flow.Flow{
		ID: "detour",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "go", Type: flow.NodeJump, Jump: &flow.JumpData{Target: "camp"}},
			{ID: "camp", Type: flow.NodeHub, Hub: &flow.HubData{Name: "camp"}},
			{ID: "talk", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "Made it."}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "go"},
			{From: "camp", Socket: flow.SocketOut, To: "talk"},
			{From: "talk", Socket: flow.SocketOut, To: "end"},
		},
	}

	p, c := run(t, f, Options{StrictCoverage: true})

	camp := blockByID(t, p, "camp")
	if camp.Label == "" {
		t.Fatal("jump-targeted hub must carry a label")
	}
	jump := blockByID(t, p, "go")
	if jump.Exit.Kind != DivertToLabel || jump.Exit.Label != camp.Label {
		t.Errorf("jump exit = %v, want divert to %q", jump.Exit, camp.Label)
	}

	// The hub's subtree is emitted exactly once.
	for _, id := range []string{"talk", "end"} {
		blockByID(t, p, id)
	}
	if len(p.Blocks) != 5 {
		t.Errorf("block count = %d, want 5 (%v)", len(p.Blocks), order(p))
	}

	// Jump-targeted nodes are reachable, so strict coverage stays silent.
	if c.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", c.All())
	}
}

func TestChainedJumpOnlyHubs(t *testing.T) {
	// The first jump-only hub's subtree ends in a second jump whose hub is
	// also only reachable by payload target.
	f := &flow.Flow{
		ID: "relay",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "j1", Type: flow.NodeJump, Jump: &flow.JumpData{Target: "h1"}},
			{ID: "h1", Type: flow.NodeHub, Hub: &flow.HubData{Name: "h1"}},
			{ID: "j2", Type: flow.NodeJump, Jump: &flow.JumpData{Target: "h2"}},
			{ID: "h2", Type: flow.NodeHub, Hub: &flow.HubData{Name: "h2"}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "j1"},
			{From: "h1", Socket: flow.SocketOut, To: "j2"},
			{From: "h2", Socket: flow.SocketOut, To: "end"},
		},
	}

	p, _ := run(t, f, Options{StrictCoverage: true})
	if len(p.Blocks) != 6 {
		t.Fatalf("block order = %v, want all six nodes", order(p))
	}
	for _, tc := range []struct{ jump, hub string }{{"j1", "h1"}, {"j2", "h2"}} {
		hub := blockByID(t, p, tc.hub)
		jump := blockByID(t, p, tc.jump)
		if jump.Exit.Kind != DivertToLabel || jump.Exit.Label == "" || jump.Exit.Label != hub.Label {
			t.Errorf("%s exit = %v, want divert to %q", tc.jump, jump.Exit, hub.Label)
		}
	}
}

func TestDeepCycle(t *testing.T) {
	// A 100-node dialogue chain whose tail jumps back to the head hub.
	f := &flow.Flow{ID: "marathon"}
	f.Nodes = append(f.Nodes,
		flow.Node{ID: "start", Type: flow.NodeEntry},
		flow.Node{ID: "head", Type: flow.NodeHub, Hub: &flow.HubData{Name: "head"}},
	)
	f.Edges = append(f.Edges,
		flow.Edge{From: "start", Socket: flow.SocketOut, To: "head"},
	)
	prev := "head"
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("d%03d", i)
		f.Nodes = append(f.Nodes, flow.Node{
			ID: id, Type: flow.NodeDialogue,
			Dialogue: &flow.DialogueData{Text: fmt.Sprintf("Line %d.", i)},
		})
		f.Edges = append(f.Edges, flow.Edge{From: prev, Socket: flow.SocketOut, To: id})
		prev = id
	}
	f.Nodes = append(f.Nodes, flow.Node{ID: "loop", Type: flow.NodeJump, Jump: &flow.JumpData{Target: "head"}})
	f.Edges = append(f.Edges, flow.Edge{From: prev, Socket: flow.SocketOut, To: "loop"})

	p, c := run(t, f, Options{StrictCoverage: true})

	// Every node exactly once: entry, hub, 100 dialogues, jump.
	if len(p.Blocks) != 103 {
		t.Fatalf("block count = %d, want 103", len(p.Blocks))
	}
	seen := make(map[string]bool, len(p.Blocks))
	for i := range p.Blocks {
		if seen[p.Blocks[i].NodeID] {
			t.Errorf("node %q emitted twice", p.Blocks[i].NodeID)
		}
		seen[p.Blocks[i].NodeID] = true
	}

	head := blockByID(t, p, "head")
	jump := blockByID(t, p, "loop")
	if jump.Exit.Kind != DivertToLabel || jump.Exit.Label != head.Label {
		t.Errorf("jump exit = %v, want divert to %q", jump.Exit, head.Label)
	}
	if c.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", c.All())
	}
}

func TestLabelCollision(t *testing.T) {
	// Two hubs whose names sanitize to the same identifier.
	f := &flow.Flow{
		ID: "collide",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "h1", Type: flow.NodeHub, Hub: &flow.HubData{Name: "camp!"}},
			{ID: "h2", Type: flow.NodeHub, Hub: &flow.HubData{Name: "camp?"}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "h1"},
			{From: "h1", Socket: flow.SocketOut, To: "h2"},
			{From: "h2", Socket: flow.SocketOut, To: "end"},
		},
	}

	p, _ := run(t, f, Options{})
	l1 := blockByID(t, p, "h1").Label
	l2 := blockByID(t, p, "h2").Label
	if l1 == "" || l2 == "" {
		t.Fatalf("both hubs need labels, got %q and %q", l1, l2)
	}
	if l1 == l2 {
		t.Errorf("colliding hub names must get distinct labels, both are %q", l1)
	}
}

func TestLinearizeNoEntry(t *testing.T) {
	f := &flow.Flow{ID: "broken", Nodes: []flow.Node{{ID: "end", Type: flow.NodeExit}}}
	var c diag.Collector
	_, err := Linearize(flow.NewIndex(f), Options{}, &c)
	if !errors.Is(err, flow.ErrNoEntry) {
		t.Errorf("Linearize() = %v, want %v", err, flow.ErrNoEntry)
	}
}
