package flow

import (
	"slices"
	"testing"
)

func TestSockets(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want []string
	}{
		{
			name: "entry",
			node: Node{Type: NodeEntry},
			want: []string{SocketOut},
		},
		{
			name: "exit",
			node: Node{Type: NodeExit},
			want: nil,
		},
		{
			name: "jump",
			node: Node{Type: NodeJump, Jump: &JumpData{Target: "hub"}},
			want: nil,
		},
		{
			name: "condition",
			node: Node{Type: NodeCondition, Condition: &ConditionSpec{}},
			want: []string{SocketTrue, SocketFalse},
		},
		{
			name: "dialogue without responses",
			node: Node{Type: NodeDialogue, Dialogue: &DialogueData{Text: "Hi"}},
			want: []string{SocketOut},
		},
		{
			name: "dialogue with responses",
			node: Node{Type: NodeDialogue, Dialogue: &DialogueData{
				Text: "Hi",
				Responses: []Response{
					{Key: "greet", Text: "Hello"},
					{Key: "leave", Text: "Bye"},
				},
			}},
			want: []string{"greet", "leave"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Sockets(); !slices.Equal(got, tt.want) {
				t.Errorf("Sockets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareEdges(t *testing.T) {
	edges := []Edge{
		{From: "b", Socket: "out", To: "c"},
		{From: "a", Socket: "true", To: "c"},
		{From: "a", Socket: "false", To: "c"},
		{From: "a", Socket: "false", To: "b"},
	}
	slices.SortFunc(edges, CompareEdges)

	want := []Edge{
		{From: "a", Socket: "false", To: "b"},
		{From: "a", Socket: "false", To: "c"},
		{From: "a", Socket: "true", To: "c"},
		{From: "b", Socket: "out", To: "c"},
	}
	if !slices.Equal(edges, want) {
		t.Errorf("sorted edges = %v, want %v", edges, want)
	}
}

func TestIndexOutgoingOrder(t *testing.T) {
	f := validFlow()
	// Shuffle the declared edge order; the index must not care.
	slices.Reverse(f.Edges)
	idx := NewIndex(f)

	out := idx.Outgoing("ask")
	if len(out) != 2 {
		t.Fatalf("Outgoing(ask) has %d edges, want 2", len(out))
	}
	if out[0].Socket != "no" || out[1].Socket != "yes" {
		t.Errorf("Outgoing(ask) sockets = %q, %q, want no, yes", out[0].Socket, out[1].Socket)
	}
}

func TestIndexLookups(t *testing.T) {
	idx := NewIndex(validFlow())

	if n, ok := idx.Node("camp"); !ok || n.Type != NodeHub {
		t.Errorf("Node(camp) = %v, %v", n, ok)
	}
	if _, ok := idx.Node("ghost"); ok {
		t.Error("Node(ghost) should not exist")
	}
	if in := idx.Incoming("end"); len(in) != 1 || in[0].From != "ask" {
		t.Errorf("Incoming(end) = %v", in)
	}
}

func TestEntry(t *testing.T) {
	f := validFlow()
	if e := f.Entry(); e == nil || e.ID != "start" {
		t.Errorf("Entry() = %v", e)
	}

	f.Nodes = f.Nodes[1:]
	if e := f.Entry(); e != nil {
		t.Errorf("Entry() = %v, want nil", e)
	}
}

func TestVarSetLookup(t *testing.T) {
	vs := &VarSet{Vars: []Variable{
		{Ref: VarRef{Sheet: "quest", Name: "count"}, Type: VarNumber, Default: 2},
		{Ref: VarRef{Sheet: "player", Name: "name"}, Type: VarString},
	}}

	if v, ok := vs.Lookup(VarRef{Sheet: "quest", Name: "count"}); !ok || v.Type != VarNumber {
		t.Errorf("Lookup = %v, %v", v, ok)
	}
	if _, ok := vs.Lookup(VarRef{Sheet: "quest", Name: "missing"}); ok {
		t.Error("Lookup should miss")
	}

	var nilSet *VarSet
	if _, ok := nilSet.Lookup(VarRef{Name: "x"}); ok {
		t.Error("nil VarSet should miss")
	}
}

func TestDefaultFor(t *testing.T) {
	tests := []struct {
		v    Variable
		want any
	}{
		{Variable{Type: VarBool}, false},
		{Variable{Type: VarNumber}, 0},
		{Variable{Type: VarString}, ""},
		{Variable{Type: VarNumber, Default: 7}, 7},
		{Variable{Type: VarMultiSelect}, nil},
	}
	for _, tt := range tests {
		if got := tt.v.DefaultFor(); got != tt.want {
			t.Errorf("DefaultFor(%s) = %v, want %v", tt.v.Type, got, tt.want)
		}
	}
}

func TestVarRefString(t *testing.T) {
	if got := (VarRef{Sheet: "quest", Name: "count"}).String(); got != "quest.count" {
		t.Errorf("String() = %q", got)
	}
	if got := (VarRef{Name: "count"}).String(); got != "count" {
		t.Errorf("String() = %q", got)
	}
}

func TestOperatorUnary(t *testing.T) {
	for _, op := range []Operator{OpIsTrue, OpIsFalse, OpIsEmpty, OpIsNil} {
		if !op.Unary() {
			t.Errorf("%s should be unary", op)
		}
	}
	for _, op := range []Operator{OpEquals, OpContains, OpGreaterThan} {
		if op.Unary() {
			t.Errorf("%s should not be unary", op)
		}
	}
}
