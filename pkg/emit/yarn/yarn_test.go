package yarn

import (
	"strings"
	"testing"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/emit"
	"github.com/mkessel/flowscribe/pkg/flow"
	"github.com/mkessel/flowscribe/pkg/linearize"
)

func render(t *testing.T, f *flow.Flow, vars *flow.VarSet, opts emit.Options) ([]emit.File, *diag.Collector) {
	t.Helper()
	if err := flow.Validate(f); err != nil {
		t.Fatalf("fixture does not validate: %v", err)
	}
	idx := flow.NewIndex(f)
	var c diag.Collector
	prog, err := linearize.Linearize(idx, linearize.Options{}, &c)
	if err != nil {
		t.Fatalf("linearize fixture: %v", err)
	}
	files, err := New().Emit(prog, idx, vars, opts, &c)
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	return files, &c
}

func TestEmitScript(t *testing.T) {
	f := &flow.Flow{
		ID: "greeting",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "greet", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{
				Speaker: "Ada", Text: "Hello there."}},
			{ID: "ask", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{
				Text: "Ready?",
				Responses: []flow.Response{
					{Key: "yes", Text: "Yes", Guard: &flow.ConditionSpec{
						Logic: flow.LogicAll,
						Rules: []flow.Rule{{Subject: flow.VarRef{Sheet: "player", Name: "flag"}, Op: flow.OpIsFalse}},
					}},
					{Key: "no", Text: "No"},
				},
			}},
			{ID: "set_flag", Type: flow.NodeInstruction, Instruction: &flow.InstructionSpec{
				Assignments: []flow.Assignment{
					{Target: flow.VarRef{Sheet: "player", Name: "flag"}, Op: flow.AssignSet, Value: true},
				},
			}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "greet"},
			{From: "greet", Socket: flow.SocketOut, To: "ask"},
			{From: "ask", Socket: "yes", To: "set_flag"},
			{From: "ask", Socket: "no", To: "end"},
			{From: "set_flag", Socket: flow.SocketOut, To: "end"},
		},
	}
	vars := &flow.VarSet{Vars: []flow.Variable{
		{Ref: flow.VarRef{Sheet: "player", Name: "flag"}, Type: flow.VarBool},
	}}

	files, c := render(t, f, vars, emit.Options{})
	if len(files) != 1 {
		t.Fatalf("files = %v", files)
	}
	if files[0].Name != "greeting.yarn" {
		t.Errorf("Name = %q", files[0].Name)
	}

	want := `title: greeting
---
<<declare $player_flag = false>>
Ada: Hello there.
Ready?
-> Yes <<if !$player_flag>>
    <<jump set_flag>>
-> No
    <<jump end>>
===

title: set_flag
---
<<set $player_flag to true>>
<<jump end>>
===

title: end
---
<<stop>>
===
`
	if got := string(files[0].Content); got != want {
		t.Errorf("script mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if c.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", c.All())
	}
}

func TestEmitCondition(t *testing.T) {
	f := &flow.Flow{
		ID: "gate",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "check", Type: flow.NodeCondition, Condition: &flow.ConditionSpec{
				Logic: flow.LogicAll,
				Rules: []flow.Rule{{Subject: flow.VarRef{Sheet: "quest", Name: "done"}, Op: flow.OpIsTrue}},
			}},
			{ID: "won", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Text: "You made it."}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "check"},
			{From: "check", Socket: flow.SocketTrue, To: "won"},
			{From: "check", Socket: flow.SocketFalse, To: "end"},
			{From: "won", Socket: flow.SocketOut, To: "end"},
		},
	}

	files, _ := render(t, f, nil, emit.Options{})
	script := string(files[0].Content)
	for _, want := range []string{
		"<<if $quest_done>>",
		"    <<jump won>>",
		"<<else>>",
		"    <<jump end>>",
		"<<endif>>",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}
}

func TestStartTitleAvoidsLabelClash(t *testing.T) {
	// A hub whose label equals the sanitized flow ID forces a disambiguated
	// start title.
	f := &flow.Flow{
		ID: "camp",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "hub1", Type: flow.NodeHub, Hub: &flow.HubData{Name: "camp"}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "hub1"},
			{From: "hub1", Socket: flow.SocketOut, To: "end"},
		},
	}

	files, _ := render(t, f, nil, emit.Options{})
	script := string(files[0].Content)
	if !strings.HasPrefix(script, "title: camp_") {
		t.Errorf("start title should be disambiguated from the hub label:\n%s", script)
	}
	if !strings.Contains(script, "\ntitle: camp\n") {
		t.Errorf("hub node title missing:\n%s", script)
	}
}

func TestEmitSidecars(t *testing.T) {
	f := &flow.Flow{
		ID: "tiny",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "line", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{Speaker: "Ada", Text: "Hi."}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "line"},
			{From: "line", Socket: flow.SocketOut, To: "end"},
		},
	}

	files, _ := render(t, f, nil, emit.Options{Metadata: true, Strings: true, Locales: []string{"de"}})
	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Name
	}
	want := []string{"tiny.yarn", "tiny.meta.json", "tiny.strings.de.csv"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("file %d = %q, want %q (all: %v)", i, names[i], n, names)
		}
	}
}
