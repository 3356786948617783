package preview

import (
	"strings"
	"testing"

	"github.com/mkessel/flowscribe/pkg/flow"
)

func TestToDOT(t *testing.T) {
	f := &flow.Flow{
		ID: "intro",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "check", Type: flow.NodeCondition,
				Condition: &flow.ConditionSpec{Rules: []flow.Rule{{
					Subject: flow.VarRef{Sheet: "p", Name: "flag"},
					Op:      flow.OpIsTrue,
				}}}},
			{ID: "loop", Type: flow.NodeJump, Jump: &flow.JumpData{Target: "hubbed"}},
			{ID: "hubbed", Type: flow.NodeHub, Hub: &flow.HubData{Name: "camp"}},
			{ID: "end", Type: flow.NodeExit},
		},
		Edges: []flow.Edge{
			{From: "start", Socket: flow.SocketOut, To: "check"},
			{From: "check", Socket: flow.SocketTrue, To: "hubbed"},
			{From: "check", Socket: flow.SocketFalse, To: "loop"},
			{From: "hubbed", Socket: flow.SocketOut, To: "end"},
		},
	}

	dot := ToDOT(f, Options{})

	if !strings.HasPrefix(dot, "digraph flow {") {
		t.Errorf("DOT should open a digraph, got:\n%s", dot)
	}
	// Condition branches keep their socket labels
	if !strings.Contains(dot, `"check" -> "hubbed" [label="true"]`) {
		t.Errorf("missing labeled true edge:\n%s", dot)
	}
	if !strings.Contains(dot, "shape=diamond") {
		t.Error("condition node should be a diamond")
	}
	// Jump transfer rendered as a dashed edge
	if !strings.Contains(dot, `"loop" -> "hubbed" [style=dashed]`) {
		t.Errorf("missing dashed jump edge:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	f := &flow.Flow{
		ID: "f",
		Nodes: []flow.Node{
			{ID: "start", Type: flow.NodeEntry},
			{ID: "talk", Type: flow.NodeDialogue, Dialogue: &flow.DialogueData{
				Speaker: "Ada",
				Text:    "A very long line of dialogue that should be truncated in the label.",
				Responses: []flow.Response{
					{Key: "yes", Text: "Yes"},
					{Key: "no", Text: "No"},
				},
			}},
		},
	}

	dot := ToDOT(f, Options{Detailed: true})
	if !strings.Contains(dot, "2 responses") {
		t.Errorf("detailed label should count responses:\n%s", dot)
	}
	if !strings.Contains(dot, "...") {
		t.Errorf("long text should be truncated:\n%s", dot)
	}
}
