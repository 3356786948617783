package export

import (
	"context"
	"strings"
	"testing"

	"github.com/mkessel/flowscribe/pkg/cache"
	"github.com/mkessel/flowscribe/pkg/flow"
	"github.com/mkessel/flowscribe/pkg/io"
)

func sampleDocument() *io.Document {
	return &io.Document{
		Flow: flow.Flow{
			ID:    "intro",
			Title: "Introduction",
			Nodes: []flow.Node{
				{ID: "start", Type: flow.NodeEntry},
				{ID: "greet", Type: flow.NodeDialogue,
					Dialogue: &flow.DialogueData{Speaker: "Ada", Text: "Hello."}},
				{ID: "end", Type: flow.NodeExit},
			},
			Edges: []flow.Edge{
				{From: "start", Socket: flow.SocketOut, To: "greet"},
				{From: "greet", Socket: flow.SocketOut, To: "end"},
			},
		},
		Variables: &flow.VarSet{Vars: []flow.Variable{
			{Ref: flow.VarRef{Sheet: "player", Name: "met_ada"}, Type: flow.VarBool},
		}},
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should validate: %v", err)
	}
	if len(opts.Targets) != 1 || opts.Targets[0] != DefaultTarget {
		t.Errorf("Targets = %v, want [%s]", opts.Targets, DefaultTarget)
	}

	bad := Options{Targets: []string{"twine"}}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("unknown target should fail")
	}

	dup := Options{Targets: []string{"ink", "ink"}}
	if err := dup.ValidateAndSetDefaults(); err == nil {
		t.Error("duplicate target should fail")
	}
}

func TestExecuteProducesArtifacts(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	result, err := r.Execute(ctx, sampleDocument(), Options{
		Targets: []string{TargetInk, TargetYarn},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.FlowHash == "" {
		t.Error("FlowHash should be set")
	}
	if result.Stats.BlockCount == 0 {
		t.Error("BlockCount should be nonzero")
	}

	inkFiles := result.Artifacts[TargetInk]
	if len(inkFiles) != 1 {
		t.Fatalf("ink artifacts = %d files, want 1", len(inkFiles))
	}
	if !strings.HasSuffix(inkFiles[0].Name, ".ink") {
		t.Errorf("ink file name = %q", inkFiles[0].Name)
	}
	if !strings.Contains(string(inkFiles[0].Content), "Ada: Hello.") {
		t.Errorf("ink script missing dialogue line:\n%s", inkFiles[0].Content)
	}

	yarnFiles := result.Artifacts[TargetYarn]
	if len(yarnFiles) != 1 {
		t.Fatalf("yarn artifacts = %d files, want 1", len(yarnFiles))
	}
	if !strings.Contains(string(yarnFiles[0].Content), "title:") {
		t.Errorf("yarn script missing node header:\n%s", yarnFiles[0].Content)
	}
}

func TestExecuteFatalOnMalformedGraph(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	doc := sampleDocument()
	doc.Flow.Nodes = doc.Flow.Nodes[1:] // drop the entry node

	result, err := r.Execute(ctx, doc, Options{})
	if err == nil {
		t.Fatal("malformed graph should be fatal")
	}
	if result != nil {
		t.Error("fatal error should produce no result")
	}
}

func TestExecuteCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	opts := Options{Targets: []string{TargetInk}}

	first, err := r.Execute(ctx, sampleDocument(), opts)
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.CacheInfo.ProgramHit || first.CacheInfo.ArtifactHits[TargetInk] {
		t.Error("first run should not hit the cache")
	}

	second, err := r.Execute(ctx, sampleDocument(), opts)
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if !second.CacheInfo.ProgramHit {
		t.Error("second run should hit the program cache")
	}
	if !second.CacheInfo.ArtifactHits[TargetInk] {
		t.Error("second run should hit the artifact cache")
	}
	if string(second.Artifacts[TargetInk][0].Content) != string(first.Artifacts[TargetInk][0].Content) {
		t.Error("cached artifacts should match the original run")
	}

	// Refresh bypasses the cache
	refreshOpts := opts
	refreshOpts.Refresh = true
	third, err := r.Execute(ctx, sampleDocument(), refreshOpts)
	if err != nil {
		t.Fatalf("refresh Execute error: %v", err)
	}
	if third.CacheInfo.ProgramHit || third.CacheInfo.ArtifactHits[TargetInk] {
		t.Error("refresh run should not hit the cache")
	}
}

func TestExecuteCachesWarnings(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	// starts_with has no Ink spelling, so emission warns.
	doc := sampleDocument()
	doc.Flow.Nodes = append(doc.Flow.Nodes, flow.Node{
		ID: "check", Type: flow.NodeCondition,
		Condition: &flow.ConditionSpec{Rules: []flow.Rule{{
			Subject: flow.VarRef{Sheet: "player", Name: "met_ada"},
			Op:      flow.OpStartsWith,
			Operand: "A",
		}}},
	})
	doc.Flow.Edges = []flow.Edge{
		{From: "start", Socket: flow.SocketOut, To: "greet"},
		{From: "greet", Socket: flow.SocketOut, To: "check"},
		{From: "check", Socket: flow.SocketTrue, To: "end"},
		{From: "check", Socket: flow.SocketFalse, To: "end"},
	}

	opts := Options{Targets: []string{TargetInk}}

	first, err := r.Execute(ctx, doc, opts)
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.Stats.WarningCount == 0 {
		t.Fatal("unsupported operator should warn")
	}

	second, err := r.Execute(ctx, doc, opts)
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if !second.CacheInfo.ArtifactHits[TargetInk] {
		t.Fatal("second run should hit the artifact cache")
	}
	if second.Stats.WarningCount != first.Stats.WarningCount {
		t.Errorf("cached run warnings = %d, want %d",
			second.Stats.WarningCount, first.Stats.WarningCount)
	}
}
