// Package ink renders linearized flows as Ink-like scripts: VAR
// declarations, knots for labeled blocks, weave choices for dialogue
// responses, conditional diverts for condition nodes, and tilde statements
// for instructions.
package ink

import (
	"fmt"
	"strings"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/emit"
	"github.com/mkessel/flowscribe/pkg/expr"
	"github.com/mkessel/flowscribe/pkg/flow"
	"github.com/mkessel/flowscribe/pkg/linearize"
)

// Emitter renders the Ink-like target.
type Emitter struct{}

// New creates an Ink emitter.
func New() *Emitter { return &Emitter{} }

// Target returns "ink".
func (e *Emitter) Target() string { return "ink" }

// Emit renders the program as one .ink script plus enabled sidecars.
func (e *Emitter) Emit(prog *linearize.Program, idx *flow.Index, vars *flow.VarSet, opts emit.Options, c *diag.Collector) ([]emit.File, error) {
	fl := expr.NewFlattener(expr.Ink.IdentSep)
	tr := expr.NewTranspiler(expr.Ink, fl)

	decls, err := emit.DeclareVars(vars, tr, opts.Lossy, c)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if prog.Title != "" {
		fmt.Fprintf(&b, "// %s\n", prog.Title)
	}
	for _, d := range decls {
		fmt.Fprintf(&b, "VAR %s = %s\n", d.Ident, d.Value)
	}
	if len(decls) > 0 || prog.Title != "" {
		b.WriteString("\n")
	}

	for i := range prog.Blocks {
		if err := e.block(&b, prog, i, idx, tr, opts, c); err != nil {
			return nil, err
		}
	}

	files := []emit.File{{
		Name:    opts.BaseOr(prog.FlowID) + ".ink",
		Content: []byte(b.String()),
	}}

	if opts.Metadata {
		meta, err := emit.MetadataFile(prog, idx, fl.Table(), opts)
		if err != nil {
			return nil, err
		}
		files = append(files, meta)
	}
	if opts.Strings {
		tables, err := emit.StringsFiles(prog, idx, opts, c)
		if err != nil {
			return nil, err
		}
		files = append(files, tables...)
	}
	return files, nil
}

func (e *Emitter) block(b *strings.Builder, prog *linearize.Program, i int, idx *flow.Index, tr *expr.Transpiler, opts emit.Options, c *diag.Collector) error {
	blk := &prog.Blocks[i]
	node, ok := idx.Node(blk.NodeID)
	if !ok {
		return fmt.Errorf("block references unknown node %q", blk.NodeID)
	}

	if blk.Label != "" {
		fmt.Fprintf(b, "\n== %s ==\n", blk.Label)
	}

	switch node.Type {
	case flow.NodeEntry, flow.NodeHub:
		// No content; the label declaration (for hubs) is the content.

	case flow.NodeExit:
		// Terminal; the end directive below is the content.

	case flow.NodeJump:
		// The exit divert below is the content.

	case flow.NodeDialogue:
		line := emit.CollapseLines(emit.CleanText(node.Dialogue.Text, node.ID, opts.Lossy, c))
		if node.Dialogue.Speaker != "" {
			fmt.Fprintf(b, "%s: %s\n", node.Dialogue.Speaker, line)
		} else {
			fmt.Fprintf(b, "%s\n", line)
		}
		if blk.Branching() {
			if err := e.choices(b, blk, node, tr, opts, c); err != nil {
				return err
			}
		}

	case flow.NodeCondition:
		cond, err := tr.Condition(node.Condition, node.ID, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "{%s: %s | %s}\n",
			cond,
			divert(branchNext(blk, flow.SocketTrue)),
			divert(branchNext(blk, flow.SocketFalse)))

	case flow.NodeInstruction:
		stmts, err := tr.Instruction(node.Instruction, node.ID, c)
		if err != nil {
			return err
		}
		for _, s := range stmts {
			fmt.Fprintf(b, "~ %s\n", s)
		}

	default:
		return fmt.Errorf("node %q has type %q: %w", node.ID, node.Type, flow.ErrUnknownNodeType)
	}

	if !blk.Branching() {
		e.exit(b, prog, i)
	}
	return nil
}

// choices renders one weave option per response socket, guard first.
func (e *Emitter) choices(b *strings.Builder, blk *linearize.Block, node *flow.Node, tr *expr.Transpiler, opts emit.Options, c *diag.Collector) error {
	byKey := make(map[string]*flow.Response, len(node.Dialogue.Responses))
	for i := range node.Dialogue.Responses {
		byKey[node.Dialogue.Responses[i].Key] = &node.Dialogue.Responses[i]
	}

	for _, br := range blk.Branches {
		resp := byKey[br.Socket]
		if resp == nil {
			continue
		}
		text := emit.CollapseLines(emit.CleanText(resp.Text, node.ID, opts.Lossy, c))
		if resp.Guard != nil {
			guard, err := tr.Condition(resp.Guard, node.ID, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(b, "* {%s} [%s] %s\n", guard, text, divert(br.Next))
		} else {
			fmt.Fprintf(b, "* [%s] %s\n", text, divert(br.Next))
		}
	}
	return nil
}

// exit renders the block's exit directive. A fallthrough into a labeled
// block still needs an explicit divert, since knots are never entered
// implicitly.
func (e *Emitter) exit(b *strings.Builder, prog *linearize.Program, i int) {
	blk := &prog.Blocks[i]
	switch blk.Exit.Kind {
	case linearize.Fallthrough:
		if i+1 < len(prog.Blocks) && prog.Blocks[i+1].Label != "" {
			fmt.Fprintf(b, "-> %s\n", prog.Blocks[i+1].Label)
		}
	case linearize.DivertToLabel:
		fmt.Fprintf(b, "-> %s\n", blk.Exit.Label)
	case linearize.DivertToEnd:
		b.WriteString("-> END\n")
	}
}

func branchNext(blk *linearize.Block, socket string) linearize.Directive {
	for _, br := range blk.Branches {
		if br.Socket == socket {
			return br.Next
		}
	}
	return linearize.Directive{Kind: linearize.DivertToEnd}
}

func divert(d linearize.Directive) string {
	if d.Kind == linearize.DivertToLabel {
		return "-> " + d.Label
	}
	return "-> END"
}
