// Package yarn renders linearized flows as Yarn-like scripts. Each labeled
// block opens a new Yarn node; control transfers become <<jump>> commands,
// branch ends become <<stop>>, and instructions become <<set>> commands.
package yarn

import (
	"fmt"
	"strings"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/emit"
	"github.com/mkessel/flowscribe/pkg/expr"
	"github.com/mkessel/flowscribe/pkg/flow"
	"github.com/mkessel/flowscribe/pkg/linearize"
)

// Emitter renders the Yarn-like target.
type Emitter struct{}

// New creates a Yarn emitter.
func New() *Emitter { return &Emitter{} }

// Target returns "yarn".
func (e *Emitter) Target() string { return "yarn" }

// Emit renders the program as one .yarn script plus enabled sidecars.
func (e *Emitter) Emit(prog *linearize.Program, idx *flow.Index, vars *flow.VarSet, opts emit.Options, c *diag.Collector) ([]emit.File, error) {
	fl := expr.NewFlattener(expr.Yarn.IdentSep)
	tr := expr.NewTranspiler(expr.Yarn, fl)

	decls, err := emit.DeclareVars(vars, tr, opts.Lossy, c)
	if err != nil {
		return nil, err
	}

	w := &writer{b: &strings.Builder{}}
	w.open(e.startTitle(prog))
	for _, d := range decls {
		w.linef("<<declare %s = %s>>", d.Ident, d.Value)
	}

	for i := range prog.Blocks {
		if err := e.block(w, prog, i, idx, tr, opts, c); err != nil {
			return nil, err
		}
	}
	w.close()

	files := []emit.File{{
		Name:    opts.BaseOr(prog.FlowID) + ".yarn",
		Content: []byte(w.b.String()),
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

// startTitle derives the opening node title, avoiding any block label.
func (e *Emitter) startTitle(prog *linearize.Program) string {
	title := expr.SanitizeIdent(prog.FlowID)
	if title == "" {
		title = "start"
	}
	for i := range prog.Blocks {
		if prog.Blocks[i].Label == title {
			return title + "_" + expr.ShortHash(prog.FlowID)
		}
	}
	return title
}

func (e *Emitter) block(w *writer, prog *linearize.Program, i int, idx *flow.Index, tr *expr.Transpiler, opts emit.Options, c *diag.Collector) error {
	blk := &prog.Blocks[i]
	node, ok := idx.Node(blk.NodeID)
	if !ok {
		return fmt.Errorf("block references unknown node %q", blk.NodeID)
	}

	if blk.Label != "" {
		w.close()
		w.open(blk.Label)
	}

	switch node.Type {
	case flow.NodeEntry, flow.NodeHub, flow.NodeExit, flow.NodeJump:
		// No content beyond the node boundary and exit directive.

	case flow.NodeDialogue:
		line := emit.CollapseLines(emit.CleanText(node.Dialogue.Text, node.ID, opts.Lossy, c))
		if node.Dialogue.Speaker != "" {
			w.linef("%s: %s", node.Dialogue.Speaker, line)
		} else {
			w.linef("%s", line)
		}
		if blk.Branching() {
			if err := e.choices(w, blk, node, tr, opts, c); err != nil {
				return err
			}
		}

	case flow.NodeCondition:
		cond, err := tr.Condition(node.Condition, node.ID, c)
		if err != nil {
			return err
		}
		w.linef("<<if %s>>", cond)
		w.linef("    %s", transfer(branchNext(blk, flow.SocketTrue)))
		w.linef("<<else>>")
		w.linef("    %s", transfer(branchNext(blk, flow.SocketFalse)))
		w.linef("<<endif>>")

	case flow.NodeInstruction:
		stmts, err := tr.Instruction(node.Instruction, node.ID, c)
		if err != nil {
			return err
		}
		for _, s := range stmts {
			w.linef("<<%s>>", s)
		}

	default:
		return fmt.Errorf("node %q has type %q: %w", node.ID, node.Type, flow.ErrUnknownNodeType)
	}

	if !blk.Branching() {
		e.exit(w, prog, i)
	}
	return nil
}

// choices renders one shortcut option per response socket, with an <<if>>
// guard condition on the option line when present.
func (e *Emitter) choices(w *writer, blk *linearize.Block, node *flow.Node, tr *expr.Transpiler, opts emit.Options, c *diag.Collector) error {
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
			w.linef("-> %s <<if %s>>", text, guard)
		} else {
			w.linef("-> %s", text)
		}
		w.linef("    %s", transfer(br.Next))
	}
	return nil
}

// exit renders the block's exit. Yarn nodes never fall through, so a
// fallthrough into a labeled block becomes an explicit jump.
func (e *Emitter) exit(w *writer, prog *linearize.Program, i int) {
	blk := &prog.Blocks[i]
	switch blk.Exit.Kind {
	case linearize.Fallthrough:
		if i+1 < len(prog.Blocks) && prog.Blocks[i+1].Label != "" {
			w.linef("<<jump %s>>", prog.Blocks[i+1].Label)
		}
	case linearize.DivertToLabel:
		w.linef("<<jump %s>>", blk.Exit.Label)
	case linearize.DivertToEnd:
		w.linef("<<stop>>")
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

func transfer(d linearize.Directive) string {
	if d.Kind == linearize.DivertToLabel {
		return fmt.Sprintf("<<jump %s>>", d.Label)
	}
	return "<<stop>>"
}

// writer tracks Yarn node boundaries: every node opens with a title and
// header separator and closes with the body terminator.
type writer struct {
	b      *strings.Builder
	inNode bool
}

func (w *writer) open(title string) {
	if w.b.Len() > 0 {
		w.b.WriteString("\n")
	}
	fmt.Fprintf(w.b, "title: %s\n---\n", title)
	w.inNode = true
}

func (w *writer) close() {
	if w.inNode {
		w.b.WriteString("===\n")
		w.inNode = false
	}
}

func (w *writer) linef(format string, args ...any) {
	fmt.Fprintf(w.b, format+"\n", args...)
}
