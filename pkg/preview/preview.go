// Package preview renders flow graphs as DOT and SVG for authoring-time
// inspection. Previews show graph structure only: node variants, socket
// labels, and the entry point. They are a debugging aid, not an export
// artifact.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/mkessel/flowscribe/pkg/flow"
)

// Options configures preview rendering.
type Options struct {
	// Detailed includes node payload summaries (dialogue text, condition
	// rule counts) in labels. When false, only the node ID and variant are
	// shown.
	Detailed bool
}

// ToDOT converts a flow graph to Graphviz DOT format. The resulting DOT
// string can be rendered with [RenderSVG].
//
// Each node variant gets a distinct shape: entry and exit are ovals,
// conditions are diamonds, instructions are parallelograms, hubs are double
// circles, jumps are plain text, dialogue is a box.
func ToDOT(f *flow.Flow, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i := range f.Nodes {
		n := &f.Nodes[i]
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range f.Edges {
		if e.Socket != "" && e.Socket != flow.SocketOut {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, e.Socket)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	// Jump transfers are control flow too; show them dashed.
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.Type == flow.NodeJump && n.Jump != nil {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", n.ID, n.Jump.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *flow.Node, detailed bool) string {
	label := fmt.Sprintf("%s\n(%s)", n.ID, n.Type)
	if !detailed {
		return label
	}

	switch n.Type {
	case flow.NodeDialogue:
		if n.Dialogue != nil {
			text := n.Dialogue.Text
			if len(text) > 40 {
				text = text[:37] + "..."
			}
			label += "\n" + text
			if len(n.Dialogue.Responses) > 0 {
				label += fmt.Sprintf("\n%d responses", len(n.Dialogue.Responses))
			}
		}
	case flow.NodeCondition:
		if n.Condition != nil {
			label += fmt.Sprintf("\n%d rules", len(n.Condition.Rules))
		}
	case flow.NodeInstruction:
		if n.Instruction != nil {
			label += fmt.Sprintf("\n%d assignments", len(n.Instruction.Assignments))
		}
	case flow.NodeHub:
		if n.Hub != nil && n.Hub.Name != "" {
			label += "\n" + n.Hub.Name
		}
	}
	return label
}

func fmtAttrs(n *flow.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Type {
	case flow.NodeEntry:
		attrs = append(attrs, "shape=oval", "fillcolor=lightgreen")
	case flow.NodeExit:
		attrs = append(attrs, "shape=oval", "fillcolor=lightcoral")
	case flow.NodeCondition:
		attrs = append(attrs, "shape=diamond")
	case flow.NodeInstruction:
		attrs = append(attrs, "shape=parallelogram")
	case flow.NodeHub:
		attrs = append(attrs, "shape=doublecircle", "fillcolor=lightyellow")
	case flow.NodeJump:
		attrs = append(attrs, "shape=plaintext", "style=\"\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root SVG tag so the image scales cleanly in
// browsers regardless of Graphviz's point-based sizing.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
