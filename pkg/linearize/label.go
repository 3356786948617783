package linearize

import (
	"github.com/mkessel/flowscribe/pkg/expr"
	"github.com/mkessel/flowscribe/pkg/flow"
)

// labelBase derives the preferred label name for a node. Hubs use their
// authored name so the exported script reads like the flow editor; every
// other node derives from its ID. The result uses the same identifier rules
// as variable flattening, so labels are legal in every target.
func labelBase(n *flow.Node) string {
	if n.Type == flow.NodeHub && n.Hub != nil && n.Hub.Name != "" {
		return expr.SanitizeIdent(n.Hub.Name)
	}
	return expr.SanitizeIdent(n.ID)
}

// shortHash disambiguates label names that collide after sanitization. The
// hash depends only on the node ID, keeping label assignment a pure function
// of the graph.
func shortHash(id string) string { return expr.ShortHash(id) }
