package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/flow"
	flowio "github.com/mkessel/flowscribe/pkg/io"
	"github.com/mkessel/flowscribe/pkg/linearize"
)

// validateCommand creates the validate command for checking flow documents
// without producing output files.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a flow document's structural invariants",
		Long: `Validate parses a flow document, checks every structural invariant
(single entry, resolvable edges and sockets, hub-targeted jumps), and
dry-runs linearization to surface the warnings an export would produce.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// ImportFile already runs flow.Validate.
			doc, err := flowio.ImportFile(args[0])
			if err != nil {
				printError("%v", err)
				return err
			}

			var collector diag.Collector
			idx := flow.NewIndex(&doc.Flow)
			prog, err := linearize.Linearize(idx, linearize.Options{StrictCoverage: strict}, &collector)
			if err != nil {
				printError("%v", err)
				return err
			}

			printSuccess("%s is valid", doc.Flow.ID)
			printDetail("%d nodes, %d edges → %d blocks, %d labels",
				len(doc.Flow.Nodes), len(doc.Flow.Edges),
				len(prog.Blocks), prog.LabelCount())

			if collector.Len() > 0 {
				printNewline()
				printDiagnostics(collector.All())
			}
			printNextStep("Export it", "flowscribe export "+args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "warn about nodes unreachable from the entry")
	return cmd
}
