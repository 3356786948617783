package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	flowio "github.com/mkessel/flowscribe/pkg/io"
	"github.com/mkessel/flowscribe/pkg/preview"
)

// graphCommand creates the graph command for rendering flow structure as
// DOT or SVG. This is an authoring aid: it shows the graph as drawn, before
// linearization.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Render a flow's structure as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "dot" && format != "svg" {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", format)
			}

			doc, err := flowio.ImportFile(args[0])
			if err != nil {
				return err
			}

			dot := preview.ToDOT(&doc.Flow, preview.Options{Detailed: detailed})

			var data []byte
			switch format {
			case "dot":
				data = []byte(dot)
			case "svg":
				s := newSpinnerWithContext(cmd.Context(), "Rendering SVG...")
				s.Start()
				data, err = preview.RenderSVG(dot)
				s.Stop()
				if err != nil {
					return err
				}
			}

			path := output
			if path == "" {
				path = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + format
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			printSuccess("Rendered %s graph", doc.Flow.ID)
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to the input name with a new extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg (default), dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include payload summaries in node labels")

	return cmd
}
