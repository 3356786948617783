package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkessel/flowscribe/pkg/export"
	flowio "github.com/mkessel/flowscribe/pkg/io"
	"github.com/mkessel/flowscribe/pkg/source"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	targets       string // comma-separated target formats
	outputDir     string // directory for generated files
	baseName      string // output basename override
	locales       string // comma-separated locale codes
	metadata      bool   // write the JSON metadata sidecar
	strings       bool   // write the localization string table
	stripRichText bool   // strip markup from dialogue text
	flattenMulti  bool   // one boolean per multi-select option
	strict        bool   // warn about unreachable nodes
	refresh       bool   // bypass the artifact cache
	noCache       bool   // disable caching entirely
	profile       string // TOML export profile path
	sourceDir     string // flow directory for pickerless lookup
}

// exportCommand creates the export command for rendering flow documents as
// scripts.
//
// With a file argument the document is read directly. Without one, the flows
// in --source-dir are listed in an interactive picker.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export a flow document as game scripts",
		Long: `Export renders a flow document in one or more script formats.

The flow graph is flattened into a linear block program with explicit
labels and control transfers, then rendered per target. Constructs a
target cannot express degrade to placeholders with warnings; malformed
graphs abort with no output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runOpts := export.Options{
				Refresh: opts.refresh,
			}

			if opts.profile != "" {
				p, err := loadProfile(opts.profile)
				if err != nil {
					return err
				}
				p.apply(&runOpts)
			}

			// Flags override the profile.
			if opts.targets != "" || len(runOpts.Targets) == 0 {
				runOpts.Targets = parseTargets(opts.targets)
			}
			if opts.baseName != "" {
				runOpts.BaseName = opts.baseName
			}
			if opts.locales != "" {
				runOpts.Locales = parseLocales(opts.locales)
			}
			runOpts.Metadata = runOpts.Metadata || opts.metadata
			runOpts.Strings = runOpts.Strings || opts.strings
			runOpts.StrictCoverage = runOpts.StrictCoverage || opts.strict
			runOpts.Lossy.StripRichText = runOpts.Lossy.StripRichText || opts.stripRichText
			runOpts.Lossy.FlattenMultiSelect = runOpts.Lossy.FlattenMultiSelect || opts.flattenMulti

			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runExport(cmd.Context(), input, &opts, runOpts)
		},
	}

	cmd.Flags().StringVarP(&opts.targets, "target", "t", "", "target format(s): ink (default), yarn (comma-separated)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", ".", "directory for generated files")
	cmd.Flags().StringVar(&opts.baseName, "base-name", "", "output basename (defaults to the flow ID)")
	cmd.Flags().StringVar(&opts.locales, "locale", "", "locale code(s) for string table seeds (comma-separated)")
	cmd.Flags().BoolVar(&opts.metadata, "metadata", false, "write the JSON metadata sidecar")
	cmd.Flags().BoolVar(&opts.strings, "strings", false, "write the localization string table")
	cmd.Flags().BoolVar(&opts.stripRichText, "strip-rich-text", false, "strip markup from dialogue text")
	cmd.Flags().BoolVar(&opts.flattenMulti, "flatten-multi-select", false, "declare one boolean per multi-select option")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "warn about nodes unreachable from the entry")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the artifact cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "TOML export profile")
	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", ".", "flow directory for interactive selection")

	return cmd
}

// runExport loads the document, runs the pipeline, and writes the artifacts.
func (c *CLI) runExport(ctx context.Context, input string, opts *exportOpts, runOpts export.Options) error {
	doc, err := c.resolveDocument(ctx, input, opts.sourceDir)
	if err != nil {
		return err
	}
	if doc == nil {
		printInfo("No flow selected")
		return nil
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, doc, runOpts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	written := 0
	for _, target := range runOpts.Targets {
		for _, f := range result.Artifacts[target] {
			path := filepath.Join(opts.outputDir, f.Name)
			if err := os.WriteFile(path, f.Content, 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printFile(path)
			written++
		}
	}

	cached := result.CacheInfo.ProgramHit
	for _, hit := range result.CacheInfo.ArtifactHits {
		cached = cached && hit
	}
	printStats(result.Stats.BlockCount, result.Stats.LabelCount, cached)

	if len(result.Diagnostics) > 0 {
		printNewline()
		printDiagnostics(result.Diagnostics)
	}

	prog.done(fmt.Sprintf("Exported %s to %d file(s)", doc.Flow.ID, written))
	printSuccess("Export complete")
	return nil
}

// resolveDocument loads the input document directly, or lets the user pick a
// flow from the source directory when no input is given. A nil document with
// nil error means the user quit the picker.
func (c *CLI) resolveDocument(ctx context.Context, input, sourceDir string) (*flowio.Document, error) {
	if input != "" {
		return flowio.ImportFile(input)
	}

	src, err := source.NewDirSource(sourceDir)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	flows, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	picked, err := pickFlow(flows)
	if err != nil {
		return nil, err
	}
	if picked == nil {
		return nil, nil
	}
	return src.Get(ctx, picked.ID)
}
