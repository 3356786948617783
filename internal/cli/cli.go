// Package cli implements the flowscribe command-line interface.
//
// This package provides commands for exporting flow documents to script
// formats, validating flow graphs, previewing graph structure, serving the
// export API, and managing the artifact cache. The CLI is built using cobra
// and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - export: Render a flow document as Ink or Yarn scripts
//   - validate: Check a flow document's structural invariants
//   - graph: Render a flow's structure as DOT or SVG
//   - serve: Run the HTTP export API
//   - cache: Manage the export artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The shared
// logger lives on the CLI struct and is handed to the export runner.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mkessel/flowscribe/pkg/buildinfo"
	"github.com/mkessel/flowscribe/pkg/cache"
	"github.com/mkessel/flowscribe/pkg/export"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowscribe"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "flowscribe",
		Short:        "Flowscribe exports dialogue flows as game scripts",
		Long:         `Flowscribe flattens authored dialogue and logic graphs into linear script files for narrative engines, with explicit labels and control transfers in place of graph edges.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates an export runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*export.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return export.NewRunner(store, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowscribe/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Flag Helpers
// =============================================================================

// parseTargets parses a comma-separated target string into a slice.
func parseTargets(s string) []string {
	if s == "" {
		return []string{export.DefaultTarget}
	}
	return strings.Split(s, ",")
}

// parseLocales parses a comma-separated locale string into a slice.
func parseLocales(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
