// Package emit defines the contract shared by all format emitters and the
// output artifacts common to every target: the metadata sidecar and the
// localization string table.
//
// An [Emitter] renders one linearized program as text in one target syntax.
// Emitters share the linearizer and the expression transpiler; they differ
// only in their [expr.Syntax] table and their line grammar. All artifacts
// are produced write-once per run and never re-parsed.
package emit

import (
	"regexp"
	"strings"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/flow"
	"github.com/mkessel/flowscribe/pkg/linearize"
)

// File is one named output artifact.
type File struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// LossyOptions selects per-run policies for content a target cannot express
// exactly. These are product decisions, configurable per export rather than
// hard-coded per target. Every applied policy records a warning diagnostic.
type LossyOptions struct {
	// StripRichText removes markup tags from dialogue and response text.
	StripRichText bool `json:"strip_rich_text" toml:"strip_rich_text"`

	// FlattenMultiSelect declares one boolean per option for multi-select
	// variables instead of a single joined string.
	FlattenMultiSelect bool `json:"flatten_multi_select" toml:"flatten_multi_select"`
}

// Options configures one emission run.
type Options struct {
	// BaseName is the output basename without extension. Defaults to the
	// flow ID when empty.
	BaseName string

	// Locales lists locale codes for localization string-table seeds. One
	// CSV per locale; empty produces a single unlocalized table when
	// Strings is set.
	Locales []string

	// Metadata enables the JSON sidecar (characters and variable
	// flattening table).
	Metadata bool

	// Strings enables the localization string table.
	Strings bool

	Lossy LossyOptions
}

// BaseOr returns BaseName, falling back to def when unset.
func (o Options) BaseOr(def string) string {
	if o.BaseName != "" {
		return o.BaseName
	}
	return def
}

// Emitter renders a linearized program in one target syntax. Emit returns
// the primary script file first, followed by any sidecar artifacts enabled
// in opts. Fatal errors (variable collisions) abort with no files; all other
// findings degrade to warnings on c.
type Emitter interface {
	// Target returns the target name used in CLI flags and cache keys.
	Target() string

	// Emit renders the program. The program and index must describe the
	// same flow.
	Emit(prog *linearize.Program, idx *flow.Index, vars *flow.VarSet, opts Options, c *diag.Collector) ([]File, error)
}

var richTextRe = regexp.MustCompile(`<[^<>]+>|\*\*|__`)

// CleanText applies the rich-text policy to authored text. With
// StripRichText enabled, markup is removed and a lossy-conversion warning is
// recorded once per call site that actually lost content. Without it, text
// passes through unchanged.
func CleanText(s, nodeID string, lossy LossyOptions, c *diag.Collector) string {
	if !lossy.StripRichText {
		return s
	}
	stripped := richTextRe.ReplaceAllString(s, "")
	if stripped != s {
		c.Warnf(nodeID, "rich_text", "rich text markup stripped to plain text")
	}
	return stripped
}

// CollapseLines flattens authored multi-line text into a single script line.
// Targets that support multi-line content can skip this.
func CollapseLines(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
