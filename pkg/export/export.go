// Package export provides the complete flow export pipeline.
//
// This package implements the validate → linearize → emit pipeline that can
// be used by CLI, API, and worker components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Validate: Check the flow graph's structural invariants
//  2. Linearize: Flatten the graph into an ordered block program
//  3. Emit: Render the program in each requested target syntax
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := export.NewRunner(cache, nil, logger)
//	opts := export.Options{
//	    Targets:  []string{"ink"},
//	    Metadata: true,
//	}
//	result, err := runner.Execute(ctx, doc, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	files := result.Artifacts["ink"]
//
// A fatal error aborts with no artifacts. Warnings never abort; they ride on
// result.Diagnostics so callers can surface them next to the files.
package export

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkessel/flowscribe/pkg/cache"
	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/emit"
	"github.com/mkessel/flowscribe/pkg/emit/ink"
	"github.com/mkessel/flowscribe/pkg/emit/yarn"
	"github.com/mkessel/flowscribe/pkg/linearize"
)

// =============================================================================
// Targets
// =============================================================================

// Target constants for export formats.
const (
	TargetInk  = "ink"
	TargetYarn = "yarn"
)

// DefaultTarget is used when no target is requested.
const DefaultTarget = TargetInk

// Emitters returns a fresh registry of all supported emitters, keyed by
// target name. Emitters are stateless; the registry exists so CLI and server
// share one list of valid targets.
func Emitters() map[string]emit.Emitter {
	return map[string]emit.Emitter{
		TargetInk:  ink.New(),
		TargetYarn: yarn.New(),
	}
}

// ValidTargets is the set of supported target names.
var ValidTargets = map[string]bool{
	TargetInk:  true,
	TargetYarn: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one export run. The zero value exports the default
// target with no sidecars.
type Options struct {
	// Targets lists the script formats to render. Defaults to [DefaultTarget].
	Targets []string

	// BaseName overrides the output basename. Defaults to the flow ID.
	BaseName string

	// Locales seeds one localization string table per locale code.
	Locales []string

	// Metadata enables the JSON metadata sidecar.
	Metadata bool

	// Strings enables the localization string table.
	Strings bool

	// Lossy selects policies for content a target cannot express exactly.
	Lossy emit.LossyOptions

	// StrictCoverage warns about nodes unreachable from the entry.
	StrictCoverage bool

	// Refresh bypasses the artifact cache and overwrites it.
	Refresh bool

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Targets) == 0 {
		o.Targets = []string{DefaultTarget}
	}
	seen := make(map[string]bool, len(o.Targets))
	for _, t := range o.Targets {
		if !ValidTargets[t] {
			return fmt.Errorf("unknown target %q (valid: %s, %s)", t, TargetInk, TargetYarn)
		}
		if seen[t] {
			return fmt.Errorf("duplicate target %q", t)
		}
		seen[t] = true
	}
	return nil
}

// EmitOptions converts the run options to per-emitter options.
func (o *Options) EmitOptions() emit.Options {
	return emit.Options{
		BaseName: o.BaseName,
		Locales:  o.Locales,
		Metadata: o.Metadata,
		Strings:  o.Strings,
		Lossy:    o.Lossy,
	}
}

// ProgramKeyOpts returns the cache key inputs for the linearize stage.
func (o *Options) ProgramKeyOpts() cache.ProgramKeyOpts {
	return cache.ProgramKeyOpts{
		StrictCoverage: o.StrictCoverage,
	}
}

// ArtifactKeyOpts returns the cache key inputs for the emit stage.
func (o *Options) ArtifactKeyOpts(target string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Target:             target,
		BaseName:           o.BaseName,
		Locales:            slices.Clone(o.Locales),
		Metadata:           o.Metadata,
		Strings:            o.Strings,
		StripRichText:      o.Lossy.StripRichText,
		FlattenMultiSelect: o.Lossy.FlattenMultiSelect,
	}
}

// =============================================================================
// Result
// =============================================================================

// Stats tracks per-stage timing and output shape for one run.
type Stats struct {
	ValidateTime  time.Duration `json:"validate_time"`
	LinearizeTime time.Duration `json:"linearize_time"`
	EmitTime      time.Duration `json:"emit_time"`

	BlockCount   int `json:"block_count"`
	LabelCount   int `json:"label_count"`
	WarningCount int `json:"warning_count"`
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	// ProgramHit reports whether the linearized program came from cache.
	ProgramHit bool `json:"program_hit"`

	// ArtifactHits maps each target to whether its artifacts came from
	// cache.
	ArtifactHits map[string]bool `json:"artifact_hits"`
}

// Result is the outcome of one export run.
type Result struct {
	// RunID uniquely identifies this run in logs and API responses.
	RunID string `json:"run_id"`

	// FlowID is the exported flow's ID.
	FlowID string `json:"flow_id"`

	// FlowHash is the content hash of the canonical flow document.
	FlowHash string `json:"flow_hash"`

	// Program is the linearized block program shared by all targets.
	Program *linearize.Program `json:"-"`

	// Artifacts maps each target to its rendered files, primary script
	// first.
	Artifacts map[string][]emit.File `json:"artifacts"`

	// Diagnostics holds every warning recorded during the run.
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache_info"`
}
