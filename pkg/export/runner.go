package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mkessel/flowscribe/pkg/cache"
	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/emit"
	"github.com/mkessel/flowscribe/pkg/flow"
	"github.com/mkessel/flowscribe/pkg/io"
	"github.com/mkessel/flowscribe/pkg/linearize"
	"github.com/mkessel/flowscribe/pkg/observability"
)

// Runner encapsulates export execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store run results. Multiple goroutines can safely use the same Runner
// with different documents and options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete validate → linearize → emit pipeline with
// caching. A fatal error returns nil and no artifacts are produced.
func (r *Runner) Execute(ctx context.Context, doc *io.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)

	result := &Result{
		RunID:     uuid.NewString(),
		FlowID:    doc.Flow.ID,
		Artifacts: make(map[string][]emit.File),
		CacheInfo: CacheInfo{ArtifactHits: make(map[string]bool)},
	}

	// Content hash for cache keys and API responses
	canonical, err := io.Canonical(doc)
	if err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}
	result.FlowHash = cache.Hash(canonical)

	// Stage 1: Validate
	validateStart := time.Now()
	observability.Export().OnValidateStart(ctx, doc.Flow.ID)
	err = flow.Validate(&doc.Flow)
	result.Stats.ValidateTime = time.Since(validateStart)
	observability.Export().OnValidateComplete(ctx, doc.Flow.ID, result.Stats.ValidateTime, err)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	idx := flow.NewIndex(&doc.Flow)

	// Stage 2: Linearize
	linearizeStart := time.Now()
	var c diag.Collector
	prog, programHit, err := r.LinearizeWithCacheInfo(ctx, idx, result.FlowHash, opts, &c)
	result.Stats.LinearizeTime = time.Since(linearizeStart)
	if err != nil {
		return nil, fmt.Errorf("linearize: %w", err)
	}
	result.Program = prog
	result.Stats.BlockCount = len(prog.Blocks)
	result.Stats.LabelCount = prog.LabelCount()
	result.CacheInfo.ProgramHit = programHit

	logger.Info("linearized flow",
		"flow", doc.Flow.ID,
		"blocks", len(prog.Blocks),
		"labels", prog.LabelCount(),
		"duration", result.Stats.LinearizeTime)

	// Stage 3: Emit per target
	emitStart := time.Now()
	for _, target := range opts.Targets {
		files, hit, err := r.EmitWithCacheInfo(ctx, prog, idx, doc.Variables, target, opts, &c)
		if err != nil {
			return nil, fmt.Errorf("emit %s: %w", target, err)
		}
		result.Artifacts[target] = files
		result.CacheInfo.ArtifactHits[target] = hit
	}
	result.Stats.EmitTime = time.Since(emitStart)

	result.Diagnostics = c.All()
	result.Stats.WarningCount = len(c.Warnings())

	logger.Info("rendered exports",
		"flow", doc.Flow.ID,
		"targets", opts.Targets,
		"warnings", result.Stats.WarningCount,
		"duration", result.Stats.EmitTime)

	return result, nil
}

// cachedProgram is the cache payload for the linearize stage. Warnings are
// cached alongside the program so a cache hit still surfaces them.
type cachedProgram struct {
	Program     *linearize.Program `json:"program"`
	Diagnostics []diag.Diagnostic  `json:"diagnostics,omitempty"`
}

// LinearizeWithCacheInfo linearizes with caching and returns cache hit info.
// flowHash must be the hash of the canonical document bytes.
func (r *Runner) LinearizeWithCacheInfo(ctx context.Context, idx *flow.Index, flowHash string, opts Options, c *diag.Collector) (*linearize.Program, bool, error) {
	flowID := idx.Flow().ID
	cacheKey := r.Keyer.ProgramKey(flowHash, opts.ProgramKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached cachedProgram
			if err := json.Unmarshal(data, &cached); err == nil && cached.Program != nil {
				observability.Cache().OnCacheHit(ctx, "program")
				replay(c, cached.Diagnostics)
				return cached.Program, true, nil
			}
			// Undecodable entry, recompute
		}
		observability.Cache().OnCacheMiss(ctx, "program")
	}

	start := time.Now()
	observability.Export().OnLinearizeStart(ctx, flowID)
	var stage diag.Collector
	prog, err := linearize.Linearize(idx, linearize.Options{StrictCoverage: opts.StrictCoverage}, &stage)
	blockCount := 0
	if prog != nil {
		blockCount = len(prog.Blocks)
	}
	observability.Export().OnLinearizeComplete(ctx, flowID, blockCount, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	c.Merge(&stage)

	if data, err := json.Marshal(cachedProgram{Program: prog, Diagnostics: stage.All()}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLProgram); err == nil {
			observability.Cache().OnCacheSet(ctx, "program", len(data))
		}
	}

	return prog, false, nil
}

// Linearize is a convenience wrapper that discards the cache hit info.
func (r *Runner) Linearize(ctx context.Context, idx *flow.Index, flowHash string, opts Options, c *diag.Collector) (*linearize.Program, error) {
	prog, _, err := r.LinearizeWithCacheInfo(ctx, idx, flowHash, opts, c)
	return prog, err
}

// cachedArtifacts is the cache payload for the emit stage.
type cachedArtifacts struct {
	Files       []emit.File       `json:"files"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// EmitWithCacheInfo renders one target with caching and returns cache hit
// info.
func (r *Runner) EmitWithCacheInfo(ctx context.Context, prog *linearize.Program, idx *flow.Index, vars *flow.VarSet, target string, opts Options, c *diag.Collector) ([]emit.File, bool, error) {
	emitter, ok := Emitters()[target]
	if !ok {
		return nil, false, fmt.Errorf("unknown target %q", target)
	}

	progData, err := json.Marshal(prog)
	if err != nil {
		return nil, false, fmt.Errorf("serialize program for cache key: %w", err)
	}
	cacheKey := r.Keyer.ArtifactKey(cache.Hash(progData), opts.ArtifactKeyOpts(target))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached cachedArtifacts
			if err := json.Unmarshal(data, &cached); err == nil && len(cached.Files) > 0 {
				observability.Cache().OnCacheHit(ctx, "artifact")
				replay(c, cached.Diagnostics)
				return cached.Files, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	start := time.Now()
	observability.Export().OnEmitStart(ctx, prog.FlowID, target)
	var stage diag.Collector
	files, err := emitter.Emit(prog, idx, vars, opts.EmitOptions(), &stage)
	observability.Export().OnEmitComplete(ctx, prog.FlowID, target,
		len(files), len(stage.Warnings()), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	c.Merge(&stage)

	if data, err := json.Marshal(cachedArtifacts{Files: files, Diagnostics: stage.All()}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return files, false, nil
}

// Emit is a convenience wrapper that discards the cache hit info.
func (r *Runner) Emit(ctx context.Context, prog *linearize.Program, idx *flow.Index, vars *flow.VarSet, target string, opts Options, c *diag.Collector) ([]emit.File, error) {
	files, _, err := r.EmitWithCacheInfo(ctx, prog, idx, vars, target, opts, c)
	return files, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// logger returns the run's logger, preferring the per-run override.
func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

// replay records previously cached diagnostics on the run's collector.
func replay(c *diag.Collector, ds []diag.Diagnostic) {
	for _, d := range ds {
		c.Add(d)
	}
}
