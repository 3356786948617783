// Package cache provides pluggable byte caches and cache-key derivation for
// the export pipeline. Backends include an on-disk cache for CLI usage, a
// Redis cache for server deployments, and a null cache that disables caching.
package cache

import (
	"context"
	"time"
)

// TTL values per cached stage. Linearized programs are cheap to recompute but
// expensive to re-validate on large flows; rendered artifacts are the
// expensive stage and get the longest TTL.
const (
	// TTLProgram is how long linearized programs stay cached.
	TTLProgram = 1 * time.Hour

	// TTLArtifact is how long rendered export artifacts stay cached.
	TTLArtifact = 24 * time.Hour

	// TTLFlow is how long fetched flow documents stay cached.
	TTLFlow = 15 * time.Minute
)

// Cache is the minimal byte cache used by the export pipeline.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ProgramKeyOpts captures every input that changes the linearized program for
// a given flow document.
type ProgramKeyOpts struct {
	StrictCoverage bool
}

// ArtifactKeyOpts captures every input that changes rendered artifacts for a
// given program.
type ArtifactKeyOpts struct {
	Target             string
	BaseName           string
	Locales            []string
	Metadata           bool
	Strings            bool
	StripRichText      bool
	FlattenMultiSelect bool
}

// Keyer derives cache keys for pipeline stages. Separating key derivation
// from storage lets server deployments scope keys per project without
// touching the backends.
type Keyer interface {
	// FlowKey derives a key for a fetched flow document.
	FlowKey(source, flowID string) string

	// ProgramKey derives a key for a linearized program. flowHash is the
	// hash of the canonical flow document bytes.
	ProgramKey(flowHash string, opts ProgramKeyOpts) string

	// ArtifactKey derives a key for rendered artifacts. programHash is the
	// hash of the serialized program.
	ArtifactKey(programHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer derives keys by hashing the stage inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// FlowKey generates a key for a fetched flow document.
func (k *DefaultKeyer) FlowKey(source, flowID string) string {
	return hashKey("flow", source, flowID)
}

// ProgramKey generates a key for a linearized program.
func (k *DefaultKeyer) ProgramKey(flowHash string, opts ProgramKeyOpts) string {
	return hashKey("program", flowHash, opts)
}

// ArtifactKey generates a key for rendered artifacts.
func (k *DefaultKeyer) ArtifactKey(programHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", programHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
