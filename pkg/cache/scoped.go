package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. Server
// deployments use this to keep per-project caches separate while sharing one
// Redis backend.
//
// Example usage:
//
//	// Project-specific keys
//	projKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:demo:")
//
//	// Shared keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FlowKey generates a prefixed key for flow document caching.
func (k *ScopedKeyer) FlowKey(source, flowID string) string {
	return k.prefix + k.inner.FlowKey(source, flowID)
}

// ProgramKey generates a prefixed key for linearized program caching.
func (k *ScopedKeyer) ProgramKey(flowHash string, opts ProgramKeyOpts) string {
	return k.prefix + k.inner.ProgramKey(flowHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(programHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(programHash, opts)
}
