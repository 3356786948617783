package expr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/mkessel/flowscribe/pkg/flow"
)

// ErrVariableCollision is returned by [Flattener.Flatten] when two distinct
// dotted references map to the same flattened identifier. This is always
// fatal: silently merging two authored variables would corrupt the exported
// script's semantics.
var ErrVariableCollision = errors.New("variable references collide after flattening")

// Flattener converts dotted variable references into legal target
// identifiers, guaranteeing injectivity within one run. It is scoped to a
// single transpilation and carries no state across runs.
type Flattener struct {
	sep   string
	taken map[string]flow.VarRef
}

// NewFlattener creates a flattener using sep as the dot replacement.
func NewFlattener(sep string) *Flattener {
	return &Flattener{
		sep:   sep,
		taken: make(map[string]flow.VarRef),
	}
}

// Flatten returns the target identifier for ref. The same ref always yields
// the same identifier. If a different ref already claimed the identifier,
// Flatten returns an error wrapping [ErrVariableCollision] naming both
// references.
func (f *Flattener) Flatten(ref flow.VarRef) (string, error) {
	ident := f.identFor(ref)
	if prev, ok := f.taken[ident]; ok {
		if prev != ref {
			return "", fmt.Errorf("%q and %q both flatten to %q: %w", prev, ref, ident, ErrVariableCollision)
		}
		return ident, nil
	}
	f.taken[ident] = ref
	return ident, nil
}

// Table returns the dotted→flattened mapping accumulated so far, for the
// metadata sidecar. The result is a copy.
func (f *Flattener) Table() map[string]string {
	out := make(map[string]string, len(f.taken))
	for ident, ref := range f.taken {
		out[ref.String()] = ident
	}
	return out
}

func (f *Flattener) identFor(ref flow.VarRef) string {
	var b strings.Builder
	if ref.Sheet != "" {
		b.WriteString(sanitizeIdent(ref.Sheet))
		b.WriteString(f.sep)
	}
	b.WriteString(sanitizeIdent(ref.Name))
	return b.String()
}

// sanitizeIdent replaces anything outside [A-Za-z0-9_] with an underscore
// and prefixes identifiers that would start with a digit. Deterministic and
// stateless.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_' || unicode.IsDigit(r):
			b.WriteRune(r)
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// ShortHash returns the first six hex characters of the SHA-256 of s. Used
// to disambiguate derived names that would otherwise collide.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:6]
}

// SanitizeIdent exposes identifier sanitization for label derivation in the
// linearizer, which needs the same character rules.
func SanitizeIdent(s string) string { return sanitizeIdent(s) }
