// Package source abstracts where flow documents come from. The CLI reads
// them from a directory of JSON files; server deployments read them from the
// authoring application's MongoDB. Sources are read-only: the exporter never
// writes back to the authoring store.
package source

import (
	"context"
	"errors"

	"github.com/mkessel/flowscribe/pkg/io"
)

// ErrNotFound is returned when a requested flow does not exist in the source.
var ErrNotFound = errors.New("flow not found")

// FlowInfo is a directory listing entry: enough to pick a flow without
// loading its full document.
type FlowInfo struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// FlowSource lists and fetches flow documents.
// Implementations must be safe for concurrent use.
type FlowSource interface {
	// List returns the available flows, sorted by ID.
	List(ctx context.Context) ([]FlowInfo, error)

	// Get fetches one flow document by flow ID. Returns an error wrapping
	// [ErrNotFound] when the flow does not exist.
	Get(ctx context.Context, id string) (*io.Document, error)

	// Close releases backend resources.
	Close() error
}
