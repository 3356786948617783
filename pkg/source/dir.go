package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mkessel/flowscribe/pkg/io"
)

// DirSource serves flow documents from a directory of JSON files, one
// document per file. This is the CLI-facing source: a checked-out project
// directory of exported flows.
type DirSource struct {
	dir string
}

// NewDirSource creates a directory source. The directory must exist.
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("flow directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("flow directory %s: not a directory", dir)
	}
	return &DirSource{dir: dir}, nil
}

// List scans the directory for flow documents. Files that fail to decode are
// skipped rather than failing the whole listing; Get reports their errors
// when a specific flow is requested.
func (s *DirSource) List(ctx context.Context) ([]FlowInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list flows in %s: %w", s.dir, err)
	}

	var flows []FlowInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := io.ImportFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		flows = append(flows, FlowInfo{ID: doc.Flow.ID, Title: doc.Flow.Title})
	}

	slices.SortFunc(flows, func(a, b FlowInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return flows, nil
}

// Get fetches a flow document by flow ID. The flow ID is matched against the
// document contents, not the filename, so files can be named freely.
func (s *DirSource) Get(ctx context.Context, id string) (*io.Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list flows in %s: %w", s.dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := io.ImportFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		if doc.Flow.ID == id {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("flow %q in %s: %w", id, s.dir, ErrNotFound)
}

// Close does nothing for directory sources.
func (s *DirSource) Close() error { return nil }

// Ensure DirSource implements FlowSource.
var _ FlowSource = (*DirSource)(nil)
