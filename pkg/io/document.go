package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mkessel/flowscribe/pkg/flow"
)

// SchemaVersion is the document schema this build reads and writes. Readers
// reject newer versions instead of guessing at their semantics.
const SchemaVersion = 1

// ErrSchemaVersion is returned when a document declares an unsupported
// schema version.
var ErrSchemaVersion = errors.New("unsupported schema version")

// Document is one flow plus its resolved variable table, as exchanged with
// the authoring application and stored by flow sources.
type Document struct {
	SchemaVersion int          `json:"schema_version" bson:"schema_version"`
	Flow          flow.Flow    `json:"flow" bson:"flow"`
	Variables     *flow.VarSet `json:"variables,omitempty" bson:"variables,omitempty"`
}

// ReadDocument decodes a flow document from r, checks the schema version,
// and validates the flow graph.
//
// ReadDocument returns an error if:
//   - The JSON is malformed
//   - The schema version is newer than [SchemaVersion]
//   - The flow violates a structural invariant (see [flow.Validate])
//
// A zero schema_version is accepted and treated as version 1, so hand-written
// documents can omit the field. The returned document is independent of r;
// ReadDocument does not close r.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = SchemaVersion
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("document declares version %d, this build reads %d: %w",
			doc.SchemaVersion, SchemaVersion, ErrSchemaVersion)
	}
	if err := flow.Validate(&doc.Flow); err != nil {
		return nil, fmt.Errorf("flow %s: %w", doc.Flow.ID, err)
	}
	return &doc, nil
}

// WriteDocument encodes a document as indented JSON and writes it to w.
// The output can be re-imported with [ReadDocument] for round-trip
// processing.
func WriteDocument(doc *Document, w io.Writer) error {
	out := *doc
	if out.SchemaVersion == 0 {
		out.SchemaVersion = SchemaVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ImportFile reads a flow document from the file at path.
//
// ImportFile opens the file, decodes it using [ReadDocument], and closes the
// file. Errors wrap the underlying cause with the file path for context, and
// include the same validation errors as [ReadDocument].
func ImportFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ExportFile writes a flow document to a JSON file at path.
// This is a convenience wrapper around [WriteDocument] for file-based output.
func ExportFile(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(doc, f)
}

// Canonical returns the deterministic byte form of a document, used for
// content-addressed cache keys. Compact encoding with Go's fixed struct
// field order makes equal documents hash equally across runs.
func Canonical(doc *Document) ([]byte, error) {
	out := *doc
	if out.SchemaVersion == 0 {
		out.SchemaVersion = SchemaVersion
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}
