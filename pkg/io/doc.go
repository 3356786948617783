// Package io provides JSON import and export for flow documents.
//
// # Overview
//
// A flow document is the interchange unit between the authoring application
// and the exporter: one flow graph plus its resolved variable table, wrapped
// with a schema version. The format is designed for:
//
//   - Exporting any authored flow, not just ones stored in the authoring DB
//   - Integration with external tools that produce or consume flow data
//   - Stable hashing: the exporter caches artifacts by document content
//
// # JSON Format
//
//	{
//	  "schema_version": 1,
//	  "flow": {
//	    "id": "intro",
//	    "title": "Introduction",
//	    "nodes": [
//	      {"id": "start", "type": "entry"},
//	      {"id": "greet", "type": "dialogue",
//	       "dialogue": {"speaker": "Ada", "text": "Hello."}},
//	      {"id": "end", "type": "exit"}
//	    ],
//	    "edges": [
//	      {"from": "start", "socket": "out", "to": "greet"},
//	      {"from": "greet", "socket": "out", "to": "end"}
//	    ]
//	  },
//	  "variables": {
//	    "vars": [
//	      {"ref": {"sheet": "player", "name": "met_ada"},
//	       "type": "bool", "default": false}
//	    ]
//	  }
//	}
//
// # Import
//
// Use [ImportFile] to read a document from a file path, or [ReadDocument] to
// read from any io.Reader:
//
//	doc, err := io.ImportFile("intro.flow.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both functions check the schema version and validate the flow graph.
// Errors are wrapped with context about which node or edge caused the
// problem.
//
// # Export
//
// Use [ExportFile] to write a document to a file, or [WriteDocument] to
// write to any io.Writer. [Canonical] produces the deterministic byte form
// used for cache keys.
package io
