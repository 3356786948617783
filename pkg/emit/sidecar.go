package emit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mkessel/flowscribe/pkg/diag"
	"github.com/mkessel/flowscribe/pkg/flow"
	"github.com/mkessel/flowscribe/pkg/linearize"
)

// metadataSidecar is the JSON shape of the metadata artifact: character IDs
// mapped to display names, and the dotted→flattened variable table. Written
// once per run, never re-parsed by this subsystem.
type metadataSidecar struct {
	Flow       string            `json:"flow"`
	Characters map[string]string `json:"characters"`
	Variables  map[string]string `json:"variables"`
}

// MetadataFile builds the metadata sidecar for a program. varTable is the
// flattening table accumulated by the run's flattener. Characters are the
// distinct speakers of reachable dialogue blocks.
func MetadataFile(prog *linearize.Program, idx *flow.Index, varTable map[string]string, opts Options) (File, error) {
	chars := make(map[string]string)
	for i := range prog.Blocks {
		node, ok := idx.Node(prog.Blocks[i].NodeID)
		if !ok || node.Type != flow.NodeDialogue {
			continue
		}
		if sp := node.Dialogue.Speaker; sp != "" {
			chars[sp] = sp
		}
	}

	sidecar := metadataSidecar{
		Flow:       prog.FlowID,
		Characters: chars,
		Variables:  varTable,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sidecar); err != nil {
		return File{}, fmt.Errorf("encode metadata: %w", err)
	}
	return File{
		Name:    opts.BaseOr(prog.FlowID) + ".meta.json",
		Content: buf.Bytes(),
	}, nil
}

// StringRow is one extractable text field: a stable key and its source text.
type StringRow struct {
	Key  string
	Text string
}

// ExtractStrings walks the program in emission order and returns every
// localizable text field exactly once: dialogue lines keyed by node ID and
// responses keyed by node ID plus socket.
func ExtractStrings(prog *linearize.Program, idx *flow.Index, lossy LossyOptions, c *diag.Collector) []StringRow {
	var rows []StringRow
	for i := range prog.Blocks {
		node, ok := idx.Node(prog.Blocks[i].NodeID)
		if !ok || node.Type != flow.NodeDialogue {
			continue
		}
		rows = append(rows, StringRow{
			Key:  node.ID,
			Text: CleanText(node.Dialogue.Text, node.ID, lossy, c),
		})
		for _, r := range node.Dialogue.Responses {
			rows = append(rows, StringRow{
				Key:  node.ID + "." + r.Key,
				Text: CleanText(r.Text, node.ID, lossy, c),
			})
		}
	}
	return rows
}

// StringsFiles renders the localization string table as CSV, one file per
// requested locale (seed rows share the source text), or a single
// unlocalized table when no locales are given.
func StringsFiles(prog *linearize.Program, idx *flow.Index, opts Options, c *diag.Collector) ([]File, error) {
	rows := ExtractStrings(prog, idx, opts.Lossy, c)
	base := opts.BaseOr(prog.FlowID)

	names := []string{base + ".strings.csv"}
	if len(opts.Locales) > 0 {
		locales := slices.Clone(opts.Locales)
		slices.Sort(locales)
		names = names[:0]
		for _, loc := range locales {
			names = append(names, fmt.Sprintf("%s.strings.%s.csv", base, loc))
		}
	}

	content, err := stringsCSV(rows)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(names))
	for _, name := range names {
		files = append(files, File{Name: name, Content: content})
	}
	return files, nil
}

func stringsCSV(rows []StringRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"key", "source"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Key, r.Text}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write strings table: %w", err)
	}
	return buf.Bytes(), nil
}
