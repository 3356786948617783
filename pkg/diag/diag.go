// Package diag collects non-fatal warnings and fatal errors produced during
// one transpilation run.
//
// A [Collector] is scoped to a single run and discarded after its contents
// are returned to the caller. Warnings never abort a run; they ride along
// with the produced files so the caller can surface them. Fatal conditions
// are returned as errors by the producing component, not stored here.
package diag

import (
	"fmt"
	"slices"
)

// Severity classifies a diagnostic.
type Severity string

// Diagnostic severities.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic describes one non-fatal finding from a run: an unsupported
// operator, a lossy conversion, an unreachable node. Construct names the
// source construct that triggered it (e.g. the operator name), so callers
// can group or filter findings.
type Diagnostic struct {
	Severity  Severity `json:"severity"`
	NodeID    string   `json:"node_id,omitempty"`
	Message   string   `json:"message"`
	Construct string   `json:"construct,omitempty"`
}

func (d Diagnostic) String() string {
	if d.NodeID != "" {
		return fmt.Sprintf("%s: node %s: %s", d.Severity, d.NodeID, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Collector accumulates diagnostics during one run. The zero value is ready
// to use. A Collector is not safe for concurrent use; each run owns its own.
type Collector struct {
	diags []Diagnostic
}

// Warnf records a warning diagnostic. nodeID and construct may be empty when
// the finding is not tied to a specific node or construct.
func (c *Collector) Warnf(nodeID, construct, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Severity:  SeverityWarning,
		NodeID:    nodeID,
		Construct: construct,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Errorf records an error-severity diagnostic. Used for findings that are
// reported but already handled (the run still degrades gracefully); truly
// fatal conditions are returned as Go errors instead.
func (c *Collector) Errorf(nodeID, construct, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Severity:  SeverityError,
		NodeID:    nodeID,
		Construct: construct,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Add records a prebuilt diagnostic, e.g. one replayed from a cache entry.
func (c *Collector) Add(d Diagnostic) {
	c.diags = append(c.diags, d)
}

// All returns a copy of the collected diagnostics in recording order.
func (c *Collector) All() []Diagnostic {
	return slices.Clone(c.diags)
}

// Warnings returns only the warning-severity diagnostics.
func (c *Collector) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range c.diags {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int { return len(c.diags) }

// Merge appends all diagnostics from other, preserving order.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	c.diags = append(c.diags, other.diags...)
}
