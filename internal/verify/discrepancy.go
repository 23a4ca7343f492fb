package verify

import "fmt"

// Kind categorizes a discrepancy between a document and an expectation.
type Kind int

const (
	// Structural covers wrong element counts, missing required elements and
	// duplicate unit keys.
	Structural Kind = iota
	// Value covers elements that exist but carry the wrong text or
	// attribute value.
	Value
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case Structural:
		return "Structural"
	case Value:
		return "Value"
	default:
		return "Unknown"
	}
}

// Discrepancy is one independent verification failure. The verifier reports
// every failing unit/field pair instead of stopping at the first, so a run
// yields a flat list of these.
type Discrepancy struct {
	Kind   Kind
	Unit   string // key of the offending unit, empty for document-level findings
	Field  string
	Want   string
	Got    string
	Detail string
}

// String formats the discrepancy for reports and logs.
func (d Discrepancy) String() string {
	scope := d.Field
	if d.Unit != "" {
		scope = d.Unit + "." + d.Field
	}
	if d.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s (want %q, got %q)", d.Kind, scope, d.Detail, d.Want, d.Got)
	}
	return fmt.Sprintf("[%s] %s: want %q, got %q", d.Kind, scope, d.Want, d.Got)
}
