package response

import "strings"

// Kind identifies the semantic role of a Block.
type Kind int

const (
	KindProse Kind = iota
	KindCodeFence
	KindOutputFence
	KindResultSection
	KindTableRow
)

func (k Kind) String() string {
	switch k {
	case KindProse:
		return "prose"
	case KindCodeFence:
		return "code"
	case KindOutputFence:
		return "output"
	case KindResultSection:
		return "section"
	case KindTableRow:
		return "table-row"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind serialize by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Block is a contiguous span of a response with one semantic role.
// Which fields are meaningful depends on Kind.
type Block struct {
	Kind  Kind     `json:"kind" yaml:"kind"`
	Lines []string `json:"lines,omitempty" yaml:"lines,omitempty"`

	// CodeFence and OutputFence.
	Lang  string `json:"lang,omitempty" yaml:"lang,omitempty"`
	Open  string `json:"-" yaml:"-"` // opening marker as written
	Close string `json:"-" yaml:"-"` // closing marker as written, "" if closed implicitly
	// Unterminated is set when end of input (or a new opening fence)
	// closed the block instead of a fence-close marker.
	Unterminated bool `json:"unterminated,omitempty" yaml:"unterminated,omitempty"`
	// Attached marks output that directly follows a code fence.
	Attached bool `json:"attached,omitempty" yaml:"attached,omitempty"`

	// ResultSection.
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Marker string `json:"-" yaml:"-"`

	// TableRow.
	Cells []string `json:"cells,omitempty" yaml:"cells,omitempty"`
	Table int      `json:"table,omitempty" yaml:"table,omitempty"` // rows sharing a Table id render together
	Raw   string   `json:"-" yaml:"-"`
	// Rule is the separator row written after this row, if any. A row
	// carrying a Rule ends the table header.
	Rule string `json:"-" yaml:"-"`
}

// Source returns the input lines this block was built from, including
// fence and section markers, in their original order.
func (b Block) Source() []string {
	var out []string
	switch b.Kind {
	case KindCodeFence, KindOutputFence:
		if b.Open != "" {
			out = append(out, b.Open)
		}
		out = append(out, b.Lines...)
		if b.Close != "" {
			out = append(out, b.Close)
		}
	case KindResultSection:
		if b.Marker != "" {
			out = append(out, b.Marker)
		}
		out = append(out, b.Lines...)
	case KindTableRow:
		if b.Raw != "" {
			out = append(out, b.Raw)
		}
		if b.Rule != "" {
			out = append(out, b.Rule)
		}
	default:
		out = append(out, b.Lines...)
	}
	return out
}

// Text returns the block's content lines joined by newlines, without
// markers.
func (b Block) Text() string {
	if b.Kind == KindTableRow {
		return strings.Join(b.Cells, " | ")
	}
	return strings.Join(b.Lines, "\n")
}

// IsHeaderBoundary reports whether a table rule follows this row.
func (b Block) IsHeaderBoundary() bool {
	return b.Kind == KindTableRow && b.Rule != ""
}
