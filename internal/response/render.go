package response

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	// DefaultFrameWidth is the visible width of a frame's top and bottom border.
	DefaultFrameWidth = 60
	// DefaultMinColumnWidth is the narrowest a table column is padded to.
	DefaultMinColumnWidth = 3
)

// Frame glyphs. Nothing outside the renderer and frame parser should
// depend on them.
const (
	glyphTopLeft     = "┌"
	glyphTopRight    = "┐"
	glyphBottomLeft  = "└"
	glyphBottomRight = "┘"
	glyphHorizontal  = "─"
	glyphVertical    = "│"

	labelCode   = "CODE"
	labelOutput = "OUTPUT"
	labelOpen   = "(unclosed)"
)

// Decorator styles frame glyphs and labels, typically with ANSI colour.
// Nil funcs leave text unchanged.
type Decorator struct {
	Border func(s string) string
	Label  func(kind Kind, s string) string
}

func (d Decorator) border(s string) string {
	if d.Border == nil {
		return s
	}
	return d.Border(s)
}

func (d Decorator) label(kind Kind, s string) string {
	if d.Label == nil {
		return s
	}
	return d.Label(kind, s)
}

// Renderer turns blocks into framed terminal text. It only decorates;
// every decision about block boundaries is made by the Segmenter.
type Renderer struct {
	Width          int
	MinColumnWidth int
	Decorator      Decorator
}

// Render renders blocks with a default Renderer.
func Render(blocks []Block) string {
	return Renderer{}.Render(blocks)
}

// Render returns the display text for blocks. The same blocks always
// render to the same text.
func (r Renderer) Render(blocks []Block) string {
	var lines []string
	for i := 0; i < len(blocks); i++ {
		b := blocks[i]
		switch b.Kind {
		case KindTableRow:
			j := i + 1
			for j < len(blocks) && blocks[j].Kind == KindTableRow && blocks[j].Table == b.Table {
				j++
			}
			lines = append(lines, r.table(blocks[i:j])...)
			i = j - 1
		case KindProse:
			lines = append(lines, b.Lines...)
		default:
			lines = append(lines, r.frame(b)...)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (r Renderer) width() int {
	if r.Width > 0 {
		return r.Width
	}
	return DefaultFrameWidth
}

func (r Renderer) minColumn() int {
	if r.MinColumnWidth > 0 {
		return r.MinColumnWidth
	}
	return DefaultMinColumnWidth
}

// Label returns the frame title for b.
func Label(b Block) string {
	switch b.Kind {
	case KindCodeFence:
		label := labelCode
		if b.Lang != "" {
			label = strings.ToUpper(b.Lang) + " " + labelCode
		}
		if b.Unterminated {
			label += " " + labelOpen
		}
		return label
	case KindOutputFence:
		return labelOutput
	case KindResultSection:
		if b.Attached {
			return labelOutput + ": " + b.Title
		}
		return b.Title
	default:
		return ""
	}
}

func (r Renderer) frame(b Block) []string {
	d := r.Decorator
	width := r.width()
	label := Label(b)

	// "┌─ " + label + " " + fill + "┐"
	fill := width - 3 - runewidth.StringWidth(label) - 2
	if fill < 1 {
		fill = 1
	}
	top := d.border(glyphTopLeft+glyphHorizontal+" ") +
		d.label(b.Kind, label) +
		d.border(" "+strings.Repeat(glyphHorizontal, fill)+glyphTopRight)

	out := make([]string, 0, len(b.Lines)+2)
	out = append(out, top)
	prefix := d.border(glyphVertical) + " "
	for _, line := range b.Lines {
		out = append(out, prefix+line)
	}
	out = append(out, d.border(glyphBottomLeft+strings.Repeat(glyphHorizontal, width-2)+glyphBottomRight))
	return out
}

// table renders rows that share a table id with aligned columns.
func (r Renderer) table(rows []Block) []string {
	d := r.Decorator
	cells := make([][]string, len(rows))
	var widths []int
	for i, row := range rows {
		for _, c := range row.Cells {
			if c == "" {
				continue
			}
			cells[i] = append(cells[i], c)
		}
		for col, c := range cells[i] {
			if col == len(widths) {
				widths = append(widths, r.minColumn())
			}
			if w := runewidth.StringWidth(c); w > widths[col] {
				widths[col] = w
			}
		}
	}

	sep := " " + glyphVertical + " "
	total := 0
	for _, w := range widths {
		total += w
	}
	if len(widths) > 1 {
		total += runewidth.StringWidth(sep) * (len(widths) - 1)
	}
	if total == 0 {
		total = r.minColumn()
	}
	rule := d.border(strings.Repeat(glyphHorizontal, total))

	var out []string
	for i, row := range rows {
		if row.Raw != "" {
			padded := make([]string, len(cells[i]))
			for col, c := range cells[i] {
				padded[col] = runewidth.FillRight(c, widths[col])
			}
			out = append(out, strings.TrimRight(strings.Join(padded, d.border(sep)), " "))
		}
		if row.Rule != "" {
			out = append(out, rule)
		}
	}
	return out
}
