package response

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// lines joins its arguments with newlines so fences can appear in test input.
func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Block
	}{
		{
			name: "prose code table section",
			input: lines(
				"Here is how to load the data:",
				"",
				"```r",
				"library(readr)",
				`df <- read_csv("data.csv")`,
				"```",
				"",
				"| name | value |",
				"|---|---|",
				"| a | 1 |",
				"",
				"=== Summary ===",
				"Rows: 1",
			),
			want: []Block{
				{Kind: KindProse, Lines: []string{"Here is how to load the data:"}},
				{Kind: KindCodeFence, Lang: "r", Open: "```r", Close: "```", Lines: []string{"library(readr)", `df <- read_csv("data.csv")`}},
				{Kind: KindTableRow, Cells: []string{"name", "value"}, Raw: "| name | value |", Rule: "|---|---|", Table: 1},
				{Kind: KindTableRow, Cells: []string{"a", "1"}, Raw: "| a | 1 |", Table: 1},
				{Kind: KindResultSection, Title: "Summary", Marker: "=== Summary ===", Lines: []string{"Rows: 1"}},
			},
		},
		{
			name:  "unterminated fence",
			input: lines("intro", "```r", "x <- 1", "y <- 2"),
			want: []Block{
				{Kind: KindProse, Lines: []string{"intro"}},
				{Kind: KindCodeFence, Lang: "r", Open: "```r", Lines: []string{"x <- 1", "y <- 2"}, Unterminated: true},
			},
		},
		{
			name:  "fence of console output",
			input: lines("```", "[1] 5", "[1] 6", "```"),
			want: []Block{
				{Kind: KindOutputFence, Open: "```", Close: "```", Lines: []string{"[1] 5", "[1] 6"}},
			},
		},
		{
			name:  "unclosed fence of console output stays code",
			input: lines("```", "Attaching package: 'dplyr'", "[1] 2"),
			want: []Block{
				{Kind: KindCodeFence, Open: "```", Lines: []string{"Attaching package: 'dplyr'", "[1] 2"}, Unterminated: true},
			},
		},
		{
			name:  "output directly after code",
			input: lines("```r", "x <- 1:3", "```", "[1] 1 2 3", "#> done", "Done."),
			want: []Block{
				{Kind: KindCodeFence, Lang: "r", Open: "```r", Close: "```", Lines: []string{"x <- 1:3"}},
				{Kind: KindOutputFence, Attached: true, Lines: []string{"[1] 1 2 3", "#> done"}},
				{Kind: KindProse, Lines: []string{"Done."}},
			},
		},
		{
			name:  "section directly after code",
			input: lines("```r", "summary(fit)", "```", "=== Output ===", "Residuals: 0.2"),
			want: []Block{
				{Kind: KindCodeFence, Lang: "r", Open: "```r", Close: "```", Lines: []string{"summary(fit)"}},
				{Kind: KindResultSection, Title: "Output", Marker: "=== Output ===", Lines: []string{"Residuals: 0.2"}, Attached: true},
			},
		},
		{
			name:  "blank run closes section",
			input: lines("=== A ===", "line", "", "", "", "after"),
			want: []Block{
				{Kind: KindResultSection, Title: "A", Marker: "=== A ===", Lines: []string{"line"}},
				{Kind: KindProse, Lines: []string{"after"}},
			},
		},
		{
			name:  "short blank run stays in section",
			input: lines("=== A ===", "one", "", "two"),
			want: []Block{
				{Kind: KindResultSection, Title: "A", Marker: "=== A ===", Lines: []string{"one", "", "two"}},
			},
		},
		{
			name:  "fence closes section",
			input: lines("=== A ===", "foo", "```r", "x <- 1", "```"),
			want: []Block{
				{Kind: KindResultSection, Title: "A", Marker: "=== A ===", Lines: []string{"foo"}},
				{Kind: KindCodeFence, Lang: "r", Open: "```r", Close: "```", Lines: []string{"x <- 1"}},
			},
		},
		{
			name:  "tagged fence inside fence",
			input: lines("```r", "x <- 1", "```python", "print(1)", "```"),
			want: []Block{
				{Kind: KindCodeFence, Lang: "r", Open: "```r", Lines: []string{"x <- 1"}, Unterminated: true},
				{Kind: KindCodeFence, Lang: "python", Open: "```python", Close: "```", Lines: []string{"print(1)"}},
			},
		},
		{
			name:  "separator without header row",
			input: lines("|---|---|", "| 1 | 2 |"),
			want: []Block{
				{Kind: KindTableRow, Rule: "|---|---|", Table: 1},
				{Kind: KindTableRow, Cells: []string{"1", "2"}, Raw: "| 1 | 2 |", Table: 1},
			},
		},
		{
			name:  "blank line splits tables",
			input: lines("| a |", "", "| b |"),
			want: []Block{
				{Kind: KindTableRow, Cells: []string{"a"}, Raw: "| a |", Table: 1},
				{Kind: KindTableRow, Cells: []string{"b"}, Raw: "| b |", Table: 2},
			},
		},
		{
			name:  "no structure",
			input: lines("just some text", "with no structure"),
			want: []Block{
				{Kind: KindProse, Lines: []string{"just some text", "with no structure"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Segment mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSegment_Empty(t *testing.T) {
	if got := Segment(""); len(got) != 0 {
		t.Errorf("Segment(\"\") = %v, want no blocks", got)
	}
	if got := Segment("\n\n  \n"); len(got) != 0 {
		t.Errorf("Segment(whitespace) = %v, want no blocks", got)
	}
}

func TestSegment_CRLF(t *testing.T) {
	got := Segment("```r\r\nx <- 1\r\n```\r\n")
	if len(got) != 1 || got[0].Kind != KindCodeFence || got[0].Lines[0] != "x <- 1" {
		t.Errorf("CRLF input segmented as %+v", got)
	}
}

func TestSegment_UnclosedFenceKeepsEverything(t *testing.T) {
	input := lines("```", "a <- 1", "", "b <- a + 1", "plot(b)")
	blocks := Segment(input)

	fences := 0
	for _, b := range blocks {
		if b.Kind == KindCodeFence {
			fences++
			if !b.Unterminated {
				t.Error("fence closed by end of input should be marked unterminated")
			}
			want := []string{"a <- 1", "", "b <- a + 1", "plot(b)"}
			if diff := cmp.Diff(want, b.Lines); diff != "" {
				t.Errorf("fence lines mismatch (-want +got):\n%s", diff)
			}
		}
	}
	if fences != 1 {
		t.Errorf("got %d code fences, want 1", fences)
	}
}

func TestSegment_ContentPreserved(t *testing.T) {
	inputs := []string{
		lines("Intro", "", "```r", "x <- 1", "```", "[1] 1", "", "=== Results ===", "ok", "", "| a | b |", "|---|---|", "| 1 | 2 |", "bye"),
		lines("```", "```", "```"),
		lines("=== ===", "stray ``` marker", "```r", "never closed", "", ""),
		lines("|---|---|", "text", "~~~", "[1] 2", "~~~", "=== S ===", "", "", "", "", "tail"),
		lines("```r", "x", "```python", "y", "```", "#> out", "=== Next ==="),
		"",
	}

	for i, input := range inputs {
		var got []string
		for _, b := range Segment(input) {
			got = append(got, nonBlank(b.Source())...)
		}
		want := nonBlank(SplitLines(input))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("input %d: content not preserved (-want +got):\n%s", i, diff)
		}
	}
}

func nonBlank(ls []string) []string {
	var out []string
	for _, l := range ls {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
