package response

import (
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name: "tagged fence filters console noise",
			input: lines(
				"Here:",
				"```r",
				"library(dplyr)",
				"",
				"Attaching package: 'dplyr'",
				"df %>% filter(x > 1)",
				"[1] 3",
				"```",
				"Done.",
			),
			want:   lines("library(dplyr)", "df %>% filter(x > 1)"),
			wantOK: true,
		},
		{
			name:   "tagged fences concatenate in order",
			input:  lines("```r", "x <- 1", "```", "then", "```{r}", "y <- x + 1", "```"),
			want:   lines("x <- 1", "y <- x + 1"),
			wantOK: true,
		},
		{
			name:   "mislabeled fence is still considered",
			input:  lines("```python", "x <- c(1, 2)", "mean(x)", "```"),
			want:   lines("x <- c(1, 2)", "mean(x)"),
			wantOK: true,
		},
		{
			name:   "bare fence falls back to segmentation",
			input:  lines("Run:", "```", "x <- 1", "print(x)", "```"),
			want:   lines("x <- 1", "print(x)"),
			wantOK: true,
		},
		{
			name:   "unterminated tagged fence runs to end of input",
			input:  lines("```r", "x <- 1", "y <- x + 1"),
			want:   lines("x <- 1", "y <- x + 1"),
			wantOK: true,
		},
		{
			name:   "unterminated tagged fence ends at the next opener",
			input:  lines("```r", "x <- 1", "", "Some prose here.", "", "```python", "print(1)", "```", ""),
			want:   lines("x <- 1", "print(1)"),
			wantOK: true,
		},
		{
			name:   "tilde fence",
			input:  lines("Intro text.", "", "~~~r", "x <- 1", "~~~", "", "More text."),
			want:   "x <- 1",
			wantOK: true,
		},
		{
			name: "strong noise discards a whole block",
			input: lines(
				"```",
				`install.packages("dplyr")`,
				"trying URL 'https://cran.r-project.org/src/contrib/dplyr.tar.gz'",
				"```",
				"```",
				"y <- 2",
				"```",
			),
			want:   "y <- 2",
			wantOK: true,
		},
		{
			name:   "fence labeled as output is skipped",
			input:  lines("Output:", "```", "x <- 5", "```", "Code:", "```", "z <- 3", "```"),
			want:   "z <- 3",
			wantOK: true,
		},
		{
			name:   "only output inside a tagged fence",
			input:  lines("```r", "[1] 5", "```"),
			wantOK: false,
		},
		{
			name:   "prose only",
			input:  "Just prose, nothing to run.",
			wantOK: false,
		},
		{
			name:   "empty",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Extract ok = %v, want %v (code %q)", ok, tt.wantOK, got)
			}
			if got != tt.want {
				t.Errorf("Extract =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestDiscardReason(t *testing.T) {
	tests := []struct {
		name   string
		blocks []Block
		reason string
		ok     bool
	}{
		{
			name:   "index only",
			blocks: []Block{{Kind: KindCodeFence, Lines: []string{"[1] 1 2", "", "[2] 3"}}},
			reason: "index-only",
			ok:     true,
		},
		{
			name:   "path",
			blocks: []Block{{Kind: KindCodeFence, Lines: []string{"x <- 1", "/usr/local/lib/R"}}},
			reason: "path",
			ok:     true,
		},
		{
			name: "label two blocks back",
			blocks: []Block{
				{Kind: KindProse, Lines: []string{"**Expected output:**"}},
				{Kind: KindOutputFence, Lines: []string{"[1] 1"}},
				{Kind: KindCodeFence, Lines: []string{"x <- 1"}},
			},
			reason: "output-label",
			ok:     true,
		},
		{
			name: "label too far back",
			blocks: []Block{
				{Kind: KindProse, Lines: []string{"Output:"}},
				{Kind: KindOutputFence, Lines: []string{"[1] 1"}},
				{Kind: KindOutputFence, Lines: []string{"[1] 2"}},
				{Kind: KindCodeFence, Lines: []string{"x <- 1"}},
			},
		},
		{
			name: "sentence announcing output",
			blocks: []Block{
				{Kind: KindProse, Lines: []string{"Running this gives the following:"}},
				{Kind: KindCodeFence, Lines: []string{"x <- 1"}},
			},
			reason: "output-label",
			ok:     true,
		},
		{
			name: "ordinary lead-in",
			blocks: []Block{
				{Kind: KindProse, Lines: []string{"Fit the model:"}},
				{Kind: KindCodeFence, Lines: []string{"fit <- lm(y ~ x)"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := DiscardReason(tt.blocks, len(tt.blocks)-1)
			if reason != tt.reason || ok != tt.ok {
				t.Errorf("DiscardReason = (%q, %v), want (%q, %v)", reason, ok, tt.reason, tt.ok)
			}
		})
	}
}

func TestSelectCode_SkipsNonCodeBlocks(t *testing.T) {
	blocks := []Block{
		{Kind: KindProse, Lines: []string{"x <- 1"}},
		{Kind: KindOutputFence, Lines: []string{"y <- 2"}},
		{Kind: KindResultSection, Title: "Run", Lines: []string{"z <- 3"}},
		{Kind: KindCodeFence, Lines: []string{"w <- 4"}},
	}
	got, ok := SelectCode(blocks)
	if !ok || got != "w <- 4" {
		t.Errorf("SelectCode = (%q, %v), want (%q, true)", got, ok, "w <- 4")
	}
}

func TestExtractRendered(t *testing.T) {
	raw := lines("Load it:", "```", `df <- read.csv("x.csv")`, "summary(df)", "```", "")
	want := lines(`df <- read.csv("x.csv")`, "summary(df)")

	t.Run("plain", func(t *testing.T) {
		got, ok := ExtractRendered(Render(Segment(raw)))
		if !ok || got != want {
			t.Errorf("ExtractRendered = (%q, %v), want (%q, true)", got, ok, want)
		}
	})

	t.Run("styled", func(t *testing.T) {
		red := func(s string) string { return "\x1b[31m" + s + "\x1b[0m" }
		r := Renderer{Decorator: Decorator{
			Border: red,
			Label:  func(_ Kind, s string) string { return red(s) },
		}}
		got, ok := ExtractRendered(r.Render(Segment(raw)))
		if !ok || got != want {
			t.Errorf("ExtractRendered = (%q, %v), want (%q, true)", got, ok, want)
		}
	})
}

func TestParseFrames(t *testing.T) {
	blocks := Segment(lines(
		"Intro",
		"```r",
		"x <- 1",
		"```",
		"[1] 1",
		"=== Summary ===",
		"fine",
		"```",
		"never closed",
	))
	got := ParseFrames(Render(blocks))

	want := []Block{
		{Kind: KindProse, Lines: []string{"Intro"}},
		{Kind: KindCodeFence, Lang: "r", Lines: []string{"x <- 1"}},
		{Kind: KindOutputFence, Lines: []string{"[1] 1"}},
		{Kind: KindResultSection, Title: "Summary", Lines: []string{"fine"}},
		{Kind: KindCodeFence, Lines: []string{"never closed"}, Unterminated: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseFrames mismatch (-want +got):\n%s", diff)
	}
}

func TestVerdicts(t *testing.T) {
	t.Run("fenced pass", func(t *testing.T) {
		got := Verdicts(lines("```r", "x <- 1", "[1] 1", "```"))
		want := []Verdict{
			{Line: "x <- 1", Executable: true, Rule: "assignment"},
			{Line: "[1] 1", Rule: "index-output"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Verdicts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("discarded block", func(t *testing.T) {
		got := Verdicts(lines("Output:", "```", "x <- 5", "```"))
		want := []Verdict{{Line: "x <- 5", Rule: "block:output-label"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Verdicts mismatch (-want +got):\n%s", diff)
		}
	})
}

// Extract and Explain must agree with Segment on where fences are, even
// when fences are malformed: every extracted line comes from a CodeFence
// block and none of them is left in the explanation.
func TestExtractExplain_MalformedFences(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		code        string
		explanation string
	}{
		{
			name:  "unclosed tagged fence cut short by another opener",
			input: lines("```r", "x <- 1", "", "Some prose here.", "", "```python", "print(1)", "```", ""),
			code:  lines("x <- 1", "print(1)"),
		},
		{
			name:        "unclosed tagged fence",
			input:       lines("Intro", "```r", "x <- 1", "y <- x + 1"),
			code:        lines("x <- 1", "y <- x + 1"),
			explanation: "Intro",
		},
		{
			name:        "unclosed bare fence",
			input:       lines("Run this:", "```", "a <- 1", "plot(a)"),
			code:        lines("a <- 1", "plot(a)"),
			explanation: "Run this:",
		},
		{
			name:        "tilde fence",
			input:       lines("Intro text.", "", "~~~r", "x <- 1", "~~~", "", "More text."),
			code:        "x <- 1",
			explanation: lines("Intro text.", "", "More text."),
		},
		{
			name:        "tilde fence closing a backtick fence",
			input:       lines("Steps:", "```r", "n <- 10", "~~~", "Then plot it."),
			code:        "n <- 10",
			explanation: lines("Steps:", "", "Then plot it."),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := Extract(tt.input)
			if code != tt.code || ok != (tt.code != "") {
				t.Errorf("Extract = (%q, %v), want %q", code, ok, tt.code)
			}
			text, ok := Explain(tt.input)
			if text != tt.explanation || ok != (tt.explanation != "") {
				t.Errorf("Explain = (%q, %v), want %q", text, ok, tt.explanation)
			}

			var fenced []string
			for _, b := range Segment(tt.input) {
				if b.Kind == KindCodeFence {
					fenced = append(fenced, b.Lines...)
				}
			}
			explained := strings.Split(text, "\n")
			for _, line := range strings.Split(code, "\n") {
				if !slices.Contains(fenced, line) {
					t.Errorf("extracted %q is not inside any CodeFence block", line)
				}
				if slices.Contains(explained, line) {
					t.Errorf("explanation repeats code line %q", line)
				}
			}
		})
	}
}
