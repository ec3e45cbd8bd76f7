package ui

import (
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultExplanationWidth is used when the caller has no width.
const DefaultExplanationWidth = 80

// ExplanationStyle says how RenderExplanation lays out text.
type ExplanationStyle struct {
	Width    int  // 0 uses DefaultExplanationWidth
	Markdown bool // glamour rendering; implies styled output
	Wrap     bool // word-wrap plain text to Width
}

// consoleLineRe matches printed R values kept in an explanation.
var consoleLineRe = regexp.MustCompile(`^\s*(\[\d+\]|#>)`)

type rendererKey struct {
	width int
	theme *Theme
}

// glamour renderers are slow to build; one per width and theme.
var renderers sync.Map // rendererKey -> *glamour.TermRenderer

func explanationRenderer(width int) (*glamour.TermRenderer, error) {
	key := rendererKey{width: width, theme: GetTheme()}
	if r, ok := renderers.Load(key); ok {
		return r.(*glamour.TermRenderer), nil
	}

	style := GlamourStyleFromTheme(key.theme)
	margin := uint(0)
	style.Document.Margin = &margin
	style.CodeBlock.Margin = &margin

	r, err := glamour.NewTermRenderer(glamour.WithStyles(style), glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	actual, _ := renderers.LoadOrStore(key, r)
	return actual.(*glamour.TermRenderer), nil
}

// RenderExplanation lays out an explanation for display. Markdown falls
// back to plain text if glamour fails.
func RenderExplanation(text string, style ExplanationStyle) string {
	if text == "" {
		return ""
	}
	width := style.Width
	if width <= 0 {
		width = DefaultExplanationWidth
	}

	if style.Markdown {
		r, err := explanationRenderer(width)
		if err == nil {
			var out string
			if out, err = r.Render(fenceConsoleOutput(text)); err == nil {
				return strings.TrimSpace(out)
			}
		}
	}
	if style.Wrap {
		return wordwrap.String(text, width)
	}
	return text
}

// fenceConsoleOutput puts runs of printed R values in code fences so
// markdown does not reflow them into one paragraph.
func fenceConsoleOutput(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+2)
	inRun := false
	for _, line := range lines {
		isOutput := consoleLineRe.MatchString(line)
		switch {
		case isOutput && !inRun:
			out = append(out, "```")
		case !isOutput && inRun:
			out = append(out, "```")
		}
		inRun = isOutput
		out = append(out, line)
	}
	if inRun {
		out = append(out, "```")
	}
	return strings.Join(out, "\n")
}
