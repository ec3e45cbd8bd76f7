package response

import (
	"regexp"
	"strings"
)

var blankRunRe = regexp.MustCompile(`\n(?:[ \t]*\n){3,}`)

// Explain returns the prose of raw with every fenced span removed, runs
// of three or more blank lines collapsed to one, and outer whitespace
// trimmed. ok is false when nothing is left.
//
// Fences are found the way the Segmenter finds them, so an unclosed fence
// is removed up to the end of input and a ~~~ fence is removed like a
// backtick one. No line Extract can return survives here.
func Explain(raw string) (text string, ok bool) {
	lines := SplitLines(raw)
	fenced := make([]bool, len(lines))
	for _, f := range scanFences(lines) {
		for i := f.Open; i < f.End; i++ {
			fenced[i] = true
		}
	}

	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		switch {
		case !fenced[i]:
			kept = append(kept, line)
		case i == 0 || !fenced[i-1]:
			kept = append(kept, "")
		}
	}

	s := strings.Join(kept, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	return s, s != ""
}
