package response

import (
	"regexp"
	"strings"
)

// Tag is the role the classifier assigns to a single line.
type Tag int

const (
	TagNone          Tag = iota // no preceding line
	TagFenceOpen                // ```r, ```{r chunk}, ```
	TagFenceClose               // bare ``` while inside a fence
	TagSectionMarker            // === Title ===
	TagProse                    // narrative text outside a fence
	TagCodeLike                 // fence content that looks like source
	TagOutputLike               // fence content matching a noise signature
	TagBlank                    // empty or whitespace-only line
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagFenceOpen:
		return "fence-open"
	case TagFenceClose:
		return "fence-close"
	case TagSectionMarker:
		return "section-marker"
	case TagProse:
		return "prose"
	case TagCodeLike:
		return "code-like"
	case TagOutputLike:
		return "output-like"
	case TagBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// insideFence reports whether a line following a line tagged t sits
// inside an open fence.
func (t Tag) insideFence() bool {
	return t == TagFenceOpen || t == TagCodeLike || t == TagOutputLike
}

var (
	// fenceRe matches a fence line and captures its info string.
	fenceRe = regexp.MustCompile("^\\s*(?:`{3,}|~{3,})\\s*(.*?)\\s*$")
	// hintRe pulls the language token out of an info string: "r", "{r setup}", "python3".
	hintRe = regexp.MustCompile(`^\{?\s*([A-Za-z][\w.+#-]*)`)
	// sectionRe matches "=== Title ===" markers.
	sectionRe = regexp.MustCompile(`^\s*={3,}\s*(.*?)\s*={3,}\s*$`)
)

// parseFence reports whether line is a fence marker and returns its
// language hint ("" for a bare fence).
func parseFence(line string) (hint string, ok bool) {
	m := fenceRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	info := m[1]
	// ```inline``` is inline code, not a fence.
	if strings.ContainsAny(info, "`~") {
		return "", false
	}
	if info == "" {
		return "", true
	}
	h := hintRe.FindStringSubmatch(info)
	if h == nil {
		// Fence followed by punctuation only, e.g. "``` ---": treat as bare.
		return "", true
	}
	return strings.ToLower(h[1]), true
}

// parseSection returns the title of a "=== Title ===" marker.
func parseSection(line string) (title string, ok bool) {
	m := sectionRe.FindStringSubmatch(line)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// Classify tags line given the tag of the nearest preceding non-blank
// line (TagNone at the start of input). Rules are checked in order and
// the first match wins. A bare fence opens a block unless prev says we
// are already inside one, in which case it closes it.
func Classify(line string, prev Tag) Tag {
	if hint, ok := parseFence(line); ok {
		if hint == "" && prev.insideFence() {
			return TagFenceClose
		}
		return TagFenceOpen
	}
	if _, ok := parseSection(line); ok {
		return TagSectionMarker
	}
	if strings.TrimSpace(line) == "" {
		return TagBlank
	}
	if prev.insideFence() {
		if _, noisy := MatchNoise(line); noisy {
			return TagOutputLike
		}
		return TagCodeLike
	}
	return TagProse
}
