package response

import (
	"regexp"
	"strings"
)

// outputLabelRes match a prose line that announces the following fence
// as output or an error rather than code.
var outputLabelRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(expected |sample |example |console |r )?(output|error|errors|result|results|error message|traceback)\s*:?$`),
	regexp.MustCompile(`(?i)\b(this|which|it) (will )?(prints?|produces|shows|outputs|returns|gives|displays)( the)?( following)? (output|error|result)s?\b.*:$`),
	regexp.MustCompile(`(?i)\b(you should see|you'll see|you will see|the output (is|will be|looks like)|running (this|it) (gives|produces|shows))\b.*:$`),
}

// Extract returns the executable code in raw, trying the fenced pass
// first and the segmented pass second. ok is false when neither finds
// anything; that is a normal answer, not an error.
func Extract(raw string) (code string, ok bool) {
	return Segmenter{}.Extract(raw)
}

// Extract is the package-level Extract using s for the fallback pass.
func (s Segmenter) Extract(raw string) (string, bool) {
	if code, ok := ExtractFenced(raw); ok {
		return code, true
	}
	return s.ExtractSegmented(raw)
}

// ExtractFenced scans raw text for language-tagged fences and keeps the
// plausibly executable lines of their interiors, in order, without blank
// lines. The language hint itself is not trusted: a mislabeled fence is
// still considered and the line filter decides. A tagged fence that never
// closes ends where the Segmenter would end it.
func ExtractFenced(raw string) (string, bool) {
	var kept []string
	for _, interior := range taggedInteriors(SplitLines(raw)) {
		kept = append(kept, executableLines(interior)...)
	}
	return joinCode(kept)
}

// taggedInteriors returns the interior lines of every fence that carries
// a language hint.
func taggedInteriors(lines []string) [][]string {
	var out [][]string
	for _, f := range scanFences(lines) {
		if f.Hint != "" {
			out = append(out, f.Interior(lines))
		}
	}
	return out
}

// ExtractSegmented segments raw and mines its code fences. It covers raw
// text whose fences carry no language hint or never close.
func ExtractSegmented(raw string) (string, bool) {
	return Segmenter{}.ExtractSegmented(raw)
}

// ExtractSegmented is the package-level ExtractSegmented using s.
func (s Segmenter) ExtractSegmented(raw string) (string, bool) {
	return SelectCode(s.Segment(raw))
}

// ExtractRendered mines text previously produced by a Renderer.
func ExtractRendered(rendered string) (string, bool) {
	return SelectCode(ParseFrames(rendered))
}

// SelectCode applies the block-level noise checks to every CodeFence in
// blocks and concatenates the executable lines of the survivors in
// document order.
func SelectCode(blocks []Block) (string, bool) {
	var kept []string
	for i, b := range blocks {
		if b.Kind != KindCodeFence {
			continue
		}
		if _, discard := DiscardReason(blocks, i); discard {
			continue
		}
		kept = append(kept, executableLines(b.Lines)...)
	}
	return joinCode(kept)
}

// DiscardReason reports why the CodeFence at blocks[i] is dropped wholesale,
// if it is.
func DiscardReason(blocks []Block, i int) (string, bool) {
	b := blocks[i]
	allIndex := true
	for _, line := range b.Lines {
		if sig, ok := MatchStrongNoise(line); ok {
			return sig.Name, true
		}
		if strings.TrimSpace(line) != "" && !indexOnlyRe.MatchString(line) {
			allIndex = false
		}
	}
	if allIndex {
		return "index-only", true
	}
	if labeledAsOutput(blocks, i) {
		return "output-label", true
	}
	return "", false
}

// labeledAsOutput looks back at most two blocks for the nearest Prose
// block and checks whether its last line labels what follows as output.
func labeledAsOutput(blocks []Block, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if blocks[j].Kind != KindProse {
			continue
		}
		lines := trimBlankEdges(blocks[j].Lines)
		if len(lines) == 0 {
			return false
		}
		last := normalizeLabel(lines[len(lines)-1])
		for _, re := range outputLabelRes {
			if re.MatchString(last) {
				return true
			}
		}
		return false
	}
	return false
}

// normalizeLabel strips markdown emphasis and heading markers.
func normalizeLabel(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "#> ")
	line = strings.NewReplacer("**", "", "__", "", "*", "", "`", "").Replace(line)
	return strings.TrimSpace(line)
}

func executableLines(lines []string) []string {
	var out []string
	for _, line := range lines {
		if Judge(line).Executable {
			out = append(out, line)
		}
	}
	return out
}

func joinCode(lines []string) (string, bool) {
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// Verdicts returns the per-line verdict for every line the extractor
// would consider: fence interiors of the pass that produces code, or of
// every CodeFence when no pass does.
func Verdicts(raw string) []Verdict {
	var out []Verdict
	if _, ok := ExtractFenced(raw); ok {
		for _, interior := range taggedInteriors(SplitLines(raw)) {
			for _, line := range interior {
				out = append(out, Judge(line))
			}
		}
		return out
	}
	blocks := Segment(raw)
	for i, b := range blocks {
		if b.Kind != KindCodeFence {
			continue
		}
		reason, discard := DiscardReason(blocks, i)
		for _, line := range b.Lines {
			v := Judge(line)
			if discard {
				v.Executable = false
				v.Rule = "block:" + reason
			}
			out = append(out, v)
		}
	}
	return out
}
