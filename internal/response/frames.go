package response

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

var frameTopRe = regexp.MustCompile(`^` + glyphTopLeft + glyphHorizontal + ` (.*?) ` + glyphHorizontal + `+` + glyphTopRight + `\s*$`)

// ParseFrames reads text previously produced by a Renderer back into
// blocks so already-displayed responses can still be mined for code.
// ANSI styling is ignored. Table layout is not recovered; table lines
// come back as prose.
func ParseFrames(text string) []Block {
	var (
		blocks  []Block
		prose   []string
		cur     *Block
		flushPr = func() {
			if lines := trimBlankEdges(prose); len(lines) > 0 {
				blocks = append(blocks, Block{Kind: KindProse, Lines: lines})
			}
			prose = nil
		}
	)

	for _, raw := range SplitLines(text) {
		line := ansi.Strip(raw)
		if cur != nil {
			if strings.HasPrefix(line, glyphBottomLeft) {
				blocks = append(blocks, *cur)
				cur = nil
				continue
			}
			content := strings.TrimPrefix(line, glyphVertical)
			content = strings.TrimPrefix(content, " ")
			cur.Lines = append(cur.Lines, content)
			continue
		}
		if m := frameTopRe.FindStringSubmatch(line); m != nil {
			flushPr()
			b := blockFromLabel(m[1])
			cur = &b
			continue
		}
		prose = append(prose, line)
	}
	if cur != nil {
		cur.Unterminated = true
		blocks = append(blocks, *cur)
	}
	flushPr()
	return blocks
}

// blockFromLabel inverts Label.
func blockFromLabel(label string) Block {
	unterminated := false
	if rest, ok := strings.CutSuffix(label, " "+labelOpen); ok {
		label = rest
		unterminated = true
	}
	switch {
	case label == labelCode:
		return Block{Kind: KindCodeFence, Unterminated: unterminated}
	case strings.HasSuffix(label, " "+labelCode):
		lang := strings.TrimSuffix(label, " "+labelCode)
		return Block{Kind: KindCodeFence, Lang: strings.ToLower(lang), Unterminated: unterminated}
	case label == labelOutput:
		return Block{Kind: KindOutputFence}
	case strings.HasPrefix(label, labelOutput+": "):
		return Block{Kind: KindResultSection, Title: strings.TrimPrefix(label, labelOutput+": "), Attached: true}
	default:
		return Block{Kind: KindResultSection, Title: label}
	}
}
