package response

import (
	"regexp"
	"strings"
)

// DefaultSectionBlankThreshold is the number of consecutive blank lines a
// result section tolerates; one more closes it.
const DefaultSectionBlankThreshold = 2

var (
	tableRowRe     = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	tableRuleRe    = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$`)
	outputPrefixRe = regexp.MustCompile(`^\s*(#>|\[\d+\])`)
)

// Segmenter splits a raw response into an ordered Block sequence.
// The zero value is ready to use.
type Segmenter struct {
	// SectionBlankThreshold overrides DefaultSectionBlankThreshold when > 0.
	SectionBlankThreshold int
}

// SplitLines splits raw text into lines, normalizing CRLF endings.
func SplitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.Split(raw, "\n")
}

// Segment splits raw into blocks. It never fails: unbalanced fences and
// stray markers produce a best-effort sequence, and text without any
// recognizable structure comes back as a single Prose block.
func (s Segmenter) Segment(raw string) []Block {
	return s.SegmentLines(SplitLines(raw))
}

// SegmentLines is Segment over pre-split lines.
func (s Segmenter) SegmentLines(lines []string) []Block {
	threshold := s.SectionBlankThreshold
	if threshold <= 0 {
		threshold = DefaultSectionBlankThreshold
	}
	sc := &scanner{threshold: threshold, prev: TagNone}
	for _, line := range lines {
		sc.feed(line)
	}
	sc.finish()
	return sc.blocks
}

// Segment splits raw with a default Segmenter.
func Segment(raw string) []Block {
	return Segmenter{}.Segment(raw)
}

type scanState int

const (
	stateOutside scanState = iota
	stateInFence
	stateInSection
	stateInOutput // output lines directly after a closed fence
)

// scanner owns every buffer the segmentation loop mutates. It lives for
// a single Segment call.
type scanner struct {
	threshold int

	state  scanState
	blocks []Block
	prose  []string
	cur    Block
	prev   Tag // tag of the nearest preceding non-blank line

	blankRun    int
	codeLines   int
	outputLines int

	table      int // id of the table being built, 0 if none
	tables     int
	afterFence bool
}

func (sc *scanner) feed(line string) {
	if sc.afterFence {
		sc.afterFence = false
		if outputPrefixRe.MatchString(line) {
			sc.cur = Block{Kind: KindOutputFence, Attached: true, Lines: []string{line}}
			sc.state = stateInOutput
			return
		}
		if title, ok := parseSection(line); ok {
			sc.openSection(line, title, true)
			return
		}
	}

	switch sc.state {
	case stateInFence:
		sc.feedFence(line)
	case stateInSection:
		sc.feedSection(line)
	case stateInOutput:
		sc.feedOutput(line)
	default:
		sc.feedOutside(line)
	}
}

func (sc *scanner) feedOutside(line string) {
	tag := Classify(line, sc.prev)
	switch tag {
	case TagFenceOpen, TagFenceClose:
		hint, _ := parseFence(line)
		sc.flushProse()
		sc.table = 0
		sc.cur = Block{Kind: KindCodeFence, Lang: hint, Open: line}
		sc.codeLines, sc.outputLines = 0, 0
		sc.state = stateInFence
		sc.prev = TagFenceOpen
		return
	case TagSectionMarker:
		title, _ := parseSection(line)
		sc.flushProse()
		sc.table = 0
		sc.openSection(line, title, false)
		return
	}

	if tableRuleRe.MatchString(line) && strings.Contains(line, "|") {
		sc.flushProse()
		sc.addRule(line)
		return
	}
	if tableRowRe.MatchString(line) {
		sc.flushProse()
		sc.addRow(line)
		return
	}

	sc.table = 0
	if tag != TagBlank {
		sc.prev = tag
	}
	sc.prose = append(sc.prose, line)
}

func (sc *scanner) feedFence(line string) {
	tag := Classify(line, sc.prev)
	switch tag {
	case TagFenceClose:
		sc.cur.Close = line
		sc.closeFence()
		sc.afterFence = true
		return
	case TagFenceOpen:
		// A tagged fence inside a fence: the model forgot to close the
		// previous one.
		sc.cur.Unterminated = true
		sc.closeFence()
		sc.feedOutside(line)
		return
	case TagSectionMarker:
		tag = TagOutputLike
	}

	sc.cur.Lines = append(sc.cur.Lines, line)
	switch tag {
	case TagCodeLike:
		sc.codeLines++
	case TagOutputLike:
		sc.outputLines++
	}
	if tag != TagBlank {
		sc.prev = tag
	}
}

func (sc *scanner) feedSection(line string) {
	tag := Classify(line, sc.prev)
	switch tag {
	case TagSectionMarker, TagFenceOpen:
		sc.closeSection()
		sc.feedOutside(line)
		return
	case TagBlank:
		sc.blankRun++
		if sc.blankRun > sc.threshold {
			sc.closeSection()
			sc.feedOutside(line)
			return
		}
	default:
		sc.blankRun = 0
	}
	sc.cur.Lines = append(sc.cur.Lines, line)
}

func (sc *scanner) feedOutput(line string) {
	if outputPrefixRe.MatchString(line) {
		sc.cur.Lines = append(sc.cur.Lines, line)
		return
	}
	sc.emit(sc.cur)
	sc.state = stateOutside
	sc.feedOutside(line)
}

func (sc *scanner) openSection(marker, title string, attached bool) {
	sc.cur = Block{Kind: KindResultSection, Title: title, Marker: marker, Attached: attached}
	sc.blankRun = 0
	sc.state = stateInSection
	sc.prev = TagSectionMarker
}

// closeFence emits the open fence. A closed fence holding only noise is
// output; an unclosed one stays code whatever it holds.
func (sc *scanner) closeFence() {
	if sc.outputLines > 0 && sc.codeLines == 0 && !sc.cur.Unterminated {
		sc.cur.Kind = KindOutputFence
	}
	sc.emit(sc.cur)
	sc.state = stateOutside
	sc.prev = TagFenceClose
}

func (sc *scanner) closeSection() {
	sc.cur.Lines = trimBlankEdges(sc.cur.Lines)
	sc.emit(sc.cur)
	sc.state = stateOutside
	sc.prev = TagProse
}

func (sc *scanner) addRow(line string) {
	if sc.table == 0 {
		sc.tables++
		sc.table = sc.tables
	}
	sc.emit(Block{Kind: KindTableRow, Cells: splitCells(line), Raw: line, Table: sc.table})
	sc.prev = TagProse
}

func (sc *scanner) addRule(line string) {
	if n := len(sc.blocks); n > 0 && sc.table != 0 {
		last := &sc.blocks[n-1]
		if last.Kind == KindTableRow && last.Table == sc.table && last.Rule == "" {
			last.Rule = line
			return
		}
	}
	if sc.table == 0 {
		sc.tables++
		sc.table = sc.tables
	}
	sc.emit(Block{Kind: KindTableRow, Table: sc.table, Rule: line})
}

func (sc *scanner) flushProse() {
	lines := trimBlankEdges(sc.prose)
	sc.prose = nil
	if len(lines) == 0 {
		return
	}
	sc.emit(Block{Kind: KindProse, Lines: lines})
}

func (sc *scanner) emit(b Block) {
	sc.blocks = append(sc.blocks, b)
	sc.cur = Block{}
}

// finish force-closes whatever block is still open.
func (sc *scanner) finish() {
	switch sc.state {
	case stateInFence:
		sc.cur.Unterminated = true
		sc.closeFence()
	case stateInSection:
		sc.closeSection()
	case stateInOutput:
		sc.emit(sc.cur)
		sc.state = stateOutside
	default:
		sc.flushProse()
	}
}

// splitCells splits a "| a | b |" row into its cells, keeping empty
// cells so column positions survive. The renderer drops them.
func splitCells(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return nil
	}
	return lines[start:end]
}
