package response

// fenceSpan locates one fence in a line slice. lines[Open] is the opening
// marker. End is one past the last line the fence owns: the closing
// marker when there is one, otherwise the line that cut it short (a new
// opener, or the end of input).
type fenceSpan struct {
	Hint         string
	Open         int
	End          int
	Unterminated bool
}

// Interior returns the lines between the markers.
func (f fenceSpan) Interior(lines []string) []string {
	end := f.End
	if !f.Unterminated {
		end-- // closing marker
	}
	return lines[f.Open+1 : end]
}

// scanFences finds fences with the same rules the Segmenter applies: any
// fence line opens a fence, a bare fence closes it, and a tagged fence
// met inside a fence ends the open one and starts another.
func scanFences(lines []string) []fenceSpan {
	var spans []fenceSpan
	cur := fenceSpan{Open: -1}
	for i, line := range lines {
		hint, ok := parseFence(line)
		if !ok {
			continue
		}
		switch {
		case cur.Open < 0:
			cur = fenceSpan{Hint: hint, Open: i}
		case hint == "":
			cur.End = i + 1
			spans = append(spans, cur)
			cur = fenceSpan{Open: -1}
		default:
			cur.End, cur.Unterminated = i, true
			spans = append(spans, cur)
			cur = fenceSpan{Hint: hint, Open: i}
		}
	}
	if cur.Open >= 0 {
		cur.End, cur.Unterminated = len(lines), true
		spans = append(spans, cur)
	}
	return spans
}
