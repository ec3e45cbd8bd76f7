package response

import (
	"regexp"
	"strings"
)

// Signature is a named line pattern. Noise signatures mark console or
// runtime output; executable rules mark lines that look like source.
type Signature struct {
	Name    string
	Pattern *regexp.Regexp
	// Strong noise discards a whole fenced block in the segmented pass.
	Strong bool
}

// Match reports whether line matches the signature.
func (s Signature) Match(line string) bool {
	return s.Pattern.MatchString(line)
}

// NoiseSignatures lists the patterns that mark a line as console output
// rather than source. Order matters only for which name a Verdict reports.
var NoiseSignatures = []Signature{
	{Name: "package-attach", Pattern: regexp.MustCompile(`^\s*(Attaching package|Loading required package|The following objects? (is|are) masked|Registered S3 method|Loading namespace|[─-]{2} Attaching)`)},
	{Name: "package-download", Pattern: regexp.MustCompile(`(?i)^\s*(downloaded\b|trying URL\b|Content type\b|The downloaded (binary|source) packages are in|package '[^']+' successfully unpacked|Installing packages? into)`), Strong: true},
	{Name: "path", Pattern: regexp.MustCompile(`^\s*(/[\w.~-]|~/|[A-Za-z]:\\)`), Strong: true},
	{Name: "url", Pattern: regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9+.-]*://`), Strong: true},
	{Name: "gc-diagnostic", Pattern: regexp.MustCompile(`^\s*(Ncells\b|Vcells\b|used \(Mb\)|gc trigger\b|max used\b|Garbage collection \d+)`), Strong: true},
	{Name: "index-output", Pattern: regexp.MustCompile(`^\s*\[\d+\]`)},
	{Name: "null-output", Pattern: regexp.MustCompile(`^\s*NULL\s*$`)},
	{Name: "knitr-output", Pattern: regexp.MustCompile(`^\s*#>`)},
	{Name: "console-message", Pattern: regexp.MustCompile(`^\s*(Error( in .*)?:|Warning messages?:|Warning( in .*)?:|In addition:|Execution halted)`)},
	{Name: "console-prompt", Pattern: regexp.MustCompile(`^>\s`)},
	{Name: "section-banner", Pattern: regexp.MustCompile(`^\s*={3,}`)},
	{Name: "fence-marker", Pattern: regexp.MustCompile("^\\s*(`{3,}|~{3,})")},
}

// ExecutableRules lists the patterns that make a line plausibly
// executable. A line must also match no noise signature.
var ExecutableRules = []Signature{
	{Name: "comment", Pattern: regexp.MustCompile(`^\s*#`)},
	{Name: "assignment", Pattern: regexp.MustCompile(`^\s*[A-Za-z.][\w.$@\[\]"']*\s*(<<-|<-|=|\()`)},
	{Name: "pipe", Pattern: regexp.MustCompile(`(%>%|\|>|%<>%)`)},
	{Name: "trailing-operator", Pattern: regexp.MustCompile(`(\+|-|\*|/|\^|,|<-|=|&|\||\(|\{|\[|~|%[^%\s]*%)\s*$`)},
	{Name: "leading-identifier", Pattern: regexp.MustCompile(`^\s*[A-Za-z_.]`)},
	{Name: "closing-bracket", Pattern: regexp.MustCompile(`^\s*[)\]}]`)},
	{Name: "literal", Pattern: regexp.MustCompile(`^\s*(["'\x60]|-?\d)`)},
}

// sentenceRe matches a line of three or more plain words ending in
// sentence punctuation. R has no statement of that shape, so it is prose
// that ended up inside a fence.
var sentenceRe = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z']*(?:[ \t]+[A-Za-z0-9',;-]+){2,}[.!?:]\s*$`)

// indexOnlyRe matches lines that are nothing but a bracketed index, or an
// index followed by printed values.
var indexOnlyRe = regexp.MustCompile(`^\s*\[\d+(,\d*)?\](\s.*)?$`)

// MatchNoise returns the first noise signature line matches.
func MatchNoise(line string) (Signature, bool) {
	for _, sig := range NoiseSignatures {
		if sig.Match(line) {
			return sig, true
		}
	}
	return Signature{}, false
}

// MatchStrongNoise returns the first strong noise signature line matches.
func MatchStrongNoise(line string) (Signature, bool) {
	for _, sig := range NoiseSignatures {
		if sig.Strong && sig.Match(line) {
			return sig, true
		}
	}
	return Signature{}, false
}

// Verdict records whether a candidate line is genuine code and which
// heuristic decided it.
type Verdict struct {
	Line       string `json:"line" yaml:"line"`
	Executable bool   `json:"executable" yaml:"executable"`
	Rule       string `json:"rule" yaml:"rule"`
}

// Judge decides whether line is plausibly executable.
func Judge(line string) Verdict {
	v := Verdict{Line: line}
	if strings.TrimSpace(line) == "" {
		v.Rule = "blank"
		return v
	}
	if sig, ok := MatchNoise(line); ok {
		v.Rule = sig.Name
		return v
	}
	if sentenceRe.MatchString(line) {
		v.Rule = "sentence"
		return v
	}
	for _, rule := range ExecutableRules {
		if rule.Match(line) {
			v.Executable = true
			v.Rule = rule.Name
			return v
		}
	}
	v.Rule = "no-match"
	return v
}

// IsPlausiblyExecutable is shorthand for Judge(line).Executable.
func IsPlausiblyExecutable(line string) bool {
	return Judge(line).Executable
}
