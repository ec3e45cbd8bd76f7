package response

import "testing"

func TestJudge(t *testing.T) {
	tests := []struct {
		line       string
		executable bool
		rule       string
	}{
		{`df <- read.csv("x.csv")`, true, "assignment"},
		{`# load the data`, true, "comment"},
		{`%>% summarise(n = n())`, true, "pipe"},
		{`  "a",`, true, "trailing-operator"},
		{`}`, true, "closing-bracket"},
		{`42`, true, "literal"},
		{"`my var` <- 1", true, "literal"},
		{"```python", false, "fence-marker"},
		{"~~~", false, "fence-marker"},
		{`Some prose here.`, false, "sentence"},
		{`Fit the model:`, false, "sentence"},
		{`Done.`, true, "leading-identifier"},
		{`library(ggplot2)`, true, "assignment"},
		{`[1] 5`, false, "index-output"},
		{`NULL`, false, "null-output"},
		{`/usr/lib/R/library`, false, "path"},
		{`https://cran.r-project.org`, false, "url"},
		{`downloaded 1.2 MB`, false, "package-download"},
		{`Ncells 532479 28.5    1166582 62.3`, false, "gc-diagnostic"},
		{`Attaching package: 'dplyr'`, false, "package-attach"},
		{`The following objects are masked from 'package:stats':`, false, "package-attach"},
		{`#> [1] 3`, false, "knitr-output"},
		{`Error in foo(): object 'x' not found`, false, "console-message"},
		{`=== Results ===`, false, "section-banner"},
		{``, false, "blank"},
		{`!!!`, false, "no-match"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			v := Judge(tt.line)
			if v.Executable != tt.executable || v.Rule != tt.rule {
				t.Errorf("Judge(%q) = {%v %q}, want {%v %q}", tt.line, v.Executable, v.Rule, tt.executable, tt.rule)
			}
			if IsPlausiblyExecutable(tt.line) != tt.executable {
				t.Errorf("IsPlausiblyExecutable(%q) disagrees with Judge", tt.line)
			}
		})
	}
}

func TestMatchStrongNoise(t *testing.T) {
	strong := []string{
		"/tmp/RtmpXYZ/downloaded_packages",
		"https://example.com/data.csv",
		"Vcells 1000 7.7 8388608 64",
		"trying URL 'https://cran.r-project.org/src/contrib/dplyr.tar.gz'",
	}
	for _, line := range strong {
		if _, ok := MatchStrongNoise(line); !ok {
			t.Errorf("MatchStrongNoise(%q) = false, want true", line)
		}
	}

	weak := []string{
		"Attaching package: 'dplyr'",
		"[1] 1 2 3",
		"x <- 1",
	}
	for _, line := range weak {
		if sig, ok := MatchStrongNoise(line); ok {
			t.Errorf("MatchStrongNoise(%q) matched %s, want no match", line, sig.Name)
		}
	}
}

func TestSignatureNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, sigs := range [][]Signature{NoiseSignatures, ExecutableRules} {
		for _, sig := range sigs {
			if seen[sig.Name] {
				t.Errorf("duplicate signature name %q", sig.Name)
			}
			seen[sig.Name] = true
		}
	}
}
