package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandPatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.md":         "",
		"notes/b.md":   "",
		"notes/x/c.md": "",
		"notes/d.txt":  "",
	})

	got, err := expandPatterns([]string{
		filepath.Join(root, "**", "*.md"),
		filepath.Join(root, "a.md"),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "notes", "b.md"),
		filepath.Join(root, "notes", "x", "c.md"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expandPatterns (-want +got):\n%s", diff)
	}

	if _, err := expandPatterns([]string{filepath.Join(root, "missing.md")}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing literal path: err = %v", err)
	}
	if got, err := expandPatterns([]string{filepath.Join(root, "*.nothing")}); err != nil || len(got) != 0 {
		t.Errorf("unmatched glob = %v, %v", got, err)
	}
}

func TestScriptPaths(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "scripts")
	tests := []struct {
		name    string
		sources []string
		outDir  string
		want    []string
		wantErr bool
	}{
		{
			name:    "next to each answer",
			sources: []string{"answers/q1.md", "log"},
			want:    []string{filepath.Join("answers", "q1.R"), "log.R"},
		},
		{
			name:    "single answer into out dir",
			sources: []string{filepath.Join(root, "answers", "q1.md")},
			outDir:  out,
			want:    []string{filepath.Join(out, "q1.R")},
		},
		{
			name:    "same name in different directories",
			sources: []string{filepath.Join(root, "a", "x.md"), filepath.Join(root, "b", "x.md"), filepath.Join(root, "b", "deep", "y.md")},
			outDir:  out,
			want:    []string{filepath.Join(out, "a", "x.R"), filepath.Join(out, "b", "x.R"), filepath.Join(out, "b", "deep", "y.R")},
		},
		{
			name:    "same name with different extensions",
			sources: []string{filepath.Join(root, "a", "x.md"), filepath.Join(root, "a", "x.txt")},
			outDir:  out,
			wantErr: true,
		},
		{
			name:    "same name with different extensions in place",
			sources: []string{"a/x.md", "a/x.txt"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scriptPaths(tt.sources, tt.outDir)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "would both be written") {
					t.Fatalf("err = %v, want collision error (paths %v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("scriptPaths (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"ok.md":    sampleAnswer,
		"prose.md": "nothing to run",
		"taken.md": sampleAnswer,
		"taken.R":  "keep me",
	})

	r := extractFile(filepath.Join(root, "ok.md"), filepath.Join(root, "ok.R"), false, false)
	if r.Err != nil || r.Lines != 2 {
		t.Fatalf("extractFile = %+v", r)
	}
	data, _ := os.ReadFile(filepath.Join(root, "ok.R"))
	if string(data) != "x <- c(1, 2, 3)\nmean(x)\n" {
		t.Errorf("script = %q", data)
	}

	if r := extractFile(filepath.Join(root, "prose.md"), filepath.Join(root, "prose.R"), false, false); !errors.Is(r.Err, errNoCode) {
		t.Errorf("prose: err = %v", r.Err)
	}

	r = extractFile(filepath.Join(root, "taken.md"), filepath.Join(root, "taken.R"), false, false)
	if !errors.Is(r.Err, os.ErrExist) {
		t.Errorf("existing script: err = %v", r.Err)
	}
	r = extractFile(filepath.Join(root, "taken.md"), filepath.Join(root, "taken.R"), false, true)
	if r.Err != nil {
		t.Errorf("forced overwrite: err = %v", r.Err)
	}
}

func TestExtractCommand(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a/one.md": sampleAnswer,
		"a/two.md": "no code here",
	})
	outDir := filepath.Join(root, "scripts")

	out, err := execute(t, "extract", "--out-dir", outDir, filepath.Join(root, "**", "*.md"))
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "one.R (2 lines)") || !strings.Contains(out, "no code found") {
		t.Errorf("output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "one.R")); err != nil {
		t.Error(err)
	}
}

func TestExtractCommand_SameNamedAnswers(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a/x.md": "```r\na <- 1\n```\n",
		"b/x.md": "```r\nb <- 2\n```\n",
	})
	outDir := filepath.Join(root, "scripts")

	if _, err := execute(t, "extract", "--out-dir", outDir, "--force", "-j", "2", filepath.Join(root, "**", "x.md")); err != nil {
		t.Fatal(err)
	}
	for dir, want := range map[string]string{"a": "a <- 1\n", "b": "b <- 2\n"} {
		data, err := os.ReadFile(filepath.Join(outDir, dir, "x.R"))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != want {
			t.Errorf("%s/x.R = %q, want %q", dir, data, want)
		}
	}
}

func TestExtractCommand_CollisionWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"x.md":  sampleAnswer,
		"x.txt": sampleAnswer,
	})
	outDir := filepath.Join(root, "scripts")

	_, err := execute(t, "extract", "--out-dir", outDir, filepath.Join(root, "x.*"))
	if err == nil || !strings.Contains(err.Error(), "would both be written") {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(outDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("out dir created despite collision: %v", err)
	}
}
