// Package clipboard moves text between chatr and the system clipboard by
// shelling out to the platform's clipboard utility.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("no clipboard utility found")

// tool is one clipboard utility invocation.
type tool struct {
	name string
	args []string
}

// Candidates are tried in order; the first one installed is used.
var (
	copyTools = map[string][]tool{
		"darwin":  {{"pbcopy", nil}},
		"linux":   {{"wl-copy", nil}, {"xclip", []string{"-selection", "clipboard"}}, {"xsel", []string{"--clipboard", "--input"}}},
		"windows": {{"clip.exe", nil}},
	}
	pasteTools = map[string][]tool{
		"darwin": {{"pbpaste", nil}},
		"linux":  {{"wl-paste", []string{"--no-newline"}}, {"xclip", []string{"-selection", "clipboard", "-o"}}, {"xsel", []string{"--clipboard", "--output"}}},
	}
)

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

func find(tools []tool) (string, []string, error) {
	for _, t := range tools {
		if path, err := lookPath(t.name); err == nil {
			return path, t.args, nil
		}
	}
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.name
	}
	if len(names) == 0 {
		return "", nil, fmt.Errorf("%w on %s", ErrUnsupported, runtime.GOOS)
	}
	return "", nil, fmt.Errorf("%w (install %s)", ErrUnsupported, strings.Join(names, " or "))
}

// CopyText writes text to the system clipboard.
func CopyText(text string) error {
	path, args, err := find(copyTools[runtime.GOOS])
	if err != nil {
		return err
	}
	cmd := exec.Command(path, args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ReadText reads text content from the system clipboard.
func ReadText() (string, error) {
	path, args, err := find(pasteTools[runtime.GOOS])
	if err != nil {
		return "", err
	}
	cmd := exec.Command(path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return out.String(), nil
}
