// Package rexec runs extracted R code with Rscript under a timeout.
package rexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/freedom12321/chatR-GSOC/internal/response"
	"github.com/rs/zerolog"
)

// Sentinel errors for error classification.
var (
	// ErrRejected means the safety check refused the code.
	ErrRejected = errors.New("code rejected")

	// ErrTimeout means the run exceeded its time limit.
	ErrTimeout = errors.New("execution timed out")

	// ErrRscriptMissing means the interpreter could not be found.
	ErrRscriptMissing = errors.New("Rscript not found")
)

// RejectedError names the unsafe pattern that matched.
type RejectedError struct {
	Pattern string
	Line    int // 1-based line in the submitted code
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("code rejected: line %d calls %s", e.Line, e.Pattern)
}

// Is lets errors.Is(err, ErrRejected) match.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// unsafePatterns are calls refused when the sandbox is on.
var unsafePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"system()", regexp.MustCompile(`(?i)system\s*\(`)},
	{"shell()", regexp.MustCompile(`(?i)shell\s*\(`)},
	{"Sys.setenv", regexp.MustCompile(`(?i)Sys\.setenv`)},
	{"unlink()", regexp.MustCompile(`(?i)unlink\s*\(`)},
	{"file.remove()", regexp.MustCompile(`(?i)file\.remove\s*\(`)},
	{"file.create()", regexp.MustCompile(`(?i)file\.create\s*\(`)},
	{"download.file()", regexp.MustCompile(`(?i)download\.file\s*\(`)},
	{"url()", regexp.MustCompile(`(?i)url\s*\(`)},
	{"eval()", regexp.MustCompile(`(?i)eval\s*\(`)},
}

const (
	defaultTimeout = 30 * time.Second
	defaultMirror  = "https://cran.r-project.org"
	waitDelay      = 2 * time.Second
)

// Options configures an Executor.
type Options struct {
	Rscript        string        // interpreter, default "Rscript"
	Timeout        time.Duration // default 30s
	MaxOutputLines int           // 0 disables truncation
	Sandbox        bool
	CRANMirror     string
	Dir            string // where scripts are written, default os.TempDir()
	Log            zerolog.Logger
}

// Executor runs R code.
type Executor struct {
	opts Options
}

// New returns an Executor with defaults filled in.
func New(opts Options) *Executor {
	if opts.Rscript == "" {
		opts.Rscript = "Rscript"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CRANMirror == "" {
		opts.CRANMirror = defaultMirror
	}
	return &Executor{opts: opts}
}

// Result is the outcome of one run.
type Result struct {
	Stdout   string        `json:"stdout" yaml:"stdout"`
	Stderr   string        `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	TimedOut bool          `json:"timed_out,omitempty" yaml:"timed_out,omitempty"`
}

// Success reports whether Rscript exited cleanly.
func (r *Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Block returns the run's output as an OutputFence for framed display.
func (r *Result) Block() response.Block {
	var lines []string
	if out := strings.TrimRight(r.Stdout, "\n"); out != "" {
		lines = append(lines, strings.Split(out, "\n")...)
	}
	if errOut := strings.TrimRight(r.Stderr, "\n"); errOut != "" {
		lines = append(lines, strings.Split(errOut, "\n")...)
	}
	return response.Block{Kind: response.KindOutputFence, Lines: lines}
}

// Check returns a *RejectedError for the first unsafe call in code.
func Check(code string) error {
	for i, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, p := range unsafePatterns {
			if p.re.MatchString(line) {
				return &RejectedError{Pattern: p.name, Line: i + 1}
			}
		}
	}
	return nil
}

// Preamble is prepended to every script.
func (e *Executor) Preamble() string {
	return fmt.Sprintf("options(repos = c(CRAN = %q))\noptions(warn = -1)\n\n", e.opts.CRANMirror)
}

// Execute runs code. A non-zero exit status is reported in the Result,
// not as an error. On timeout the partial Result is returned together
// with an error matching ErrTimeout.
func (e *Executor) Execute(ctx context.Context, code string) (*Result, error) {
	if e.opts.Sandbox {
		if err := Check(code); err != nil {
			e.opts.Log.Warn().Err(err).Msg("refusing to run code")
			return nil, err
		}
	}

	rscript, err := exec.LookPath(e.opts.Rscript)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRscriptMissing, e.opts.Rscript, err)
	}

	f, err := os.CreateTemp(e.opts.Dir, "chatr-*.R")
	if err != nil {
		return nil, fmt.Errorf("create script: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(e.Preamble() + code + "\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("write script: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, rscript, "--vanilla", path)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res := &Result{
		Stdout:   truncateOutput(stdout.String(), e.opts.MaxOutputLines),
		Stderr:   truncateOutput(stderr.String(), e.opts.MaxOutputLines),
		Duration: time.Since(start),
	}

	e.opts.Log.Debug().
		Str("script", path).
		Dur("elapsed", res.Duration).
		Err(runErr).
		Msg("Rscript finished")

	// Check for timeout
	if execCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		res.TimedOut = true
		res.ExitCode = -1
		return res, fmt.Errorf("%w after %s", ErrTimeout, e.opts.Timeout)
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run Rscript: %w", runErr)
	}
	return res, nil
}

// truncateOutput keeps the first max lines of out and notes how many
// were dropped.
func truncateOutput(out string, max int) string {
	if out == "" || max <= 0 {
		return out
	}
	body, newline := strings.CutSuffix(out, "\n")
	lines := strings.Split(body, "\n")
	if len(lines) <= max {
		return out
	}
	dropped := len(lines) - max
	lines = append(lines[:max], fmt.Sprintf("... (output truncated, %d more lines)", dropped))
	body = strings.Join(lines, "\n")
	if newline {
		body += "\n"
	}
	return body
}
