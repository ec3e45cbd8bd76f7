package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/freedom12321/chatR-GSOC/internal/clipboard"
	"github.com/freedom12321/chatR-GSOC/internal/config"
	"github.com/freedom12321/chatR-GSOC/internal/response"
	"github.com/freedom12321/chatR-GSOC/internal/rexec"
	"github.com/freedom12321/chatR-GSOC/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	errNoCode        = errors.New("no code found")
	errNoExplanation = errors.New("no explanation found")
)

// outputOptions are the presentation flags shared by format and ask.
type outputOptions struct {
	Format      string
	CodeOnly    bool
	ExplainOnly bool
	Verdicts    bool
	Save        string
	Copy        bool
	Run         bool
	Yes         bool
}

func (o *outputOptions) register(cmd *cobra.Command) {
	AddOutputFlag(cmd, &o.Format)
	cmd.Flags().BoolVar(&o.CodeOnly, "code-only", false, "Print only the extracted code")
	cmd.Flags().BoolVar(&o.ExplainOnly, "explain-only", false, "Print only the explanation")
	cmd.Flags().BoolVar(&o.Verdicts, "verdicts", false, "Show why each candidate code line was kept or dropped")
	cmd.Flags().StringVar(&o.Save, "save", "", "Write the extracted code to `FILE`")
	cmd.Flags().BoolVar(&o.Run, "run", false, "Run the extracted code with Rscript")
	cmd.Flags().BoolVarP(&o.Copy, "copy", "c", false, "Copy the extracted code to the clipboard")
	AddYesFlag(cmd, &o.Yes)
	cmd.MarkFlagsMutuallyExclusive("code-only", "explain-only", "verdicts")
}

func (o *outputOptions) validate() error {
	if !slices.Contains(outputFormats, o.Format) {
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", o.Format)
	}
	return nil
}

// structured is the json/yaml document for --output.
type structured struct {
	Code        *string            `json:"code" yaml:"code"`
	Explanation *string            `json:"explanation" yaml:"explanation"`
	Rendered    string             `json:"rendered,omitempty" yaml:"rendered,omitempty"`
	Blocks      []response.Block   `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Verdicts    []response.Verdict `json:"verdicts,omitempty" yaml:"verdicts,omitempty"`
}

// present writes res to w according to o, then handles --save and --run.
func present(ctx context.Context, w io.Writer, raw string, res response.Result, o *outputOptions, rc config.RenderConfig) error {
	if err := o.validate(); err != nil {
		return err
	}

	var err error
	switch {
	case o.Format != "text":
		err = writeStructured(w, raw, res, o)
	case o.Verdicts:
		err = writeVerdicts(w, response.Verdicts(raw))
	case o.CodeOnly:
		err = writeCode(w, res)
	case o.ExplainOnly:
		err = writeExplanation(w, res, rc)
	default:
		_, err = io.WriteString(w, res.Rendered)
	}
	if err != nil {
		return err
	}

	if o.Save != "" {
		if err := saveCode(o.Save, res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s\n", ui.DefaultStyles().FormatResult(true, "saved code to "+o.Save))
	}
	if o.Copy {
		if !res.HasCode() {
			return errNoCode
		}
		if err := clipboard.CopyText(res.Code); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s\n", ui.DefaultStyles().FormatResult(true, "copied code to clipboard"))
	}
	if o.Run {
		return runCode(ctx, w, res.Code, o.Yes)
	}
	return nil
}

func writeStructured(w io.Writer, raw string, res response.Result, o *outputOptions) error {
	doc := structured{}
	if res.HasCode() {
		doc.Code = &res.Code
	}
	if res.HasExplanation() {
		doc.Explanation = &res.Explanation
	}
	switch {
	case o.CodeOnly:
		doc.Explanation = nil
	case o.ExplainOnly:
		doc.Code = nil
	case o.Verdicts:
		doc.Verdicts = response.Verdicts(raw)
	default:
		doc.Rendered = res.Rendered
		doc.Blocks = res.Blocks
	}

	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func writeVerdicts(w io.Writer, verdicts []response.Verdict) error {
	if len(verdicts) == 0 {
		_, err := fmt.Fprintln(w, "no candidate code lines")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, v := range verdicts {
		mark := ui.FailIcon
		if v.Executable {
			mark = ui.SuccessIcon
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, v.Rule, v.Line)
	}
	return tw.Flush()
}

func writeCode(w io.Writer, res response.Result) error {
	if !res.HasCode() {
		return errNoCode
	}
	code := res.Code
	if useColor(w) {
		code = ui.NewHighlighter("r").Highlight(code)
	}
	_, err := fmt.Fprintln(w, code)
	return err
}

func writeExplanation(w io.Writer, res response.Result, rc config.RenderConfig) error {
	if !res.HasExplanation() {
		return errNoExplanation
	}
	text := ui.RenderExplanation(res.Explanation, ui.ExplanationStyle{
		Width:    frameWidth(w, rc),
		Markdown: rc.Markdown && useColor(w),
		Wrap:     ui.IsTerminal(w),
	})
	_, err := fmt.Fprintln(w, text)
	return err
}

func saveCode(path string, res response.Result) error {
	if !res.HasCode() {
		return errNoCode
	}
	if err := os.WriteFile(path, []byte(res.Code+"\n"), 0644); err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	return nil
}

// runCode asks for confirmation, runs code and frames its output.
func runCode(ctx context.Context, w io.Writer, code string, yes bool) error {
	if code == "" {
		return errNoCode
	}
	styles := ui.DefaultStyles()

	if cfg.Exec.Sandbox {
		if err := rexec.Check(code); err != nil {
			return err
		}
	}
	if !yes {
		preview := code
		if useColor(os.Stderr) {
			preview = ui.NewHighlighter("r").Highlight(code)
		}
		ok, err := ui.Confirm("Run this R code?", preview)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stderr, styles.Muted.Render("not run"))
			return nil
		}
	}

	exe := rexec.New(rexec.Options{
		Rscript:        cfg.Exec.Rscript,
		Timeout:        cfg.Exec.Timeout,
		MaxOutputLines: cfg.Exec.MaxOutputLines,
		Sandbox:        cfg.Exec.Sandbox,
		CRANMirror:     cfg.Exec.CRANMirror,
		Log:            log,
	})
	res, err := exe.Execute(ctx, code)
	if res != nil {
		eng := newEngine(w, cfg.Render)
		fmt.Fprint(w, eng.Renderer.Render([]response.Block{res.Block()}))
	}
	if err != nil {
		return err
	}
	if !res.Success() {
		fmt.Fprintln(os.Stderr, styles.FormatResult(false, fmt.Sprintf("Rscript exited with status %d", res.ExitCode)))
		return fmt.Errorf("exit status %d", res.ExitCode)
	}
	fmt.Fprintln(os.Stderr, styles.FormatResult(true, fmt.Sprintf("finished in %s", res.Duration.Round(1e6))))
	return nil
}
