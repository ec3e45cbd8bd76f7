package cmd

import (
	"strings"

	"github.com/freedom12321/chatR-GSOC/internal/clipboard"
	"github.com/freedom12321/chatR-GSOC/internal/response"
	"github.com/spf13/cobra"
)

var (
	formatOpts     outputOptions
	formatRendered bool
	formatPaste    bool
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Structure a saved assistant answer",
	Long: `Read a raw assistant answer from a file or stdin and print it with
code, output and result sections framed and tables aligned.

Examples:
  chatr format answer.md
  chatr format answer.md --code-only > analysis.R
  chatr format --rendered screen.txt --code-only   # recover code from framed text
  chatr format --paste -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	formatOpts.register(formatCmd)
	AddRenderedFlag(formatCmd, &formatRendered)
	formatCmd.Flags().BoolVarP(&formatPaste, "paste", "p", false, "Read the answer from the clipboard")
	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	var (
		raw string
		err error
	)
	if formatPaste {
		raw, err = clipboard.ReadText()
	} else {
		raw, err = readInput(cmd, args)
	}
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var res response.Result
	if formatRendered {
		res = processRendered(raw)
	} else {
		res = newEngine(out, cfg.Render).Process(raw)
	}
	log.Debug().
		Int("blocks", len(res.Blocks)).
		Bool("code", res.HasCode()).
		Bool("explanation", res.HasExplanation()).
		Msg("formatted")
	return present(cmd.Context(), out, raw, res, &formatOpts, cfg.Render)
}

// processRendered recovers a Result from previously framed text. The
// rendering is passed through unchanged.
func processRendered(text string) response.Result {
	res := response.Result{Rendered: text, Blocks: response.ParseFrames(text)}
	if code, ok := response.SelectCode(res.Blocks); ok {
		res.Code = code
	}
	var prose []string
	for _, b := range res.Blocks {
		if b.Kind == response.KindProse {
			prose = append(prose, b.Text())
		}
	}
	if text, ok := response.Explain(strings.Join(prose, "\n\n")); ok {
		res.Explanation = text
	}
	return res
}
