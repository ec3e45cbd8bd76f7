package cmd

import (
	"fmt"

	"github.com/freedom12321/chatR-GSOC/internal/response"
	"github.com/spf13/cobra"
)

var (
	runYes      bool
	runRendered bool
	runShow     bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Extract R code from an answer and run it",
	Long: `Extract the executable R code from a saved answer (or stdin) and run it
with Rscript. Output is framed the same way as answers are.

Examples:
  chatr run answer.md
  chatr ask "plot sin(x)" --raw | chatr run -y
  chatr run --rendered screen.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	AddYesFlag(runCmd, &runYes)
	AddRenderedFlag(runCmd, &runRendered)
	runCmd.Flags().BoolVar(&runShow, "show", false, "Print the extracted code before running it")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	var (
		code string
		ok   bool
	)
	if runRendered {
		code, ok = response.ExtractRendered(raw)
	} else {
		code, ok = response.Extract(raw)
	}
	if !ok {
		return errNoCode
	}
	log.Debug().Int("bytes", len(code)).Msg("extracted code")

	out := cmd.OutOrStdout()
	if runShow {
		eng := newEngine(out, cfg.Render)
		fmt.Fprint(out, eng.Renderer.Render([]response.Block{{Kind: response.KindCodeFence, Lang: "r", Lines: response.SplitLines(code)}}))
	}
	return runCode(cmd.Context(), out, code, runYes)
}
