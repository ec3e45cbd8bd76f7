package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/freedom12321/chatR-GSOC/internal/backend"
	"github.com/freedom12321/chatR-GSOC/internal/history"
	"github.com/freedom12321/chatR-GSOC/internal/ui"
	"github.com/spf13/cobra"
)

var (
	askOpts        outputOptions
	askBackend     string
	askModel       string
	askMode        string
	askGenerate    bool
	askContext     string
	askQuiet       bool
	askRaw         bool
	askInteractive bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the R assistant and structure the answer",
	Long: `Send a question to the configured backend and print the answer with code,
output and result sections framed.

By default the question goes to the chat endpoint. --generate (or --mode)
asks the code generation endpoint instead, which returns runnable code and
an explanation. Without a question, or with -i, chatr keeps asking until
you type 'quit'. Every answer is kept in the local history.

Examples:
  chatr ask "how do I read a csv file?"
  chatr ask -i
  chatr ask --generate "simulate 100 coin flips" --run
  chatr ask --mode script "bootstrap the mean of mtcars$mpg" --save boot.R
  chatr ask --backend ollama --model llama3.2:3b "what does %>% do?"
  chatr ask -b anthropic "explain this error: object 'x' not found"`,
	RunE: runAsk,
}

func init() {
	askOpts.register(askCmd)
	AddBackendFlag(askCmd, &askBackend)
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "Override the model of the selected backend")
	AddModeFlag(askCmd, &askMode)
	askCmd.Flags().BoolVarP(&askGenerate, "generate", "g", false, "Generate code using the configured mode")
	askCmd.Flags().StringVar(&askContext, "context", "", "Describe your R session, or @file to read it from a file")
	askCmd.Flags().BoolVarP(&askQuiet, "quiet", "q", false, "Do not show a spinner")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "Print the answer exactly as received")
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "Keep asking questions until 'quit'")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := askOpts.validate(); err != nil {
		return err
	}
	cfg.ApplyOverrides(askBackend, askModel)
	if err := cfg.Validate(); err != nil {
		return err
	}

	gen, err := backend.New(cfg, log)
	if err != nil {
		return err
	}
	a := &asker{
		gen:   gen,
		store: openHistory(),
		opts:  &askOpts,
		out:   cmd.OutOrStdout(),
		quiet: askQuiet,
	}
	defer a.store.Close()

	ctx := cmd.Context()
	if askInteractive || len(args) == 0 {
		var lines *bufio.Scanner
		if f, ok := cmd.InOrStdin().(*os.File); !ok || !ui.IsTerminal(f) {
			lines = bufio.NewScanner(cmd.InOrStdin())
		}
		return a.loop(ctx, lines)
	}

	req, err := buildRequest(strings.Join(args, " "), askMode, askGenerate, askContext, cfg.Backend.Mode)
	if err != nil {
		return err
	}
	return a.ask(ctx, req)
}

// asker sends questions to one backend and presents the answers.
type asker struct {
	gen   backend.Generator
	store history.Store
	opts  *outputOptions
	out   io.Writer
	quiet bool
}

func (a *asker) ask(ctx context.Context, req backend.Request) error {
	log.Debug().Str("backend", a.gen.Name()).Str("mode", req.Mode).Msg("asking")

	start := time.Now()
	raw, err := ui.RunWithSpinner(ctx, "Thinking...", a.quiet || a.opts.Format != "text", func(ctx context.Context) (string, error) {
		return a.gen.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, backend.ErrUnavailable) {
			return fmt.Errorf("%w (is the %s backend running? try 'chatr config --check')", err, a.gen.Name())
		}
		return err
	}
	elapsed := time.Since(start)

	res := newEngine(a.out, cfg.Render).Process(raw)
	entry := &history.Entry{
		Query:    req.Query,
		Mode:     req.Mode,
		Backend:  a.gen.Name(),
		Answer:   raw,
		HasCode:  res.HasCode(),
		Duration: elapsed,
	}
	if err := a.store.Add(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("failed to record history")
	}
	log.Debug().Int64("history_id", entry.ID).Dur("elapsed", elapsed).Msg("answered")

	if askRaw {
		_, err := fmt.Fprintln(a.out, raw)
		return err
	}
	return present(ctx, a.out, raw, res, a.opts, cfg.Render)
}

var quitWords = []string{"quit", "exit", "q"}

// loop asks questions until the user quits. Questions come from the
// terminal, or one per line from lines when it is non-nil.
func (a *asker) loop(ctx context.Context, lines *bufio.Scanner) error {
	styles := ui.NewStyles(os.Stderr)
	if lines == nil {
		fmt.Fprintln(os.Stderr, styles.Title.Render("ChatR interactive mode")+styles.Muted.Render("  type 'quit' or press esc to leave"))
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		q, err := nextQuestion(lines)
		if errors.Is(err, io.EOF) || errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if slices.Contains(quitWords, strings.ToLower(q)) {
			return nil
		}

		req, err := buildRequest(q, askMode, askGenerate, askContext, cfg.Backend.Mode)
		if err == nil {
			err = a.ask(ctx, req)
		}
		if errors.Is(err, ui.ErrCancelled) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, styles.FormatResult(false, err.Error()))
		}
		fmt.Fprintln(a.out)
	}
}

func nextQuestion(lines *bufio.Scanner) (string, error) {
	if lines == nil {
		return ui.Ask("You", "ask about R")
	}
	if !lines.Scan() {
		if err := lines.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return lines.Text(), nil
}

// buildRequest turns the ask flags into a backend request. An explicit
// mode wins over --generate, which uses defaultMode.
func buildRequest(query, mode string, generate bool, envContext, defaultMode string) (backend.Request, error) {
	req := backend.Request{Query: strings.TrimSpace(query)}
	if req.Query == "" {
		return req, errors.New("empty question")
	}

	switch {
	case mode != "":
		if !slices.Contains(generateModes, mode) {
			return req, fmt.Errorf("unknown mode %q (want interactive or script)", mode)
		}
		req.Mode = mode
	case generate:
		req.Mode = defaultMode
	}

	if path, ok := strings.CutPrefix(envContext, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("read context: %w", err)
		}
		envContext = string(data)
	}
	if envContext != "" && req.Mode == "" {
		return req, errors.New("--context requires --generate or --mode")
	}
	req.EnvironmentContext = envContext
	return req, nil
}
