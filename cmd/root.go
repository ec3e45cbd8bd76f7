package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/freedom12321/chatR-GSOC/internal/config"
	"github.com/freedom12321/chatR-GSOC/internal/logging"
	"github.com/freedom12321/chatR-GSOC/internal/response"
	"github.com/freedom12321/chatR-GSOC/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

const fallbackWidth = 80

var (
	configFile string
	debug      bool
	widthFlag  int
	noColor    bool
)

// Loaded by PersistentPreRunE for every subcommand.
var (
	cfg *config.Config
	log zerolog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/chatr/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Log debug information to stderr")
	rootCmd.PersistentFlags().IntVarP(&widthFlag, "width", "w", 0, "Frame width (default: terminal width)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

var rootCmd = &cobra.Command{
	Use:   "chatr",
	Short: "Structure R assistant answers for the terminal",
	Long: `chatr asks an R assistant a question and turns the raw answer into
framed code, output and tables, the runnable R code, and the explanation.

Examples:
  chatr ask "fit a linear model of mpg on wt"
  chatr ask "plot a histogram of rnorm(100)" --code-only --save hist.R
  chatr format answer.md                 # structure a saved answer
  cat answer.md | chatr format -o json   # machine-readable result
  chatr run answer.md                    # extract and run the code
  chatr config --check                   # show config, ping the backend`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err = logging.New(cmd.ErrOrStderr(), level, cfg.Log.Pretty)
	if err != nil {
		return err
	}

	if ui.GetPresetTheme(cfg.Theme.Preset) == nil {
		ev := log.Warn().Str("preset", cfg.Theme.Preset)
		if s := ui.SuggestPreset(cfg.Theme.Preset); s != "" {
			ev = ev.Str("suggestion", s)
		}
		ev.Strs("available", ui.PresetThemeNames).Msg("unknown theme preset")
	}
	ui.InitTheme(ui.ThemeConfig{
		Preset:    cfg.Theme.Preset,
		Primary:   cfg.Theme.Primary,
		Secondary: cfg.Theme.Secondary,
		Success:   cfg.Theme.Success,
		Error:     cfg.Theme.Error,
		Warning:   cfg.Theme.Warning,
		Muted:     cfg.Theme.Muted,
		Text:      cfg.Theme.Text,
	})
	log.Debug().Str("backend", cfg.Backend.Kind).Msg("config loaded")
	return nil
}

// frameWidth picks the render width: flag, then config, then terminal.
func frameWidth(w io.Writer, rc config.RenderConfig) int {
	if widthFlag > 0 {
		return widthFlag
	}
	if rc.Width > 0 {
		return rc.Width
	}
	return ui.TerminalWidth(w, fallbackWidth)
}

// useColor reports whether styling should be written to w.
func useColor(w io.Writer) bool {
	return !noColor && ui.ColorEnabled(w)
}

// newEngine builds a response engine configured for output to w.
func newEngine(w io.Writer, rc config.RenderConfig) *response.Engine {
	opts := []response.Option{
		response.WithWidth(frameWidth(w, rc)),
		response.WithMinColumnWidth(rc.MinColumnWidth),
		response.WithSectionBlankThreshold(rc.SectionBlankThreshold),
	}
	if useColor(w) {
		opts = append(opts, response.WithDecorator(ui.NewStyles(w).Decorator()))
	}
	return response.New(opts...)
}

// readInput returns the contents of the named file, or stdin for "" or "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
