package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/freedom12321/chatR-GSOC/internal/backend"
	"github.com/freedom12321/chatR-GSOC/internal/config"
	"github.com/freedom12321/chatR-GSOC/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configCheck bool
	configForce bool
)

const healthTimeout = 5 * time.Second

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chatr configuration",
	Long: `View or edit your chatr configuration.

Settings come from the config file, then a .env file in the current
directory, then CHATR_* environment variables (CHATR_BACKEND_URL for
backend.url, and so on).

Examples:
  chatr config                     # show effective config
  chatr config --check             # also check the backend is reachable
  chatr config init                # write a default config file
  chatr config edit                # edit in $EDITOR
  chatr config completion zsh      # generate shell completions`,
	Args: cobra.NoArgs,
	RunE: configShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	Args:  cobra.NoArgs,
	RunE:  configPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  configInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file in $EDITOR",
	Args:  cobra.NoArgs,
	RunE:  configEdit,
}

var configCompletionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script.

Examples:
  chatr config completion bash > ~/.bash_completion.d/chatr
  chatr config completion zsh > "${fpath[1]}/_chatr"
  chatr config completion fish > ~/.config/fish/completions/chatr.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      configCompletion,
}

func init() {
	configCmd.Flags().BoolVar(&configCheck, "check", false, "Check that the backend is reachable")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing config file")
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configCompletionCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if err := writeConfig(out, cfg); err != nil {
		return err
	}
	if !configCheck {
		return nil
	}

	fmt.Fprintln(out)
	return checkBackend(cmd.Context(), out)
}

// writeConfig prints cfg as YAML with secrets masked.
func writeConfig(w io.Writer, c *config.Config) error {
	shown := *c
	for _, key := range []*string{&shown.Ollama.APIKey, &shown.Anthropic.APIKey, &shown.Gemini.APIKey} {
		if *key != "" {
			*key = "****"
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&shown); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func checkBackend(ctx context.Context, w io.Writer) error {
	styles := ui.NewStyles(w)
	gen, err := backend.New(cfg, log)
	if err != nil {
		return err
	}
	hc, ok := gen.(backend.HealthChecker)
	if !ok {
		fmt.Fprintln(w, styles.FormatWarning(gen.Name()+": no health check available"))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := hc.Health(ctx); err != nil {
		fmt.Fprintln(w, styles.FormatResult(false, fmt.Sprintf("%s: %v", gen.Name(), err)))
		return err
	}
	fmt.Fprintln(w, styles.FormatResult(true, gen.Name()+": healthy"))
	return nil
}

func configPath(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func configInit(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if configFile != "" {
		path = configFile
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.NewStyles(cmd.OutOrStdout()).FormatResult(true, "wrote "+path))
	return nil
}

func configEdit(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if configFile != "" {
		path = configFile
	}

	// Create default config if it doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path, cfg); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	return editorCmd.Run()
}

func configCompletion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletion(out)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
	return nil
}
