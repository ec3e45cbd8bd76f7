package cmd

import (
	"github.com/freedom12321/chatR-GSOC/internal/config"
	"github.com/spf13/cobra"
)

var (
	backendKinds  = config.BackendKinds
	generateModes = []string{"interactive", "script"}
	outputFormats = []string{"text", "json", "yaml"}
)

// AddBackendFlag adds the --backend/-b flag with completion
func AddBackendFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "backend", "b", "", "Override backend: server, ollama, anthropic or gemini")
	mustComplete(cmd, "backend", cobra.FixedCompletions(backendKinds, cobra.ShellCompDirectiveNoFileComp))
}

// AddModeFlag adds the --mode flag with completion
func AddModeFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVar(dest, "mode", "", "Generate code in this mode: interactive or script")
	mustComplete(cmd, "mode", cobra.FixedCompletions(generateModes, cobra.ShellCompDirectiveNoFileComp))
}

// AddOutputFlag adds the --output/-o flag with completion
func AddOutputFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "output", "o", "text", "Output format: text, json or yaml")
	mustComplete(cmd, "output", cobra.FixedCompletions(outputFormats, cobra.ShellCompDirectiveNoFileComp))
}

// AddYesFlag adds the --yes/-y flag
func AddYesFlag(cmd *cobra.Command, dest *bool) {
	cmd.Flags().BoolVarP(dest, "yes", "y", false, "Run without asking for confirmation")
}

// AddRenderedFlag adds the --rendered flag
func AddRenderedFlag(cmd *cobra.Command, dest *bool) {
	cmd.Flags().BoolVar(dest, "rendered", false, "Input is framed output from a previous run")
}

func mustComplete(cmd *cobra.Command, flag string, fn func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)) {
	if err := cmd.RegisterFlagCompletionFunc(flag, fn); err != nil {
		panic("failed to register " + flag + " completion: " + err.Error())
	}
}
