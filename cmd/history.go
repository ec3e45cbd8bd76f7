package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/freedom12321/chatR-GSOC/internal/history"
	"github.com/freedom12321/chatR-GSOC/internal/ui"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historySearch string
	historyOpts   outputOptions
)

const historyQueryWidth = 60

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past questions",
	Long: `List questions asked with 'chatr ask', newest first, or search them.

Examples:
  chatr history
  chatr history -n 50
  chatr history --search "ggplot legend"
  chatr history show 12 --code-only`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a past answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to list")
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "Only list entries matching these words")
	historyOpts.register(historyShowCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured store. Failures are logged and
// history is skipped.
func openHistory() history.Store {
	store, err := history.NewStore(history.Config{
		Enabled:  cfg.History.Enabled,
		Path:     cfg.History.Path,
		MaxCount: cfg.History.MaxCount,
	})
	if err != nil {
		log.Warn().Err(err).Msg("history disabled")
		return history.NoopStore{}
	}
	return store
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled (set history.enabled: true)")
	}
	store := openHistory()
	defer store.Close()

	var (
		entries []history.Entry
		err     error
	)
	if historySearch != "" {
		entries, err = store.Search(cmd.Context(), historySearch, historyLimit)
	} else {
		entries, err = store.List(cmd.Context(), historyLimit)
	}
	if err != nil {
		return err
	}
	return writeHistory(cmd.OutOrStdout(), entries)
}

func writeHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no history")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tMODE\tCODE\tQUESTION")
	for _, e := range entries {
		mode := e.Mode
		if mode == "" {
			mode = "chat"
		}
		code := ""
		if e.HasCode {
			code = ui.SuccessIcon
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), mode, code, oneLine(e.Query, historyQueryWidth))
	}
	return tw.Flush()
}

// oneLine collapses whitespace in s and truncates it to width cells.
func oneLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid history id %q", args[0])
	}
	store := openHistory()
	defer store.Close()

	entry, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyOpts.Format == "text" && !historyOpts.CodeOnly && !historyOpts.ExplainOnly && !historyOpts.Verdicts {
		styles := ui.NewStyles(out)
		fmt.Fprintf(out, "%s %s\n\n", styles.Muted.Render(fmt.Sprintf("#%d", entry.ID)), styles.Bold.Render(entry.Query))
	}
	res := newEngine(out, cfg.Render).Process(entry.Answer)
	return present(cmd.Context(), out, entry.Answer, res, &historyOpts, cfg.Render)
}
