package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/freedom12321/chatR-GSOC/internal/response"
	"github.com/freedom12321/chatR-GSOC/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	extractOutDir   string
	extractJobs     int
	extractRendered bool
	extractForce    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <pattern>...",
	Short: "Extract R scripts from many saved answers",
	Long: `Extract the executable R code from every answer file matching the
given patterns and write each to a .R file. Patterns support ** to match
any number of directories.

Examples:
  chatr extract 'answers/*.md'
  chatr extract 'notes/**/*.txt' --out-dir scripts
  chatr extract --rendered 'logs/**/*.log' -j 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutDir, "out-dir", "O", "", "Write scripts here instead of next to each answer")
	extractCmd.Flags().IntVarP(&extractJobs, "jobs", "j", runtime.NumCPU(), "Files processed in parallel")
	extractCmd.Flags().BoolVarP(&extractForce, "force", "f", false, "Overwrite existing scripts")
	AddRenderedFlag(extractCmd, &extractRendered)
	rootCmd.AddCommand(extractCmd)
}

// extraction is the outcome for one answer file.
type extraction struct {
	Source string
	Dest   string
	Lines  int
	Err    error
}

func runExtract(cmd *cobra.Command, args []string) error {
	files, err := expandPatterns(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %s", strings.Join(args, " "))
	}
	dests, err := scriptPaths(files, extractOutDir)
	if err != nil {
		return err
	}

	results := make([]extraction, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(extractJobs, 1))
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = extractFile(path, dests[i], extractRendered, extractForce)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%s\t%v\n", ui.FailIcon, r.Source, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t→ %s (%d lines)\n", ui.SuccessIcon, r.Source, r.Dest, r.Lines)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	log.Debug().Int("files", len(files)).Int("failed", failed).Msg("extract finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d files had no code or could not be written", failed, len(files))
	}
	return nil
}

// expandPatterns resolves doublestar patterns to a sorted, de-duplicated
// list of regular files. A pattern without glob characters must exist.
func expandPatterns(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[{") {
			return nil, fmt.Errorf("%s: %w", pattern, os.ErrNotExist)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// scriptPaths maps every source to its script. With outDir set, each
// source keeps its directory relative to the deepest directory shared by
// all sources, so a/x.md and b/x.md land in outDir/a and outDir/b. Two
// sources that still map to one script are an error.
func scriptPaths(sources []string, outDir string) ([]string, error) {
	var base string
	if outDir != "" {
		var err error
		if base, err = commonDir(sources); err != nil {
			return nil, err
		}
	}

	dests := make([]string, len(sources))
	owner := make(map[string]string, len(sources))
	for i, src := range sources {
		dest, err := scriptPath(src, base, outDir)
		if err != nil {
			return nil, err
		}
		if prev, taken := owner[dest]; taken {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, src, dest)
		}
		owner[dest] = src
		dests[i] = dest
	}
	return dests, nil
}

// scriptPath is answer.md -> answer.R, next to the answer or under outDir
// at the answer's directory relative to base.
func scriptPath(source, base, outDir string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".R"
	if outDir == "" {
		return filepath.Join(filepath.Dir(source), name), nil
	}
	dir, err := filepath.Abs(filepath.Dir(source))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(outDir, rel, name), nil
}

// commonDir returns the deepest absolute directory containing every path.
func commonDir(paths []string) (string, error) {
	var common string
	for i, p := range paths {
		dir, err := filepath.Abs(filepath.Dir(p))
		if err != nil {
			return "", err
		}
		if i == 0 {
			common = dir
			continue
		}
		for !within(dir, common) {
			parent := filepath.Dir(common)
			if parent == common {
				break
			}
			common = parent
		}
	}
	return common, nil
}

// within reports whether dir is root or below it.
func within(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func extractFile(source, dest string, rendered, force bool) extraction {
	r := extraction{Source: source, Dest: dest}
	if source == dest {
		r.Err = fmt.Errorf("source is already an R script")
		return r
	}
	data, err := os.ReadFile(source)
	if err != nil {
		r.Err = err
		return r
	}

	var (
		code string
		ok   bool
	)
	if rendered {
		code, ok = response.ExtractRendered(string(data))
	} else {
		code, ok = response.Extract(string(data))
	}
	if !ok {
		r.Err = errNoCode
		return r
	}
	r.Lines = strings.Count(code, "\n") + 1

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		r.Err = err
		return r
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(dest, flags, 0644)
	if err != nil {
		r.Err = err
		return r
	}
	if _, err := f.WriteString(code + "\n"); err != nil {
		f.Close()
		r.Err = err
		return r
	}
	r.Err = f.Close()
	return r
}
