package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaRows       int
	anaQuiet      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|@id|glob>...",
	Short: "Produce a full profile report for one or more datasets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		rows := anaRows
		if !cmd.Flags().Changed("rows") {
			rows = cfg.HeadRows
		}

		if len(files) == 1 {
			t, err := openTable(files[0])
			if err != nil {
				return err
			}
			rep := analysis.BuildReport(t, rows)
			out, err := render(rep.Markdown(), rep)
			if err != nil {
				return err
			}
			if anaOutputPath != "" {
				if err := writeFile(anaOutputPath, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}

		// several inputs: -o names a directory receiving one summary per file
		if anaOutputPath != "" {
			if err := utils.EnsureDir(anaOutputPath); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		used := map[string]int{}
		var reports []*analysis.Report
		var failed int
		for i, f := range files {
			if !anaQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Analyzing %s...\n", i+1, len(files), f)
			}
			t, err := openTable(f)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", f, err)
				failed++
				continue
			}
			rep := analysis.BuildReport(t, rows)
			if anaOutputPath == "" {
				reports = append(reports, rep)
				continue
			}
			out, err := render(rep.Markdown(), rep)
			if err != nil {
				return err
			}
			dst := filepath.Join(anaOutputPath, summaryName(t.Name(), used))
			if err := writeFile(dst, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", dst)
		}
		if len(reports) > 0 {
			var md strings.Builder
			for i, rep := range reports {
				if i > 0 {
					md.WriteString("\n---\n\n")
				}
				md.WriteString(rep.Markdown())
			}
			if err := emit(cmd, md.String(), reports); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d inputs failed", failed, len(files))
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths and "@id" references, and
// drops duplicates. Sorted for stable batch output.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		// an unmatched pattern stays literal so the loader reports it as not found
		matches := []string{arg}
		if !strings.HasPrefix(arg, "@") {
			if m, _ := filepath.Glob(arg); len(m) > 0 {
				matches = m
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// summaryName derives "<base>.summary.<ext>" and suffixes collisions with __2, __3...
func summaryName(name string, used map[string]int) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	ext := ".md"
	switch strings.ToLower(cfg.OutputFormat) {
	case "json":
		ext = ".json"
	case "yaml", "yml":
		ext = ".yaml"
	}
	used[base]++
	if n := used[base]; n > 1 {
		base = fmt.Sprintf("%s__%d", base, n)
	}
	return base + ".summary" + ext
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the report to this path (a directory when several inputs are given)")
	analyzeCmd.Flags().IntVarP(&anaRows, "rows", "n", 10, "rows to include in the head and tail sections (default from config)")
	analyzeCmd.Flags().BoolVarP(&anaQuiet, "quiet", "q", false, "suppress per-file progress output")
}
