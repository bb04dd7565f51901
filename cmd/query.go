package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	headRows int
	tailRows int
)

var overviewCmd = &cobra.Command{
	Use:   "overview <file|@id>",
	Short: "Show shape, dtypes, missing values, duplicates and memory estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		ov := t.Overview()
		return emit(cmd, analysis.OverviewMarkdown(t.Name(), ov), ov)
	},
}

var statsCmd = &cobra.Command{
	Use:     "stats <file|@id>",
	Aliases: []string{"statistics", "describe"},
	Short:   "Describe every numeric column",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		stats := t.Statistics()
		return emit(cmd, analysis.StatisticsMarkdown(t.NumericColumns(), stats), stats)
	},
}

var corrCmd = &cobra.Command{
	Use:     "corr <file|@id>",
	Aliases: []string{"correlation"},
	Short:   "Pearson correlation among numeric columns",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		corr, ok := t.Correlation()
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Correlation %v: fewer than two numeric columns\n", analysis.ErrNotApplicable)
			return emit(cmd, analysis.CorrelationMarkdown(nil, nil), map[string]any{
				"correlation": nil,
				"reason":      "fewer than two numeric columns",
			})
		}
		return emit(cmd, analysis.CorrelationMarkdown(t.NumericColumns(), corr), corr)
	},
}

var headCmd = &cobra.Command{
	Use:   "head <file|@id>",
	Short: "Show the first n rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRows(cmd, args[0], headRows, true)
	},
}

var tailCmd = &cobra.Command{
	Use:   "tail <file|@id>",
	Short: "Show the last n rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRows(cmd, args[0], tailRows, false)
	},
}

func showRows(cmd *cobra.Command, src string, n int, head bool) error {
	t, err := openTable(src)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("rows") {
		n = cfg.HeadRows
	}
	recs := t.Tail(n)
	if head {
		recs = t.Head(n)
	}
	return emit(cmd, analysis.RecordsMarkdown(t.Columns(), recs), recs)
}

var columnCmd = &cobra.Command{
	Use:   "column <file|@id> <name>",
	Short: "Show unique count, nulls and top values of one column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		st, err := t.ColumnStats(args[1])
		if err != nil {
			return err
		}
		return emit(cmd, st.Markdown(), st)
	},
}

var columnsCmd = &cobra.Command{
	Use:   "columns <file|@id>",
	Short: "List numeric and categorical columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		num, cat := t.NumericColumns(), t.CategoricalColumns()
		var b strings.Builder
		b.WriteString("[NUMERIC COLUMNS]\n")
		writeList(&b, num)
		b.WriteString("\n[CATEGORICAL COLUMNS]\n")
		writeList(&b, cat)
		return emit(cmd, b.String(), map[string][]string{
			"numeric_columns":     num,
			"categorical_columns": cat,
		})
	},
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func init() {
	rootCmd.AddCommand(overviewCmd, statsCmd, corrCmd, headCmd, tailCmd, columnCmd, columnsCmd)
	headCmd.Flags().IntVarP(&headRows, "rows", "n", 10, "number of rows (default from config)")
	tailCmd.Flags().IntVarP(&tailRows, "rows", "n", 10, "number of rows (default from config)")
}
