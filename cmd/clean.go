package cmd

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/tablescope/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cleanMissing    bool
	cleanDuplicates bool
	cleanOutput     string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file|@id>",
	Short: "Drop rows with missing values and/or duplicate rows and write the result as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cleanMissing && !cleanDuplicates {
			return fmt.Errorf("specify at least one of --missing or --duplicates")
		}
		t, err := openTable(args[0])
		if err != nil {
			return err
		}
		before := t.Len()
		if cleanMissing {
			n := t.DropMissing()
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Dropped %d rows with missing values\n", n)
		}
		if cleanDuplicates {
			n := t.DropDuplicates()
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Dropped %d duplicate rows\n", n)
		}
		if t.Len() == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: all %d rows were removed\n", before)
		}
		var buf bytes.Buffer
		if err := t.WriteCSV(&buf); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		if cleanOutput == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(cleanOutput, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d of %d rows to %s\n", t.Len(), before, cleanOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanMissing, "missing", false, "drop rows containing any missing value")
	cleanCmd.Flags().BoolVar(&cleanDuplicates, "duplicates", false, "drop repeated rows, keeping the first")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "output CSV path (default stdout)")
}
