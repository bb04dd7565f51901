package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file|glob>...",
	Short: "Copy datasets into the workspace so they can be referenced as @<id>",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		opt, err := loadOptions()
		if err != nil {
			return err
		}
		ws, err := openWorkspace(opt)
		if err != nil {
			return err
		}
		for _, f := range files {
			d, err := ws.Import(f)
			if err != nil {
				return fmt.Errorf("import %s: %w", f, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %s as @%s (%d rows, %d columns)\n", d.Name, d.ID, d.Rows, d.Columns)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspace datasets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := loadOptions()
		if err != nil {
			return err
		}
		ws, err := openWorkspace(opt)
		if err != nil {
			return err
		}
		list := ws.List()
		if len(list) == 0 {
			return emit(cmd, "(no datasets)\n", list)
		}
		var md strings.Builder
		for _, d := range list {
			fmt.Fprintf(&md, "- %s: %s (%d rows, %d columns, %d bytes, added %s)\n",
				d.ID, d.Name, d.Rows, d.Columns, d.Size, d.AddedAt.Format("2006-01-02 15:04:05"))
		}
		return emit(cmd, md.String(), list)
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a dataset from the workspace",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := loadOptions()
		if err != nil {
			return err
		}
		ws, err := openWorkspace(opt)
		if err != nil {
			return err
		}
		id := strings.TrimPrefix(args[0], "@")
		if err := ws.Remove(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd, listCmd, removeCmd)
}
