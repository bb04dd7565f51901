package cmd

import (
	"github.com/KaramelBytes/tablescope/internal/mcptools"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the profiler as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := loadOptions()
		if err != nil {
			return err
		}
		return mcptools.ServeStdio(Version, &mcptools.Handlers{
			Options:  opt,
			HeadRows: cfg.HeadRows,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
