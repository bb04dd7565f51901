package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/utils"
	"github.com/KaramelBytes/tablescope/internal/workspace"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// render formats a query result in the configured output format. md is used
// for markdown; v is marshalled for json and yaml.
func render(md string, v any) (string, error) {
	switch strings.ToLower(cfg.OutputFormat) {
	case "", "markdown", "md":
		return md, nil
	case "json":
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case "yaml", "yml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("marshal yaml: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use markdown, json or yaml)", cfg.OutputFormat)
	}
}

func emit(cmd *cobra.Command, md string, v any) error {
	out, err := render(md, v)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// openTable loads a dataset named by a path or by "@<id>" for a workspace
// dataset.
func openTable(arg string) (*analysis.Table, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	if id, ok := strings.CutPrefix(arg, "@"); ok {
		ws, err := openWorkspace(opt)
		if err != nil {
			return nil, err
		}
		return ws.Load(id, opt)
	}
	return analysis.Load(arg, opt)
}

func openWorkspace(opt analysis.Options) (*workspace.Workspace, error) {
	return workspace.Open(cfg.DataDir, cfg.AllowedExtensions, opt)
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
