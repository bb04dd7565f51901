package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	cfgpkg "github.com/KaramelBytes/tablescope/internal/config"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

var (
	cfgFile      string
	debug        bool
	outputFormat string
	flagDataDir  string
	flagDelim    string
	flagDecimal  string
	flagThousand string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:           "tablescope",
	Short:         "tablescope: profile CSV/TSV datasets from the terminal, HTTP or MCP",
	Long:          `tablescope loads a delimited dataset and reports its shape, types, missing values, duplicates, descriptive statistics, correlations and per-column value counts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.tablescope/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug output")
	f.StringVarP(&outputFormat, "format", "f", "", "output format: markdown|json|yaml (overrides config)")
	f.StringVar(&flagDataDir, "data-dir", "", "workspace directory (overrides config)")
	f.StringVar(&flagDelim, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (default: by extension)")
	f.StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	f.StringVar(&flagThousand, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{HeadRows: 10, MaxUploadMB: 16, ListenAddr: "127.0.0.1:5000", AllowedExtensions: []string{"csv", "tsv"}, OutputFormat: "markdown"}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelim
	}
	if f.Changed("decimal") {
		cfg.DecimalSeparator = flagDecimal
	}
	if f.Changed("thousands") {
		cfg.ThousandsSeparator = flagThousand
	}
	if f.Changed("format") && outputFormat != "" {
		cfg.OutputFormat = outputFormat
	}
	if debug {
		fmt.Fprintf(os.Stderr, "debug: config=%q data_dir=%s format=%s\n", cfgFile, cfg.DataDir, cfg.OutputFormat)
	}
}

func loadOptions() (analysis.Options, error) {
	return cfg.LoadOptions()
}
