package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataDir           string   `mapstructure:"data_dir" yaml:"data_dir"`
	ListenAddr        string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB       int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" yaml:"allowed_extensions"`
	HeadRows          int      `mapstructure:"head_rows" yaml:"head_rows"`
	OutputFormat      string   `mapstructure:"output_format" yaml:"output_format"`

	// Parsing; empty means the loader default
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
}

const dirName = ".tablescope"

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tablescope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, dirName)
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	out := *c
	// keep the default data_dir implicit so it follows $HOME
	if def, err := defaultDataDir(); err == nil && filepath.Clean(out.DataDir) == def {
		out.DataDir = ""
	}
	b, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABLESCOPE")
	v.AutomaticEnv()

	v.SetDefault("data_dir", "")
	v.SetDefault("listen_addr", "127.0.0.1:5000")
	v.SetDefault("max_upload_mb", 16)
	v.SetDefault("allowed_extensions", []string{"csv", "tsv"})
	v.SetDefault("head_rows", 10)
	v.SetDefault("output_format", "markdown")
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		c.DataDir = dir
	}
	dir, err := utils.ExpandHome(c.DataDir)
	if err != nil {
		return nil, err
	}
	c.DataDir = dir
	return &c, nil
}

// defaultDataDir is ~/.tablescope/data.
func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "data"), nil
}

// Set assigns one key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	switch key {
	case "data_dir":
		c.DataDir = val
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb":
		n, err := parsePositive(val)
		if err != nil {
			return fmt.Errorf("invalid int for max_upload_mb: %v", val)
		}
		c.MaxUploadMB = n
	case "head_rows":
		n, err := parsePositive(val)
		if err != nil {
			return fmt.Errorf("invalid int for head_rows: %v", val)
		}
		c.HeadRows = n
	case "allowed_extensions":
		var exts []string
		for _, e := range strings.Split(val, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, strings.TrimPrefix(e, "."))
			}
		}
		if len(exts) == 0 {
			return fmt.Errorf("allowed_extensions must not be empty")
		}
		c.AllowedExtensions = exts
	case "output_format":
		switch val {
		case "markdown", "json", "yaml":
			c.OutputFormat = val
		default:
			return fmt.Errorf("invalid output_format: %s (use markdown, json or yaml)", val)
		}
	case "delimiter", "decimal_separator", "thousands_separator":
		probe := *c
		switch key {
		case "delimiter":
			probe.Delimiter = val
		case "decimal_separator":
			probe.DecimalSeparator = val
		default:
			probe.ThousandsSeparator = val
		}
		if _, err := probe.LoadOptions(); err != nil {
			return err
		}
		*c = probe
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func parsePositive(val string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("not a positive int: %s", val)
	}
	return n, nil
}

// LoadOptions translates the parsing keys into loader options.
func (c *Global) LoadOptions() (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	d, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	switch strings.ToLower(strings.TrimSpace(c.DecimalSeparator)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported decimal separator: %s (use '.'|'comma')", c.DecimalSeparator)
	}
	switch strings.ToLower(c.ThousandsSeparator) {
	case ",", "comma":
		opt.ThousandsSeparator = ','
	case ".", "dot":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported thousands separator: %s (use ','|'.'|'space')", c.ThousandsSeparator)
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if opt.ThousandsSeparator == dec {
		return opt, fmt.Errorf("decimal and thousands separators must differ")
	}
	if opt.Delimiter != 0 && opt.Delimiter == dec {
		return opt, fmt.Errorf("decimal separator must differ from the delimiter")
	}
	return opt, nil
}

// ParseDelimiter accepts a literal delimiter or one of its names. Empty means
// sniff from the file extension.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", "\\t", "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s", s)
	}
}
