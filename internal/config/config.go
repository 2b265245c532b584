package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabscope/internal/analysis"
	"github.com/KaramelBytes/tabscope/internal/dataset"
	"github.com/KaramelBytes/tabscope/internal/logging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	ZThreshold float64 `mapstructure:"z_threshold" yaml:"z_threshold"`
	MaxRows    int     `mapstructure:"max_rows" yaml:"max_rows"`
	SampleRows int     `mapstructure:"sample_rows" yaml:"sample_rows"`

	// Input parsing
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	Encoding           string `mapstructure:"encoding" yaml:"encoding"`
	UnitNormalize      bool   `mapstructure:"unit_normalize" yaml:"unit_normalize"`
	// UnitTargets are "from>to" pairs such as "g/L>mg/L"; units are case-sensitive.
	UnitTargets []string `mapstructure:"unit_targets" yaml:"unit_targets"`

	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	SeqURL    string `mapstructure:"seq_url" yaml:"seq_url"`
}

// Output formats accepted by output_format.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

func defaultUnitTargets() []string {
	var out []string
	for from, to := range dataset.DefaultUnitTargets() {
		out = append(out, from+">"+to)
	}
	sort.Strings(out)
	return out
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabscope"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabscope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. CLI flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABSCOPE")
	v.AutomaticEnv()

	v.SetDefault("z_threshold", analysis.DefaultZThreshold)
	v.SetDefault("max_rows", dataset.DefaultLoadOptions().MaxRows)
	v.SetDefault("sample_rows", analysis.DefaultOptions().SampleRows)
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("unit_normalize", true)
	v.SetDefault("unit_targets", defaultUnitTargets())
	v.SetDefault("output_format", FormatMarkdown)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("seq_url", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values that would fail later in the pipeline.
func (c *Global) Validate() error {
	if err := analysis.ValidateThreshold(c.ZThreshold); err != nil {
		return fmt.Errorf("z_threshold: %w", err)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must be >= 0, got %d", c.MaxRows)
	}
	if c.SampleRows < 0 {
		return fmt.Errorf("sample_rows must be >= 0, got %d", c.SampleRows)
	}
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	if _, err := ParseDecimal(c.DecimalSeparator); err != nil {
		return err
	}
	if _, err := ParseThousands(c.ThousandsSeparator); err != nil {
		return err
	}
	if _, err := ParseUnitTargets(c.UnitTargets); err != nil {
		return err
	}
	switch c.OutputFormat {
	case FormatMarkdown, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unsupported output_format: %s (use markdown|json|yaml)", c.OutputFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadOptions translates the input settings into loader options.
func (c *Global) LoadOptions() (dataset.LoadOptions, error) {
	opt := dataset.DefaultLoadOptions()
	opt.MaxRows = c.MaxRows
	opt.Encoding = c.Encoding
	opt.UnitNormalize = c.UnitNormalize
	var err error
	if opt.Delimiter, err = ParseDelimiter(c.Delimiter); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator, err = ParseDecimal(c.DecimalSeparator); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = ParseThousands(c.ThousandsSeparator); err != nil {
		return opt, err
	}
	if opt.UnitTargets, err = ParseUnitTargets(c.UnitTargets); err != nil {
		return opt, err
	}
	return opt, nil
}

// ParseDelimiter accepts ",", ";", "|", a tab or "tab"; empty means sniff.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	case "\t", "tab":
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %s", s)
}

// ParseDecimal accepts "." or ","; empty means auto-detect per value.
func ParseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	}
	return 0, fmt.Errorf("unsupported decimal separator: %s (use '.'|'comma')", s)
}

// ParseThousands accepts ",", "." or "space".
func ParseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	}
	return 0, fmt.Errorf("unsupported thousands separator: %s (use ','|'.'|'space')", s)
}

// ParseUnitTargets turns "from>to" pairs into the loader's conversion map.
func ParseUnitTargets(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		from, to, ok := strings.Cut(p, ">")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid unit target %q (want from>to)", p)
		}
		out[from] = to
	}
	return out, nil
}
