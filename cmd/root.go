package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/tabscope/internal/config"
	"github.com/KaramelBytes/tabscope/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagLogLevel  string
	flagLogFormat string
	flagSeqURL    string

	// Loaded configuration and logger
	cfg         *cfgpkg.Global
	logger      = logging.Discard()
	closeLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "tabscope",
	Short: "tabscope: profile tabular data and flag anomalies",
	Long: `tabscope loads a CSV/TSV or XLSX table, normalizes date columns, and reports
descriptive statistics, missing values, correlations, Z-score and IQR outliers,
and a short list of insights.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { closeLogger() },
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabscope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSeqURL, "seq-url", "", "also ship logs to this Seq server (overrides config)")
}

// setup loads configuration and builds the logger before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c

	f := cmd.Root().PersistentFlags()
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("seq-url") {
		cfg.SeqURL = flagSeqURL
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	l, closeFn, err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		SeqURL: cfg.SeqURL,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	logger, closeLogger = l, closeFn
	logger.Debug("config loaded", slog.String("file", cfgFile), slog.Float64("z_threshold", cfg.ZThreshold))
	return nil
}
