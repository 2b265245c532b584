package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/tabscope/internal/analysis"
	cfgpkg "github.com/KaramelBytes/tabscope/internal/config"
	"github.com/KaramelBytes/tabscope/internal/utils"
	"github.com/spf13/cobra"
)

var (
	profIn         inputFlags
	profOutputPath string
	profFormat     string
	profZThreshold float64
	profSampleRows int
	profChartsDir  string
	profColumns    []string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a CSV/TSV/XLSX table: statistics, correlations, outliers and insights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		t, err := profIn.load(path)
		if err != nil {
			return err
		}
		opt := runOptions(cmd, profZThreshold, profSampleRows)
		p, err := analysis.Run(cmd.Context(), t, opt)
		if err != nil {
			return err
		}
		format := cfg.OutputFormat
		if profFormat != "" {
			format = profFormat
		}
		out, err := renderProfile(p, format)
		if err != nil {
			return err
		}

		if profChartsDir != "" {
			r := &jsonChartRenderer{dir: profChartsDir}
			if err := analysis.RenderCharts(r, t, p, profColumns); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d chart files to %s\n", len(r.written), profChartsDir)
		}

		if profOutputPath != "" {
			if err := utils.SafeWriteFile(profOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile of %s to %s\n", filepath.Base(path), profOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// runOptions applies the --z-threshold and --sample-rows overrides on top of config.
func runOptions(cmd *cobra.Command, z float64, sample int) analysis.Options {
	opt := analysis.DefaultOptions()
	opt.ZThreshold = cfg.ZThreshold
	opt.SampleRows = cfg.SampleRows
	if cmd.Flags().Changed("z-threshold") {
		opt.ZThreshold = z
	}
	if cmd.Flags().Changed("sample-rows") {
		opt.SampleRows = sample
	}
	opt.Logger = logger
	return opt
}

func renderProfile(p *analysis.Profile, format string) ([]byte, error) {
	switch format {
	case cfgpkg.FormatMarkdown:
		return []byte(p.Markdown()), nil
	case cfgpkg.FormatJSON:
		return p.JSON()
	case cfgpkg.FormatYAML:
		return p.YAML()
	}
	return nil, fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", format)
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profIn.register(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile")
	profileCmd.Flags().StringVar(&profFormat, "format", "", "output format: markdown|json|yaml (overrides config)")
	profileCmd.Flags().Float64Var(&profZThreshold, "z-threshold", analysis.DefaultZThreshold, "Z-score threshold in [2, 5] (overrides config)")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 5, "number of leading rows to include (overrides config)")
	profileCmd.Flags().StringVar(&profChartsDir, "charts", "", "directory to write chart data (JSON) into")
	profileCmd.Flags().StringSliceVar(&profColumns, "column", nil, "numeric columns to chart (default: all)")
}
