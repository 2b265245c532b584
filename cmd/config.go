package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/tabscope/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabscope configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "z_threshold: %.2f\n", cfg.ZThreshold)
		fmt.Fprintf(out, "max_rows: %d\n", cfg.MaxRows)
		fmt.Fprintf(out, "sample_rows: %d\n", cfg.SampleRows)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		if cfg.DecimalSeparator != "" {
			fmt.Fprintf(out, "decimal_separator: %q\n", cfg.DecimalSeparator)
		}
		if cfg.ThousandsSeparator != "" {
			fmt.Fprintf(out, "thousands_separator: %q\n", cfg.ThousandsSeparator)
		}
		fmt.Fprintf(out, "encoding: %s\n", cfg.Encoding)
		fmt.Fprintf(out, "unit_normalize: %t\n", cfg.UnitNormalize)
		fmt.Fprintf(out, "unit_targets: %s\n", strings.Join(cfg.UnitTargets, ", "))
		fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		if cfg.SeqURL != "" {
			fmt.Fprintf(out, "seq_url: %s\n", cfg.SeqURL)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		next := *cfg
		switch key {
		case "z_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for z_threshold: %w", err)
			}
			next.ZThreshold = f
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for max_rows: %w", err)
			}
			next.MaxRows = i
		case "sample_rows":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for sample_rows: %w", err)
			}
			next.SampleRows = i
		case "delimiter":
			next.Delimiter = val
		case "decimal_separator":
			next.DecimalSeparator = val
		case "thousands_separator":
			next.ThousandsSeparator = val
		case "encoding":
			next.Encoding = val
		case "unit_normalize":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for unit_normalize: %w", err)
			}
			next.UnitNormalize = b
		case "unit_targets":
			var pairs []string
			for _, p := range strings.Split(val, ",") {
				if p = strings.TrimSpace(p); p != "" {
					pairs = append(pairs, p)
				}
			}
			next.UnitTargets = pairs
		case "output_format":
			next.OutputFormat = strings.ToLower(val)
		case "log_level":
			next.LogLevel = strings.ToLower(val)
		case "log_format":
			next.LogFormat = strings.ToLower(val)
		case "seq_url":
			next.SeqURL = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		*cfg = next
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
