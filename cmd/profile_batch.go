package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabscope/internal/analysis"
	"github.com/KaramelBytes/tabscope/internal/utils"
	"github.com/spf13/cobra"
)

var (
	pbIn         inputFlags
	pbOutDir     string
	pbFormat     string
	pbZThreshold float64
	pbSampleRows int
	pbQuiet      bool
)

var profileBatchCmd = &cobra.Command{
	Use:   "profile-batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX files with progress, optionally writing one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		format := cfg.OutputFormat
		if pbFormat != "" {
			format = pbFormat
		}
		ext, err := formatExt(format)
		if err != nil {
			return err
		}
		opt := runOptions(cmd, pbZThreshold, pbSampleRows)
		out := cmd.OutOrStdout()

		total := len(files)
		for i, path := range files {
			if !pbQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := pbIn.load(path)
			if err != nil {
				return err
			}
			p, err := analysis.Run(cmd.Context(), t, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			body, err := renderProfile(p, format)
			if err != nil {
				return err
			}
			if pbOutDir == "" {
				if !pbQuiet {
					fmt.Fprintln(out, string(body))
				}
				continue
			}
			if err := os.MkdirAll(pbOutDir, 0o755); err != nil {
				return err
			}
			outFile := uniqueReportPath(pbOutDir, reportBase(path, pbIn.sheetName), ext)
			if err := utils.SafeWriteFile(outFile, body); err != nil {
				return fmt.Errorf("write profile: %w", err)
			}
			if !pbQuiet {
				fmt.Fprintf(out, "✓ Wrote profile to %s\n", filepath.Base(outFile))
			}
		}
		return nil
	},
}

// expandInputs globs each argument, keeps literal paths that exist, and dedupes.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func formatExt(format string) (string, error) {
	switch format {
	case "markdown":
		return ".profile.md", nil
	case "json":
		return ".profile.json", nil
	case "yaml":
		return ".profile.yaml", nil
	}
	return "", fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", format)
}

func reportBase(path, sheet string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{".gz", ".zst", ".lz4"} {
		base = strings.TrimSuffix(base, suffix)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if sheet != "" {
		base += "__sheet-" + slug(sheet)
	}
	return base
}

// uniqueReportPath appends __2, __3, ... until the name is free.
func uniqueReportPath(dir, base, ext string) string {
	outFile := filepath.Join(dir, base+ext)
	if _, err := os.Stat(outFile); err != nil {
		return outFile
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			logger.Warn("existing report kept, writing alongside", "path", cand)
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(profileBatchCmd)
	pbIn.register(profileBatchCmd)
	profileBatchCmd.Flags().StringVar(&pbOutDir, "out-dir", "", "directory to write one report per input (stdout if omitted)")
	profileBatchCmd.Flags().StringVar(&pbFormat, "format", "", "output format: markdown|json|yaml (overrides config)")
	profileBatchCmd.Flags().Float64Var(&pbZThreshold, "z-threshold", analysis.DefaultZThreshold, "Z-score threshold in [2, 5] (overrides config)")
	profileBatchCmd.Flags().IntVar(&pbSampleRows, "sample-rows", 5, "number of leading rows to include (overrides config)")
	profileBatchCmd.Flags().BoolVarP(&pbQuiet, "quiet", "q", false, "suppress progress output")
}
