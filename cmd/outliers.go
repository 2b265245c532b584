package cmd

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabscope/internal/analysis"
	"github.com/KaramelBytes/tabscope/internal/dataset"
	"github.com/KaramelBytes/tabscope/internal/utils"
	"github.com/spf13/cobra"
)

var (
	outIn         inputFlags
	outMethod     string
	outColumns    []string
	outZThreshold float64
	outCSV        bool
	outOutputPath string
)

// flaggedView is one column's flagged rows with every column of the table.
type flaggedView struct {
	column string
	flags  []analysis.Flag
	rows   *dataset.Table
}

var outliersCmd = &cobra.Command{
	Use:   "outliers <file>",
	Short: "List the full rows flagged as outliers, per numeric column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := outIn.load(args[0])
		if err != nil {
			return err
		}
		analysis.Normalize(t)

		threshold := cfg.ZThreshold
		if cmd.Flags().Changed("z-threshold") {
			threshold = outZThreshold
		}
		views, err := flaggedViews(t, strings.ToLower(outMethod), threshold, outColumns)
		if err != nil {
			return err
		}
		logger.Info("outliers detected", "method", outMethod, "columns", len(views), "z_threshold", threshold)

		var body []byte
		if outCSV {
			body, err = flaggedCSV(t, views)
			if err != nil {
				return err
			}
		} else {
			body = []byte(flaggedMarkdown(t, views, outMethod))
		}
		if outOutputPath != "" {
			if err := utils.SafeWriteFile(outOutputPath, body); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote outliers to %s\n", outOutputPath)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), string(body))
		return nil
	},
}

func flaggedViews(t *dataset.Table, method string, threshold float64, columns []string) ([]flaggedView, error) {
	if len(columns) == 0 {
		for _, c := range t.NumericColumns() {
			columns = append(columns, c.Name)
		}
	}
	var views []flaggedView
	switch method {
	case "zscore", "z":
		rep, err := analysis.DetectZScore(t, threshold)
		if err != nil {
			return nil, err
		}
		for _, name := range columns {
			res, ok := rep.Result(name)
			if !ok {
				return nil, fmt.Errorf("column %q is not numeric or does not exist", name)
			}
			sub, _ := rep.FlaggedRows(t, name)
			views = append(views, flaggedView{column: name, flags: res.Flags, rows: sub})
		}
	case "iqr":
		rep := analysis.DetectIQR(t)
		for _, name := range columns {
			res, ok := rep.Result(name)
			if !ok {
				return nil, fmt.Errorf("column %q is not numeric or does not exist", name)
			}
			sub, _ := rep.FlaggedRows(t, name)
			views = append(views, flaggedView{column: name, flags: res.Flags, rows: sub})
		}
	default:
		return nil, fmt.Errorf("unsupported --method: %s (use zscore|iqr)", method)
	}
	return views, nil
}

func flaggedMarkdown(t *dataset.Table, views []flaggedView, method string) string {
	var b strings.Builder
	for _, v := range views {
		b.WriteString(fmt.Sprintf("[%s OUTLIERS: %s]\n", strings.ToUpper(method), v.column))
		if len(v.flags) == 0 {
			b.WriteString("None.\n\n")
			continue
		}
		b.WriteString("| row | score")
		for _, c := range t.Columns {
			b.WriteString(" | " + c.Name)
		}
		b.WriteString(" |\n|---|---")
		for range t.Columns {
			b.WriteString("|---")
		}
		b.WriteString("|\n")
		for i, f := range v.flags {
			b.WriteString(fmt.Sprintf("| %d | %.3f", f.Row, f.Score))
			for _, cell := range v.rows.Record(i) {
				b.WriteString(" | " + strings.ReplaceAll(cell, "|", "/"))
			}
			b.WriteString(" |\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func flaggedCSV(t *dataset.Table, views []flaggedView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"flagged_column", "row", "score"}
	for _, c := range t.Columns {
		header = append(header, c.Name)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, v := range views {
		for i, f := range v.flags {
			rec := append([]string{v.column, fmt.Sprint(f.Row), fmt.Sprintf("%g", f.Score)}, v.rows.Record(i)...)
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	outIn.register(outliersCmd)
	outliersCmd.Flags().StringVar(&outMethod, "method", "zscore", "detection method: zscore|iqr")
	outliersCmd.Flags().StringSliceVar(&outColumns, "column", nil, "numeric columns to inspect (default: all)")
	outliersCmd.Flags().Float64Var(&outZThreshold, "z-threshold", analysis.DefaultZThreshold, "Z-score threshold in [2, 5] (overrides config)")
	outliersCmd.Flags().BoolVar(&outCSV, "csv", false, "emit CSV instead of Markdown tables")
	outliersCmd.Flags().StringVarP(&outOutputPath, "output", "o", "", "optional path to write the result")
}
