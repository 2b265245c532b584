package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/tabscope/internal/utils"
	"gopkg.in/yaml.v3"
)

// Markdown renders the profile as a compact, sectioned summary.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(p.Columns)))
	b.WriteString(fmt.Sprintf("Run: %s\n\n", p.RunID))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", name, c.Kind))
	}

	if len(p.Conversions) > 0 {
		b.WriteString("\n[TYPE NORMALIZATION]\n")
		for _, c := range p.Conversions {
			if c.Converted {
				b.WriteString(fmt.Sprintf("- %s: converted to date\n", safeName(c.Column)))
			} else {
				b.WriteString(fmt.Sprintf("- %s: kept as text (e.g. %q)\n", safeName(c.Column), safeVal(c.FirstFailure)))
			}
		}
	}

	b.WriteString("\n[DESCRIPTIVE STATISTICS]\n")
	if p.Stats == nil || p.Stats.Empty() {
		b.WriteString("No numeric columns.\n")
	} else {
		b.WriteString("| stat")
		for _, c := range p.Stats.Columns {
			b.WriteString(" | " + safeVal(c.Column))
		}
		b.WriteString(" |\n|---")
		for range p.Stats.Columns {
			b.WriteString("|---")
		}
		b.WriteString("|\n")
		for _, s := range p.Stats.Stats() {
			b.WriteString("| " + string(s))
			for _, c := range p.Stats.Columns {
				b.WriteString(" | " + formatNum(c.Value(s)))
			}
			b.WriteString(" |\n")
		}
	}

	b.WriteString("\n[MISSING VALUES]\n")
	if TotalMissing(p.Missing) == 0 {
		b.WriteString("No missing values.\n")
	} else {
		for _, m := range p.Missing {
			if m.Missing == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %d of %d (%.2f%%)\n", safeName(m.Column), m.Missing, m.Rows, m.Ratio()*100))
		}
	}

	if p.Corr != nil && len(p.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		pairs := p.Corr.TopPairs(10)
		if len(pairs) == 0 {
			b.WriteString("No defined coefficients.\n")
		}
		for _, pr := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", safeName(pr.A), safeName(pr.B), pr.R))
		}
	}

	if p.ZScore != nil {
		b.WriteString(fmt.Sprintf("\n[Z-SCORE OUTLIERS] |z| > %.1f\n", p.ZScore.Threshold))
		found := false
		for _, r := range p.ZScore.Columns {
			if len(r.Flags) == 0 {
				continue
			}
			found = true
			b.WriteString(fmt.Sprintf("- %s: %d flagged (max |z|≈%.2f), rows %s\n", safeName(r.Column), len(r.Flags), r.MaxAbsZ(), joinRows(r.RowIndices())))
		}
		if !found {
			b.WriteString("None.\n")
		}
	}

	if p.IQR != nil {
		b.WriteString("\n[IQR OUTLIERS]\n")
		found := false
		for _, r := range p.IQR.Columns {
			if len(r.Flags) == 0 {
				continue
			}
			found = true
			b.WriteString(fmt.Sprintf("- %s: %d outside [%.4g, %.4g], rows %s\n", safeName(r.Column), len(r.Flags), r.Lower, r.Upper, joinRows(r.RowIndices())))
		}
		if !found {
			b.WriteString("None.\n")
		}
	}

	if p.Insights != nil && p.Insights.Checked {
		b.WriteString("\n[INSIGHTS]\n")
		for _, line := range p.Insights.Lines() {
			b.WriteString("- " + line + "\n")
		}
	}

	if len(p.Sample) > 0 {
		b.WriteString("\n[HEAD ROWS]\n| ")
		for i, c := range p.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n|")
		for range p.Columns {
			b.WriteString("---|")
		}
		b.WriteString("\n")
		for _, row := range p.Sample {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(truncate(val, 80)))
			}
			b.WriteString(" |\n")
		}
	}

	if len(p.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range p.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}

func joinRows(rows []int) string {
	const limit = 20
	parts := make([]string, 0, len(rows))
	for i, r := range rows {
		if i == limit {
			parts = append(parts, fmt.Sprintf("… (+%d)", len(rows)-limit))
			break
		}
		parts = append(parts, fmt.Sprint(r))
	}
	return strings.Join(parts, ", ")
}

// Export is the serializable view of a Profile. Undefined numbers are null.
type Export struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	Name        string          `json:"name,omitempty" yaml:"name,omitempty"`
	Rows        int             `json:"rows" yaml:"rows"`
	Columns     []ExportColumn  `json:"columns" yaml:"columns"`
	Conversions []Conversion    `json:"conversions,omitempty" yaml:"conversions,omitempty"`
	Stats       []ExportStats   `json:"stats" yaml:"stats"`
	Correlation *ExportCorr     `json:"correlation,omitempty" yaml:"correlation,omitempty"`
	ZScore      ExportOutliers  `json:"zscore" yaml:"zscore"`
	IQR         []ExportIQR     `json:"iqr" yaml:"iqr"`
	Insights    []ExportInsight `json:"insights" yaml:"insights"`
	Warnings    []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	ElapsedMS   int64           `json:"elapsed_ms" yaml:"elapsed_ms"`
}

type ExportColumn struct {
	Name    string `json:"name" yaml:"name"`
	Unit    string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Kind    string `json:"kind" yaml:"kind"`
	Missing int    `json:"missing" yaml:"missing"`
}

type ExportStats struct {
	Column string   `json:"column" yaml:"column"`
	Count  int      `json:"count" yaml:"count"`
	Mean   *float64 `json:"mean" yaml:"mean"`
	Std    *float64 `json:"std" yaml:"std"`
	Min    *float64 `json:"min" yaml:"min"`
	Q1     *float64 `json:"p25" yaml:"p25"`
	Median *float64 `json:"p50" yaml:"p50"`
	Q3     *float64 `json:"p75" yaml:"p75"`
	Max    *float64 `json:"max" yaml:"max"`
}

type ExportCorr struct {
	Columns []string     `json:"columns" yaml:"columns"`
	Values  [][]*float64 `json:"values" yaml:"values"`
}

type ExportOutliers struct {
	Threshold float64         `json:"threshold" yaml:"threshold"`
	Columns   []ExportZColumn `json:"columns" yaml:"columns"`
}

type ExportZColumn struct {
	Column string   `json:"column" yaml:"column"`
	Mean   *float64 `json:"mean" yaml:"mean"`
	Std    *float64 `json:"std" yaml:"std"`
	Rows   []int    `json:"rows" yaml:"rows"`
}

type ExportIQR struct {
	Column string   `json:"column" yaml:"column"`
	Lower  *float64 `json:"lower" yaml:"lower"`
	Upper  *float64 `json:"upper" yaml:"upper"`
	Rows   []int    `json:"rows" yaml:"rows"`
}

type ExportInsight struct {
	Source  Source `json:"source" yaml:"source"`
	Column  string `json:"column" yaml:"column"`
	Message string `json:"message" yaml:"message"`
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Export flattens p into its serializable form.
func (p *Profile) Export() *Export {
	e := &Export{
		RunID:       p.RunID,
		Name:        p.Name,
		Rows:        p.Rows,
		Conversions: p.Conversions,
		Warnings:    p.Warnings,
		ElapsedMS:   p.Elapsed.Milliseconds(),
		Stats:       []ExportStats{},
		IQR:         []ExportIQR{},
		Insights:    []ExportInsight{},
	}
	missing := make(map[string]int, len(p.Missing))
	for _, m := range p.Missing {
		missing[m.Column] = m.Missing
	}
	for _, c := range p.Columns {
		e.Columns = append(e.Columns, ExportColumn{Name: c.Name, Unit: c.Unit, Kind: c.Kind.String(), Missing: missing[c.Name]})
	}
	if p.Stats != nil {
		for _, s := range p.Stats.Columns {
			e.Stats = append(e.Stats, ExportStats{
				Column: s.Column, Count: s.Count,
				Mean: num(s.Mean), Std: num(s.Std), Min: num(s.Min),
				Q1: num(s.Q1), Median: num(s.Median), Q3: num(s.Q3), Max: num(s.Max),
			})
		}
	}
	if !p.Corr.Empty() {
		ec := &ExportCorr{Columns: p.Corr.Columns, Values: make([][]*float64, len(p.Corr.Values))}
		for i, row := range p.Corr.Values {
			ec.Values[i] = make([]*float64, len(row))
			for j, v := range row {
				ec.Values[i][j] = num(v)
			}
		}
		e.Correlation = ec
	}
	if p.ZScore != nil {
		e.ZScore.Threshold = p.ZScore.Threshold
		for i := range p.ZScore.Columns {
			r := &p.ZScore.Columns[i]
			e.ZScore.Columns = append(e.ZScore.Columns, ExportZColumn{Column: r.Column, Mean: num(r.Mean), Std: num(r.Std), Rows: nonNil(r.RowIndices())})
		}
	}
	if p.IQR != nil {
		for i := range p.IQR.Columns {
			r := &p.IQR.Columns[i]
			e.IQR = append(e.IQR, ExportIQR{Column: r.Column, Lower: num(r.Lower), Upper: num(r.Upper), Rows: nonNil(r.RowIndices())})
		}
	}
	if p.Insights != nil {
		for _, it := range p.Insights.Items {
			e.Insights = append(e.Insights, ExportInsight{Source: it.Source, Column: it.Column, Message: it.Message})
		}
	}
	return e
}

func nonNil(rows []int) []int {
	if rows == nil {
		return []int{}
	}
	return rows
}

// JSON encodes the profile as indented JSON.
func (p *Profile) JSON() ([]byte, error) {
	return utils.PrettyJSON(p.Export())
}

// YAML encodes the profile as YAML.
func (p *Profile) YAML() ([]byte, error) {
	b, err := yaml.Marshal(p.Export())
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}
