package analysis

import (
	"math"

	"github.com/KaramelBytes/tabscope/internal/dataset"
	"github.com/aclements/go-moremath/stats"
)

// Stat names a row of the descriptive statistics table.
type Stat string

const (
	StatCount   Stat = "count"
	StatMean    Stat = "mean"
	StatStd     Stat = "std"
	StatMin     Stat = "min"
	StatQ1      Stat = "25%"
	StatMedian  Stat = "50%"
	StatQ3      Stat = "75%"
	StatMax     Stat = "max"
	StatMissing Stat = "missing"
)

var statOrder = []Stat{StatCount, StatMean, StatStd, StatMin, StatQ1, StatMedian, StatQ3, StatMax, StatMissing}

// ColumnStats holds the descriptive statistics of one numeric column.
// Undefined values (empty column, std of fewer than two values) are NaN.
type ColumnStats struct {
	Column  string
	Count   int
	Mean    float64
	Std     float64
	Min     float64
	Q1      float64
	Median  float64
	Q3      float64
	Max     float64
	Missing int
}

// Value returns the statistic by name.
func (s ColumnStats) Value(stat Stat) float64 {
	switch stat {
	case StatCount:
		return float64(s.Count)
	case StatMean:
		return s.Mean
	case StatStd:
		return s.Std
	case StatMin:
		return s.Min
	case StatQ1:
		return s.Q1
	case StatMedian:
		return s.Median
	case StatQ3:
		return s.Q3
	case StatMax:
		return s.Max
	case StatMissing:
		return float64(s.Missing)
	}
	return math.NaN()
}

// Summary is the statistics table: one row per Stat, one column per numeric field.
type Summary struct {
	Columns []ColumnStats
}

// Stats lists the statistic names in display order.
func (s *Summary) Stats() []Stat { return statOrder }

// Empty reports whether the table had no numeric columns.
func (s *Summary) Empty() bool { return len(s.Columns) == 0 }

// Value looks up one cell of the statistics table.
func (s *Summary) Value(stat Stat, column string) (float64, bool) {
	for _, c := range s.Columns {
		if c.Column == column {
			return c.Value(stat), true
		}
	}
	return math.NaN(), false
}

// Describe computes statistics for every numeric column in declaration order.
func Describe(t *dataset.Table) *Summary {
	s := &Summary{}
	for _, c := range t.NumericColumns() {
		s.Columns = append(s.Columns, describeColumn(c))
	}
	return s
}

func describeColumn(c *dataset.Column) ColumnStats {
	vals, _ := c.Values()
	cs := ColumnStats{Column: c.Name, Count: len(vals), Missing: c.Len() - len(vals)}
	if len(vals) == 0 {
		nan := math.NaN()
		cs.Mean, cs.Std, cs.Min, cs.Q1, cs.Median, cs.Q3, cs.Max = nan, nan, nan, nan, nan, nan, nan
		return cs
	}
	cs.Mean = stats.Mean(vals)
	cs.Std = sampleStd(vals)
	cs.Min, cs.Max = stats.Bounds(vals)
	cs.Q1, cs.Median, cs.Q3 = quartiles(vals)
	return cs
}

// sampleStd is the n-1 standard deviation; NaN below two values.
func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	return stats.StdDev(vals)
}

// populationStd is the n standard deviation used for z-scores.
func populationStd(vals []float64) float64 {
	n := len(vals)
	switch n {
	case 0:
		return math.NaN()
	case 1:
		return 0
	}
	return math.Sqrt(stats.Variance(vals) * float64(n-1) / float64(n))
}

// MissingCount is the missing-value tally of one column of any kind.
type MissingCount struct {
	Column  string
	Kind    dataset.Kind
	Missing int
	Rows    int
}

// Ratio is Missing/Rows, or 0 for an empty table.
func (m MissingCount) Ratio() float64 {
	if m.Rows == 0 {
		return 0
	}
	return float64(m.Missing) / float64(m.Rows)
}

// MissingCounts tallies missing cells for every column in declaration order.
func MissingCounts(t *dataset.Table) []MissingCount {
	out := make([]MissingCount, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, MissingCount{Column: c.Name, Kind: c.Kind, Missing: c.MissingCount(), Rows: c.Len()})
	}
	return out
}

// TotalMissing sums the missing cells across columns.
func TotalMissing(counts []MissingCount) int {
	n := 0
	for _, m := range counts {
		n += m.Missing
	}
	return n
}
