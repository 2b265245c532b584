package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/tabscope/internal/dataset"
)

// TrendPoint is one (row, value) sample; missing values are NaN gaps.
type TrendPoint struct {
	Index int
	Value float64
}

// TrendSeries is the line-chart data of one numeric column.
type TrendSeries struct {
	Column string
	Unit   string
	Points []TrendPoint
}

// HeatmapData is the correlation matrix laid out for a heatmap.
type HeatmapData struct {
	Labels []string
	Cells  [][]float64
}

// BoxplotData is the box-and-whisker summary of one numeric column.
type BoxplotData struct {
	Column      string
	Q1          float64
	Median      float64
	Q3          float64
	LowWhisker  float64
	HighWhisker float64
	Fliers      []float64
}

// ChartRenderer draws chart data. The engine never renders pixels itself.
type ChartRenderer interface {
	RenderTrend(s *TrendSeries) error
	RenderHeatmap(h *HeatmapData) error
	RenderBoxplot(b *BoxplotData) error
}

func numericColumn(t *dataset.Table, column string) (*dataset.Column, error) {
	c, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("column %q not found", column)
	}
	if c.Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("column %q is %s, not numeric", column, c.Kind)
	}
	return c, nil
}

// Trend returns the value of every row of a numeric column, in row order.
func Trend(t *dataset.Table, column string) (*TrendSeries, error) {
	c, err := numericColumn(t, column)
	if err != nil {
		return nil, err
	}
	s := &TrendSeries{Column: c.Name, Unit: c.Unit, Points: make([]TrendPoint, len(c.Num))}
	for i, v := range c.Num {
		s.Points[i] = TrendPoint{Index: i, Value: v}
	}
	return s, nil
}

// Heatmap copies the correlation matrix into heatmap form.
func Heatmap(m *CorrMatrix) *HeatmapData {
	h := &HeatmapData{}
	if m.Empty() {
		return h
	}
	h.Labels = append([]string(nil), m.Columns...)
	h.Cells = make([][]float64, len(m.Values))
	for i, row := range m.Values {
		h.Cells[i] = append([]float64(nil), row...)
	}
	return h
}

// Boxplot summarizes a numeric column with Tukey whiskers: the most extreme
// values still inside the IQR fences. Values outside are fliers.
func Boxplot(t *dataset.Table, column string) (*BoxplotData, error) {
	c, err := numericColumn(t, column)
	if err != nil {
		return nil, err
	}
	vals, _ := c.Values()
	if len(vals) == 0 {
		return nil, fmt.Errorf("column %q has no values", column)
	}
	s := sortedCopy(vals)
	b := &BoxplotData{Column: c.Name, Q1: quantile(s, 0.25), Median: quantile(s, 0.5), Q3: quantile(s, 0.75)}
	lower, upper := iqrFences(b.Q1, b.Q3)
	b.LowWhisker, b.HighWhisker = math.Inf(1), math.Inf(-1)
	for _, x := range s {
		if x < lower || x > upper {
			b.Fliers = append(b.Fliers, x)
			continue
		}
		b.LowWhisker = math.Min(b.LowWhisker, x)
		b.HighWhisker = math.Max(b.HighWhisker, x)
	}
	return b, nil
}

// RenderCharts hands trend and boxplot data for each column, then the heatmap,
// to r. With no columns given every numeric column holding at least one value
// is drawn.
func RenderCharts(r ChartRenderer, t *dataset.Table, p *Profile, columns []string) error {
	if len(columns) == 0 {
		for _, c := range t.NumericColumns() {
			if vals, _ := c.Values(); len(vals) > 0 {
				columns = append(columns, c.Name)
			}
		}
	}
	for _, name := range columns {
		s, err := Trend(t, name)
		if err != nil {
			return err
		}
		if err := r.RenderTrend(s); err != nil {
			return fmt.Errorf("render trend %s: %w", name, err)
		}
		b, err := Boxplot(t, name)
		if err != nil {
			return err
		}
		if err := r.RenderBoxplot(b); err != nil {
			return fmt.Errorf("render boxplot %s: %w", name, err)
		}
	}
	if p != nil && !p.Corr.Empty() {
		if err := r.RenderHeatmap(Heatmap(p.Corr)); err != nil {
			return fmt.Errorf("render heatmap: %w", err)
		}
	}
	return nil
}
