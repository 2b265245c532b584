package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/tabscope/internal/dataset"
	"github.com/aclements/go-moremath/stats"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Empty reports whether there were no numeric columns.
func (m *CorrMatrix) Empty() bool { return m == nil || len(m.Columns) == 0 }

// At returns the coefficient for two column names.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return math.NaN(), false
	}
	return m.Values[ia][ib], true
}

// TopPairs returns up to n off-diagonal pairs ordered by |r|. NaN pairs are skipped.
func (m *CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Correlate computes pairwise Pearson coefficients over numeric columns using only
// rows where both columns are present. Pairs with fewer than two such rows or zero
// variance are NaN; the diagonal is 1 unless the column itself is degenerate.
func Correlate(t *dataset.Table) *CorrMatrix {
	cols := t.NumericColumns()
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			r := pairwisePearson(cols[a].Num, cols[b].Num)
			if a == b && !math.IsNaN(r) {
				r = 1
			}
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

func pairwisePearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return pearson(xs, ys)
}

func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	mx, my := stats.Mean(xs), stats.Mean(ys)
	var sxx, syy, sxy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
