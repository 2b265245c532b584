package analysis

import (
	"math"
	"sort"
)

// quantile interpolates linearly between the order statistics around q*(n-1).
// sorted must be ascending; an empty slice yields NaN.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// quartiles returns Q1, median and Q3 of vals (in any order).
func quartiles(vals []float64) (q1, median, q3 float64) {
	s := sortedCopy(vals)
	return quantile(s, 0.25), quantile(s, 0.5), quantile(s, 0.75)
}

// iqrFences returns the Tukey fences Q1-1.5*IQR and Q3+1.5*IQR.
func iqrFences(q1, q3 float64) (lower, upper float64) {
	iqr := q3 - q1
	return q1 - IQRMultiplier*iqr, q3 + IQRMultiplier*iqr
}
