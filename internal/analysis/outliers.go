package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/tabscope/internal/dataset"
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/aclements/go-moremath/stats"
)

const (
	MinZThreshold     = 2.0
	MaxZThreshold     = 5.0
	DefaultZThreshold = 3.0
	// InsightZThreshold is fixed and independent of the interactive threshold.
	InsightZThreshold = 3.0
	// IQRMultiplier scales the interquartile range into Tukey fences.
	IQRMultiplier = 1.5
)

// Flag is one anomalous cell.
type Flag struct {
	// Row is the index in the unfiltered table.
	Row int
	// Position is the index among the column's non-missing values.
	Position int
	Value    float64
	// Score is |z| for Z-score flags and the distance past the violated fence for IQR flags.
	Score float64
}

// ZScoreResult lists the flags of one column at one threshold.
type ZScoreResult struct {
	Column    string
	Threshold float64
	Mean      float64
	Std       float64 // population standard deviation of the non-missing values
	Flags     []Flag
	Rows      *roaring.Bitmap
}

// RowIndices returns flagged table rows in ascending order.
func (r *ZScoreResult) RowIndices() []int { return bitmapRows(r.Rows) }

// MaxAbsZ returns the largest |z| among flagged values, 0 when nothing is flagged.
func (r *ZScoreResult) MaxAbsZ() float64 {
	m := 0.0
	for _, f := range r.Flags {
		if f.Score > m {
			m = f.Score
		}
	}
	return m
}

// ZScoreReport maps numeric columns (declaration order) to their Z-score flags.
type ZScoreReport struct {
	Threshold float64
	Columns   []ZScoreResult
}

// Result returns the flags of one column.
func (r *ZScoreReport) Result(column string) (*ZScoreResult, bool) {
	for i := range r.Columns {
		if r.Columns[i].Column == column {
			return &r.Columns[i], true
		}
	}
	return nil, false
}

// FlaggedRows returns the rows flagged for column with every column of t.
func (r *ZScoreReport) FlaggedRows(t *dataset.Table, column string) (*dataset.Table, error) {
	res, ok := r.Result(column)
	if !ok {
		return nil, fmt.Errorf("no z-score result for column %q", column)
	}
	return t.Subset(res.RowIndices()), nil
}

// DetectZScore flags, per numeric column, the rows whose |z| exceeds threshold.
// z is computed once over the non-missing values with the population standard
// deviation; a zero or undefined deviation flags nothing.
func DetectZScore(t *dataset.Table, threshold float64) (*ZScoreReport, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	rep := &ZScoreReport{Threshold: threshold}
	for _, c := range t.NumericColumns() {
		rep.Columns = append(rep.Columns, zscoreColumn(c, threshold))
	}
	return rep, nil
}

func zscoreColumn(c *dataset.Column, threshold float64) ZScoreResult {
	vals, rows := c.Values()
	res := ZScoreResult{Column: c.Name, Threshold: threshold, Rows: roaring.New(), Mean: math.NaN(), Std: populationStd(vals)}
	if len(vals) == 0 {
		return res
	}
	res.Mean = stats.Mean(vals)
	if res.Std == 0 || math.IsNaN(res.Std) {
		return res
	}
	for pos, x := range vals {
		z := (x - res.Mean) / res.Std
		if math.Abs(z) > threshold {
			res.Flags = append(res.Flags, Flag{Row: rows[pos], Position: pos, Value: x, Score: math.Abs(z)})
			res.Rows.Add(uint32(rows[pos]))
		}
	}
	return res
}

// IQRResult lists the values outside the Tukey fences of one column.
type IQRResult struct {
	Column string
	Q1     float64
	Q3     float64
	IQR    float64
	Lower  float64
	Upper  float64
	Flags  []Flag
	Rows   *roaring.Bitmap
}

// RowIndices returns flagged table rows in ascending order.
func (r *IQRResult) RowIndices() []int { return bitmapRows(r.Rows) }

// IQRReport maps numeric columns (declaration order) to their IQR flags.
type IQRReport struct {
	Columns []IQRResult
}

// Result returns the flags of one column.
func (r *IQRReport) Result(column string) (*IQRResult, bool) {
	for i := range r.Columns {
		if r.Columns[i].Column == column {
			return &r.Columns[i], true
		}
	}
	return nil, false
}

// FlaggedRows returns the rows flagged for column with every column of t.
func (r *IQRReport) FlaggedRows(t *dataset.Table, column string) (*dataset.Table, error) {
	res, ok := r.Result(column)
	if !ok {
		return nil, fmt.Errorf("no iqr result for column %q", column)
	}
	return t.Subset(res.RowIndices()), nil
}

// DetectIQR flags, per numeric column, non-missing values strictly outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. Columns are evaluated independently.
func DetectIQR(t *dataset.Table) *IQRReport {
	rep := &IQRReport{}
	for _, c := range t.NumericColumns() {
		rep.Columns = append(rep.Columns, iqrColumn(c))
	}
	return rep
}

func iqrColumn(c *dataset.Column) IQRResult {
	vals, rows := c.Values()
	res := IQRResult{Column: c.Name, Rows: roaring.New()}
	if len(vals) == 0 {
		nan := math.NaN()
		res.Q1, res.Q3, res.IQR, res.Lower, res.Upper = nan, nan, nan, nan, nan
		return res
	}
	res.Q1, _, res.Q3 = quartiles(vals)
	res.IQR = res.Q3 - res.Q1
	res.Lower, res.Upper = iqrFences(res.Q1, res.Q3)
	for pos, x := range vals {
		var dist float64
		switch {
		case x < res.Lower:
			dist = res.Lower - x
		case x > res.Upper:
			dist = x - res.Upper
		default:
			continue
		}
		res.Flags = append(res.Flags, Flag{Row: rows[pos], Position: pos, Value: x, Score: dist})
		res.Rows.Add(uint32(rows[pos]))
	}
	return res
}

// FlaggedAny unions the rows flagged by either method across all columns.
func FlaggedAny(z *ZScoreReport, iqr *IQRReport) *roaring.Bitmap {
	all := roaring.New()
	if z != nil {
		for _, r := range z.Columns {
			all.Or(r.Rows)
		}
	}
	if iqr != nil {
		for _, r := range iqr.Columns {
			all.Or(r.Rows)
		}
	}
	return all
}

func bitmapRows(b *roaring.Bitmap) []int {
	if b == nil {
		return nil
	}
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
