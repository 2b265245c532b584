package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	nan := math.NaN()
	return &Table{
		Name: "sample",
		Columns: []*Column{
			NewText("city", []string{"Oslo", "", "Rome"}),
			NewNumeric("temp", []float64{1.5, nan, 20}),
			{Name: "day", Kind: KindDate, Time: []time.Time{
				time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), {}, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
			}},
		},
	}
}

func TestTableBasics(t *testing.T) {
	tbl := sampleTable()
	require.NoError(t, tbl.Validate())
	assert.Equal(t, 3, tbl.Rows())

	num := tbl.NumericColumns()
	require.Len(t, num, 1)
	assert.Equal(t, "temp", num[0].Name)

	for _, c := range tbl.Columns {
		assert.Equal(t, 1, c.MissingCount(), c.Name)
		assert.True(t, c.IsMissing(1), c.Name)
	}

	vals, rows := num[0].Values()
	assert.Equal(t, []float64{1.5, 20}, vals)
	assert.Equal(t, []int{0, 2}, rows)
}

func TestTableValidateMismatch(t *testing.T) {
	tbl := sampleTable()
	tbl.Columns[1].Num = tbl.Columns[1].Num[:2]
	err := tbl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"temp"`)
}

func TestTableSubsetKeepsEveryColumn(t *testing.T) {
	tbl := sampleTable()
	sub := tbl.Subset([]int{2, 0})
	require.NoError(t, sub.Validate())
	assert.Equal(t, 2, sub.Rows())
	assert.Equal(t, []string{"Rome", "20", "03.03.2024"}, sub.Record(0))
	assert.Equal(t, []string{"Oslo", "1.5", "01.03.2024"}, sub.Record(1))
	assert.Equal(t, []string{"", "", ""}, tbl.Record(1))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "numeric", KindNumeric.String())
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "date", KindDate.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
