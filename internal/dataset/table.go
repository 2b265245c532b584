package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the declared type of a column.
type Kind int

const (
	KindUnknown Kind = iota // mixed numeric and text cells
	KindNumeric
	KindText
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// DateLayout is the display layout for date cells.
const DateLayout = "02.01.2006"

// Column is a named, typed sequence of values aligned to the table's row index.
// Exactly one of Num, Text or Time is populated, matching Kind:
// numeric cells use NaN for missing, text/unknown cells use "" and date cells the zero time.
type Column struct {
	Name string
	Unit string
	Kind Kind
	Num  []float64
	Text []string
	Time []time.Time
}

// NewNumeric builds a numeric column.
func NewNumeric(name string, vals []float64) *Column {
	return &Column{Name: name, Kind: KindNumeric, Num: vals}
}

// NewText builds a text column.
func NewText(name string, vals []string) *Column {
	return &Column{Name: name, Kind: KindText, Text: vals}
}

// Len returns the number of rows held by the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Num)
	case KindDate:
		return len(c.Time)
	default:
		return len(c.Text)
	}
}

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	switch c.Kind {
	case KindNumeric:
		return math.IsNaN(c.Num[i])
	case KindDate:
		return c.Time[i].IsZero()
	default:
		return c.Text[i] == ""
	}
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Values returns the non-missing numeric values together with their row indices.
// It returns nil slices for non-numeric columns.
func (c *Column) Values() (vals []float64, rows []int) {
	if c.Kind != KindNumeric {
		return nil, nil
	}
	vals = make([]float64, 0, len(c.Num))
	rows = make([]int, 0, len(c.Num))
	for i, v := range c.Num {
		if math.IsNaN(v) {
			continue
		}
		vals = append(vals, v)
		rows = append(rows, i)
	}
	return vals, rows
}

// Format renders row i for display. Missing cells render as "".
func (c *Column) Format(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch c.Kind {
	case KindNumeric:
		return strconv.FormatFloat(c.Num[i], 'g', -1, 64)
	case KindDate:
		return c.Time[i].Format(DateLayout)
	default:
		return c.Text[i]
	}
}

func (c *Column) subset(rows []int) *Column {
	out := &Column{Name: c.Name, Unit: c.Unit, Kind: c.Kind}
	switch c.Kind {
	case KindNumeric:
		out.Num = make([]float64, len(rows))
		for i, r := range rows {
			out.Num[i] = c.Num[r]
		}
	case KindDate:
		out.Time = make([]time.Time, len(rows))
		for i, r := range rows {
			out.Time[i] = c.Time[r]
		}
	default:
		out.Text = make([]string, len(rows))
		for i, r := range rows {
			out.Text[i] = c.Text[r]
		}
	}
	return out
}

// Table is an ordered set of equally long columns.
type Table struct {
	Name     string
	Columns  []*Column
	Warnings []string
}

// Rows returns the shared row count.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns numeric columns in declaration order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that every column has the same length.
func (t *Table) Validate() error {
	n := t.Rows()
	for _, c := range t.Columns {
		if c.Len() != n {
			return fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), n)
		}
	}
	return nil
}

// Subset returns a new table holding the given rows, in the given order, with every column.
func (t *Table) Subset(rows []int) *Table {
	out := &Table{Name: t.Name, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.subset(rows)
	}
	return out
}

// Record returns row i rendered column by column.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		rec[j] = c.Format(i)
	}
	return rec
}
