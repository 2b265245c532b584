package analysis

import (
	"time"

	"github.com/KaramelBytes/tabscope/internal/dataset"
)

// dateLayout accepts day.month.year with or without leading zeros.
const dateLayout = "2.1.2006"

// Conversion records the outcome of date coercion for one text column.
type Conversion struct {
	Column    string `json:"column" yaml:"column"`
	Converted bool   `json:"converted" yaml:"converted"`
	// FirstFailure holds the first value that did not parse when Converted is false.
	FirstFailure string `json:"first_failure,omitempty" yaml:"first_failure,omitempty"`
}

// Normalize coerces text columns whose every non-missing value is a day.month.year
// date into date columns. A column with any unparseable value is left untouched.
// Only text columns are considered, so running it again is a no-op.
func Normalize(t *dataset.Table) []Conversion {
	var out []Conversion
	for _, c := range t.Columns {
		if c.Kind != dataset.KindText {
			continue
		}
		out = append(out, convertDates(c))
	}
	return out
}

func convertDates(c *dataset.Column) Conversion {
	parsed := make([]time.Time, len(c.Text))
	for i, v := range c.Text {
		if v == "" {
			continue
		}
		ts, err := time.Parse(dateLayout, v)
		if err != nil {
			return Conversion{Column: c.Name, FirstFailure: v}
		}
		parsed[i] = ts
	}
	c.Kind = dataset.KindDate
	c.Time = parsed
	c.Text = nil
	return Conversion{Column: c.Name, Converted: true}
}
