package analysis

import (
	"fmt"

	"github.com/KaramelBytes/tabscope/internal/dataset"
)

// Source tags the rule that produced an insight.
type Source string

const (
	SourceMissing Source = "missing-values"
	SourceZScore  Source = "z-score"
	SourceIQR     Source = "iqr"
)

// Insight is one textual finding about one column.
type Insight struct {
	Source  Source
	Column  string
	Message string
}

// NoInsightsMessage is reported when every rule was evaluated and none fired.
const NoInsightsMessage = "No insights found."

// Insights is the ordered finding list. The zero value means "not yet run".
type Insights struct {
	Checked bool
	Items   []Insight
}

// None reports "checked, found nothing".
func (in *Insights) None() bool { return in != nil && in.Checked && len(in.Items) == 0 }

// Lines renders the findings, or NoInsightsMessage when none fired.
func (in *Insights) Lines() []string {
	if in == nil || !in.Checked {
		return nil
	}
	if len(in.Items) == 0 {
		return []string{NoInsightsMessage}
	}
	out := make([]string, len(in.Items))
	for i, it := range in.Items {
		out[i] = it.Message
	}
	return out
}

// Summarize evaluates the insight rules on t with the fixed Z threshold.
func Summarize(t *dataset.Table) *Insights {
	z, _ := DetectZScore(t, InsightZThreshold)
	return summarizeFrom(t, z, DetectIQR(t))
}

// summarizeFrom applies the rules per numeric column in declaration order:
// missing ratio > 0, any Z-score flag at InsightZThreshold, any IQR flag.
// z must have been computed at InsightZThreshold.
func summarizeFrom(t *dataset.Table, z *ZScoreReport, iqr *IQRReport) *Insights {
	in := &Insights{Checked: true}
	for _, c := range t.NumericColumns() {
		if n := c.Len(); n > 0 {
			if miss := c.MissingCount(); miss > 0 {
				pct := float64(miss) * 100 / float64(n)
				in.Items = append(in.Items, Insight{
					Source:  SourceMissing,
					Column:  c.Name,
					Message: fmt.Sprintf("Column %s has %.2f%% missing values", c.Name, pct),
				})
			}
		}
		if r, ok := z.Result(c.Name); ok && len(r.Flags) > 0 {
			in.Items = append(in.Items, Insight{
				Source:  SourceZScore,
				Column:  c.Name,
				Message: fmt.Sprintf("Column %s has outliers based on Z-score", c.Name),
			})
		}
		if r, ok := iqr.Result(c.Name); ok && len(r.Flags) > 0 {
			in.Items = append(in.Items, Insight{
				Source:  SourceIQR,
				Column:  c.Name,
				Message: fmt.Sprintf("Column %s has outliers based on IQR", c.Name),
			})
		}
	}
	return in
}
