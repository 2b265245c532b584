package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/tabscope/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func profileFixture() *dataset.Table {
	return &dataset.Table{
		Name: "wine.csv",
		Columns: []*dataset.Column{
			dataset.NewText("date", []string{"1.9.2023", "2.9.2023", "3.9.2023", "4.9.2023", "5.9.2023"}),
			dataset.NewNumeric("brix", []float64{1, 2, 3, 4, 100}),
			dataset.NewNumeric("ph", []float64{3.1, 3.2, nan, 3.4, 3.5}),
			dataset.NewText("tank", []string{"A", "B", "A", "", "B"}),
		},
		Warnings: []string{"processed only 5/9 rows due to MaxRows"},
	}
}

func TestRun_Profile(t *testing.T) {
	tb := profileFixture()
	p, err := Run(context.Background(), tb, DefaultOptions())
	require.NoError(t, err)

	assert.NotEmpty(t, p.RunID)
	assert.Equal(t, 5, p.Rows)
	assert.Equal(t, DefaultZThreshold, p.Threshold)
	require.Len(t, p.Conversions, 2)
	assert.True(t, p.Conversions[0].Converted)
	assert.False(t, p.Conversions[1].Converted)
	assert.Equal(t, dataset.KindDate, p.Columns[0].Kind)

	require.Len(t, p.Stats.Columns, 2)
	require.Len(t, p.Missing, 4)
	assert.Equal(t, []string{"brix", "ph"}, p.Corr.Columns)
	assert.Len(t, p.Sample, 5)
	assert.Equal(t, "01.09.2023", p.Sample[0][0])

	msgs := p.Insights.Lines()
	assert.Contains(t, msgs, "Column brix has outliers based on IQR")
	assert.Contains(t, msgs, "Column ph has 20.00% missing values")
	assert.NotContains(t, msgs, "Column brix has outliers based on Z-score")
	assert.Equal(t, p.Warnings, tb.Warnings)

	again, err := Run(context.Background(), tb, DefaultOptions())
	require.NoError(t, err)
	assert.NotEqual(t, p.RunID, again.RunID)
	require.Len(t, again.Conversions, 1, "date column is already converted")
	assert.Equal(t, "tank", again.Conversions[0].Column)
}

func TestRun_InsightsUseFixedThreshold(t *testing.T) {
	vals := make([]float64, 21)
	vals[20] = 10
	tb := table(dataset.NewNumeric("v", vals))

	opt := DefaultOptions()
	opt.ZThreshold = 5
	p, err := Run(context.Background(), tb, opt)
	require.NoError(t, err)
	assert.Empty(t, p.ZScore.Columns[0].Flags, "live view at 5.0")
	assert.Contains(t, p.Insights.Lines(), "Column v has outliers based on Z-score")
}

func TestRun_Errors(t *testing.T) {
	opt := DefaultOptions()
	opt.ZThreshold = 6
	_, err := Run(context.Background(), profileFixture(), opt)
	var te *ThresholdError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 6.0, te.Value)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "options", se.Stage)

	_, err = Run(context.Background(), &dataset.Table{}, DefaultOptions())
	assert.ErrorIs(t, err, dataset.ErrEmptyInput)

	bad := table(dataset.NewNumeric("a", []float64{1, 2}), dataset.NewNumeric("b", []float64{1}))
	_, err = Run(context.Background(), bad, DefaultOptions())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "validate", se.Stage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, profileFixture(), DefaultOptions())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestProfile_Rethreshold(t *testing.T) {
	vals := make([]float64, 21)
	vals[20] = 10
	tb := table(dataset.NewNumeric("v", vals))
	p, err := Run(context.Background(), tb, DefaultOptions())
	require.NoError(t, err)
	iqr, insights := p.IQR, p.Insights
	require.Len(t, p.ZScore.Columns[0].Flags, 1)

	require.NoError(t, p.Rethreshold(tb, 5))
	assert.Equal(t, 5.0, p.Threshold)
	assert.Empty(t, p.ZScore.Columns[0].Flags)
	assert.Same(t, iqr, p.IQR)
	assert.Same(t, insights, p.Insights)

	err = p.Rethreshold(tb, 1)
	assert.ErrorIs(t, err, ErrThresholdOutOfRange)
	assert.Equal(t, 5.0, p.Threshold)
}

func TestProfile_Markdown(t *testing.T) {
	p, err := Run(context.Background(), profileFixture(), DefaultOptions())
	require.NoError(t, err)
	md := p.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "File: wine.csv", "Rows: 5",
		"[SCHEMA]", "- date: date",
		"[TYPE NORMALIZATION]", "- date: converted to date", "- tank: kept as text",
		"[DESCRIPTIVE STATISTICS]", "| stat | brix | ph |", "| 50% | 3 | 3.3 |",
		"[MISSING VALUES]", "- ph: 1 of 5 (20.00%)",
		"[CORRELATIONS]", "brix ~ ph",
		"[Z-SCORE OUTLIERS] |z| > 3.0", "[IQR OUTLIERS]", "- brix: 1 outside [-1, 7], rows 4",
		"[INSIGHTS]", "[HEAD ROWS]", "[NOTES]",
	} {
		assert.Contains(t, md, want)
	}
}

func TestProfile_MarkdownNoInsights(t *testing.T) {
	p, err := Run(context.Background(), table(dataset.NewNumeric("flat", []float64{5, 5, 5})), DefaultOptions())
	require.NoError(t, err)
	md := p.Markdown()
	assert.Contains(t, md, "[INSIGHTS]\n- "+NoInsightsMessage)
	assert.Contains(t, md, "No missing values.")
	assert.False(t, strings.Contains(md, "[CORRELATIONS]"))
}

func TestProfile_ExportNullsUndefinedNumbers(t *testing.T) {
	tb := table(
		dataset.NewNumeric("gone", []float64{nan, nan}),
		dataset.NewNumeric("v", []float64{1, 2}),
	)
	p, err := Run(context.Background(), tb, DefaultOptions())
	require.NoError(t, err)

	raw, err := p.JSON()
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	stats := doc["stats"].([]any)
	gone := stats[0].(map[string]any)
	assert.Equal(t, "gone", gone["column"])
	assert.Nil(t, gone["mean"])
	assert.Nil(t, gone["std"])
	assert.Equal(t, 1.5, stats[1].(map[string]any)["mean"])
	corr := doc["correlation"].(map[string]any)["values"].([]any)
	assert.Nil(t, corr[0].([]any)[1])

	y, err := p.YAML()
	require.NoError(t, err)
	var e Export
	require.NoError(t, yaml.Unmarshal(y, &e))
	assert.Equal(t, p.RunID, e.RunID)
	require.Len(t, e.Insights, 1)
	assert.Equal(t, SourceMissing, e.Insights[0].Source)
	assert.Empty(t, e.ZScore.Columns[1].Rows)
}

type recordingRenderer struct {
	trends, boxes, heatmaps int
	fail                    error
}

func (r *recordingRenderer) RenderTrend(*TrendSeries) error   { r.trends++; return r.fail }
func (r *recordingRenderer) RenderHeatmap(*HeatmapData) error { r.heatmaps++; return r.fail }
func (r *recordingRenderer) RenderBoxplot(*BoxplotData) error { r.boxes++; return r.fail }

func TestRenderCharts(t *testing.T) {
	tb := profileFixture()
	p, err := Run(context.Background(), tb, DefaultOptions())
	require.NoError(t, err)

	r := &recordingRenderer{}
	require.NoError(t, RenderCharts(r, tb, p, nil))
	assert.Equal(t, 2, r.trends)
	assert.Equal(t, 2, r.boxes)
	assert.Equal(t, 1, r.heatmaps)

	r = &recordingRenderer{}
	require.NoError(t, RenderCharts(r, tb, p, []string{"ph"}))
	assert.Equal(t, 1, r.trends)

	assert.Error(t, RenderCharts(&recordingRenderer{}, tb, p, []string{"tank"}))
	r = &recordingRenderer{fail: errors.New("boom")}
	assert.ErrorContains(t, RenderCharts(r, tb, p, nil), "boom")
}

func TestRenderCharts_SkipsAllMissingColumn(t *testing.T) {
	tb := table(
		dataset.NewNumeric("v", []float64{1, 2, 3, 4, 100}),
		dataset.NewNumeric("empty", []float64{nan, nan, nan, nan, nan}),
	)
	p, err := Run(context.Background(), tb, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, p.Insights.Lines(), "Column empty has 100.00% missing values")

	r := &recordingRenderer{}
	require.NoError(t, RenderCharts(r, tb, p, nil))
	assert.Equal(t, 1, r.trends)
	assert.Equal(t, 1, r.boxes)
	assert.Equal(t, 1, r.heatmaps)

	assert.ErrorContains(t, RenderCharts(&recordingRenderer{}, tb, p, []string{"empty"}), "has no values")
}

func TestProfile_MarkdownSanitizesCells(t *testing.T) {
	long := strings.Repeat("é", 100)
	tb := table(
		dataset.NewNumeric(" ", []float64{1, 2, 3}),
		dataset.NewNumeric("v", []float64{2, 4, 7}),
		dataset.NewText("note", []string{"a", long, "b"}),
	)
	p, err := Run(context.Background(), tb, DefaultOptions())
	require.NoError(t, err)
	md := p.Markdown()

	assert.Contains(t, md, "- (unnamed) ~ v: r=")
	assert.Contains(t, md, strings.Repeat("é", 77)+"...")
	assert.NotContains(t, md, strings.Repeat("é", 78))
	assert.True(t, utf8.ValidString(md))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 80))
	assert.Equal(t, "äöü...", truncate("äöüßxyz", 6))
}
