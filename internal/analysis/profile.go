package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KaramelBytes/tabscope/internal/dataset"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options controls a profiling run.
type Options struct {
	// ZThreshold drives the interactive Z-score view. Insights always use InsightZThreshold.
	ZThreshold float64
	// SampleRows is the number of leading rows kept for the report; 0 keeps none.
	SampleRows int
	// Logger receives progress records; nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{ZThreshold: DefaultZThreshold, SampleRows: 5}
}

// Profile is the outcome of one Run over one table.
type Profile struct {
	RunID       string
	Name        string
	Rows        int
	Columns     []ColumnInfo
	Threshold   float64
	Conversions []Conversion
	Stats       *Summary
	Missing     []MissingCount
	Corr        *CorrMatrix
	ZScore      *ZScoreReport
	IQR         *IQRReport
	Insights    *Insights
	Sample      [][]string
	Warnings    []string
	Elapsed     time.Duration
}

// ColumnInfo is the post-normalization schema entry of a column.
type ColumnInfo struct {
	Name string
	Unit string
	Kind dataset.Kind
}

// Run normalizes t in place, then computes every view of the profile.
// Independent components run concurrently and are joined before insights are derived.
func Run(ctx context.Context, t *dataset.Table, opt Options) (*Profile, error) {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := ValidateThreshold(opt.ZThreshold); err != nil {
		return nil, &StageError{Stage: "options", Err: err}
	}
	if t == nil || len(t.Columns) == 0 {
		return nil, &StageError{Stage: "validate", Err: dataset.ErrEmptyInput}
	}
	if err := t.Validate(); err != nil {
		return nil, &StageError{Stage: "validate", Err: err}
	}
	start := time.Now()
	p := &Profile{
		RunID:     uuid.NewString(),
		Name:      t.Name,
		Rows:      t.Rows(),
		Threshold: opt.ZThreshold,
		Warnings:  append([]string(nil), t.Warnings...),
	}
	log = log.With("run_id", p.RunID, "table", t.Name)
	log.Debug("profile started", "rows", p.Rows, "columns", len(t.Columns), "z_threshold", opt.ZThreshold)

	p.Conversions = Normalize(t)
	for _, c := range p.Conversions {
		if c.Converted {
			log.Info("column converted to date", "column", c.Column)
		} else {
			log.Debug("column kept as text", "column", c.Column, "value", c.FirstFailure)
		}
	}
	for _, c := range t.Columns {
		p.Columns = append(p.Columns, ColumnInfo{Name: c.Name, Unit: c.Unit, Kind: c.Kind})
	}
	for i := 0; i < opt.SampleRows && i < p.Rows; i++ {
		p.Sample = append(p.Sample, t.Record(i))
	}

	var insightZ *ZScoreReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		p.Stats = Describe(t)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		p.Missing = MissingCounts(t)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		p.Corr = Correlate(t)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		z, err := DetectZScore(t, opt.ZThreshold)
		if err != nil {
			return &StageError{Stage: "z-score", Err: err}
		}
		p.ZScore = z
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		if opt.ZThreshold == InsightZThreshold {
			return nil
		}
		z, err := DetectZScore(t, InsightZThreshold)
		if err != nil {
			return &StageError{Stage: "insights", Err: err}
		}
		insightZ = z
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		p.IQR = DetectIQR(t)
		return nil
	})
	if err := g.Wait(); err != nil {
		var se *StageError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &StageError{Stage: "profile", Err: err}
	}
	if insightZ == nil {
		insightZ = p.ZScore
	}
	p.Insights = summarizeFrom(t, insightZ, p.IQR)
	p.Elapsed = time.Since(start)
	log.Info("profile finished",
		"numeric_columns", len(p.Stats.Columns),
		"z_flagged", flaggedCount(p.ZScore),
		"iqr_flagged", FlaggedAny(nil, p.IQR).GetCardinality(),
		"insights", len(p.Insights.Items),
		"elapsed", p.Elapsed,
	)
	return p, nil
}

// Rethreshold recomputes only the Z-score view of p from t. IQR flags and
// insights are unaffected. On error p is left unchanged.
func (p *Profile) Rethreshold(t *dataset.Table, threshold float64) error {
	z, err := DetectZScore(t, threshold)
	if err != nil {
		return err
	}
	p.ZScore = z
	p.Threshold = threshold
	return nil
}

func flaggedCount(z *ZScoreReport) uint64 {
	return FlaggedAny(z, nil).GetCardinality()
}
