package cmd

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabscope/internal/analysis"
	"github.com/KaramelBytes/tabscope/internal/utils"
)

// jsonChartRenderer writes each chart's data as a JSON file for an external plotter.
type jsonChartRenderer struct {
	dir     string
	written []string
}

func (r *jsonChartRenderer) RenderTrend(s *analysis.TrendSeries) error {
	type point struct {
		Index int      `json:"index"`
		Value *float64 `json:"value"`
	}
	pts := make([]point, len(s.Points))
	for i, p := range s.Points {
		pts[i] = point{Index: p.Index, Value: jsonNum(p.Value)}
	}
	return r.write("trend__"+slug(s.Column), map[string]any{
		"column": s.Column,
		"unit":   s.Unit,
		"points": pts,
	})
}

func (r *jsonChartRenderer) RenderHeatmap(h *analysis.HeatmapData) error {
	cells := make([][]*float64, len(h.Cells))
	for i, row := range h.Cells {
		cells[i] = make([]*float64, len(row))
		for j, v := range row {
			cells[i][j] = jsonNum(v)
		}
	}
	return r.write("heatmap", map[string]any{"labels": h.Labels, "cells": cells})
}

func (r *jsonChartRenderer) RenderBoxplot(b *analysis.BoxplotData) error {
	return r.write("boxplot__"+slug(b.Column), map[string]any{
		"column":       b.Column,
		"q1":           b.Q1,
		"median":       b.Median,
		"q3":           b.Q3,
		"low_whisker":  b.LowWhisker,
		"high_whisker": b.HighWhisker,
		"fliers":       b.Fliers,
	})
}

func (r *jsonChartRenderer) write(name string, v any) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir charts dir: %w", err)
	}
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	path := filepath.Join(r.dir, name+".json")
	if err := utils.SafeWriteFile(path, b); err != nil {
		return err
	}
	r.written = append(r.written, path)
	return nil
}

func jsonNum(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// slug keeps lowercase letters and digits, mapping separators to '-'.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' || r == '.' {
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "column"
	}
	return out
}
