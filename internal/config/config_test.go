package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tabscope/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultZThreshold, c.ZThreshold)
	assert.Equal(t, 100000, c.MaxRows)
	assert.Equal(t, FormatMarkdown, c.OutputFormat)
	assert.True(t, c.UnitNormalize)
	assert.Contains(t, c.UnitTargets, "g/L>mg/L")
}

func TestLoad_FileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("z_threshold: 2.5\nmax_rows: 10\ndelimiter: \";\"\noutput_format: json\n"), 0o644))
	t.Setenv("TABSCOPE_MAX_ROWS", "42")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, c.ZThreshold)
	assert.Equal(t, 42, c.MaxRows, "env beats file")
	assert.Equal(t, FormatJSON, c.OutputFormat)

	opt, err := c.LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, ';', opt.Delimiter)
	assert.Equal(t, 42, opt.MaxRows)
	assert.Equal(t, "mg/L", opt.UnitTargets["g/L"])
}

func TestLoad_RejectsThresholdOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("z_threshold: 7\n"), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, analysis.ErrThresholdOutOfRange)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	c.ZThreshold = 4
	c.LogLevel = "debug"
	c.UnitTargets = []string{"°F>°C"}
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.ZThreshold)
	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, []string{"°F>°C"}, got.UnitTargets)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	cases := []struct {
		name string
		mut  func(*Global)
	}{
		{"threshold", func(c *Global) { c.ZThreshold = 1 }},
		{"max rows", func(c *Global) { c.MaxRows = -1 }},
		{"sample rows", func(c *Global) { c.SampleRows = -2 }},
		{"delimiter", func(c *Global) { c.Delimiter = ":" }},
		{"decimal", func(c *Global) { c.DecimalSeparator = "x" }},
		{"thousands", func(c *Global) { c.ThousandsSeparator = "_" }},
		{"units", func(c *Global) { c.UnitTargets = []string{"g/L"} }},
		{"format", func(c *Global) { c.OutputFormat = "html" }},
		{"log level", func(c *Global) { c.LogLevel = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := *base
			tc.mut(&c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, base.Validate())
}

func TestParseSeparators(t *testing.T) {
	r, err := ParseDelimiter("tab")
	require.NoError(t, err)
	assert.Equal(t, '\t', r)
	r, err = ParseDecimal("comma")
	require.NoError(t, err)
	assert.Equal(t, ',', r)
	r, err = ParseThousands("space")
	require.NoError(t, err)
	assert.Equal(t, ' ', r)

	m, err := ParseUnitTargets([]string{" ug/L > mg/L "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ug/L": "mg/L"}, m)
}
