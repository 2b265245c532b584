package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetup_TextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := Setup(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)
	defer closeFn()

	log.Info("hidden")
	log.Warn("shown", "column", "ph")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "column=ph")
}

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := Setup(Options{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)
	defer closeFn()

	log.With("run_id", "abc").Debug("profile started", "rows", 5)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "profile started", rec["msg"])
	assert.Equal(t, "abc", rec["run_id"])
	assert.Equal(t, 5.0, rec["rows"])
}

func TestSetup_RejectsUnknownFormat(t *testing.T) {
	_, _, err := Setup(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug-4))

	log := slog.New(h).WithGroup("profile").With("table", "wine")
	log.Debug("debug only")
	log.Warn("both")

	assert.Contains(t, a.String(), "debug only")
	assert.Contains(t, a.String(), "profile.table=wine")
	assert.NotContains(t, b.String(), "debug only")
	assert.Equal(t, 1, strings.Count(b.String(), "both"))
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
