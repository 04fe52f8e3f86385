package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XaMcTeRzzz/taskmeneger/internal/config"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/history"
)

func TestConfirm(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "": false, "maybe\n": false} {
		var out bytes.Buffer
		assert.Equal(t, want, confirm(strings.NewReader(in), &out, "sure?"), "input %q", in)
		assert.Equal(t, "sure? [y/N]: ", out.String())
	}
}

func TestPrintStatus(t *testing.T) {
	t.Parallel()
	cfg, err := config.Decode("config.json", []byte(`{"reports":{"enabled":true,"daily":{"enabled":true},"weekly":{"enabled":true}}}`))
	require.NoError(t, err)

	at := time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)
	rec := history.Record{}.WithWeekly(at)
	st := history.Status{LastTick: at}
	st.Daily.Attempt(at, assert.AnError)
	st.Weekly.Attempt(at, nil)
	st.Weekly.Partial = "delivered 1 of 2 parts: boom"

	var out bytes.Buffer
	printStatus(&out, cfg, st, rec)
	got := out.String()
	assert.Contains(t, got, "daily:  enabled=true at 20:00, last sent never")
	assert.Contains(t, got, "weekly: enabled=true day=5 at 18:00, last sent 2026-W42 (2026-10-16)")
	assert.Contains(t, got, "daily: last attempt 2026-10-16T18:00:00Z, 1 failure(s)")
	assert.Contains(t, got, "weekly: last attempt 2026-10-16T18:00:00Z, partially delivered: delivered 1 of 2 parts: boom")
}

func TestResetHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"logging": {"level": "error"},
		"tasks": {"path": "`+filepath.ToSlash(filepath.Join(dir, "tasks.json"))+`"},
		"storage": {"driver": "file", "path": "`+filepath.ToSlash(filepath.Join(dir, "history"))+`"}
	}`), 0o644))

	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	require.NoError(t, a.Run([]string{"reportbot", "--config", cfgPath, "--env-file", filepath.Join(dir, "missing.env"), "reset-history", "--yes"}))
	assert.Contains(t, out.String(), "report history cleared")

	out.Reset()
	require.NoError(t, a.Run([]string{"reportbot", "--config", cfgPath, "status"}))
	assert.Contains(t, out.String(), "reports enabled: false")
}
