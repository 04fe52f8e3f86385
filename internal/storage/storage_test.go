package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := st.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Put(ctx, "report_history", []byte(`{"daily_date":"2026-10-15"}`)))
	require.NoError(t, st.Put(ctx, "report_history", []byte(`{"daily_date":"2026-10-16"}`)))
	v, ok, err := st.Get(ctx, "report_history")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"daily_date":"2026-10-16"}`, string(v))

	require.NoError(t, st.Put(ctx, "tmp", []byte("x")))
	require.NoError(t, st.Delete(ctx, "tmp"))
	_, ok, err = st.Get(ctx, "tmp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "none"}, logx.Nop())
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = Open(Config{Driver: "redis"}, logx.Nop())
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "memory"}, logx.Nop())
	require.NoError(t, err)
	exerciseStore(t, st)
	require.NoError(t, st.Close())
	_, _, err = st.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	cfg := Config{Driver: "file", Path: "/data/reportbot", Fs: fs}

	st, err := Open(cfg, logx.Nop())
	require.NoError(t, err)
	exerciseStore(t, st)
	require.NoError(t, st.Put(context.Background(), "report_status", []byte("{}")))

	// Reopen without Close: state comes back from the journal alone.
	st2, err := Open(cfg, logx.Nop())
	require.NoError(t, err)
	v, ok, err := st2.Get(context.Background(), "report_history")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"daily_date":"2026-10-16"}`, string(v))
	_, ok, _ = st2.Get(context.Background(), "tmp")
	assert.False(t, ok)
	require.NoError(t, st2.Close())

	exists, err := afero.Exists(fs, "/data/reportbot.snapshot.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFileStoreIgnoresTornJournalLine(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/d/s.journal.jsonl",
		[]byte("{\"key\":\"a\",\"value\":\"eA==\"}\n{\"key\":\"b\",\"val"), 0o600))

	st, err := Open(Config{Driver: "file", Path: "/d/s", Fs: fs}, logx.Nop())
	require.NoError(t, err)
	v, ok, err := st.Get(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", string(v))
	_, ok, _ = st.Get(context.Background(), "b")
	assert.False(t, ok)
}

func TestFileStoreCorruptSnapshotStartsEmpty(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/d/s.snapshot.json", []byte("{not json"), 0o600))

	st, err := Open(Config{Driver: "file", Path: "/d/s", Fs: fs}, logx.Nop())
	require.NoError(t, err)
	exerciseStore(t, st)
}

func TestFileStoreSharedBetweenProcesses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	cfg := Config{Driver: "file", Path: "/data/reportbot", Fs: fs}

	daemon, err := Open(cfg, logx.Nop())
	require.NoError(t, err)
	require.NoError(t, daemon.Put(ctx, "report_history", []byte(`{"daily_date":"2026-10-15"}`)))

	// A one-shot command opens the same files, deletes and exits.
	cli, err := Open(cfg, logx.Nop())
	require.NoError(t, err)
	require.NoError(t, cli.Delete(ctx, "report_history"))
	require.NoError(t, cli.Close())

	_, ok, err := daemon.Get(ctx, "report_history")
	require.NoError(t, err)
	assert.False(t, ok, "running store sees the other process's delete")

	require.NoError(t, daemon.Put(ctx, "report_status", []byte("{}")))
	require.NoError(t, daemon.Close())

	reopened, err := Open(cfg, logx.Nop())
	require.NoError(t, err)
	defer reopened.Close()
	_, ok, err = reopened.Get(ctx, "report_history")
	require.NoError(t, err)
	assert.False(t, ok, "closing the older store does not resurrect the key")
	_, ok, err = reopened.Get(ctx, "report_status")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileStoreCompactsLongJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	st, err := Open(Config{Driver: "file", Path: "/d/s", Fs: fs}, logx.Nop())
	require.NoError(t, err)
	for range compactEvery {
		require.NoError(t, st.Put(ctx, "report_status", []byte("{}")))
	}
	info, err := fs.Stat("/d/s.journal.jsonl")
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	_, ok, err := st.Get(ctx, "report_status")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "reportbot.db")
	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	require.NoError(t, err)
	exerciseStore(t, st)
	require.NoError(t, st.Close())

	st2, err := Open(Config{Driver: "sqlite3", Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st2.Close()
	_, ok, err := st2.Get(context.Background(), "report_history")
	require.NoError(t, err)
	assert.True(t, ok)
}
