package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var plus3 = time.FixedZone("UTC+3", 3*3600)

func TestParseDue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"2026-10-15", time.Date(2026, 10, 15, 0, 0, 0, 0, plus3), true},
		{"2026-10-15T23:30:00", time.Date(2026, 10, 15, 0, 0, 0, 0, plus3), true},
		{"2026-10-15 08:00", time.Date(2026, 10, 15, 0, 0, 0, 0, plus3), true},
		// 22:30Z is already the 16th at UTC+3.
		{"2026-10-15T22:30:00.000Z", time.Date(2026, 10, 16, 0, 0, 0, 0, plus3), true},
		{"2026-10-15T10:00:00+03:00", time.Date(2026, 10, 15, 0, 0, 0, 0, plus3), true},
		{"", time.Time{}, false},
		{"tomorrow", time.Time{}, false},
		{"2026-13-40", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDue(tt.raw, plus3)
		assert.Equal(t, tt.ok, ok, tt.raw)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "%s: got %s", tt.raw, got)
		}
	}
}

func TestOverdueOn(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 10, 15, 20, 0, 0, 0, plus3)
	assert.True(t, Task{DueDate: "2026-10-14"}.OverdueOn(day))
	assert.False(t, Task{DueDate: "2026-10-15T00:00:00"}.OverdueOn(day), "due today is not overdue")
	assert.False(t, Task{DueDate: "2026-10-14", Completed: true}.OverdueOn(day))
	assert.False(t, Task{DueDate: "garbage"}.OverdueOn(day))
}

func sample() []Task {
	return []Task{
		{ID: "1", Title: "today done", DueDate: "2026-10-15", Completed: true},
		{ID: "2", Title: "old open", DueDate: "2026-10-01"},
		{ID: "3", Title: "old done", DueDate: "2026-10-01", Completed: true},
		{ID: "4", Title: "tomorrow", DueDate: "2026-10-16"},
		{ID: "5", Title: "undated open", DueDate: ""},
		{ID: "6", Title: "bad date done", DueDate: "??", Completed: true},
		{ID: "7", Title: "today open", DueDate: "2026-10-15T18:00:00"},
		{ID: "8", Title: "last week open", DueDate: "2026-10-11"},
	}
}

func ids(ts []Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func TestSelectDaily(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 10, 15, 20, 0, 0, 0, plus3)
	assert.Equal(t, []string{"1", "7", "2", "8", "5"}, ids(SelectDaily(sample(), day)))
}

func TestSelectWeekly(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, plus3)
	end := time.Date(2026, 10, 18, 23, 59, 59, 0, plus3)
	assert.Equal(t, []string{"1", "4", "7", "2", "8", "5"}, ids(SelectWeekly(sample(), start, end)))
}

func TestFileSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	src := NewFileSource(fs, "/data/tasks.json")

	got, err := src.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "missing file is an empty snapshot")

	require.NoError(t, afero.WriteFile(fs, "/data/tasks.json",
		[]byte(`[{"id":"a","title":"Buy milk","dueDate":"2026-10-15","completed":false,"category":"Home"}]`), 0o600))
	got, err = src.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Task{ID: "a", Title: "Buy milk", DueDate: "2026-10-15", Category: "Home"}, got[0])

	require.NoError(t, afero.WriteFile(fs, "/data/other.json", []byte(`{"tasks":[{"id":"b","title":"x"},{"id":"c","title":"y"}]}`), 0o600))
	src.SetPath("/data/other.json")
	got, err = src.ListTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(got))

	require.NoError(t, afero.WriteFile(fs, "/data/other.json", []byte(`[{"id":`), 0o600))
	_, err = src.ListTasks(ctx)
	assert.Error(t, err)
}

func TestByCreated(t *testing.T) {
	t.Parallel()
	ts := []Task{
		{ID: "nodate-a"},
		{ID: "late", CreatedAt: "2026-10-15T12:00:00Z"},
		{ID: "tie-1", CreatedAt: "2026-10-15T08:00:00Z"},
		{ID: "nodate-b", CreatedAt: "soon"},
		{ID: "tie-2", CreatedAt: "2026-10-15T08:00:00Z"},
	}
	var ids []string
	for _, tk := range ByCreated(ts) {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []string{"tie-1", "tie-2", "late", "nodate-a", "nodate-b"}, ids)
	assert.Equal(t, "nodate-a", ts[0].ID)
}

func TestStaticReturnsCopy(t *testing.T) {
	t.Parallel()
	s := Static{{ID: "1", Title: "a"}}
	got, err := s.ListTasks(context.Background())
	require.NoError(t, err)
	got[0].Title = "changed"
	assert.Equal(t, "a", s[0].Title)
}
