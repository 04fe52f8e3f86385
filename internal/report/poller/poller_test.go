package poller

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

func TestPollerTicksAndStops(t *testing.T) {
	t.Parallel()
	var ticks, alive atomic.Int32
	p := New(Options{
		Interval: time.Second,
		Tick:     func(context.Context) { ticks.Add(1) },
		Alive:    func() { alive.Add(1) },
		Log:      logx.Nop(),
	})
	p.Start(context.Background())
	p.Start(context.Background())

	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.Stop(ctx)
	n := ticks.Load()
	assert.Equal(t, n, alive.Load())
	assert.False(t, p.LastTick().IsZero())

	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, n, ticks.Load(), "no ticks after Stop")
	p.Stop(ctx)
}

func TestPollerRecoversFromPanickingTick(t *testing.T) {
	t.Parallel()
	var ticks atomic.Int32
	var buf bytes.Buffer
	p := New(Options{
		Interval: time.Second,
		Tick: func(context.Context) {
			if ticks.Add(1) == 1 {
				panic("boom")
			}
		},
		Log: logx.NewWriter(&buf, "debug"),
	})
	p.Start(context.Background())
	defer p.Stop(context.Background())

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 4*time.Second, 20*time.Millisecond)
}

func TestSetIntervalClampsAndReschedules(t *testing.T) {
	t.Parallel()
	p := New(Options{Interval: 10 * time.Millisecond, Log: logx.Nop()})
	assert.Equal(t, MinInterval, p.Interval())

	p.SetInterval(time.Minute)
	assert.Equal(t, time.Minute, p.Interval())

	var ticks atomic.Int32
	p.opt.Tick = func(context.Context) { ticks.Add(1) }
	p.Start(context.Background())
	defer p.Stop(context.Background())

	p.SetInterval(time.Second)
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestGapDetection(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	p := New(Options{
		Interval: 30 * time.Second,
		Log:      logx.NewWriter(&buf, "debug"),
		Now:      func() time.Time { return now },
	})

	assert.False(t, p.observe(30*time.Second), "first tick has nothing to compare")
	now = now.Add(45 * time.Second)
	assert.False(t, p.observe(30*time.Second))
	now = now.Add(2 * time.Hour)
	assert.True(t, p.observe(30*time.Second))
	assert.Contains(t, buf.String(), "probably suspended")
	assert.Equal(t, now, p.LastTick())
}
