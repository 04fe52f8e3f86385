// Package poller drives the report controller on a fixed interval.
//
// The interval is a cron.Every schedule: ticks are never queued behind a
// slow one (SkipIfStillRunning) and a panicking tick does not kill the
// cron runner (Recover).
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

// gapFactor is how many missed intervals count as a suspension (laptop
// sleep, SIGSTOP, VM pause).
const gapFactor = 3

// MinInterval is the smallest interval cron.Every supports.
const MinInterval = time.Second

type Options struct {
	Interval time.Duration
	// Tick runs one evaluation. It must honor ctx.
	Tick func(ctx context.Context)
	// Alive is called after every tick; the app points it at the systemd
	// watchdog. Optional.
	Alive func()
	Log   logx.Logger
	Now   func() time.Time
}

type Poller struct {
	mu       sync.Mutex
	opt      Options
	log      logx.Logger
	interval time.Duration

	c      *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	lastMu sync.Mutex
	last   time.Time
}

func New(opt Options) *Poller {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Tick == nil {
		opt.Tick = func(context.Context) {}
	}
	return &Poller{opt: opt, log: opt.Log, interval: clamp(opt.Interval)}
}

func clamp(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}

func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Start begins ticking. The first tick fires one interval from now; startup
// recovery is the caller's job. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.c != nil {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.startLocked()
	p.log.Info("report poller started", logx.Duration("interval", p.interval))
}

func (p *Poller) startLocked() {
	cl := cronLogger{log: p.log}
	p.c = cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	p.c.Schedule(cron.Every(p.interval), cron.FuncJob(p.run))
	p.c.Start()
}

// Stop halts the schedule and lets a running tick finish before canceling
// its context. It gives up waiting when ctx expires.
func (p *Poller) Stop(ctx context.Context) {
	p.mu.Lock()
	c := p.c
	cancel := p.cancel
	p.c = nil
	p.cancel = nil
	p.mu.Unlock()
	if c == nil {
		return
	}
	defer cancel()
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		p.log.Warn("report poller stop timed out", logx.Err(ctx.Err()))
		return
	}
	p.log.Info("report poller stopped")
}

// SetInterval reschedules a running poller. A stopped poller just records the
// new interval.
func (p *Poller) SetInterval(d time.Duration) {
	d = clamp(d)
	p.mu.Lock()
	if d == p.interval {
		p.mu.Unlock()
		return
	}
	old := p.interval
	p.interval = d
	prev := p.c
	if prev != nil {
		p.startLocked()
	}
	p.mu.Unlock()
	if prev == nil {
		return
	}
	// run takes p.mu, so wait for an in-flight tick outside the lock.
	<-prev.Stop().Done()
	p.log.Info("report poller rescheduled", logx.Duration("from", old), logx.Duration("to", d))
}

func (p *Poller) run() {
	p.mu.Lock()
	ctx := p.ctx
	interval := p.interval
	p.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	p.observe(interval)
	p.opt.Tick(ctx)
	if p.opt.Alive != nil {
		p.opt.Alive()
	}
}

// observe records the tick time and reports whether the previous tick was
// suspiciously long ago.
func (p *Poller) observe(interval time.Duration) bool {
	now := p.opt.Now()
	p.lastMu.Lock()
	prev := p.last
	p.last = now
	p.lastMu.Unlock()

	if prev.IsZero() {
		return false
	}
	gap := now.Sub(prev)
	if gap <= gapFactor*interval {
		return false
	}
	p.log.Warn("report poller resumed after a gap; process was probably suspended",
		logx.Duration("gap", gap), logx.Duration("interval", interval))
	return true
}

// LastTick is the time the most recent tick started.
func (p *Poller) LastTick() time.Time {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	return p.last
}

// cronLogger adapts logx to cron.Logger. cron logs schedule churn at info;
// it is debug noise here.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug("cron: "+msg, logx.Any("kv", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error("cron: "+msg, logx.Err(err), logx.Any("kv", kv))
}
