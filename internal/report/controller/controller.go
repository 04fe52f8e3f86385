// Package controller runs the report pipeline: evaluate the schedule, build
// the report, deliver it, and record the occurrence only after delivery
// succeeded.
package controller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/XaMcTeRzzz/taskmeneger/internal/report/format"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/history"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/schedule"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/tasks"
	kit "github.com/XaMcTeRzzz/taskmeneger/internal/transport"
	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

// Settings is everything one evaluation needs from the configuration. It is
// read again on every Tick.
type Settings struct {
	Schedule schedule.Config
	Token    string
	Target   kit.ChatTarget
	// Location is the zone schedule times are interpreted in. Nil means
	// time.Local.
	Location *time.Location
}

type Options struct {
	Settings func() Settings
	History  *history.Store
	Tasks    tasks.Source
	Delivery kit.Deliverer
	Log      logx.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Outcome of one report kind within an evaluation.
type Outcome int

const (
	NotDue Outcome = iota
	Sent
	// SentUnrecorded means the report was delivered but its history marker
	// could not be saved.
	SentUnrecorded
	// SentPartial means only the first parts of a split report were
	// accepted. The occurrence is recorded as sent.
	SentPartial
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case SentUnrecorded:
		return "sent_unrecorded"
	case SentPartial:
		return "sent_partial"
	case Failed:
		return "failed"
	default:
		return "not_due"
	}
}

type Result struct {
	Daily  Outcome
	Weekly Outcome
}

func (r *Result) set(k schedule.Kind, o Outcome) {
	if k == schedule.Weekly {
		r.Weekly = o
		return
	}
	r.Daily = o
}

// Controller is safe for concurrent use; evaluations are serialized.
type Controller struct {
	opt Options
	log logx.Logger

	mu     sync.Mutex
	warned map[string]struct{}
}

func New(opt Options) *Controller {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Settings == nil {
		opt.Settings = func() Settings { return Settings{} }
	}
	return &Controller{opt: opt, log: opt.Log, warned: map[string]struct{}{}}
}

// Recover runs one evaluation at startup so an occurrence whose trigger
// passed while the process was down is delivered right away.
func (c *Controller) Recover(ctx context.Context) Result {
	res := c.evaluate(ctx)
	c.log.Info("startup recovery done",
		logx.String("daily", res.Daily.String()),
		logx.String("weekly", res.Weekly.String()),
	)
	return res
}

// Tick runs one evaluation. It never panics and never returns an error:
// failures are logged and recorded in the status record, and the next tick
// tries again.
func (c *Controller) Tick(ctx context.Context) Result {
	return c.evaluate(ctx)
}

func (c *Controller) now(set Settings) time.Time {
	now := c.opt.Now()
	if set.Location != nil {
		now = now.In(set.Location)
	}
	return now
}

func (c *Controller) evaluate(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.opt.Settings()
	now := c.now(set)
	rec := c.opt.History.Load(ctx)
	dec := schedule.Evaluate(now, set.Schedule, rec)
	c.warnOnce(dec.Problems)

	status := c.opt.History.LoadStatus(ctx)
	status.LastTick = now

	var res Result
	for _, kind := range []schedule.Kind{schedule.Daily, schedule.Weekly} {
		if !dec.Due(kind) {
			continue
		}
		res.set(kind, c.runKind(ctx, kind, now, set, &status))
	}

	if err := c.opt.History.SaveStatus(ctx, status); err != nil {
		c.log.Debug("report status not saved", logx.Err(err))
	}
	return res
}

// warnOnce logs each distinct configuration problem a single time.
func (c *Controller) warnOnce(problems []error) {
	for _, p := range problems {
		msg := p.Error()
		if _, seen := c.warned[msg]; seen {
			continue
		}
		c.warned[msg] = struct{}{}
		c.log.Warn("report schedule ignored", logx.Err(p))
	}
}

// runKind delivers one due report. A panic anywhere in the pipeline is
// contained here so the other kind still runs.
func (c *Controller) runKind(ctx context.Context, kind schedule.Kind, now time.Time, set Settings, status *history.Status) (out Outcome) {
	ks := status.Kind(string(kind))
	log := c.log.With(logx.String("kind", string(kind)))
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.Error("report pipeline panicked", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			ks.Attempt(now, err)
			out = Failed
		}
	}()

	text, err := c.build(ctx, kind, now)
	if err == nil {
		err = c.opt.Delivery.Deliver(ctx, set.Token, set.Target, text)
	}
	var partial *kit.PartialDeliveryError
	switch {
	case errors.As(err, &partial):
		// Part of the report is already in the chat; resending it would
		// duplicate what got through.
		log.Warn("report partially delivered; not retrying", logx.Int("parts_sent", partial.Sent),
			logx.Int("parts_total", partial.Total), logx.Err(err))
		ks.Attempt(now, nil)
		ks.Partial = err.Error()
		out = SentPartial
	case err != nil:
		// Repeated identical failures are logged quietly; the status record
		// keeps the count.
		if ks.LastError != err.Error() {
			log.Warn("report not delivered; will retry next tick", logx.Err(err))
		} else {
			log.Debug("report still failing", logx.Err(err), logx.Int("failures", ks.ConsecutiveFailures+1))
		}
		ks.Attempt(now, err)
		return Failed
	default:
		ks.Attempt(now, nil)
		out = Sent
	}

	if err := c.mark(ctx, kind, now); err != nil {
		ks.MarkerLost = true
		log.Warn("report delivered but history not saved; it may be sent again", logx.Err(err))
		return SentUnrecorded
	}
	log.Info("report delivered", logx.String("occurrence", history.DayKey(now)))
	return out
}

func (c *Controller) build(ctx context.Context, kind schedule.Kind, now time.Time) (string, error) {
	all, err := c.opt.Tasks.ListTasks(ctx)
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}
	switch kind {
	case schedule.Daily:
		return format.Daily(tasks.SelectDaily(all, now), now), nil
	case schedule.Weekly:
		start, end := schedule.WeekRange(now)
		return format.Weekly(tasks.SelectWeekly(all, start, end), start, end, now), nil
	default:
		return "", fmt.Errorf("unknown report kind %q", kind)
	}
}

func (c *Controller) mark(ctx context.Context, kind schedule.Kind, now time.Time) error {
	if kind == schedule.Weekly {
		return c.opt.History.MarkWeeklySent(ctx, now)
	}
	return c.opt.History.MarkDailySent(ctx, now)
}

var ErrNotConfigured = errors.New("reports: telegram token or chat is not configured")

// SendTest delivers the connectivity check message. It ignores the schedule
// and does not touch the history.
func (c *Controller) SendTest(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.opt.Settings()
	if set.Token == "" || set.Target.IsZero() {
		return ErrNotConfigured
	}
	all, err := c.opt.Tasks.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	return c.opt.Delivery.Deliver(ctx, set.Token, set.Target, format.Test(all, c.now(set)))
}

// Status returns the persisted diagnostic record together with the current
// history.
func (c *Controller) Status(ctx context.Context) (history.Status, history.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opt.History.LoadStatus(ctx), c.opt.History.Load(ctx)
}
