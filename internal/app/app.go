package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/XaMcTeRzzz/taskmeneger/internal/config"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/controller"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/history"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/poller"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/tasks"
	"github.com/XaMcTeRzzz/taskmeneger/internal/runtime/supervisor"
	"github.com/XaMcTeRzzz/taskmeneger/internal/storage"
	kit "github.com/XaMcTeRzzz/taskmeneger/internal/transport"
	"github.com/XaMcTeRzzz/taskmeneger/internal/transport/telegram"
	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
	"github.com/XaMcTeRzzz/taskmeneger/pkg/systemd"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	tg    *telegram.Client
	hist  *history.Store
	tasks *tasks.FileSource
	ctl   *controller.Controller
	poll  *poller.Poller
}

type options struct {
	fs       afero.Fs
	delivery kit.Deliverer
	now      func() time.Time
}

type Option func(*options)

// WithFs reads the task file and file-driver storage from fsys. The config
// file is always read from disk so it can be watched.
func WithFs(fsys afero.Fs) Option { return func(o *options) { o.fs = fsys } }

// WithDelivery replaces the Telegram client for report delivery.
func WithDelivery(d kit.Deliverer) Option { return func(o *options) { o.delivery = d } }

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func NewApp(cfgPath string, opts ...Option) (*App, error) {
	o := options{fs: afero.NewOsFs()}
	for _, fn := range opts {
		fn(&o)
	}

	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	tg := telegram.New(mapTelegramConfig(cfg), logx.NewConsole("INFO").With(logx.String("comp", "telegram")))

	// Bootstrap with the alert sink off, set its target, then enable it, so
	// Apply does not warn about a missing target that is about to be set.
	logCfg := mapLogConfig(cfg)
	bootCfg := logCfg
	bootCfg.Telegram.Enabled = false
	logSvc, log := logx.New(bootCfg, tg)
	logSvc.SetAlertTarget(alertTarget(cfg))
	logSvc.Apply(logCfg)
	log = log.With(logx.String("comp", "app"))

	store, err := openStore(cfg, o.fs, log.With(logx.String("comp", "storage")))
	if err != nil {
		logSvc.Close()
		return nil, err
	}

	hist := history.New(store, log.With(logx.String("comp", "history")))
	src := tasks.NewFileSource(o.fs, cfg.Tasks.Path)

	var delivery kit.Deliverer = tg
	if o.delivery != nil {
		delivery = o.delivery
	}

	a := &App{
		cfgm:  cfgm,
		log:   log,
		logs:  logSvc,
		store: store,
		tg:    tg,
		hist:  hist,
		tasks: src,
	}
	a.ctl = controller.New(controller.Options{
		Settings: func() controller.Settings { return mapSettings(cfgm.Get()) },
		History:  hist,
		Tasks:    src,
		Delivery: delivery,
		Log:      log.With(logx.String("comp", "reports")),
		Now:      o.now,
	})
	a.poll = poller.New(poller.Options{
		Interval: pollInterval(cfg),
		Tick:     func(ctx context.Context) { a.ctl.Tick(ctx) },
		Alive:    func() { _, _ = systemd.Watchdog() },
		Log:      log.With(logx.String("comp", "poller")),
		Now:      o.now,
	})
	return a, nil
}

// openStore falls back to an in-memory store when persistence is disabled:
// reports still go out at most once per process lifetime, but a restart
// forgets what was sent.
func openStore(cfg *config.Config, fsys afero.Fs, log logx.Logger) (storage.Store, error) {
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !enabled {
		log.Warn("storage disabled; report history will not survive a restart")
		return storage.NewMemory(), nil
	}
	sc.Fs = fsys
	st, err := storage.Open(sc, log)
	if errors.Is(err, storage.ErrDisabled) {
		return storage.NewMemory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	log.Info("storage enabled", logx.String("driver", sc.Driver))
	return st, nil
}

func (a *App) Controller() *controller.Controller { return a.ctl }
func (a *App) History() *history.Store            { return a.hist }
func (a *App) Telegram() *telegram.Client         { return a.tg }
func (a *App) Config() *config.Config             { return a.cfgm.Get() }
func (a *App) Logger() logx.Logger                { return a.log }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start recovers missed occurrences, then starts the poller and the config
// watcher. Recovery runs before Start returns, so a report whose trigger
// passed while the process was down goes out right away.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	a.ctl.Recover(a.sup.Context())
	a.poll.Start(a.sup.Context())

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(last, newCfg)
				last = newCfg
			}
		}
	})

	a.sup.GoRestart("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	}, supervisor.WithRestartBackoff(time.Second, 30*time.Second))

	if wd := systemd.WatchdogInterval(); wd > 0 && a.poll.Interval() >= wd {
		a.log.Warn("reports.poll_interval is not shorter than the systemd watchdog; the unit will be restarted",
			logx.Duration("poll_interval", a.poll.Interval()), logx.Duration("watchdog", wd))
	}
	if _, err := systemd.Ready(); err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err))
	}
	a.log.Info("app started")
	return nil
}

// applyConfig fans a reloaded config out to the live components. The
// controller needs nothing here: it reads settings on every tick.
func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	sections, fields := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}

	for _, s := range sections {
		if s == "storage" {
			a.log.Warn("storage config changed; restart required for changes to take effect")
		}
	}

	a.logs.SetAlertTarget(alertTarget(newCfg))
	a.logs.Apply(mapLogConfig(newCfg))
	a.tg.Apply(mapTelegramConfig(newCfg))
	a.tasks.SetPath(newCfg.Tasks.Path)
	a.poll.SetInterval(pollInterval(newCfg))

	fields = append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, fields...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return a.Close()
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = systemd.Stopping()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Err(stepCtx.Err()))
		}
	}

	// The poller goes first and waits for an in-flight tick, so a report being
	// delivered either finishes and is recorded or is retried on next start.
	step("poller", 5*time.Second, func(c context.Context) error { a.poll.Stop(c); return nil })
	step("supervisor", 2*time.Second, a.sup.Stop)

	a.log.Info("stopped")
	return a.Close()
}

// Close releases storage and log sinks. Stop calls it; one-shot CLI commands
// that never Start call it directly.
func (a *App) Close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return err
}
