package app

import (
	"strings"
	"time"

	"github.com/XaMcTeRzzz/taskmeneger/internal/config"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/controller"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/schedule"
	"github.com/XaMcTeRzzz/taskmeneger/internal/storage"
	kit "github.com/XaMcTeRzzz/taskmeneger/internal/transport"
	"github.com/XaMcTeRzzz/taskmeneger/internal/transport/telegram"
	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

// mapStorageConfig returns enabled=false when persistence is switched off.
// Paths and durations were checked by config.Validate.
func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{Driver: driver, Path: strings.TrimSpace(sc.Path), BusyTimeout: busy}, true, nil
}

func mapTelegramConfig(cfg *config.Config) telegram.Config {
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 10*time.Second)
	if err != nil {
		timeout = 10 * time.Second
	}
	return telegram.Config{
		Token:      strings.TrimSpace(cfg.Telegram.Token),
		Timeout:    timeout,
		RatePerSec: cfg.Telegram.RatePerSec,
	}
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func alertTarget(cfg *config.Config) kit.ChatTarget {
	return kit.ChatTarget{
		ChatID:   strings.TrimSpace(cfg.Telegram.GroupLog),
		ThreadID: cfg.Logging.Telegram.ThreadID,
	}
}

func pollInterval(cfg *config.Config) time.Duration {
	d, err := config.ParseDurationOrDefault("reports.poll_interval", cfg.Reports.PollInterval, 30*time.Second)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// mapSettings builds the controller's per-tick view of cfg. An unloadable
// timezone falls back to local time; Validate rejects such configs, so this
// only matters for a zoneinfo database that changed underneath us.
func mapSettings(cfg *config.Config) controller.Settings {
	if cfg == nil {
		return controller.Settings{}
	}
	r := cfg.Reports
	loc, err := r.Location()
	if err != nil {
		loc = time.Local
	}
	return controller.Settings{
		Schedule: schedule.Config{
			Enabled: r.Enabled,
			Daily:   schedule.DailyConfig{Enabled: r.Daily.Enabled, TimeOfDay: r.Daily.Time},
			Weekly:  schedule.WeeklyConfig{Enabled: r.Weekly.Enabled, Day: r.WeeklyDay(), TimeOfDay: r.Weekly.Time},
		},
		Token: strings.TrimSpace(cfg.Telegram.Token),
		Target: kit.ChatTarget{
			ChatID:   strings.TrimSpace(cfg.Telegram.ChatID),
			ThreadID: cfg.Telegram.ThreadID,
		},
		Location: loc,
	}
}
