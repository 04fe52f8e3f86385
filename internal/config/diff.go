package config

import (
	"sort"
	"strings"

	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and safe
// structured fields for logging. Secrets are reported only as "_set" flags.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 16)

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if ot.ChatID != nt.ChatID || ot.ThreadID != nt.ThreadID || ot.GroupLog != nt.GroupLog ||
		ot.Timeout != nt.Timeout || ot.RatePerSec != nt.RatePerSec || ot.Token != nt.Token {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_set", strings.TrimSpace(nt.Token) != ""),
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
			logx.String("telegram.chat_id", nt.ChatID),
			logx.Int("telegram.thread_id", nt.ThreadID),
			logx.Bool("telegram.group_log_set", strings.TrimSpace(nt.GroupLog) != ""),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	or, nr := oldCfg.Reports, newCfg.Reports
	if or.Enabled != nr.Enabled || or.Timezone != nr.Timezone || or.PollInterval != nr.PollInterval ||
		or.Daily != nr.Daily || or.WeeklyDay() != nr.WeeklyDay() ||
		or.Weekly.Enabled != nr.Weekly.Enabled || or.Weekly.Time != nr.Weekly.Time {
		changed = append(changed, "reports")
		attrs = append(attrs,
			logx.Bool("reports.enabled", nr.Enabled),
			logx.String("reports.timezone", nr.Timezone),
			logx.String("reports.poll_interval", nr.PollInterval),
			logx.Bool("reports.daily.enabled", nr.Daily.Enabled),
			logx.String("reports.daily.time", nr.Daily.Time),
			logx.Bool("reports.weekly.enabled", nr.Weekly.Enabled),
			logx.Int("reports.weekly.day", nr.WeeklyDay()),
			logx.String("reports.weekly.time", nr.Weekly.Time),
		)
	}

	if oldCfg.Tasks != newCfg.Tasks {
		changed = append(changed, "tasks")
		attrs = append(attrs, logx.String("tasks.path", newCfg.Tasks.Path))
	}

	var oldS, newS StorageConfig
	if oldCfg.Storage != nil {
		oldS = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		newS = *newCfg.Storage
	}
	if oldS != newS {
		// Storage is opened once; a change only takes effect after restart.
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", newS.Driver),
			logx.Bool("storage.path_set", strings.TrimSpace(newS.Path) != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
