package config

// Config is the on-disk configuration (JSON or YAML).
//
// Secrets may be left empty in the file and supplied through the environment
// (see ApplyEnv).
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Reports  ReportsConfig  `json:"reports"`
	Tasks    TasksConfig    `json:"tasks"`
	Storage  *StorageConfig `json:"storage,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is a numeric chat id or an "@channel" username.
	ChatID   string `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty" validate:"gte=0"`
	// GroupLog receives log alerts when logging.telegram is enabled.
	GroupLog string `json:"group_log,omitempty"`
	// Timeout is a Go duration string for Bot API calls. Default "10s".
	Timeout    string `json:"timeout,omitempty" validate:"omitempty,duration"`
	RatePerSec int    `json:"rate_per_sec,omitempty" validate:"gte=0"`
}

type LoggingConfig struct {
	Level    string          `json:"level" validate:"omitempty,oneof=trace debug info warn warning error TRACE DEBUG INFO WARN WARNING ERROR"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec" validate:"gte=0"`
}

// ReportsConfig controls the periodic report schedule.
//
// An omitted section leaves reports disabled. Times are "HH:MM" in Timezone
// (default: local time of the process).
type ReportsConfig struct {
	Enabled      bool         `json:"enabled"`
	Timezone     string       `json:"timezone,omitempty" validate:"omitempty,timezone"`
	PollInterval string       `json:"poll_interval,omitempty" validate:"omitempty,duration"`
	Daily        DailyConfig  `json:"daily"`
	Weekly       WeeklyConfig `json:"weekly"`
}

type DailyConfig struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time,omitempty" validate:"omitempty,hhmm"`
}

type WeeklyConfig struct {
	Enabled bool `json:"enabled"`
	// Day is 0..6 with 0 = Sunday. Nil means the default (Friday).
	Day  *int   `json:"day,omitempty" validate:"omitempty,gte=0,lte=6"`
	Time string `json:"time,omitempty" validate:"omitempty,hhmm"`
}

// TasksConfig points at the JSON task snapshot the reports are built from.
type TasksConfig struct {
	Path string `json:"path"`
}

// StorageConfig controls persistence of report history.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./data/reportbot" }
type StorageConfig struct {
	Driver      string `json:"driver" validate:"omitempty,oneof=none file sqlite sqlite3 memory"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty" validate:"omitempty,duration"` // sqlite
}

const (
	DefaultDailyTime    = "20:00"
	DefaultWeeklyDay    = 5 // Friday
	DefaultWeeklyTime   = "18:00"
	DefaultPollInterval = "30s"
	DefaultTasksPath    = "./tasks.json"
)

// ApplyDefaults fills omitted fields in place.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Reports.Daily.Time == "" {
		cfg.Reports.Daily.Time = DefaultDailyTime
	}
	if cfg.Reports.Weekly.Day == nil {
		d := DefaultWeeklyDay
		cfg.Reports.Weekly.Day = &d
	}
	if cfg.Reports.Weekly.Time == "" {
		cfg.Reports.Weekly.Time = DefaultWeeklyTime
	}
	if cfg.Reports.PollInterval == "" {
		cfg.Reports.PollInterval = DefaultPollInterval
	}
	if cfg.Tasks.Path == "" {
		cfg.Tasks.Path = DefaultTasksPath
	}
	if cfg.Telegram.Timeout == "" {
		cfg.Telegram.Timeout = "10s"
	}
	if cfg.Telegram.RatePerSec <= 0 {
		cfg.Telegram.RatePerSec = 1
	}
}

// WeeklyDay returns the configured weekday, or the default when unset.
func (r ReportsConfig) WeeklyDay() int {
	if r.Weekly.Day == nil {
		return DefaultWeeklyDay
	}
	return *r.Weekly.Day
}
