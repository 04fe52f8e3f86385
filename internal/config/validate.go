package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/XaMcTeRzzz/taskmeneger/internal/report/schedule"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their config key, not the Go name.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := schedule.ParseTimeOfDay(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			d, err := time.ParseDuration(strings.TrimSpace(fl.Field().String()))
			return err == nil && d >= 0
		})
		validate = v
	})
	return validate
}

// Validate checks cfg before it is committed. Watch uses it to reject a bad
// edit and keep the previous config.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := structValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			ns := fe.Namespace()
			if _, rest, ok := strings.Cut(ns, "."); ok {
				ns = rest
			}
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", ns, fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	if cfg.Storage != nil {
		d := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
		if d != "" && d != "none" && d != "memory" && strings.TrimSpace(cfg.Storage.Path) == "" {
			return fmt.Errorf("invalid config: storage.path is required for driver %q", d)
		}
	}
	if cfg.Reports.Enabled && strings.TrimSpace(cfg.Telegram.ChatID) == "" {
		return errors.New("invalid config: telegram.chat_id is required when reports are enabled")
	}
	return nil
}
