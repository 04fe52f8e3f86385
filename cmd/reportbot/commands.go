package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/XaMcTeRzzz/taskmeneger/internal/app"
	"github.com/XaMcTeRzzz/taskmeneger/internal/config"
	"github.com/XaMcTeRzzz/taskmeneger/internal/report/history"
	"github.com/XaMcTeRzzz/taskmeneger/internal/transport/telegram"
	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

func loadEnv(c *cli.Context) error {
	return config.LoadDotEnv(c.GlobalString("env-file"))
}

func run(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.NewApp(c.GlobalString("config"))
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Close()
		return fmt.Errorf("start: %w", err)
	}

	reason := app.StopSIGTERM
	select {
	case <-ctx.Done():
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)
	return a.Err()
}

func status(c *cli.Context) error {
	a, err := app.NewApp(c.GlobalString("config"))
	if err != nil {
		return err
	}
	defer a.Close()

	st, rec := a.Controller().Status(context.Background())
	printStatus(c.App.Writer, a.Config(), st, rec)
	return nil
}

func printStatus(w io.Writer, cfg *config.Config, st history.Status, rec history.Record) {
	r := cfg.Reports
	fmt.Fprintf(w, "reports enabled: %t (timezone %q, poll every %s)\n", r.Enabled, r.Timezone, r.PollInterval)
	fmt.Fprintf(w, "daily:  enabled=%t at %s, last sent %s\n", r.Daily.Enabled, r.Daily.Time, orNever(rec.DailyDate))
	week := ""
	if rec.WeeklyYear > 0 {
		week = fmt.Sprintf("%d-W%02d (%s)", rec.WeeklyYear, rec.WeeklyWeek, rec.WeeklyDate)
	}
	fmt.Fprintf(w, "weekly: enabled=%t day=%d at %s, last sent %s\n", r.Weekly.Enabled, r.WeeklyDay(), r.Weekly.Time, orNever(week))
	if !st.LastTick.IsZero() {
		fmt.Fprintf(w, "last tick: %s\n", st.LastTick.Format(time.RFC3339))
	}
	for _, k := range []struct {
		name string
		ks   history.KindStatus
	}{{"daily", st.Daily}, {"weekly", st.Weekly}} {
		if k.ks.LastAttempt.IsZero() {
			continue
		}
		fmt.Fprintf(w, "%s: last attempt %s", k.name, k.ks.LastAttempt.Format(time.RFC3339))
		if k.ks.ConsecutiveFailures > 0 {
			fmt.Fprintf(w, ", %d failure(s), last error: %s", k.ks.ConsecutiveFailures, k.ks.LastError)
		}
		if k.ks.MarkerLost {
			fmt.Fprint(w, ", delivered but not recorded")
		}
		if k.ks.Partial != "" {
			fmt.Fprintf(w, ", partially delivered: %s", k.ks.Partial)
		}
		fmt.Fprintln(w)
	}
}

func orNever(s string) string {
	if s == "" {
		return "never"
	}
	return s
}

func sendTest(c *cli.Context) error {
	a, err := app.NewApp(c.GlobalString("config"))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Controller().SendTest(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "test report sent")
	return nil
}

func resetHistory(c *cli.Context) error {
	if !c.Bool("yes") && !confirm(os.Stdin, c.App.Writer, "Forget all sent reports? Today's reports may be sent again.") {
		return nil
	}
	a, err := app.NewApp(c.GlobalString("config"))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.History().Reset(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "report history cleared")
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// checkToken validates the token given as argument, or the configured one.
// It does not need a valid config when a token is passed.
func checkToken(c *cli.Context) error {
	token := strings.TrimSpace(c.Args().First())
	timeout := 10 * time.Second
	if token == "" {
		cm := config.NewConfigManager(c.GlobalString("config"))
		cfg, err := cm.Parse()
		if err != nil {
			return err
		}
		token = cfg.Telegram.Token
		timeout, err = config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, timeout)
		if err != nil {
			return err
		}
	}
	if token == "" {
		return cli.NewExitError("no token: pass one or set telegram.token / "+config.EnvTelegramToken, 2)
	}

	client := telegram.New(telegram.Config{Token: token, Timeout: timeout}, logx.NewConsole("WARN"))
	ctx, cancel := context.WithTimeout(context.Background(), timeout+5*time.Second)
	defer cancel()
	info, err := client.Validate(ctx, token)
	if err != nil {
		return cli.NewExitError("token rejected: "+err.Error(), 1)
	}
	fmt.Fprintf(c.App.Writer, "token ok: @%s (id %d, %s)\n", info.Username, info.ID, info.FirstName)
	return nil
}
