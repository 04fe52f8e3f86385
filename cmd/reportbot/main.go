package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "reportbot"
	app.Usage = "send daily and weekly task reports to Telegram"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "./config.yaml",
			Usage: "path to the JSON or YAML config file",
		},
		cli.StringFlag{
			Name:  "env-file",
			Value: ".env",
			Usage: "dotenv file with REPORTBOT_* secrets (ignored when missing)",
		},
	}
	app.Before = loadEnv
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "run the report scheduler until SIGINT/SIGTERM",
			Action: run,
		},
		{
			Name:   "status",
			Usage:  "print report history and the last delivery attempts",
			Action: status,
		},
		{
			Name:   "send-test",
			Usage:  "send a test report now; history is not touched",
			Action: sendTest,
		},
		{
			Name:  "reset-history",
			Usage: "forget which reports were sent",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "yes, y", Usage: "do not ask for confirmation"},
			},
			Action: resetHistory,
		},
		{
			Name:      "check-token",
			Usage:     "validate a bot token with getMe",
			ArgsUsage: "[token]",
			Action:    checkToken,
		},
	}
	app.Action = run
	return app
}
