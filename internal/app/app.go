// Package app defines the scrollguard command-line interface.
package app

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

// New builds the scrollguard CLI application.
func New() *cli.App {
	cli.VersionPrinter = func(ctx *cli.Context) {
		fmt.Printf("scrollguard version %s\n", ctx.App.Version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	}

	return &cli.App{
		Name:      "scrollguard",
		Usage:     "Track time spent on distracting sites and nudge yourself back to work",
		UsageText: "scrollguard COMMAND [OPTIONS]",
		Version:   version,
		Commands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start the tracking daemon",
				Action: startAction,
			},
			{
				Name:   "serve",
				Usage:  "Start the tracking daemon with the web API",
				Action: serveAction,
			},
			{
				Name:   "stop",
				Usage:  "Stop the tracking daemon",
				Action: stopAction,
			},
			{
				Name:   "status",
				Usage:  "Show daemon status and the currently focused window",
				Action: statusAction,
			},
			{
				Name:   "summary",
				Usage:  "Show today's per-site screen time",
				Action: summaryAction,
			},
			{
				Name:      "report",
				Usage:     "Generate a usage report",
				ArgsUsage: "[day|week|month]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "output the report as JSON",
					},
				},
				Action: reportAction,
			},
			{
				Name:  "clear",
				Usage: "Delete all tracking data",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "skip the confirmation prompt",
					},
				},
				Action: clearAction,
			},
		},
	}
}
