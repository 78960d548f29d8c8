package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-signal/internal/alpha"
	"github.com/urfave/cli/v3"
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the YAML config `FILE`",
		Required: true,
	}
}

func dateFlag(name, usage string) *cli.TimestampFlag {
	return &cli.TimestampFlag{
		Name:  name,
		Usage: usage,
		Config: cli.TimestampConfig{
			Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"},
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "argo-signal",
		Usage: "Turn a bar feed into position recommendations",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the production and consumption loops until interrupted",
				Flags:  []cli.Flag{configFlag()},
				Action: runAction,
			},
			{
				Name:  "once",
				Usage: "Replay a parquet feed bar by bar and print the final recommendation",
				Flags: []cli.Flag{
					configFlag(),
					dateFlag("from", "First bar time, `YYYY-MM-DD`"),
					dateFlag("to", "Last bar time, `YYYY-MM-DD`"),
					&cli.StringFlag{
						Name:  "export",
						Usage: "Write the journal to a parquet `FILE` after the replay",
					},
				},
				Action: onceAction,
			},
			{
				Name:  "download",
				Usage: "Fetch the configured feed's window once and save it as parquet",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output parquet `FILE`",
						Required: true,
					},
				},
				Action: downloadAction,
			},
			{
				Name:   "validate",
				Usage:  "Check a config file and print the resolved strategy",
				Flags:  []cli.Flag{configFlag()},
				Action: validateAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
			{
				Name:   "alphas",
				Usage:  fmt.Sprintf("List preset alphas (%d available)", len(alpha.List())),
				Action: alphasAction,
			},
			{
				Name:   "version",
				Usage:  "Print the engine version",
				Action: versionAction,
			},
			{
				Name:  "watch",
				Usage: "Follow one or more running processes in the terminal",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Status server base `URL`, repeatable",
						Required: true,
					},
				},
				Action: watchAction,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
