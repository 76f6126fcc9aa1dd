// Package cli contains the primitives command line: listing task actions, planning base paths and
// running tasks against the fake world.
package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	"go.viam.com/utils"
)

const (
	configFlag   = "config"
	debugFlag    = "debug"
	taskFlag     = "task"
	actionFlag   = "action"
	keepGoing    = "keep-going"
	objectFlag   = "object"
	variantFlag  = "variant"
	planFullFlag = "plan-full"
	logFileFlag  = "log-file"

	logFileMaxSizeMB = 10
)

// NewApp returns the CLI app writing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "primitives",
		Usage:           "plan and execute action primitives for a mobile manipulator",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE` instead of the built-in tables",
			},
			&cli.BoolFlag{
				Name:    debugFlag,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  logFileFlag,
				Usage: "also write logs to `FILE`",
			},
			&cli.StringFlag{
				Name:    taskFlag,
				Aliases: []string{"t"},
				Usage:   "task whose action list to use, overriding the config",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "tasks",
				Usage:  "list the configured tasks",
				Action: TasksAction,
			},
			{
				Name:   "actions",
				Usage:  "print the action list of the task",
				Action: ActionsAction,
			},
			{
				Name:      "run",
				Usage:     "execute the task's actions in the fake world",
				UsageText: "primitives run [--action INDEX]... [--keep-going]",
				Flags: []cli.Flag{
					&cli.IntSliceFlag{
						Name:  actionFlag,
						Usage: "action indices to run, in order; all of the task's actions when unset",
					},
					&cli.BoolFlag{
						Name:  keepGoing,
						Usage: "continue after a recoverable failure",
					},
					&cli.BoolFlag{
						Name:  planFullFlag,
						Usage: "plan and stream every arm motion instead of setting configurations directly",
					},
				},
				Action: RunAction,
			},
			{
				Name:  "plan-base",
				Usage: "plan the base path to an object and print it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     objectFlag,
						Usage:    "object to navigate to",
						Required: true,
					},
					&cli.IntFlag{
						Name:  variantFlag,
						Usage: "navigation offset variant",
					},
				},
				Action: PlanBaseAction,
			},
		},
		Writer:    out,
		ErrWriter: errOut,
	}
}

func printf(w io.Writer, format string, a ...interface{}) {
	_, err := fmt.Fprintf(w, format+"\n", a...)
	utils.UncheckedError(err)
}
