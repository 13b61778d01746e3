// Package app assembles the taskpilot command-line application.
package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the taskpilot app instance.
func Get() *cli.App {
	return &cli.App{
		Name: "taskpilot",
		Usage: `
		Taskpilot tracks time spent on tasks, derives productivity reports,
		and breaks project descriptions down into estimated tasks with the
		help of a generative model.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:  "track",
				Usage: "Manage time-tracking sessions",
				Subcommands: []*cli.Command{
					{
						Name:   "start",
						Usage:  "Start a session on a task, ending any session still active",
						Flags:  []cli.Flag{userFlag, taskFlag},
						Action: trackStartAction,
					},
					{
						Name:   "pause",
						Usage:  "Pause an active session",
						Flags:  []cli.Flag{sessionFlag},
						Action: trackPauseAction,
					},
					{
						Name:   "resume",
						Usage:  "Resume a paused session",
						Flags:  []cli.Flag{sessionFlag},
						Action: trackResumeAction,
					},
					{
						Name:   "stop",
						Usage:  "End a session and record its duration",
						Flags:  []cli.Flag{sessionFlag},
						Action: trackStopAction,
					},
					{
						Name:   "stop-all",
						Usage:  "Force-end every active session for a user",
						Flags:  []cli.Flag{userFlag},
						Action: trackStopAllAction,
					},
					{
						Name:   "heartbeat",
						Usage:  "Signal that the tracking client is still alive",
						Flags:  []cli.Flag{sessionFlag},
						Action: trackHeartbeatAction,
					},
					{
						Name:   "resume-auto",
						Usage:  "Reactivate a session frozen by the staleness monitor",
						Flags:  []cli.Flag{sessionFlag},
						Action: trackResumeAutoAction,
					},
					{
						Name:   "status",
						Usage:  "Show the user's active and auto-paused sessions",
						Flags:  []cli.Flag{userFlag, jsonFlag},
						Action: trackStatusAction,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Report tracked hours per day over a trailing window",
				Flags:  []cli.Flag{userFlag, daysFlag, jsonFlag},
				Action: statsAction,
			},
			{
				Name:   "summary",
				Usage:  "Report total time and progress for a task",
				Flags:  []cli.Flag{taskFlag, jsonFlag},
				Action: summaryAction,
			},
			{
				Name:  "decompose",
				Usage: "Generate a task breakdown for a project description",
				Flags: []cli.Flag{
					userFlag,
					projectFlag,
					nameFlag,
					descriptionFlag,
					priorityFlag,
					depthFlag,
					deadlineFlag,
					maxTasksFlag,
					saveFlag,
					jsonFlag,
				},
				Action: decomposeAction,
			},
			{
				Name:   "insight",
				Usage:  "Generate a short productivity insight for a user",
				Flags:  []cli.Flag{userFlag},
				Action: insightAction,
			},
			{
				Name:   "monitor",
				Usage:  "Run the staleness sweep until interrupted",
				Action: monitorAction,
			},
			{
				Name:  "user",
				Usage: "Manage users",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Register a user with an optional tech stack",
						Flags:  []cli.Flag{nameFlag, roleFlag, levelFlag, stackFlag},
						Action: userAddAction,
					},
				},
			},
			{
				Name:  "task",
				Usage: "Manage tasks",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Add a task to a project",
						Flags:  []cli.Flag{userFlag, projectFlag, nameFlag, descriptionFlag, estimateFlag, priorityFlag},
						Action: taskAddAction,
					},
				},
			},
		},
		Flags: []cli.Flag{
			noColorFlag,
		},
		Before: beforeAction,
	}
}
