package app

import "github.com/urfave/cli/v2"

var (
	userFlag = &cli.Int64Flag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "User id",
	}

	taskFlag = &cli.Int64Flag{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Task id",
	}

	sessionFlag = &cli.Int64Flag{
		Name:    "session",
		Aliases: []string{"s"},
		Usage:   "Session id",
	}

	daysFlag = &cli.IntFlag{
		Name:  "days",
		Usage: "Number of trailing days to report on",
		Value: 7,
	}

	projectFlag = &cli.Int64Flag{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Existing project id to append generated tasks to",
	}

	nameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "Project name",
	}

	descriptionFlag = &cli.StringFlag{
		Name:    "description",
		Aliases: []string{"desc"},
		Usage:   "Project description to decompose",
	}

	priorityFlag = &cli.StringFlag{
		Name:  "priority",
		Usage: "Project priority: low, medium, or high",
		Value: "medium",
	}

	depthFlag = &cli.StringFlag{
		Name:  "depth",
		Usage: "Breakdown depth: minimal, normal, detailed, or comprehensive",
		Value: "normal",
	}

	deadlineFlag = &cli.StringFlag{
		Name:  "deadline",
		Usage: "Project deadline (e.g. '2025-10-01' or 'in 3 weeks')",
	}

	maxTasksFlag = &cli.IntFlag{
		Name:  "max-tasks",
		Usage: "Upper bound on generated tasks (1-50)",
	}

	saveFlag = &cli.BoolFlag{
		Name:  "save",
		Usage: "Persist the generated tasks instead of only printing them",
	}

	estimateFlag = &cli.Float64Flag{
		Name:  "estimate",
		Usage: "Estimated effort in hours",
	}

	roleFlag = &cli.StringFlag{
		Name:  "role",
		Usage: "User role, e.g. 'backend developer'",
	}

	levelFlag = &cli.StringFlag{
		Name:  "level",
		Usage: "Experience level: junior, mid, senior, or lead",
		Value: "mid",
	}

	stackFlag = &cli.StringFlag{
		Name:  "stack",
		Usage: "Comma-delimited tech stack, e.g. 'go:advanced,sql:intermediate'",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print output as JSON",
	}

	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}
)
