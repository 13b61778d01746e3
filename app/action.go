package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/markusmobius/go-dateparser"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/decompose"
	"github.com/taskpilot/taskpilot/genai"
	"github.com/taskpilot/taskpilot/internal/logging"
	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/monitor"
	"github.com/taskpilot/taskpilot/stats"
	"github.com/taskpilot/taskpilot/store"
	"github.com/taskpilot/taskpilot/tracker"
)

const envNoColor = "NO_COLOR"

var cfg *config.Config

func beforeAction(ctx *cli.Context) error {
	var err error

	cfg, err = config.Init()
	if err != nil {
		return err
	}

	logging.Init(cfg.LogPath, cfg.LogVerbose)

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return nil
}

func openStore() (*store.Client, error) {
	return store.NewClient(cfg.DBPath)
}

func newGenerator(db store.DB) *decompose.Generator {
	client := genai.NewClient(
		cfg.AI.BaseURL,
		cfg.AI.APIKey,
		cfg.AI.Model,
		cfg.AI.RequestTimeout,
	)

	return decompose.New(db, client, stats.New(db))
}

func printSession(sess *models.TrackingSession) {
	state := "active"

	switch {
	case !sess.IsActive:
		state = "ended"
	case sess.AutoPaused:
		state = "auto-paused"
	case sess.IsPaused:
		state = "paused"
	}

	pterm.Printfln(
		"session %d >>> task %d, started %s [%s]",
		sess.ID,
		sess.TaskID,
		sess.StartTime.Format("15:04:05"),
		state,
	)
}

func trackStartAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := tracker.New(db).Start(
		ctx.Int64("user"),
		ctx.Int64("task"),
	)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("started session %d", sess.ID)

	return nil
}

func trackPauseAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = tracker.New(db).Pause(ctx.Int64("session"))
	if err != nil {
		return err
	}

	pterm.Success.Println("session paused")

	return nil
}

func trackResumeAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := tracker.New(db).Resume(ctx.Int64("session"))
	if err != nil {
		return err
	}

	pterm.Success.Printfln(
		"session resumed (%.2fh paused so far)",
		sess.PausedDurationHours,
	)

	return nil
}

func trackStopAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := tracker.New(db).End(ctx.Int64("session"))
	if err != nil {
		return err
	}

	pterm.Success.Printfln("session ended: %.2fh worked", sess.DurationHours)

	return nil
}

func trackStopAllAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	err = tracker.New(db).EndActiveForUser(ctx.Int64("user"))
	if err != nil {
		return err
	}

	pterm.Success.Println("all active sessions ended")

	return nil
}

func trackHeartbeatAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return tracker.New(db).Heartbeat(ctx.Int64("session"))
}

func trackResumeAutoAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := tracker.New(db).ResumeAutoPaused(ctx.Int64("session"))
	if err != nil {
		return err
	}

	pterm.Success.Printfln("session %d reactivated", sess.ID)

	return nil
}

func trackStatusAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	t := tracker.New(db)

	active, err := t.ActiveSession(ctx.Int64("user"))
	if err != nil {
		return err
	}

	autoPaused, err := t.AutoPausedSessions(ctx.Int64("user"))
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		b, err := json.Marshal(map[string]any{
			"active":      active,
			"auto_paused": autoPaused,
		})
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	}

	if active == nil && len(autoPaused) == 0 {
		pterm.Println("no active sessions")

		return nil
	}

	if active != nil {
		printSession(active)
	}

	for _, sess := range autoPaused {
		if active != nil && sess.ID == active.ID {
			continue
		}

		printSession(sess)
	}

	return nil
}

func statsAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := stats.New(db).UserProductivity(
		ctx.Int64("user"),
		ctx.Int("days"),
	)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		b, err := json.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	}

	pterm.Printfln(
		"%.2fh tracked over %d days (%.2fh/day)",
		report.TotalHours,
		report.Days,
		report.AverageHoursPerDay,
	)

	for _, day := range report.Daily {
		pterm.Printfln(
			"%s  %6.2fh  %d task(s)",
			day.Date.Format("Mon Jan 02"),
			day.Hours,
			day.Tasks,
		)
	}

	return nil
}

func summaryAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := stats.New(db).TaskTimeSummary(ctx.Int64("task"))
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		b, err := json.Marshal(summary)
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	}

	pterm.Printfln(
		"%s across %d completed session(s), %d%% of estimate",
		summary.TotalFormatted,
		summary.CompletedSessions,
		summary.Progress,
	)

	if summary.ActiveSession != nil {
		printSession(summary.ActiveSession)
	}

	return nil
}

func parseDeadline(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}

	d, err := dateparser.Parse(&dateparser.Configuration{
		CurrentTime: time.Now(),
	}, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse deadline %q: %w", s, err)
	}

	return d.Time, nil
}

func decomposeAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	deadline, err := parseDeadline(ctx.String("deadline"))
	if err != nil {
		return err
	}

	gen := newGenerator(db)

	result, err := gen.Generate(ctx.Context, decompose.Request{
		UserID:      fmt.Sprintf("%d", ctx.Int64("user")),
		ProjectID:   ctx.Int64("project"),
		Name:        ctx.String("name"),
		Description: ctx.String("description"),
		Priority:    ctx.String("priority"),
		DetailDepth: ctx.String("depth"),
		Deadline:    deadline,
		MaxTasks:    ctx.Int("max-tasks"),
	})
	if err != nil {
		return err
	}

	if ctx.Bool("save") {
		err = gen.SaveTasks(result)
		if err != nil {
			return err
		}

		pterm.Success.Printfln(
			"saved %d task(s) to project %d",
			len(result.Tasks),
			result.ProjectID,
		)
	}

	if ctx.Bool("json") {
		b, err := json.Marshal(result)
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	}

	for _, task := range result.Tasks {
		due := "no due date"
		if !task.DueDate.IsZero() {
			due = "due " + task.DueDate.Format("2006-01-02")
		}

		pterm.Printfln(
			"- %s [%s, %.1fh, %s]",
			task.Name,
			task.Priority,
			task.EstimatedTime,
			due,
		)
	}

	return nil
}

func insightAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	insight, err := newGenerator(db).Insights(ctx.Context, ctx.Int64("user"))
	if err != nil {
		return err
	}

	pterm.Println(insight)

	return nil
}

func monitorAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	runCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	m := monitor.New(
		db,
		monitor.WithInterval(cfg.Monitor.SweepInterval),
		monitor.WithThreshold(cfg.Monitor.HeartbeatThreshold),
	)

	pterm.Info.Printfln(
		"staleness monitor running (sweep every %s, threshold %s)",
		cfg.Monitor.SweepInterval,
		cfg.Monitor.HeartbeatThreshold,
	)

	m.Run(runCtx)

	return nil
}

func userAddAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	user := &models.User{
		Name:            ctx.String("name"),
		Role:            ctx.String("role"),
		ExperienceLevel: ctx.String("level"),
	}

	err = db.CreateUser(user)
	if err != nil {
		return err
	}

	if stack := ctx.String("stack"); stack != "" {
		var items []models.TechStackItem

		for _, entry := range strings.Split(stack, ",") {
			tech, prof, found := strings.Cut(strings.TrimSpace(entry), ":")
			if !found {
				prof = "intermediate"
			}

			items = append(items, models.TechStackItem{
				Technology:  tech,
				Proficiency: prof,
			})
		}

		err = db.SaveTechStack(user.ID, items)
		if err != nil {
			return err
		}
	}

	pterm.Success.Printfln("created user %d", user.ID)

	return nil
}

func taskAddAction(ctx *cli.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	task := &models.Task{
		ProjectID:     ctx.Int64("project"),
		UserID:        ctx.Int64("user"),
		Name:          ctx.String("name"),
		Description:   ctx.String("description"),
		EstimatedTime: ctx.Float64("estimate"),
		Priority:      models.ParsePriority(ctx.String("priority")),
	}

	err = db.CreateTask(task)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("created task %d", task.ID)

	return nil
}
