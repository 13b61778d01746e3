// Package decompose turns a project description and a developer's history
// into a bounded list of estimated, prioritized, due-dated tasks via a
// generative model. The model's output is validated against a strict schema
// and its dates are never trusted literally.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/genai"
	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/internal/timeutil"
	"github.com/taskpilot/taskpilot/stats"
	"github.com/taskpilot/taskpilot/store"
)

const (
	defaultMaxTasks = 20
	maxTasksCeiling = 50
)

// Generator runs the decomposition pipeline.
type Generator struct {
	db    store.DB
	model genai.Invoker
	stats *stats.Aggregator
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.log = l
	}
}

// New creates a Generator.
func New(
	db store.DB,
	model genai.Invoker,
	aggregator *stats.Aggregator,
	opts ...Option,
) *Generator {
	g := &Generator{
		db:    db,
		model: model,
		stats: aggregator,
		now:   time.Now,
		log:   slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Request describes a decomposition to perform. Either ProjectID identifies
// an existing project to append tasks to, or the inline fields describe a
// new one. Priority and DetailDepth arrive as free text and are normalized.
type Request struct {
	UserID      string
	ProjectID   int64
	Name        string
	Description string
	Priority    string
	DetailDepth string
	Deadline    time.Time
	MaxTasks    int
}

// Generate runs the full pipeline: input normalization and safety
// validation, user-context assembly, prompt construction, model invocation,
// response validation, and due-date reconciliation. The result is not
// persisted; SaveTasks commits it separately.
func (g *Generator) Generate(
	ctx context.Context,
	req Request,
) (*models.DecompositionResult, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(req.UserID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUserID, req.UserID)
	}

	maxTasks := req.MaxTasks
	if maxTasks <= 0 {
		maxTasks = defaultMaxTasks
	}

	if maxTasks > maxTasksCeiling {
		maxTasks = maxTasksCeiling
	}

	// reject injection attempts before anything reaches the model
	for _, field := range []string{req.Name, req.Description} {
		if err := ValidateInput(field); err != nil {
			return nil, err
		}
	}

	details := SanitizeDetails(models.ProjectDetails{
		Name:        req.Name,
		Description: req.Description,
		Priority:    models.ParsePriority(req.Priority),
		DetailDepth: models.ParseDetailDepth(req.DetailDepth),
		Deadline:    req.Deadline,
	})

	userContext, err := g.buildUserContext(userID)
	if err != nil {
		return nil, err
	}

	now := g.now()
	messages := buildPrompt(details, userContext, maxTasks, now)

	tasks, err := g.invokeAndParse(ctx, messages, now)
	if errors.Is(err, ErrMalformedResponse) {
		// one internal retry before surfacing an upstream fault
		g.log.Warn("model response malformed, retrying once",
			slog.Int64("user_id", userID),
		)

		tasks, err = g.invokeAndParse(ctx, messages, now)
	}

	if err != nil {
		return nil, err
	}

	if len(tasks) > maxTasks {
		tasks = tasks[:maxTasks]
	}

	today := timeutil.RoundToStart(now)

	for i := range tasks {
		tasks[i].DueDate = reconcileDueDate(tasks[i].DueDate, today)
	}

	result := &models.DecompositionResult{
		UserID: userID,
		Tasks:  tasks,
		Saved:  false,
	}

	if req.ProjectID != 0 {
		result.ProjectID = req.ProjectID
	} else {
		result.ProjectDetails = &details
	}

	g.log.Info("decomposition generated",
		slog.Int64("user_id", userID),
		slog.Int("tasks", len(tasks)),
	)

	return result, nil
}

func (g *Generator) invokeAndParse(
	ctx context.Context,
	messages []genai.Message,
	now time.Time,
) ([]models.GeneratedTask, error) {
	content, err := g.model.Invoke(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("invoking model: %w", err)
	}

	if containsRefusal(content) {
		return nil, ErrContentRejected
	}

	return parseTasks(content, now)
}

// reconcileDueDate shifts a past due date forward by the same day offset it
// was late: a date 3 days in the past becomes 3 days in the future. Future
// dates pass through unchanged, and a missing date stays missing.
func reconcileDueDate(due, today time.Time) time.Time {
	if due.IsZero() {
		return due
	}

	dueDay := timeutil.RoundToStart(due)
	if !dueDay.Before(today) {
		return due
	}

	offset := timeutil.DaysBetween(dueDay, today)

	return today.AddDate(0, 0, offset)
}
