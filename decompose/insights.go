package decompose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskpilot/taskpilot/genai"
)

// fallbackInsight is returned when the model is unavailable. Insight
// generation degrades to static guidance instead of failing the request.
const fallbackInsight = `Keep sessions focused and end them when you switch tasks, so your tracked hours reflect real work. Review your daily breakdown weekly: a low average with long sessions usually means unlogged pauses. Compare estimated and actual time on completed tasks to calibrate future estimates.`

// Insights asks the model for a short productivity analysis of the user's
// recent tracked time. On any model failure it returns the static fallback
// text rather than an error.
func (g *Generator) Insights(
	ctx context.Context,
	userID int64,
) (string, error) {
	prod, err := g.stats.UserProductivity(userID, 30)
	if err != nil {
		return "", err
	}

	userContext, err := g.buildUserContext(userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("# Developer context\n\n")
	b.WriteString(userContext)
	b.WriteString("\n# Recent activity\n\n")
	fmt.Fprintf(
		&b,
		"Total tracked over the last 30 days: %.2f hours (%.2f hours/day).\n",
		prod.TotalHours,
		prod.AverageHoursPerDay,
	)

	b.WriteString(`
Write a short productivity insight for this developer: 2-4 sentences, concrete and specific to the numbers above, no headings or lists.`)

	messages := []genai.Message{
		{
			Role:    genai.RoleSystem,
			Content: "You are a productivity coach for software developers. You are concise and practical.",
		},
		{Role: genai.RoleUser, Content: b.String()},
	}

	content, err := g.model.Invoke(ctx, messages)
	if err != nil || strings.TrimSpace(content) == "" {
		g.log.Warn("insight generation failed, using fallback",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)

		return fallbackInsight, nil
	}

	return strings.TrimSpace(content), nil
}
