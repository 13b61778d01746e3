package decompose

import (
	"fmt"
	"strings"
)

// experience level to years-of-experience phrasing used in the prompt
var experienceYears = map[string]string{
	"junior": "0-2 years",
	"mid":    "2-5 years",
	"senior": "5+ years",
	"lead":   "8+ years",
}

// estimation accuracy labels
const (
	labelUnderestimated = "UNDERESTIMATED"
	labelOverestimated  = "OVERESTIMATED"
	labelAccurate       = "ACCURATE"
)

func accuracyLabel(ratio float64) string {
	switch {
	case ratio > 1.1:
		return labelUnderestimated
	case ratio < 0.9:
		return labelOverestimated
	default:
		return labelAccurate
	}
}

// buildUserContext assembles a free-text block describing the developer the
// tasks are generated for: role, experience, tech stack, estimation
// accuracy across completed tasks, and recent productivity. The block is
// sanitized before prompt inclusion since it embeds stored user text.
func (g *Generator) buildUserContext(userID int64) (string, error) {
	user, err := g.db.GetUser(userID)
	if err != nil {
		return "", err
	}

	stack, err := g.db.TechStackForUser(userID)
	if err != nil {
		return "", err
	}

	completed, err := g.db.CompletedTasksForUser(userID)
	if err != nil {
		return "", err
	}

	prod, err := g.stats.UserProductivity(userID, 30)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	years, ok := experienceYears[strings.ToLower(user.ExperienceLevel)]
	if !ok {
		years = "unspecified"
	}

	fmt.Fprintf(
		&b,
		"Developer: %s, role %s, experience %s.\n",
		user.Name,
		user.Role,
		years,
	)

	if len(stack) > 0 {
		b.WriteString("Tech stack: ")

		for i, item := range stack {
			if i > 0 {
				b.WriteString(", ")
			}

			fmt.Fprintf(&b, "%s (%s)", item.Technology, item.Proficiency)
		}

		b.WriteString(".\n")
	}

	var sumEstimated, sumActual float64

	var history []string

	for _, task := range completed {
		if task.EstimatedTime <= 0 || task.ActualTime <= 0 {
			continue
		}

		sumEstimated += task.EstimatedTime
		sumActual += task.ActualTime

		history = append(history, fmt.Sprintf(
			"- %s: estimated %.1fh, actual %.1fh (%s)",
			task.Name,
			task.EstimatedTime,
			task.ActualTime,
			accuracyLabel(task.ActualTime/task.EstimatedTime),
		))
	}

	if sumEstimated > 0 {
		fmt.Fprintf(
			&b,
			"Estimation history (%d completed tasks, aggregate actual/estimated ratio %.2f):\n",
			len(history),
			sumActual/sumEstimated,
		)

		b.WriteString(strings.Join(history, "\n"))
		b.WriteString("\n")
	}

	fmt.Fprintf(
		&b,
		"Average productivity over the last 30 days: %.2f hours/day.\n",
		prod.AverageHoursPerDay,
	)

	return Sanitize(b.String()), nil
}
