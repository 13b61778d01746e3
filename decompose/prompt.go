package decompose

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/genai"
	"github.com/taskpilot/taskpilot/internal/models"
)

const dateLayout = "2006-01-02"

const systemPrompt = `You are a project planning assistant. You break project descriptions down into concrete, estimated development tasks for a specific developer. You respond ONLY with a JSON array and never with prose, explanations, or markdown outside the array.`

// depthGuidance maps detail depth to a task-granularity instruction.
var depthGuidance = map[models.DetailDepth]string{
	models.DepthMinimal:       "Produce only the essential high-level tasks.",
	models.DepthNormal:        "Produce a balanced breakdown of the main work items.",
	models.DepthDetailed:      "Break the work into fine-grained tasks, splitting larger items into steps.",
	models.DepthComprehensive: "Produce an exhaustive breakdown including setup, testing, and documentation tasks.",
}

// buildPrompt constructs the role-tagged messages instructing the model to
// emit a bounded JSON array of tasks. Due dates are constrained relative to
// today with priority-linked windows; the model's literal dates are still
// reconciled afterwards and never trusted.
func buildPrompt(
	details models.ProjectDetails,
	userContext string,
	maxTasks int,
	today time.Time,
) []genai.Message {
	var b strings.Builder

	b.WriteString("# Project to decompose\n\n")
	fmt.Fprintf(&b, "Name: %s\n", details.Name)
	fmt.Fprintf(&b, "Description: %s\n", details.Description)
	fmt.Fprintf(&b, "Priority: %s\n", details.Priority)

	if !details.Deadline.IsZero() {
		fmt.Fprintf(&b, "Deadline: %s\n", details.Deadline.Format(dateLayout))
	}

	b.WriteString("\n# Developer context\n\n")
	b.WriteString(userContext)
	b.WriteString("\n")

	b.WriteString("# Rules\n\n")
	fmt.Fprintf(&b, "- Today's date is %s.\n", today.Format(dateLayout))
	fmt.Fprintf(&b, "- Produce at most %d tasks.\n", maxTasks)
	b.WriteString(
		"- " + depthGuidance[details.DetailDepth] + "\n",
	)
	b.WriteString(
		"- Every dueDate must be today or later, formatted YYYY-MM-DD.\n",
	)
	b.WriteString(
		"- Due-date windows by priority: high within 7 days, medium within 14 days, low within 30 days of today.\n",
	)

	if !details.Deadline.IsZero() {
		b.WriteString("- No dueDate may fall after the project deadline.\n")
	}

	b.WriteString(`- estimated_time is the estimate in hours and must be a positive number.
- priority is one of: low, medium, high.
- progress is 0 for new tasks.

# Output format

Respond with a JSON array only. Each element must have exactly these fields:

[
  {
    "name": "Short task title",
    "description": "What to do and why",
    "estimated_time": 4,
    "priority": "high",
    "dueDate": "YYYY-MM-DD",
    "progress": 0
  }
]

Output ONLY the JSON array. Do not wrap it in markdown fences or add any text before or after it.
`)

	return []genai.Message{
		{Role: genai.RoleSystem, Content: systemPrompt},
		{Role: genai.RoleUser, Content: b.String()},
	}
}
