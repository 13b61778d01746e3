package decompose

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/genai"
	"github.com/taskpilot/taskpilot/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	today := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	details := models.ProjectDetails{
		Name:        "Billing service",
		Description: "Invoices and payments",
		Priority:    models.PriorityHigh,
		DetailDepth: models.DepthDetailed,
		Deadline:    time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}

	messages := buildPrompt(details, "Developer: sam.", 12, today)

	require.Len(t, messages, 2)
	assert.Equal(t, genai.RoleSystem, messages[0].Role)
	assert.Equal(t, genai.RoleUser, messages[1].Role)

	user := messages[1].Content
	assert.Contains(t, user, "Name: Billing service")
	assert.Contains(t, user, "Developer: sam.")
	assert.Contains(t, user, "Today's date is 2025-03-10.")
	assert.Contains(t, user, "at most 12 tasks")
	assert.Contains(t, user, depthGuidance[models.DepthDetailed])
	assert.Contains(t, user, "Deadline: 2025-04-01")
	assert.Contains(t, user, "after the project deadline")
}

func TestBuildPromptWithoutDeadline(t *testing.T) {
	today := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	messages := buildPrompt(models.ProjectDetails{
		Name:        "No deadline",
		DetailDepth: models.DepthNormal,
	}, "", 20, today)

	user := messages[1].Content
	assert.NotContains(t, user, "Deadline:")
	assert.NotContains(t, user, "project deadline")
	assert.True(t, strings.Contains(user, "JSON array"))
}
