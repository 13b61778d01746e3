package decompose

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/taskpilot/taskpilot/internal/models"
)

// refusalMarkers indicate the model declined rather than answered. A
// response containing one is never parsed.
var refusalMarkers = []string{
	"i'm sorry",
	"i am sorry",
	"i apologize",
	"i apologise",
	"can't help",
	"cannot help",
	"i cannot",
	"i can't",
}

func containsRefusal(content string) bool {
	lower := strings.ToLower(content)

	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// rawTask mirrors the model's output schema before validation. Fields the
// model tends to mangle are kept loose and coerced per field.
type rawTask struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	EstimatedTime json.RawMessage `json:"estimated_time"`
	Priority      string          `json:"priority"`
	DueDate       string          `json:"dueDate"`
	Progress      *float64        `json:"progress"`
}

// extractArray pulls the outermost JSON array out of the response, tolerating
// markdown fences and surrounding commentary the model was told not to emit.
func extractArray(content string) (string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")

	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON array in response: %w", ErrMalformedResponse)
	}

	return content[start : end+1], nil
}

// coerceEstimate accepts a JSON number or a numeric string, defaulting to 1
// hour when the value is missing, unparseable, or non-positive.
func coerceEstimate(raw json.RawMessage) float64 {
	const fallback = 1

	if len(raw) == 0 {
		return fallback
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n > 0 {
			return n
		}

		return fallback
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && n > 0 {
			return n
		}
	}

	return fallback
}

// parseDueDate parses a date-like string from the model, returning the zero
// time when it cannot be understood.
func parseDueDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	if t, err := time.ParseInLocation(dateLayout, s, now.Location()); err == nil {
		return t
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}

	d, err := dateparser.Parse(cfg, s)
	if err != nil {
		return time.Time{}
	}

	return d.Time
}

// parseTasks validates the model response against the task schema, applying
// per-field defaults. Entries without a name are dropped; a response that
// yields no usable tasks is malformed.
func parseTasks(content string, now time.Time) ([]models.GeneratedTask, error) {
	arr, err := extractArray(content)
	if err != nil {
		return nil, err
	}

	var raw []rawTask

	err = json.Unmarshal([]byte(arr), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	tasks := make([]models.GeneratedTask, 0, len(raw))

	for _, rt := range raw {
		name := strings.TrimSpace(rt.Name)
		if name == "" {
			continue
		}

		progress := 0
		if rt.Progress != nil {
			progress = int(*rt.Progress)
		}

		if progress < 0 {
			progress = 0
		}

		if progress > 100 {
			progress = 100
		}

		tasks = append(tasks, models.GeneratedTask{
			Name:          name,
			Description:   strings.TrimSpace(rt.Description),
			EstimatedTime: coerceEstimate(rt.EstimatedTime),
			Priority:      models.ParsePriority(rt.Priority),
			DueDate:       parseDueDate(rt.DueDate, now),
			Progress:      progress,
		})
	}

	if len(tasks) == 0 {
		return nil, fmt.Errorf("response contains no usable tasks: %w", ErrMalformedResponse)
	}

	return tasks, nil
}
