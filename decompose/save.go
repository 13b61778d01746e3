package decompose

import (
	"fmt"
	"log/slog"

	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/internal/timeutil"
)

// SaveTasks commits a decomposition result: tasks are appended to the
// referenced project, or a new project is created from the inline details
// with its estimate set to the sum of the task estimates. The result is
// marked saved on success.
func (g *Generator) SaveTasks(result *models.DecompositionResult) error {
	if result == nil || len(result.Tasks) == 0 {
		return ErrNothingToSave
	}

	var projectID int64

	switch {
	case result.ProjectID != 0:
		project, err := g.db.GetProject(result.ProjectID)
		if err != nil {
			return err
		}

		projectID = project.ID

	case result.ProjectDetails != nil:
		var total float64
		for _, task := range result.Tasks {
			total += task.EstimatedTime
		}

		project := &models.Project{
			UserID:        result.UserID,
			Name:          result.ProjectDetails.Name,
			Description:   result.ProjectDetails.Description,
			Priority:      result.ProjectDetails.Priority,
			Deadline:      result.ProjectDetails.Deadline,
			EstimatedTime: timeutil.RoundHours(total),
		}

		err := g.db.CreateProject(project)
		if err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		projectID = project.ID

	default:
		return ErrMissingProjectContext
	}

	for i := range result.Tasks {
		gt := result.Tasks[i]

		task := &models.Task{
			ProjectID:     projectID,
			UserID:        result.UserID,
			Name:          gt.Name,
			Description:   gt.Description,
			EstimatedTime: gt.EstimatedTime,
			Priority:      gt.Priority,
			DueDate:       gt.DueDate,
			Progress:      gt.Progress,
		}

		err := g.db.CreateTask(task)
		if err != nil {
			return fmt.Errorf("creating task %q: %w", gt.Name, err)
		}
	}

	result.ProjectID = projectID
	result.Saved = true

	g.log.Info("decomposition saved",
		slog.Int64("project_id", projectID),
		slog.Int("tasks", len(result.Tasks)),
	)

	return nil
}
