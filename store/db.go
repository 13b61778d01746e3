package store

import (
	"time"

	"github.com/taskpilot/taskpilot/internal/models"
)

// DB is the database storage interface.
type DB interface {
	// CreateSession persists a new tracking session, assigning its ID.
	CreateSession(sess *models.TrackingSession) error
	// UpdateSession overwrites an existing tracking session.
	UpdateSession(sess *models.TrackingSession) error
	// GetSession returns the session with the given id.
	GetSession(id int64) (*models.TrackingSession, error)
	// ActiveSessionsForUser returns all sessions for a user that are still
	// active, including paused and auto-paused ones.
	ActiveSessionsForUser(userID int64) ([]*models.TrackingSession, error)
	// AutoPausedSessionsForUser returns the user's active sessions that were
	// frozen by the staleness monitor.
	AutoPausedSessionsForUser(userID int64) ([]*models.TrackingSession, error)
	// SessionsForTask returns every session recorded against a task.
	SessionsForTask(taskID int64) ([]*models.TrackingSession, error)
	// SessionsInRange returns a user's sessions whose calendar date falls
	// within [start, end].
	SessionsInRange(userID int64, start, end time.Time) ([]*models.TrackingSession, error)
	// StaleSessions returns active, non-paused sessions whose last heartbeat
	// is older than cutoff.
	StaleSessions(cutoff time.Time) ([]*models.TrackingSession, error)

	CreateTask(task *models.Task) error
	UpdateTask(task *models.Task) error
	GetTask(id int64) (*models.Task, error)
	// CompletedTasksForUser returns a user's finished tasks, used to gauge
	// estimation accuracy.
	CompletedTasksForUser(userID int64) ([]*models.Task, error)

	CreateProject(project *models.Project) error
	GetProject(id int64) (*models.Project, error)

	CreateUser(user *models.User) error
	GetUser(id int64) (*models.User, error)

	SaveTechStack(userID int64, items []models.TechStackItem) error
	TechStackForUser(userID int64) ([]models.TechStackItem, error)

	// Close ends the database connection.
	Close() error
}
