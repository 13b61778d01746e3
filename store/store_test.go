package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := NewClient(filepath.Join(t.TempDir(), "taskpilot.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

func TestSessionRoundTrip(t *testing.T) {
	c := newTestClient(t)
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	sess := &models.TrackingSession{
		UserID:        1,
		TaskID:        10,
		StartTime:     start,
		Date:          start.Truncate(24 * time.Hour),
		IsActive:      true,
		LastHeartbeat: start,
	}

	require.NoError(t, c.CreateSession(sess))
	require.NotZero(t, sess.ID)

	got, err := c.GetSession(sess.ID)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(start))
	assert.True(t, got.IsActive)

	got.IsActive = false
	got.DurationHours = 1.25
	got.EndTime = start.Add(75 * time.Minute)
	require.NoError(t, c.UpdateSession(got))

	updated, err := c.GetSession(sess.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 1.25, updated.DurationHours)
}

func TestGetSessionNotFound(t *testing.T) {
	c := newTestClient(t)

	_, err := c.GetSession(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSessionWithoutID(t *testing.T) {
	c := newTestClient(t)

	err := c.UpdateSession(&models.TrackingSession{UserID: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionQueries(t *testing.T) {
	c := newTestClient(t)
	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	seed := []*models.TrackingSession{
		{UserID: 1, TaskID: 10, StartTime: base, Date: base, IsActive: true, LastHeartbeat: base},
		{UserID: 1, TaskID: 10, StartTime: base.AddDate(0, 0, -1), Date: base.AddDate(0, 0, -1), DurationHours: 2},
		{UserID: 1, TaskID: 11, StartTime: base.AddDate(0, 0, -10), Date: base.AddDate(0, 0, -10), DurationHours: 1},
		{UserID: 2, TaskID: 20, StartTime: base, Date: base, IsActive: true, AutoPaused: true, LastHeartbeat: base.Add(-time.Hour)},
	}

	for _, s := range seed {
		require.NoError(t, c.CreateSession(s))
	}

	active, err := c.ActiveSessionsForUser(1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, seed[0].ID, active[0].ID)

	autoPaused, err := c.AutoPausedSessionsForUser(2)
	require.NoError(t, err)
	require.Len(t, autoPaused, 1)
	assert.Equal(t, seed[3].ID, autoPaused[0].ID)

	forTask, err := c.SessionsForTask(10)
	require.NoError(t, err)
	assert.Len(t, forTask, 2)

	inRange, err := c.SessionsInRange(1, base.AddDate(0, 0, -2), base)
	require.NoError(t, err)
	require.Len(t, inRange, 2)

	// cursor order follows insertion order
	assert.Equal(t, seed[0].ID, inRange[0].ID)
	assert.Equal(t, seed[1].ID, inRange[1].ID)
}

func TestStaleSessions(t *testing.T) {
	c := newTestClient(t)
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-10 * time.Minute)

	stale := &models.TrackingSession{
		UserID: 1, TaskID: 10,
		StartTime: now.Add(-time.Hour), Date: now,
		IsActive: true, LastHeartbeat: now.Add(-20 * time.Minute),
	}
	fresh := &models.TrackingSession{
		UserID: 1, TaskID: 10,
		StartTime: now.Add(-time.Hour), Date: now,
		IsActive: true, LastHeartbeat: now.Add(-time.Minute),
	}
	paused := &models.TrackingSession{
		UserID: 1, TaskID: 10,
		StartTime: now.Add(-time.Hour), Date: now,
		IsActive: true, IsPaused: true,
		PauseTime: now.Add(-30 * time.Minute), LastHeartbeat: now.Add(-30 * time.Minute),
	}
	frozen := &models.TrackingSession{
		UserID: 1, TaskID: 10,
		StartTime: now.Add(-2 * time.Hour), Date: now,
		IsActive: true, AutoPaused: true, LastHeartbeat: now.Add(-time.Hour),
	}

	for _, s := range []*models.TrackingSession{stale, fresh, paused, frozen} {
		require.NoError(t, c.CreateSession(s))
	}

	got, err := c.StaleSessions(cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stale.ID, got[0].ID)
}

func TestTaskRoundTrip(t *testing.T) {
	c := newTestClient(t)

	task := &models.Task{
		ProjectID:     1,
		UserID:        1,
		Name:          "write handlers",
		EstimatedTime: 4,
		Priority:      models.PriorityHigh,
	}

	require.NoError(t, c.CreateTask(task))
	require.NotZero(t, task.ID)

	got, err := c.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "write handlers", got.Name)
	assert.Equal(t, models.PriorityHigh, got.Priority)

	got.Completed = true
	got.ActualTime = 5.5
	require.NoError(t, c.UpdateTask(got))

	completed, err := c.CompletedTasksForUser(1)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 5.5, completed[0].ActualTime)
}

func TestProjectRoundTrip(t *testing.T) {
	c := newTestClient(t)

	project := &models.Project{
		UserID:        1,
		Name:          "taskpilot",
		Priority:      models.PriorityMedium,
		EstimatedTime: 40,
	}

	require.NoError(t, c.CreateProject(project))
	require.NotZero(t, project.ID)

	got, err := c.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, "taskpilot", got.Name)

	_, err = c.GetProject(project.ID + 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserAndTechStack(t *testing.T) {
	c := newTestClient(t)

	user := &models.User{
		Name:            "sam",
		Role:            "backend developer",
		ExperienceLevel: "senior",
	}

	require.NoError(t, c.CreateUser(user))
	require.NotZero(t, user.ID)

	got, err := c.GetUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "sam", got.Name)

	// no stack recorded yet
	stack, err := c.TechStackForUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, stack)

	items := []models.TechStackItem{
		{Technology: "go", Proficiency: "advanced"},
		{Technology: "sql", Proficiency: "intermediate"},
	}
	require.NoError(t, c.SaveTechStack(user.ID, items))

	stack, err = c.TechStackForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, items, stack)
}

func TestCreateUserKeepsPresetID(t *testing.T) {
	c := newTestClient(t)

	user := &models.User{ID: 42, Name: "preset"}
	require.NoError(t, c.CreateUser(user))
	assert.Equal(t, int64(42), user.ID)

	got, err := c.GetUser(42)
	require.NoError(t, err)
	assert.Equal(t, "preset", got.Name)
}
