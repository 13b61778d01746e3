// Package testutil provides shared test doubles for the data store.
package testutil

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/internal/timeutil"
	"github.com/taskpilot/taskpilot/store"
)

// MemStore is an in-memory implementation of store.DB for tests.
type MemStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.TrackingSession
	tasks    map[int64]*models.Task
	projects map[int64]*models.Project
	users    map[int64]*models.User
	stacks   map[int64][]models.TechStackItem
	nextID   int64
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[int64]*models.TrackingSession),
		tasks:    make(map[int64]*models.Task),
		projects: make(map[int64]*models.Project),
		users:    make(map[int64]*models.User),
		stacks:   make(map[int64][]models.TechStackItem),
	}
}

func (m *MemStore) next() int64 {
	m.nextID++
	return m.nextID
}

func copySession(s *models.TrackingSession) *models.TrackingSession {
	c := *s
	return &c
}

func (m *MemStore) CreateSession(sess *models.TrackingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess.ID = m.next()
	m.sessions[sess.ID] = copySession(sess)

	return nil
}

func (m *MemStore) UpdateSession(sess *models.TrackingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sess.ID]; !ok {
		return fmt.Errorf("session %d: %w", sess.ID, store.ErrNotFound)
	}

	m.sessions[sess.ID] = copySession(sess)

	return nil
}

func (m *MemStore) GetSession(id int64) (*models.TrackingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, store.ErrNotFound)
	}

	return copySession(sess), nil
}

func (m *MemStore) filterSessions(
	pred func(*models.TrackingSession) bool,
) []*models.TrackingSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*models.TrackingSession

	for _, s := range m.sessions {
		if pred(s) {
			result = append(result, copySession(s))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

func (m *MemStore) ActiveSessionsForUser(
	userID int64,
) ([]*models.TrackingSession, error) {
	return m.filterSessions(func(s *models.TrackingSession) bool {
		return s.UserID == userID && s.IsActive
	}), nil
}

func (m *MemStore) AutoPausedSessionsForUser(
	userID int64,
) ([]*models.TrackingSession, error) {
	return m.filterSessions(func(s *models.TrackingSession) bool {
		return s.UserID == userID && s.IsActive && s.AutoPaused
	}), nil
}

func (m *MemStore) SessionsForTask(
	taskID int64,
) ([]*models.TrackingSession, error) {
	return m.filterSessions(func(s *models.TrackingSession) bool {
		return s.TaskID == taskID
	}), nil
}

func (m *MemStore) SessionsInRange(
	userID int64,
	start, end time.Time,
) ([]*models.TrackingSession, error) {
	startDay := timeutil.RoundToStart(start)
	endDay := timeutil.RoundToEnd(end)

	return m.filterSessions(func(s *models.TrackingSession) bool {
		return s.UserID == userID &&
			!s.Date.Before(startDay) &&
			!s.Date.After(endDay)
	}), nil
}

func (m *MemStore) StaleSessions(
	cutoff time.Time,
) ([]*models.TrackingSession, error) {
	return m.filterSessions(func(s *models.TrackingSession) bool {
		return s.IsActive && !s.IsPaused && !s.AutoPaused &&
			s.LastHeartbeat.Before(cutoff)
	}), nil
}

func (m *MemStore) CreateTask(task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if task.ID == 0 {
		task.ID = m.next()
	}

	c := *task
	m.tasks[task.ID] = &c

	return nil
}

func (m *MemStore) UpdateTask(task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[task.ID]; !ok {
		return fmt.Errorf("task %d: %w", task.ID, store.ErrNotFound)
	}

	c := *task
	m.tasks[task.ID] = &c

	return nil
}

func (m *MemStore) GetTask(id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, store.ErrNotFound)
	}

	c := *task

	return &c, nil
}

func (m *MemStore) CompletedTasksForUser(
	userID int64,
) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*models.Task

	for _, t := range m.tasks {
		if t.UserID == userID && t.Completed {
			c := *t
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (m *MemStore) CreateProject(project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if project.ID == 0 {
		project.ID = m.next()
	}

	c := *project
	m.projects[project.ID] = &c

	return nil
}

func (m *MemStore) GetProject(id int64) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	project, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, store.ErrNotFound)
	}

	c := *project

	return &c, nil
}

func (m *MemStore) CreateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == 0 {
		user.ID = m.next()
	}

	c := *user
	m.users[user.ID] = &c

	return nil
}

func (m *MemStore) GetUser(id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}

	c := *user

	return &c, nil
}

func (m *MemStore) SaveTechStack(
	userID int64,
	items []models.TechStackItem,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stacks[userID] = append([]models.TechStackItem(nil), items...)

	return nil
}

func (m *MemStore) TechStackForUser(
	userID int64,
) ([]models.TechStackItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.TechStackItem(nil), m.stacks[userID]...), nil
}

func (m *MemStore) Close() error {
	return nil
}
