// Package store connects to the data store and manages tracking sessions,
// tasks, projects, and users.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/internal/timeutil"
)

var (
	// ErrNotFound indicates that a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	errAlreadyRunning = errors.New(
		"is taskpilot already running? Only one instance can access the data store at a time",
	)
)

const (
	sessionsBucket   = "sessions"
	tasksBucket      = "tasks"
	projectsBucket   = "projects"
	usersBucket      = "users"
	techStacksBucket = "tech_stacks"
)

var allBuckets = []string{
	sessionsBucket,
	tasksBucket,
	projectsBucket,
	usersBucket,
	techStacksBucket,
}

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// itob converts a record id to a big-endian key so that cursor order matches
// insertion order.
func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))

	return b
}

func (c *Client) putJSON(bucket string, key []byte, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put(key, value)
	})
}

func (c *Client) getJSON(bucket string, key []byte, v any) error {
	return c.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket)).Get(key)
		if len(b) == 0 {
			return ErrNotFound
		}

		return json.Unmarshal(b, v)
	})
}

// nextID reserves the next sequence number in the named bucket.
func (c *Client) nextID(bucket string) (int64, error) {
	var id uint64

	err := c.Update(func(tx *bolt.Tx) error {
		seq, err := tx.Bucket([]byte(bucket)).NextSequence()
		if err != nil {
			return err
		}

		id = seq

		return nil
	})

	return int64(id), err
}

// filterSessions scans the sessions bucket and collects every session
// matching pred in key order.
func (c *Client) filterSessions(
	pred func(*models.TrackingSession) bool,
) ([]*models.TrackingSession, error) {
	var result []*models.TrackingSession

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(sessionsBucket)).Cursor()

		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var sess models.TrackingSession

			err := json.Unmarshal(v, &sess)
			if err != nil {
				return err
			}

			if pred(&sess) {
				result = append(result, &sess)
			}
		}

		return nil
	})

	return result, err
}

func (c *Client) CreateSession(sess *models.TrackingSession) error {
	id, err := c.nextID(sessionsBucket)
	if err != nil {
		return err
	}

	sess.ID = id

	return c.putJSON(sessionsBucket, itob(sess.ID), sess)
}

func (c *Client) UpdateSession(sess *models.TrackingSession) error {
	if sess.ID == 0 {
		return fmt.Errorf("session has no id: %w", ErrNotFound)
	}

	return c.putJSON(sessionsBucket, itob(sess.ID), sess)
}

func (c *Client) GetSession(id int64) (*models.TrackingSession, error) {
	var sess models.TrackingSession

	err := c.getJSON(sessionsBucket, itob(id), &sess)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
		}

		return nil, err
	}

	return &sess, nil
}

func (c *Client) ActiveSessionsForUser(
	userID int64,
) ([]*models.TrackingSession, error) {
	return c.filterSessions(func(s *models.TrackingSession) bool {
		return s.UserID == userID && s.IsActive
	})
}

func (c *Client) AutoPausedSessionsForUser(
	userID int64,
) ([]*models.TrackingSession, error) {
	return c.filterSessions(func(s *models.TrackingSession) bool {
		return s.UserID == userID && s.IsActive && s.AutoPaused
	})
}

func (c *Client) SessionsForTask(
	taskID int64,
) ([]*models.TrackingSession, error) {
	return c.filterSessions(func(s *models.TrackingSession) bool {
		return s.TaskID == taskID
	})
}

func (c *Client) SessionsInRange(
	userID int64,
	start, end time.Time,
) ([]*models.TrackingSession, error) {
	startDay := timeutil.RoundToStart(start)
	endDay := timeutil.RoundToEnd(end)

	return c.filterSessions(func(s *models.TrackingSession) bool {
		return s.UserID == userID &&
			!s.Date.Before(startDay) &&
			!s.Date.After(endDay)
	})
}

func (c *Client) StaleSessions(
	cutoff time.Time,
) ([]*models.TrackingSession, error) {
	return c.filterSessions(func(s *models.TrackingSession) bool {
		return s.IsActive && !s.IsPaused && !s.AutoPaused &&
			s.LastHeartbeat.Before(cutoff)
	})
}

func (c *Client) CreateTask(task *models.Task) error {
	id, err := c.nextID(tasksBucket)
	if err != nil {
		return err
	}

	task.ID = id

	return c.putJSON(tasksBucket, itob(task.ID), task)
}

func (c *Client) UpdateTask(task *models.Task) error {
	if task.ID == 0 {
		return fmt.Errorf("task has no id: %w", ErrNotFound)
	}

	return c.putJSON(tasksBucket, itob(task.ID), task)
}

func (c *Client) GetTask(id int64) (*models.Task, error) {
	var task models.Task

	err := c.getJSON(tasksBucket, itob(id), &task)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}

		return nil, err
	}

	return &task, nil
}

func (c *Client) CompletedTasksForUser(
	userID int64,
) ([]*models.Task, error) {
	var result []*models.Task

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(tasksBucket)).Cursor()

		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var task models.Task

			err := json.Unmarshal(v, &task)
			if err != nil {
				return err
			}

			if task.UserID == userID && task.Completed {
				result = append(result, &task)
			}
		}

		return nil
	})

	return result, err
}

func (c *Client) CreateProject(project *models.Project) error {
	id, err := c.nextID(projectsBucket)
	if err != nil {
		return err
	}

	project.ID = id

	return c.putJSON(projectsBucket, itob(project.ID), project)
}

func (c *Client) GetProject(id int64) (*models.Project, error) {
	var project models.Project

	err := c.getJSON(projectsBucket, itob(id), &project)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}

		return nil, err
	}

	return &project, nil
}

func (c *Client) CreateUser(user *models.User) error {
	if user.ID == 0 {
		id, err := c.nextID(usersBucket)
		if err != nil {
			return err
		}

		user.ID = id
	}

	return c.putJSON(usersBucket, itob(user.ID), user)
}

func (c *Client) GetUser(id int64) (*models.User, error) {
	var user models.User

	err := c.getJSON(usersBucket, itob(id), &user)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}

		return nil, err
	}

	return &user, nil
}

func (c *Client) SaveTechStack(
	userID int64,
	items []models.TechStackItem,
) error {
	return c.putJSON(techStacksBucket, itob(userID), items)
}

func (c *Client) TechStackForUser(
	userID int64,
) ([]models.TechStackItem, error) {
	var items []models.TechStackItem

	err := c.getJSON(techStacksBucket, itob(userID), &items)
	if errors.Is(err, ErrNotFound) {
		// no recorded stack is not an error
		return nil, nil
	}

	return items, err
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, errAlreadyRunning
		}

		return nil, err
	}

	return db, nil
}

// NewClient returns a wrapper to a BoltDB connection.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	// Create the necessary buckets for storing data if they do not exist already
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			_, err = tx.CreateBucketIfNotExists([]byte(name))
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		db,
	}, nil
}
