// Package tracker implements the time-tracking session state machine. Each
// user has at most one active session at a time; sessions move through
// active, paused, auto-paused, and ended states with paused time accounted
// separately from worked time.
package tracker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/internal/timeutil"
	"github.com/taskpilot/taskpilot/store"
)

// Tracker coordinates session lifecycle transitions against the data store.
type Tracker struct {
	db  store.DB
	now func() time.Time
	log *slog.Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

// New creates a session tracker backed by db.
func New(db store.DB, opts ...Option) *Tracker {
	t := &Tracker{
		db:        db,
		now:       time.Now,
		log:       slog.Default(),
		userLocks: make(map[int64]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// userLock returns the mutex guarding session transitions for one user.
// Start and EndActiveForUser read existing sessions before writing, so they
// must be serialized per user to keep the single-active-session invariant.
func (t *Tracker) userLock(userID int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.userLocks[userID] = l
	}

	return l
}

// Start begins a new session for the user on the given task, force-ending
// any session that is still active. Exactly one session is active for the
// user afterwards.
func (t *Tracker) Start(userID, taskID int64) (*models.TrackingSession, error) {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	// verify the task exists before touching any session state
	if _, err := t.db.GetTask(taskID); err != nil {
		return nil, err
	}

	err := t.endActiveForUser(userID, 0)
	if err != nil {
		return nil, err
	}

	now := t.now()

	sess := &models.TrackingSession{
		UserID:        userID,
		TaskID:        taskID,
		StartTime:     now,
		Date:          timeutil.RoundToStart(now),
		IsActive:      true,
		LastHeartbeat: now,
	}

	err = t.db.CreateSession(sess)
	if err != nil {
		return nil, err
	}

	t.log.Info("session started",
		slog.Int64("session_id", sess.ID),
		slog.Int64("user_id", userID),
		slog.Int64("task_id", taskID),
	)

	return sess, nil
}

// Pause suspends an active, non-paused session.
func (t *Tracker) Pause(sessionID int64) (*models.TrackingSession, error) {
	sess, err := t.db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.IsActive || sess.IsPaused {
		return nil, ErrInvalidState
	}

	now := t.now()

	sess.IsPaused = true
	sess.PauseTime = now
	sess.LastHeartbeat = now

	err = t.db.UpdateSession(sess)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// Resume continues a paused session, folding the completed pause interval
// into the session's accumulated paused time.
func (t *Tracker) Resume(sessionID int64) (*models.TrackingSession, error) {
	sess, err := t.db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.IsActive || !sess.IsPaused {
		return nil, ErrInvalidState
	}

	now := t.now()

	paused := timeutil.HoursBetween(sess.PauseTime, now)
	sess.PausedDurationHours = timeutil.RoundHours(
		sess.PausedDurationHours + paused,
	)
	sess.IsPaused = false
	sess.PauseTime = time.Time{}
	sess.LastHeartbeat = now

	err = t.db.UpdateSession(sess)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// End terminates an active session and computes its final duration: elapsed
// wall-clock time minus accumulated paused time. An open pause interval is
// folded in first.
func (t *Tracker) End(sessionID int64) (*models.TrackingSession, error) {
	sess, err := t.db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.IsActive {
		return nil, ErrInvalidState
	}

	now := t.now()

	if sess.IsPaused {
		paused := timeutil.HoursBetween(sess.PauseTime, now)
		sess.PausedDurationHours = timeutil.RoundHours(
			sess.PausedDurationHours + paused,
		)
	}

	sess.DurationHours = t.netDuration(sess, now)
	sess.EndTime = now
	sess.IsActive = false
	sess.IsPaused = false
	sess.PauseTime = time.Time{}

	err = t.db.UpdateSession(sess)
	if err != nil {
		return nil, err
	}

	t.log.Info("session ended",
		slog.Int64("session_id", sess.ID),
		slog.Float64("duration_hours", sess.DurationHours),
	)

	return sess, nil
}

// EndActiveForUser force-ends every active session owned by the user. Used
// before starting a new session and when abandoning stale work.
func (t *Tracker) EndActiveForUser(userID int64) error {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	return t.endActiveForUser(userID, 0)
}

// endActiveForUser ends all of a user's active sessions except the one with
// id skip (0 skips nothing). The caller must hold the user lock.
//
// Unlike End, a session force-ended while paused keeps its duration frozen
// at the pause point: the open pause interval is not folded into
// PausedDurationHours and the elapsed time is measured up to PauseTime.
func (t *Tracker) endActiveForUser(userID, skip int64) error {
	active, err := t.db.ActiveSessionsForUser(userID)
	if err != nil {
		return err
	}

	now := t.now()

	for _, sess := range active {
		if sess.ID == skip {
			continue
		}

		ref := now
		if sess.IsPaused {
			ref = sess.PauseTime
		}

		sess.DurationHours = t.netDuration(sess, ref)
		sess.EndTime = now
		sess.IsActive = false
		sess.IsPaused = false
		sess.PauseTime = time.Time{}

		err = t.db.UpdateSession(sess)
		if err != nil {
			return err
		}

		t.log.Info("session force-ended",
			slog.Int64("session_id", sess.ID),
			slog.Int64("user_id", userID),
		)
	}

	return nil
}

// Heartbeat refreshes a session's liveness signal. Heartbeats on a paused
// session are accepted silently without moving the staleness window.
func (t *Tracker) Heartbeat(sessionID int64) error {
	sess, err := t.db.GetSession(sessionID)
	if err != nil {
		return err
	}

	if !sess.IsActive {
		return ErrInvalidState
	}

	if sess.IsPaused {
		return nil
	}

	sess.LastHeartbeat = t.now()

	return t.db.UpdateSession(sess)
}

// ResumeAutoPaused reactivates a session frozen by the staleness monitor.
// Any other session the user has started since is ended first, so the
// single-active-session invariant holds.
func (t *Tracker) ResumeAutoPaused(
	sessionID int64,
) (*models.TrackingSession, error) {
	sess, err := t.db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.AutoPaused {
		return nil, ErrInvalidState
	}

	l := t.userLock(sess.UserID)
	l.Lock()
	defer l.Unlock()

	err = t.endOthersFully(sess.UserID, sess.ID)
	if err != nil {
		return nil, err
	}

	sess.AutoPaused = false
	sess.IsActive = true
	sess.LastHeartbeat = t.now()

	err = t.db.UpdateSession(sess)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// endOthersFully ends all other active sessions of the user using the full
// End formula, including folding any open pause interval.
func (t *Tracker) endOthersFully(userID, skip int64) error {
	active, err := t.db.ActiveSessionsForUser(userID)
	if err != nil {
		return err
	}

	now := t.now()

	for _, sess := range active {
		if sess.ID == skip {
			continue
		}

		if sess.IsPaused {
			paused := timeutil.HoursBetween(sess.PauseTime, now)
			sess.PausedDurationHours = timeutil.RoundHours(
				sess.PausedDurationHours + paused,
			)
		}

		sess.DurationHours = t.netDuration(sess, now)
		sess.EndTime = now
		sess.IsActive = false
		sess.IsPaused = false
		sess.PauseTime = time.Time{}

		err = t.db.UpdateSession(sess)
		if err != nil {
			return err
		}
	}

	return nil
}

// netDuration computes worked hours up to ref, clamping at zero if paused
// time somehow exceeds elapsed time (clock skew).
func (t *Tracker) netDuration(
	sess *models.TrackingSession,
	ref time.Time,
) float64 {
	d := timeutil.RoundHours(
		timeutil.HoursBetween(sess.StartTime, ref) - sess.PausedDurationHours,
	)

	if d < 0 {
		t.log.Warn("negative session duration clamped to zero",
			slog.Int64("session_id", sess.ID),
			slog.Float64("computed_hours", d),
		)

		return 0
	}

	return d
}

// ActiveSession returns the user's currently active session, or nil if none
// exists.
func (t *Tracker) ActiveSession(
	userID int64,
) (*models.TrackingSession, error) {
	active, err := t.db.ActiveSessionsForUser(userID)
	if err != nil {
		return nil, err
	}

	if len(active) == 0 {
		return nil, nil
	}

	return active[0], nil
}

// AutoPausedSessions returns the user's sessions frozen by the staleness
// monitor.
func (t *Tracker) AutoPausedSessions(
	userID int64,
) ([]*models.TrackingSession, error) {
	return t.db.AutoPausedSessionsForUser(userID)
}
