// Package monitor runs the staleness sweep that freezes sessions whose
// client has stopped sending heartbeats.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/internal/timeutil"
	"github.com/taskpilot/taskpilot/store"
)

const (
	// DefaultInterval is how often the sweep runs.
	DefaultInterval = 5 * time.Minute
	// DefaultThreshold is how long a heartbeat may be absent before a
	// session is considered stale.
	DefaultThreshold = 10 * time.Minute
)

// Monitor periodically auto-pauses sessions with expired heartbeats. An
// auto-paused session stays active and logically open: the user can resume
// it explicitly, or it is force-ended when a new session starts.
type Monitor struct {
	db        store.DB
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the sweep interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithThreshold overrides the heartbeat staleness threshold.
func WithThreshold(d time.Duration) Option {
	return func(m *Monitor) {
		m.threshold = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.log = l
	}
}

// New creates a staleness monitor backed by db.
func New(db store.DB, opts ...Option) *Monitor {
	m := &Monitor{
		db:        db,
		interval:  DefaultInterval,
		threshold: DefaultThreshold,
		now:       time.Now,
		log:       slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Run sweeps on a fixed schedule until ctx is cancelled. It runs
// independently of request handling and writes through the same session
// mutation path as the tracker.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := m.Sweep()
			if err != nil {
				m.log.Error("staleness sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep auto-pauses every active, non-paused session whose last heartbeat is
// older than the threshold. The session's duration is frozen at the last
// heartbeat but the session remains active.
func (m *Monitor) Sweep() error {
	cutoff := m.now().Add(-m.threshold)

	stale, err := m.db.StaleSessions(cutoff)
	if err != nil {
		return err
	}

	for _, candidate := range stale {
		// Re-read before acting: a concurrent pause, resume, or end on this
		// session wins over the sweep.
		sess, err := m.db.GetSession(candidate.ID)
		if err != nil {
			return err
		}

		if !m.eligible(sess, cutoff) {
			continue
		}

		frozen := timeutil.RoundHours(
			timeutil.HoursBetween(sess.StartTime, sess.LastHeartbeat) -
				sess.PausedDurationHours,
		)
		if frozen < 0 {
			frozen = 0
		}

		sess.AutoPaused = true
		sess.DurationHours = frozen

		err = m.db.UpdateSession(sess)
		if err != nil {
			return err
		}

		m.log.Info("session auto-paused",
			slog.Int64("session_id", sess.ID),
			slog.Int64("user_id", sess.UserID),
			slog.Time("last_heartbeat", sess.LastHeartbeat),
		)
	}

	return nil
}

func (m *Monitor) eligible(
	sess *models.TrackingSession,
	cutoff time.Time,
) bool {
	return sess.IsActive && !sess.IsPaused && !sess.AutoPaused &&
		sess.LastHeartbeat.Before(cutoff)
}
