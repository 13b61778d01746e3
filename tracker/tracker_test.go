package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/internal/testutil"
	"github.com/taskpilot/taskpilot/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestTracker(t *testing.T) (*Tracker, *testutil.MemStore, *fakeClock) {
	t.Helper()

	db := testutil.NewMemStore()
	clock := &fakeClock{
		t: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, db.CreateUser(&models.User{ID: 1, Name: "dev"}))
	require.NoError(t, db.CreateTask(&models.Task{
		ID:            10,
		UserID:        1,
		Name:          "implement parser",
		EstimatedTime: 4,
	}))
	require.NoError(t, db.CreateTask(&models.Task{
		ID:            11,
		UserID:        1,
		Name:          "write tests",
		EstimatedTime: 2,
	}))

	return New(db, WithClock(clock.now)), db, clock
}

func activeCount(t *testing.T, db *testutil.MemStore, userID int64) int {
	t.Helper()

	active, err := db.ActiveSessionsForUser(userID)
	require.NoError(t, err)

	return len(active)
}

func TestStartCreatesActiveSession(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	assert.True(t, sess.IsActive)
	assert.False(t, sess.IsPaused)
	assert.Equal(t, clock.t, sess.StartTime)
	assert.Equal(t, clock.t, sess.LastHeartbeat)
	assert.Equal(t, 1, activeCount(t, db, 1))
}

func TestStartRequiresExistingTask(t *testing.T) {
	tr, db, _ := newTestTracker(t)

	_, err := tr.Start(1, 999)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, activeCount(t, db, 1))
}

func TestStartEndsPreviousSession(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	first, err := tr.Start(1, 10)
	require.NoError(t, err)

	clock.advance(30 * time.Minute)

	second, err := tr.Start(1, 11)
	require.NoError(t, err)

	assert.Equal(t, 1, activeCount(t, db, 1))

	ended, err := db.GetSession(first.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	assert.InDelta(t, 0.5, ended.DurationHours, 0.01)

	current, err := db.GetSession(second.ID)
	require.NoError(t, err)
	assert.True(t, current.IsActive)
}

func TestPauseResumeEndAccounting(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	clock.advance(1 * time.Hour)

	_, err = tr.Pause(sess.ID)
	require.NoError(t, err)

	clock.advance(30 * time.Minute)

	resumed, err := tr.Resume(sess.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, resumed.PausedDurationHours, 0.01)
	assert.False(t, resumed.IsPaused)
	assert.True(t, resumed.PauseTime.IsZero())

	clock.advance(1 * time.Hour)

	ended, err := tr.End(sess.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, ended.DurationHours, 0.01)
	assert.InDelta(t, 0.5, ended.PausedDurationHours, 0.01)
	assert.False(t, ended.IsActive)
	assert.Equal(t, clock.t, ended.EndTime)

	assert.Equal(t, 0, activeCount(t, db, 1))
}

func TestEndFoldsOpenPauseInterval(t *testing.T) {
	tr, _, clock := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	clock.advance(2 * time.Hour)

	_, err = tr.Pause(sess.ID)
	require.NoError(t, err)

	clock.advance(1 * time.Hour)

	ended, err := tr.End(sess.ID)
	require.NoError(t, err)

	// 3h elapsed, 1h of it paused
	assert.InDelta(t, 1.0, ended.PausedDurationHours, 0.01)
	assert.InDelta(t, 2.0, ended.DurationHours, 0.01)
}

func TestPauseInvalidStates(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	_, err = tr.Pause(sess.ID)
	require.NoError(t, err)

	_, err = tr.Pause(sess.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = tr.Resume(sess.ID)
	require.NoError(t, err)

	_, err = tr.Resume(sess.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = tr.End(sess.ID)
	require.NoError(t, err)

	_, err = tr.Pause(sess.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = tr.End(sess.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	err = tr.Heartbeat(sess.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestHeartbeatRefreshesLiveness(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	clock.advance(5 * time.Minute)

	require.NoError(t, tr.Heartbeat(sess.ID))

	got, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.t, got.LastHeartbeat)
}

func TestHeartbeatOnPausedSessionIsSilentNoop(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	paused, err := tr.Pause(sess.ID)
	require.NoError(t, err)

	beat := paused.LastHeartbeat

	clock.advance(5 * time.Minute)

	require.NoError(t, tr.Heartbeat(sess.ID))

	got, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, beat, got.LastHeartbeat)
}

func TestEndActiveForUserFreezesAtPausePoint(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	clock.advance(1 * time.Hour)

	_, err = tr.Pause(sess.ID)
	require.NoError(t, err)

	// the open pause interval is not folded in on a force-end
	clock.advance(2 * time.Hour)

	require.NoError(t, tr.EndActiveForUser(1))

	got, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.False(t, got.IsPaused)
	assert.InDelta(t, 1.0, got.DurationHours, 0.01)
	assert.InDelta(t, 0, got.PausedDurationHours, 0.01)
	assert.Equal(t, clock.t, got.EndTime)
}

func TestResumeAutoPaused(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	// simulate the monitor freezing the session
	frozen, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	frozen.AutoPaused = true
	require.NoError(t, db.UpdateSession(frozen))

	clock.advance(10 * time.Minute)

	revived, err := tr.ResumeAutoPaused(sess.ID)
	require.NoError(t, err)
	assert.False(t, revived.AutoPaused)
	assert.True(t, revived.IsActive)
	assert.Equal(t, clock.t, revived.LastHeartbeat)
	assert.Equal(t, sess.StartTime, revived.StartTime)
}

func TestResumeAutoPausedEndsOtherActiveSession(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	first, err := tr.Start(1, 10)
	require.NoError(t, err)

	frozen, err := db.GetSession(first.ID)
	require.NoError(t, err)
	frozen.AutoPaused = true
	require.NoError(t, db.UpdateSession(frozen))

	// seed a second active session directly: Start would force-end the
	// frozen one
	clock.advance(5 * time.Minute)

	second := &models.TrackingSession{
		UserID:        1,
		TaskID:        11,
		StartTime:     clock.t,
		Date:          clock.t,
		IsActive:      true,
		LastHeartbeat: clock.t,
	}
	require.NoError(t, db.CreateSession(second))

	_, err = tr.ResumeAutoPaused(first.ID)
	require.NoError(t, err)

	other, err := db.GetSession(second.ID)
	require.NoError(t, err)
	assert.False(t, other.IsActive)

	assert.Equal(t, 1, activeCount(t, db, 1))
}

func TestResumeAutoPausedRejectsRegularSession(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	_, err = tr.ResumeAutoPaused(sess.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSingleActiveSessionInvariant(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	for i := 0; i < 5; i++ {
		taskID := int64(10 + i%2)

		_, err := tr.Start(1, taskID)
		require.NoError(t, err)

		assert.Equal(t, 1, activeCount(t, db, 1))

		clock.advance(20 * time.Minute)
	}

	require.NoError(t, tr.EndActiveForUser(1))
	assert.Equal(t, 0, activeCount(t, db, 1))
}

func TestNegativeDurationClampedToZero(t *testing.T) {
	tr, db, clock := newTestTracker(t)

	sess, err := tr.Start(1, 10)
	require.NoError(t, err)

	// simulate clock skew: recorded paused time exceeds elapsed time
	skewed, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	skewed.PausedDurationHours = 5
	require.NoError(t, db.UpdateSession(skewed))

	clock.advance(10 * time.Minute)

	ended, err := tr.End(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ended.DurationHours)
}
