// Package stats derives productivity summaries from recorded tracking
// sessions.
package stats

import (
	"math"
	"time"

	"github.com/taskpilot/taskpilot/internal/models"
	"github.com/taskpilot/taskpilot/internal/timeutil"
	"github.com/taskpilot/taskpilot/store"
)

// TaskSummary reports accumulated time against a single task.
type TaskSummary struct {
	TaskID            int64                   `json:"task_id"`
	CompletedSessions int                     `json:"completed_sessions"`
	TotalHours        float64                 `json:"total_hours"`
	TotalFormatted    string                  `json:"total_formatted"`
	Progress          int                     `json:"progress"`
	ActiveSession     *models.TrackingSession `json:"active_session,omitempty"`
}

// DailyProductivity is one day's slice of a productivity report. Days with
// no recorded sessions appear with zero values.
type DailyProductivity struct {
	Date  time.Time `json:"date"`
	Hours float64   `json:"hours"`
	Tasks int       `json:"tasks"`
}

// Productivity summarizes a user's tracked time over a trailing window of
// days.
type Productivity struct {
	UserID             int64               `json:"user_id"`
	Days               int                 `json:"days"`
	TotalHours         float64             `json:"total_hours"`
	AverageHoursPerDay float64             `json:"average_hours_per_day"`
	Daily              []DailyProductivity `json:"daily"`
}

// Aggregator computes summaries from the session store.
type Aggregator struct {
	db  store.DB
	now func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// New creates an aggregator backed by db.
func New(db store.DB, opts ...Option) *Aggregator {
	a := &Aggregator{
		db:  db,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// TaskTimeSummary totals the completed sessions recorded against a task and
// derives a progress percentage from the task's estimate. The active session
// is reported separately without contributing to the total.
func (a *Aggregator) TaskTimeSummary(taskID int64) (*TaskSummary, error) {
	task, err := a.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	sessions, err := a.db.SessionsForTask(taskID)
	if err != nil {
		return nil, err
	}

	summary := &TaskSummary{
		TaskID: taskID,
	}

	var total float64

	for _, sess := range sessions {
		if sess.IsActive {
			if summary.ActiveSession == nil {
				summary.ActiveSession = sess
			}

			continue
		}

		total += sess.DurationHours
		summary.CompletedSessions++
	}

	summary.TotalHours = timeutil.RoundHours(total)
	summary.TotalFormatted = timeutil.FormatHoursMinutes(summary.TotalHours) + " total"

	if task.EstimatedTime > 0 {
		progress := int(math.Round(100 * summary.TotalHours / task.EstimatedTime))
		if progress > 100 {
			progress = 100
		}

		summary.Progress = progress
	}

	return summary, nil
}

// UserProductivity buckets the user's sessions by calendar day over the
// inclusive window [today-(days-1), today]. Every day in the window appears
// in the breakdown, and the average divides by the window length rather than
// by days with data.
func (a *Aggregator) UserProductivity(
	userID int64,
	days int,
) (*Productivity, error) {
	if days < 1 {
		days = 1
	}

	now := a.now()
	windowStart := timeutil.RoundToStart(now.AddDate(0, 0, -(days - 1)))
	windowEnd := timeutil.RoundToEnd(now)

	sessions, err := a.db.SessionsInRange(userID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		hours float64
		tasks map[int64]struct{}
	}

	buckets := make(map[time.Time]*bucket)

	// pre-fill the window so empty days show up as zeroes
	for d := windowStart; !d.After(windowEnd); d = d.AddDate(0, 0, 1) {
		buckets[timeutil.RoundToStart(d)] = &bucket{
			tasks: make(map[int64]struct{}),
		}
	}

	for _, sess := range sessions {
		day := timeutil.RoundToStart(sess.Date)

		b, ok := buckets[day]
		if !ok {
			continue
		}

		if !sess.IsActive {
			b.hours += sess.DurationHours
		}

		b.tasks[sess.TaskID] = struct{}{}
	}

	report := &Productivity{
		UserID: userID,
		Days:   days,
		Daily:  make([]DailyProductivity, 0, days),
	}

	var total float64

	for d := windowStart; !d.After(windowEnd); d = d.AddDate(0, 0, 1) {
		day := timeutil.RoundToStart(d)
		b := buckets[day]

		hours := timeutil.RoundHours(b.hours)
		total += b.hours

		report.Daily = append(report.Daily, DailyProductivity{
			Date:  day,
			Hours: hours,
			Tasks: len(b.tasks),
		})
	}

	report.TotalHours = timeutil.RoundHours(total)
	report.AverageHoursPerDay = timeutil.RoundHours(total / float64(days))

	return report, nil
}
