// Package models defines the persistent and ephemeral domain types shared
// across the tracker, stats, and decomposition packages.
package models

import (
	"strings"
	"time"
)

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes a free-text priority value. Unrecognized input
// defaults to medium rather than failing, since priorities may originate
// from a generative model.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	default:
		return PriorityMedium
	}
}

// DetailDepth controls how granular a generated task breakdown should be.
type DetailDepth string

const (
	DepthMinimal       DetailDepth = "minimal"
	DepthNormal        DetailDepth = "normal"
	DepthDetailed      DetailDepth = "detailed"
	DepthComprehensive DetailDepth = "comprehensive"
)

// ParseDetailDepth normalizes a free-text detail depth value, defaulting to
// normal on unrecognized input.
func ParseDetailDepth(s string) DetailDepth {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return DepthMinimal
	case "detailed":
		return DepthDetailed
	case "comprehensive":
		return DepthComprehensive
	case "normal":
		return DepthNormal
	default:
		return DepthNormal
	}
}

// TrackingSession is one user's timed work interval on one task.
//
// Invariants:
//   - at most one session per user has IsActive set at any time
//   - IsPaused implies IsActive and a non-zero PauseTime
//   - PausedDurationHours never decreases until the session ends
//   - AutoPaused is set only by the staleness monitor
type TrackingSession struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	TaskID              int64     `json:"task_id"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time,omitzero"`
	DurationHours       float64   `json:"duration_hours"`
	Date                time.Time `json:"date"`
	IsActive            bool      `json:"is_active"`
	IsPaused            bool      `json:"is_paused"`
	PauseTime           time.Time `json:"pause_time,omitzero"`
	PausedDurationHours float64   `json:"paused_duration_hours"`
	LastHeartbeat       time.Time `json:"last_heartbeat"`
	AutoPaused          bool      `json:"auto_paused"`
}

// User is a minimal profile used for ownership checks and prompt context.
type User struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	ExperienceLevel string `json:"experience_level"` // junior, mid, senior
}

// TechStackItem records one technology a user is proficient in.
type TechStackItem struct {
	Technology  string `json:"technology"`
	Proficiency string `json:"proficiency"`
}

// Project groups tasks under one owner.
type Project struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Priority      Priority  `json:"priority"`
	Deadline      time.Time `json:"deadline,omitzero"`
	EstimatedTime float64   `json:"estimated_time"` // hours
}

// Task is a unit of work within a project.
type Task struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"project_id"`
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	EstimatedTime float64   `json:"estimated_time"` // hours
	ActualTime    float64   `json:"actual_time"`    // hours
	Priority      Priority  `json:"priority"`
	DueDate       time.Time `json:"due_date,omitzero"`
	Progress      int       `json:"progress"` // 0-100
	Completed     bool      `json:"completed"`
}

// ProjectDetails describes a project to be decomposed into tasks. It is not
// persisted until the decomposition result is explicitly saved.
type ProjectDetails struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`
	DetailDepth DetailDepth `json:"detail_depth"`
	Deadline    time.Time   `json:"deadline,omitzero"`
}

// GeneratedTask is a model-proposed task after validation and normalization.
type GeneratedTask struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	EstimatedTime float64   `json:"estimated_time"` // hours, > 0
	Priority      Priority  `json:"priority"`
	DueDate       time.Time `json:"due_date,omitzero"`
	Progress      int       `json:"progress"` // 0-100
}

// DecompositionResult holds a generated task list before and after it is
// committed. Exactly one of ProjectID and ProjectDetails identifies where
// the tasks belong: an existing project, or a new one described inline.
type DecompositionResult struct {
	UserID         int64           `json:"user_id"`
	ProjectID      int64           `json:"project_id,omitempty"`
	ProjectDetails *ProjectDetails `json:"project_details,omitempty"`
	Tasks          []GeneratedTask `json:"tasks"`
	Saved          bool            `json:"saved"`
}
