package models

import "time"

// Priority is the urgency label attached to a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority returns the priority for s, defaulting to medium when s is
// empty. The second return is false for anything outside the known set.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case "":
		return PriorityMedium, true
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), true
	}
	return PriorityMedium, false
}

// Status restricts a query to a completion state.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ParseStatus returns the filter status for s, defaulting to all when s is
// empty. The second return is false for anything outside the known set.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case "":
		return StatusAll, true
	case StatusAll, StatusActive, StatusCompleted:
		return Status(s), true
	}
	return StatusAll, false
}

// Task is a single to-do record. CompletedAt is non-nil exactly when
// Completed is true.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Priority    Priority   `json:"priority"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// Stats summarizes the collection by completion state.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// ExportVersion tags the export document format.
const ExportVersion = "1.0"

// ExportDocument is the transportable snapshot of the whole collection.
type ExportDocument struct {
	Tasks      []Task    `json:"tasks"`
	ExportedAt time.Time `json:"exportedAt"`
	Version    string    `json:"version"`
}

// TaskEvent is the message payload published after a successful mutation.
type TaskEvent struct {
	Action      string    `json:"action"` // add, toggle, edit, delete, import, clear_completed, clear_all
	ID          string    `json:"id,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
