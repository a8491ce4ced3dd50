package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the board column a task sits in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Frequency is the cadence of a recurring task.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Interval returns the fixed duration between two instances of the cadence.
// Monthly is a flat 30 days, not a calendar month.
func (f Frequency) Interval() (time.Duration, bool) {
	switch f {
	case FrequencyDaily:
		return 24 * time.Hour, true
	case FrequencyWeekly:
		return 7 * 24 * time.Hour, true
	case FrequencyMonthly:
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// statusAliases maps every spelling seen from older clients to the canonical status.
var statusAliases = map[string]Status{
	"todo":        StatusTodo,
	"to-do":       StatusTodo,
	"to do":       StatusTodo,
	"pending":     StatusTodo,
	"in-progress": StatusInProgress,
	"in progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"in_progress": StatusInProgress,
	"completed":   StatusCompleted,
	"complete":    StatusCompleted,
	"done":        StatusCompleted,
}

// ParseStatus normalizes raw input to a canonical Status.
func ParseStatus(raw string) (Status, error) {
	if s, ok := statusAliases[normalize(raw)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// ParsePriority normalizes raw input to a canonical Priority.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(normalize(raw))
	for _, known := range Priorities {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", raw)
}

// ParseFrequency normalizes raw input to a canonical Frequency.
func ParseFrequency(raw string) (Frequency, error) {
	f := Frequency(normalize(raw))
	if _, ok := f.Interval(); !ok {
		return "", fmt.Errorf("unknown frequency %q", raw)
	}
	return f, nil
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
