// Package automation materializes new tasks from client-held recurrence rules.
//
// A Rule remembers a recurring task's title, description, priority and cadence
// along with the last time an instance was created from it. The Engine runs
// passes over all rules; a rule whose interval has fully elapsed since its last
// materialization is due and gets exactly one new task per pass. Missed cycles
// are not backfilled.
package automation

import (
	"time"

	"taskmate/internal/model"
)

// Rule is a persisted recurrence definition.
type Rule struct {
	ID                  string          `json:"id"`
	TitleTemplate       string          `json:"title"`
	DescriptionTemplate string          `json:"description"`
	Priority            model.Priority  `json:"priority"`
	Frequency           model.Frequency `json:"frequency"`
	LastMaterializedAt  time.Time       `json:"lastMaterializedAt"`
}

// RuleFromTask builds the rule for a recurring task. The templates are copied
// once; later edits to the task do not flow into an existing rule.
func RuleFromTask(task model.Task, now time.Time) Rule {
	return Rule{
		ID:                  task.ID,
		TitleTemplate:       task.Title,
		DescriptionTemplate: task.Description,
		Priority:            task.Priority,
		Frequency:           task.RecurringFrequency,
		LastMaterializedAt:  now,
	}
}

// IsDue reports whether a full interval has elapsed since the rule last fired.
// Rules with an unknown frequency are never due.
func IsDue(rule Rule, now time.Time) bool {
	interval, ok := rule.Frequency.Interval()
	if !ok {
		return false
	}
	return now.Sub(rule.LastMaterializedAt) >= interval
}

// NextDue is the earliest time the rule becomes due.
func NextDue(rule Rule) (time.Time, bool) {
	interval, ok := rule.Frequency.Interval()
	if !ok {
		return time.Time{}, false
	}
	return rule.LastMaterializedAt.Add(interval), true
}
