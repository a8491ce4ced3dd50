// Package notify tells the user about tasks the automation engine created.
package notify

import (
	"github.com/rs/zerolog"

	"taskmate/internal/automation"
	"taskmate/internal/model"
)

// Log writes one info line per materialized task.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) TaskMaterialized(rule automation.Rule, task *model.Task) {
	l.log.Info().
		Str("rule_id", rule.ID).
		Str("task_id", task.ID).
		Str("frequency", string(rule.Frequency)).
		Msgf("🤖 Automated task created: %s", task.Title)
}

// Multi fans a notification out to several notifiers.
type Multi []automation.Notifier

func (m Multi) TaskMaterialized(rule automation.Rule, task *model.Task) {
	for _, n := range m {
		if n != nil {
			n.TaskMaterialized(rule, task)
		}
	}
}
