// Package dashboard owns the client-side application state: the signed-in
// session, the last fetched task list and the automation rules, and keeps the
// rules in step with task edits.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"taskmate/internal/automation"
	"taskmate/internal/client"
	"taskmate/internal/model"
)

// TaskService is the remote task API.
type TaskService interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, payload client.TaskPayload) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, update client.TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// RuleStore is the local automation rule list.
type RuleStore interface {
	ListRules(ctx context.Context) ([]automation.Rule, error)
	SaveRule(ctx context.Context, rule automation.Rule) error
	RemoveRule(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

// Automation runs evaluation passes.
type Automation interface {
	RunPass(ctx context.Context) (automation.PassReport, error)
}

// App is the dashboard controller.
type App struct {
	tasks  TaskService
	rules  RuleStore
	engine Automation
	log    zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	snapshot    []model.Task
	needsReauth bool
}

func NewApp(tasks TaskService, rules RuleStore, engine Automation, log zerolog.Logger) *App {
	return &App{
		tasks:  tasks,
		rules:  rules,
		engine: engine,
		log:    log,
		now:    time.Now,
	}
}

// Load fetches the task list and runs one automation pass, refreshing the list
// again when the pass created anything.
func (a *App) Load(ctx context.Context) (Board, error) {
	if err := a.Refresh(ctx); err != nil {
		return Board{}, err
	}

	if _, err := a.RunAutomation(ctx); err != nil && !errors.Is(err, automation.ErrPassInFlight) {
		return a.Board(), err
	}
	return a.Board(), nil
}

// RunAutomation runs one pass and refreshes the task list after any creation.
func (a *App) RunAutomation(ctx context.Context) (automation.PassReport, error) {
	report, err := a.engine.RunPass(ctx)
	if errors.Is(err, automation.ErrReauthRequired) {
		a.setReauth()
		return report, err
	}
	if err != nil {
		return report, err
	}
	if report.Created > 0 {
		if err := a.Refresh(ctx); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Refresh replaces the task snapshot with the server's list.
func (a *App) Refresh(ctx context.Context) error {
	tasks, err := a.tasks.ListTasks(ctx)
	if err != nil {
		return a.check(err, "load tasks")
	}
	a.mu.Lock()
	a.snapshot = tasks
	a.mu.Unlock()
	return nil
}

// Tasks returns a copy of the last fetched list.
func (a *App) Tasks() []model.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.Task(nil), a.snapshot...)
}

// Board groups the current snapshot into columns.
func (a *App) Board() Board {
	return BuildBoard(a.Tasks())
}

// NeedsReauth reports whether the last call failed with an expired session.
func (a *App) NeedsReauth() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.needsReauth
}

// SaveTask creates a task and, for a recurring one, its automation rule.
func (a *App) SaveTask(ctx context.Context, payload client.TaskPayload) (*model.Task, error) {
	task, err := a.tasks.CreateTask(ctx, payload)
	if err != nil {
		return nil, a.check(err, "create task")
	}

	if task.IsRecurring {
		if err := a.rules.SaveRule(ctx, automation.RuleFromTask(*task, a.now())); err != nil {
			return task, fmt.Errorf("save automation rule: %w", err)
		}
		a.log.Info().Str("task_id", task.ID).Str("frequency", string(task.RecurringFrequency)).Msg("automation enabled")
	}

	a.upsert(*task)
	return task, nil
}

// UpdateTask applies update. A recurring task without a rule for its current
// frequency gets a fresh one; explicitly turning recurrence off removes it.
func (a *App) UpdateTask(ctx context.Context, id string, update client.TaskUpdate) (*model.Task, error) {
	task, err := a.tasks.UpdateTask(ctx, id, update)
	if err != nil {
		return nil, a.check(err, "update task")
	}

	switch {
	case task.IsRecurring:
		stale, err := a.ruleStale(ctx, *task)
		if err != nil {
			return task, fmt.Errorf("check automation rule: %w", err)
		}
		if !stale {
			break
		}
		if err := a.rules.SaveRule(ctx, automation.RuleFromTask(*task, a.now())); err != nil {
			return task, fmt.Errorf("save automation rule: %w", err)
		}
	case !task.IsRecurring && update.IsRecurring != nil && !*update.IsRecurring:
		if err := a.rules.RemoveRule(ctx, task.ID); err != nil {
			return task, fmt.Errorf("remove automation rule: %w", err)
		}
	}

	a.upsert(*task)
	return task, nil
}

// DeleteTask deletes a task and its rule. A task already gone on the server
// still has its rule removed.
func (a *App) DeleteTask(ctx context.Context, id string) error {
	err := a.tasks.DeleteTask(ctx, id)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return a.check(err, "delete task")
	}

	if rmErr := a.rules.RemoveRule(ctx, id); rmErr != nil {
		a.log.Error().Err(rmErr).Str("task_id", id).Msg("remove automation rule")
	}

	a.mu.Lock()
	kept := a.snapshot[:0]
	for _, t := range a.snapshot {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	a.snapshot = kept
	a.mu.Unlock()

	return err
}

// Rules lists the active automation rules.
func (a *App) Rules(ctx context.Context) ([]automation.Rule, error) {
	return a.rules.ListRules(ctx)
}

// ClearRules removes every automation rule.
func (a *App) ClearRules(ctx context.Context) error {
	return a.rules.ClearAll(ctx)
}

func (a *App) check(err error, op string) error {
	if errors.Is(err, client.ErrUnauthorized) {
		a.setReauth()
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (a *App) setReauth() {
	a.mu.Lock()
	a.needsReauth = true
	a.mu.Unlock()
}

// ruleStale reports whether a recurring task lacks a rule matching its frequency.
func (a *App) ruleStale(ctx context.Context, task model.Task) (bool, error) {
	rules, err := a.rules.ListRules(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range rules {
		if r.ID == task.ID {
			return r.Frequency != task.RecurringFrequency, nil
		}
	}
	return true, nil
}

func (a *App) upsert(task model.Task) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.snapshot {
		if a.snapshot[i].ID == task.ID {
			a.snapshot[i] = task
			return
		}
	}
	a.snapshot = append([]model.Task{task}, a.snapshot...)
}
