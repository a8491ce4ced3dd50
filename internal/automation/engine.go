package automation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"taskmate/internal/client"
	"taskmate/internal/model"
)

var (
	// ErrReauthRequired stops a pass when the task service rejects the credential.
	ErrReauthRequired = errors.New("automation: re-authentication required")
	// ErrPassInFlight is returned when a pass is requested while another runs.
	ErrPassInFlight = errors.New("automation: pass already in flight")
)

// RuleSource is the slice of the rule store a pass needs. TouchRule must not
// recreate a rule removed while the pass was running.
type RuleSource interface {
	ListRules(ctx context.Context) ([]Rule, error)
	TouchRule(ctx context.Context, id string, at time.Time) (bool, error)
}

// TaskCreator creates tasks on behalf of the signed-in user.
type TaskCreator interface {
	CreateTask(ctx context.Context, payload client.TaskPayload) (*model.Task, error)
}

// Notifier is told about every materialized task. Implementations must not block.
type Notifier interface {
	TaskMaterialized(rule Rule, task *model.Task)
}

// Scheduler fires a job on a fixed interval.
type Scheduler interface {
	ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error)
	Start()
	Stop()
}

// PassReport summarizes one evaluation pass.
type PassReport struct {
	Evaluated int
	Due       int
	Created   int
	Failed    int
	Halted    bool
}

// Engine evaluates rules and materializes due ones.
type Engine struct {
	rules    RuleSource
	tasks    TaskCreator
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
	running  atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for due checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithNotifier reports every created task to n.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the engine's logger; the default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine builds an engine reading rules from rules and creating tasks
// through tasks.
func NewEngine(rules RuleSource, tasks TaskCreator, opts ...Option) *Engine {
	e := &Engine{
		rules: rules,
		tasks: tasks,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunPass evaluates every rule once, in store order, creating at most one task
// per due rule. Creation failures leave the rule due for the next pass, except
// an unauthorized response, which halts the pass with ErrReauthRequired.
// Overlapping calls return ErrPassInFlight without touching any rule.
func (e *Engine) RunPass(ctx context.Context) (PassReport, error) {
	var report PassReport

	if !e.running.CompareAndSwap(false, true) {
		return report, ErrPassInFlight
	}
	defer e.running.Store(false)

	rules, err := e.rules.ListRules(ctx)
	if err != nil {
		return report, err
	}
	if len(rules) == 0 {
		return report, nil
	}

	now := e.now()
	e.log.Debug().Int("rules", len(rules)).Msg("checking automations")

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Evaluated++
		if !IsDue(rule, now) {
			continue
		}
		report.Due++

		task, err := e.tasks.CreateTask(ctx, payloadFor(rule, now))
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				report.Halted = true
				e.log.Warn().Str("rule_id", rule.ID).Msg("automation pass halted, session expired")
				return report, fmt.Errorf("%w: %v", ErrReauthRequired, err)
			}
			report.Failed++
			e.log.Warn().Err(err).Str("rule_id", rule.ID).Msg("auto-create failed, will retry next pass")
			continue
		}

		report.Created++
		kept, err := e.rules.TouchRule(ctx, rule.ID, now)
		switch {
		case err != nil:
			e.log.Error().Err(err).Str("rule_id", rule.ID).Str("task_id", task.ID).
				Msg("task created but rule timestamp not saved")
		case !kept:
			e.log.Info().Str("rule_id", rule.ID).Str("task_id", task.ID).
				Msg("rule removed during pass, not restored")
		}

		e.log.Info().Str("rule_id", rule.ID).Str("task_id", task.ID).Str("title", task.Title).Msg("auto-created task")
		if e.notifier != nil {
			e.notifier.TaskMaterialized(rule, task)
		}
	}

	return report, nil
}

// Run performs one pass immediately, then one per interval until ctx is done.
// It returns ErrReauthRequired as soon as a pass hits an expired session.
func (e *Engine) Run(ctx context.Context, sched Scheduler, interval time.Duration) error {
	reauth := make(chan error, 1)

	pass := func() {
		report, err := e.RunPass(ctx)
		switch {
		case errors.Is(err, ErrReauthRequired):
			select {
			case reauth <- err:
			default:
			}
		case errors.Is(err, ErrPassInFlight), errors.Is(err, context.Canceled):
		case err != nil:
			e.log.Error().Err(err).Msg("automation pass failed")
		default:
			if report.Due > 0 {
				e.log.Info().Int("created", report.Created).Int("failed", report.Failed).Msg("automation pass done")
			}
		}
	}

	pass()
	select {
	case err := <-reauth:
		return err
	default:
	}

	if _, err := sched.ScheduleInterval(interval, pass); err != nil {
		return fmt.Errorf("schedule automation: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-reauth:
		return err
	}
}

// payloadFor builds the instance created from a due rule. The instance is due
// tomorrow and never recurs itself.
func payloadFor(rule Rule, now time.Time) client.TaskPayload {
	y, m, d := now.Date()
	due := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())

	priority := rule.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	return client.TaskPayload{
		Title:        rule.TitleTemplate,
		Description:  rule.DescriptionTemplate,
		Priority:     priority,
		Status:       model.StatusTodo,
		DueDate:      &due,
		IsRecurring:  false,
		IsAutomated:  true,
		SourceRuleID: rule.ID,
	}
}
