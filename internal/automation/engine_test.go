package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmate/internal/client"
	"taskmate/internal/model"
)

// fakeTasks records CreateTask calls; CreateFunc decides the outcome.
type fakeTasks struct {
	mu         sync.Mutex
	calls      []client.TaskPayload
	CreateFunc func(ctx context.Context, p client.TaskPayload) (*model.Task, error)
}

func (f *fakeTasks) CreateTask(ctx context.Context, p client.TaskPayload) (*model.Task, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	n := len(f.calls)
	f.mu.Unlock()

	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, p)
	}
	return &model.Task{ID: fmt.Sprintf("task-%d", n), Title: p.Title, IsAutomated: p.IsAutomated}, nil
}

func (f *fakeTasks) Calls() []client.TaskPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.TaskPayload(nil), f.calls...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	rules []string
}

func (n *recordingNotifier) TaskMaterialized(rule Rule, _ *model.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rules = append(n.rules, rule.ID)
}

func findRule(t *testing.T, store *Store, id string) Rule {
	t.Helper()
	rules, err := store.ListRules(context.Background())
	require.NoError(t, err)
	for _, r := range rules {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("rule %q not found", id)
	return Rule{}
}

func TestRunPass_DailyRuleDue(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRule(ctx, Rule{
		ID: "r1", TitleTemplate: "Journal", DescriptionTemplate: "10 minutes",
		Priority: model.PriorityLow, Frequency: model.FrequencyDaily,
		LastMaterializedAt: now.Add(-25 * time.Hour),
	}))

	tasks := &fakeTasks{}
	notifier := &recordingNotifier{}
	engine := NewEngine(store, tasks, WithClock(func() time.Time { return now }), WithNotifier(notifier))

	report, err := engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, PassReport{Evaluated: 1, Due: 1, Created: 1}, report)

	calls := tasks.Calls()
	require.Len(t, calls, 1)
	p := calls[0]
	assert.Equal(t, "Journal", p.Title)
	assert.Equal(t, "10 minutes", p.Description)
	assert.Equal(t, model.PriorityLow, p.Priority)
	assert.Equal(t, model.StatusTodo, p.Status)
	assert.False(t, p.IsRecurring)
	assert.True(t, p.IsAutomated)
	assert.Equal(t, "r1", p.SourceRuleID)
	require.NotNil(t, p.DueDate)
	assert.True(t, p.DueDate.Equal(time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC)))

	assert.True(t, findRule(t, store, "r1").LastMaterializedAt.Equal(now))
	assert.Equal(t, []string{"r1"}, notifier.rules)

	// Not due again until a full day later.
	report, err = engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due)
	assert.Len(t, tasks.Calls(), 1)
}

func TestRunPass_NotDueYet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Now()
	require.NoError(t, store.SaveRule(ctx, rule("weekly", model.FrequencyWeekly, now.Add(-6*24*time.Hour))))
	require.NoError(t, store.SaveRule(ctx, rule("monthly", model.FrequencyMonthly, now.Add(-29*24*time.Hour))))

	tasks := &fakeTasks{}
	report, err := NewEngine(store, tasks, WithClock(func() time.Time { return now })).RunPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Evaluated)
	assert.Equal(t, 0, report.Due)
	assert.Empty(t, tasks.Calls())
}

func TestRunPass_NoCatchUpBurst(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Now()
	require.NoError(t, store.SaveRule(ctx, rule("r", model.FrequencyDaily, now.Add(-10*24*time.Hour))))

	tasks := &fakeTasks{}
	engine := NewEngine(store, tasks, WithClock(func() time.Time { return now }))

	_, err := engine.RunPass(ctx)
	require.NoError(t, err)
	_, err = engine.RunPass(ctx)
	require.NoError(t, err)

	assert.Len(t, tasks.Calls(), 1)
}

func TestRunPass_OneFailsOneSucceeds(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	require.NoError(t, store.SaveRule(ctx, rule("bad", model.FrequencyDaily, old)))
	require.NoError(t, store.SaveRule(ctx, rule("good", model.FrequencyDaily, old)))

	tasks := &fakeTasks{CreateFunc: func(_ context.Context, p client.TaskPayload) (*model.Task, error) {
		if p.SourceRuleID == "bad" {
			return nil, fmt.Errorf("%w: connection refused", client.ErrUnavailable)
		}
		return &model.Task{ID: "created", Title: p.Title}, nil
	}}
	notifier := &recordingNotifier{}
	engine := NewEngine(store, tasks, WithClock(func() time.Time { return now }), WithNotifier(notifier))

	report, err := engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, PassReport{Evaluated: 2, Due: 2, Created: 1, Failed: 1}, report)

	assert.True(t, findRule(t, store, "bad").LastMaterializedAt.Equal(old))
	assert.True(t, findRule(t, store, "good").LastMaterializedAt.Equal(now))
	assert.Equal(t, []string{"good"}, notifier.rules)

	// The failed rule is retried on the next pass.
	tasks.CreateFunc = nil
	report, err = engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.True(t, findRule(t, store, "bad").LastMaterializedAt.Equal(now))
}

func TestRunPass_UnauthorizedHalts(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, store.SaveRule(ctx, rule(id, model.FrequencyDaily, old)))
	}

	tasks := &fakeTasks{CreateFunc: func(context.Context, client.TaskPayload) (*model.Task, error) {
		return nil, &client.APIError{Status: 401, Message: "Token is not valid"}
	}}
	engine := NewEngine(store, tasks, WithClock(func() time.Time { return now }))

	report, err := engine.RunPass(ctx)
	require.ErrorIs(t, err, ErrReauthRequired)
	assert.True(t, report.Halted)
	assert.Equal(t, 1, report.Evaluated)
	assert.Len(t, tasks.Calls(), 1)

	for _, id := range []string{"first", "second", "third"} {
		assert.True(t, findRule(t, store, id).LastMaterializedAt.Equal(old), id)
	}
}

func TestRunPass_RuleRemovedDuringCreateStaysRemoved(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Now()
	require.NoError(t, store.SaveRule(ctx, rule("r1", model.FrequencyDaily, now.Add(-48*time.Hour))))

	tasks := &fakeTasks{CreateFunc: func(ctx context.Context, p client.TaskPayload) (*model.Task, error) {
		require.NoError(t, store.RemoveRule(ctx, "r1"))
		return &model.Task{ID: "t1", Title: p.Title}, nil
	}}
	notifier := &recordingNotifier{}
	engine := NewEngine(store, tasks, WithClock(func() time.Time { return now }), WithNotifier(notifier))

	report, err := engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	rules, err := store.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.Equal(t, []string{"r1"}, notifier.rules)
}

func TestRunPass_KeepsFrequencyChangedDuringCreate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Now()
	require.NoError(t, store.SaveRule(ctx, rule("r1", model.FrequencyDaily, now.Add(-48*time.Hour))))

	tasks := &fakeTasks{CreateFunc: func(ctx context.Context, p client.TaskPayload) (*model.Task, error) {
		require.NoError(t, store.SaveRule(ctx, rule("r1", model.FrequencyWeekly, now.Add(-48*time.Hour))))
		return &model.Task{ID: "t1", Title: p.Title}, nil
	}}

	_, err := NewEngine(store, tasks, WithClock(func() time.Time { return now })).RunPass(ctx)
	require.NoError(t, err)

	got := findRule(t, store, "r1")
	assert.Equal(t, model.FrequencyWeekly, got.Frequency)
	assert.True(t, got.LastMaterializedAt.Equal(now))
}

func TestRunPass_OverlappingPassRejected(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Now()
	require.NoError(t, store.SaveRule(ctx, rule("slow", model.FrequencyDaily, now.Add(-48*time.Hour))))

	entered := make(chan struct{})
	release := make(chan struct{})
	tasks := &fakeTasks{CreateFunc: func(_ context.Context, p client.TaskPayload) (*model.Task, error) {
		close(entered)
		<-release
		return &model.Task{ID: "t", Title: p.Title}, nil
	}}
	engine := NewEngine(store, tasks, WithClock(func() time.Time { return now }))

	done := make(chan error, 1)
	go func() {
		_, err := engine.RunPass(ctx)
		done <- err
	}()

	<-entered
	_, err := engine.RunPass(ctx)
	assert.ErrorIs(t, err, ErrPassInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, tasks.Calls(), 1)
}

func TestRunPass_CancelledContext(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveRule(context.Background(), rule("r", model.FrequencyDaily, time.Time{})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := &fakeTasks{}
	_, err := NewEngine(store, tasks).RunPass(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tasks.Calls())
}

// fakeScheduler runs jobs only when Tick is called.
type fakeScheduler struct {
	mu      sync.Mutex
	jobs    []func()
	started bool
	stopped bool
}

func (s *fakeScheduler) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, errors.New("interval must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return cron.EntryID(len(s.jobs)), nil
}

func (s *fakeScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
}

func (s *fakeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *fakeScheduler) Tick() {
	s.mu.Lock()
	jobs := append([]func(){}, s.jobs...)
	s.mu.Unlock()
	for _, job := range jobs {
		job()
	}
}

func (s *fakeScheduler) isStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func TestRun_PassOnStartThenOnTick(t *testing.T) {
	store, _ := newTestStore(t)
	now := time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRule(context.Background(), rule("r", model.FrequencyDaily, now.Add(-24*time.Hour))))

	clock := now
	var clockMu sync.Mutex
	tasks := &fakeTasks{}
	engine := NewEngine(store, tasks, WithClock(func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return clock
	}))
	sched := &fakeScheduler{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx, sched, 5*time.Minute) }()

	require.Eventually(t, sched.isStarted, time.Second, 5*time.Millisecond)
	assert.Len(t, tasks.Calls(), 1)

	sched.Tick()
	assert.Len(t, tasks.Calls(), 1)

	clockMu.Lock()
	clock = now.Add(24 * time.Hour)
	clockMu.Unlock()
	sched.Tick()
	assert.Len(t, tasks.Calls(), 2)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, sched.stopped)
}

func TestRun_StopsOnReauth(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveRule(context.Background(), rule("r", model.FrequencyDaily, time.Time{})))

	tasks := &fakeTasks{CreateFunc: func(context.Context, client.TaskPayload) (*model.Task, error) {
		return nil, client.ErrUnauthorized
	}}
	sched := &fakeScheduler{}

	err := NewEngine(store, tasks).Run(context.Background(), sched, time.Minute)
	assert.ErrorIs(t, err, ErrReauthRequired)
	assert.False(t, sched.started)
}
