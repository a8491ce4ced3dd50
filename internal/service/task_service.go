package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskmate/internal/model"
	"taskmate/internal/repository"
)

// ErrTaskNotFound is returned for missing tasks and tasks owned by someone else.
var ErrTaskNotFound = errors.New("task not found")

// TaskInput represents data required to create a task. Enum fields hold raw
// user input and are normalized by the service.
type TaskInput struct {
	Title              string
	Description        string
	Priority           string
	Status             string
	DueDate            *time.Time
	IsRecurring        bool
	RecurringFrequency string
	IsAutomated        bool
	SourceRuleID       string
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title              *string
	Description        *string
	Priority           *string
	Status             *string
	DueDate            *time.Time
	ClearDueDate       bool
	IsRecurring        *bool
	RecurringFrequency *string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

// CreateTask validates input, applies defaults and stores the task. Field
// problems come back as criterio.FieldErrors.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, input TaskInput) (*model.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	task := model.Task{
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Priority:     model.PriorityMedium,
		Status:       model.StatusTodo,
		DueDate:      input.DueDate,
		IsAutomated:  input.IsAutomated,
		SourceRuleID: strings.TrimSpace(input.SourceRuleID),
	}
	// Enum values were checked by validateTaskInput.
	if input.Priority != "" {
		task.Priority, _ = model.ParsePriority(input.Priority)
	}
	if input.Status != "" {
		task.Status, _ = model.ParseStatus(input.Status)
	}
	applyRecurrence(&task, input.IsRecurring, input.RecurringFrequency)

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	return s.taskRepo.ListByOwner(ctx, ownerID)
}

func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

// UpdateTask applies a partial update. The owner and id never change.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, patch TaskPatch) (*model.Task, error) {
	if err := validateTaskPatch(patch); err != nil {
		return nil, err
	}

	task, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		task.Priority, _ = model.ParsePriority(*patch.Priority)
	}
	if patch.Status != nil {
		task.Status, _ = model.ParseStatus(*patch.Status)
	}
	switch {
	case patch.ClearDueDate:
		task.DueDate = nil
	case patch.DueDate != nil:
		task.DueDate = patch.DueDate
	}

	if patch.IsRecurring != nil || patch.RecurringFrequency != nil {
		recurring := task.IsRecurring
		if patch.IsRecurring != nil {
			recurring = *patch.IsRecurring
		}
		freq := string(task.RecurringFrequency)
		if patch.RecurringFrequency != nil {
			freq = *patch.RecurringFrequency
		}
		if err := recurrence(task.IsAutomated, recurring, freq); err != nil {
			return nil, err
		}
		applyRecurrence(task, recurring, freq)
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return s.GetTask(ctx, ownerID, taskID)
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	err := s.taskRepo.Delete(ctx, ownerID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// applyRecurrence sets the recurrence fields of an already validated task; a
// one-off task carries no frequency.
func applyRecurrence(task *model.Task, recurring bool, rawFreq string) {
	if !recurring {
		task.IsRecurring = false
		task.RecurringFrequency = ""
		return
	}
	task.IsRecurring = true
	task.RecurringFrequency, _ = model.ParseFrequency(rawFreq)
}
