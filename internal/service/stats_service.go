package service

import (
	"context"

	"taskmate/internal/model"
	"taskmate/internal/repository"
)

// Stats summarizes a user's board.
type Stats struct {
	Total      int `json:"total"`
	Todo       int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	High       int `json:"high"`
	Medium     int `json:"medium"`
	Low        int `json:"low"`
	Automated  int `json:"automated"`
}

// Open counts tasks that are not completed yet.
func (s Stats) Open() int {
	return s.Todo + s.InProgress
}

// CompletionRate is the completed share rounded to a whole percent.
func (s Stats) CompletionRate() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Completed*100 + s.Total/2) / s.Total
}

// StatsService builds per-user summaries.
type StatsService struct {
	taskRepo *repository.TaskRepository
}

func NewStatsService(taskRepo *repository.TaskRepository) *StatsService {
	return &StatsService{taskRepo: taskRepo}
}

func (s *StatsService) Summary(ctx context.Context, ownerID string) (Stats, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(tasks), nil
}

// ComputeStats counts tasks by status and priority.
func ComputeStats(tasks []model.Task) Stats {
	var st Stats
	for _, task := range tasks {
		st.Total++
		switch task.Status {
		case model.StatusTodo:
			st.Todo++
		case model.StatusInProgress:
			st.InProgress++
		case model.StatusCompleted:
			st.Completed++
		}
		switch task.Priority {
		case model.PriorityHigh:
			st.High++
		case model.PriorityMedium:
			st.Medium++
		case model.PriorityLow:
			st.Low++
		}
		if task.IsAutomated {
			st.Automated++
		}
	}
	return st
}
