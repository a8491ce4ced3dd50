package dashboard

import (
	"strings"

	"taskmate/internal/model"
	"taskmate/internal/service"
)

// Column is one Kanban column.
type Column struct {
	Status model.Status
	Title  string
	Tasks  []model.Task
}

// Board is the rendered state of the dashboard.
type Board struct {
	Columns []Column
	Stats   service.Stats
}

var columnTitles = map[model.Status]string{
	model.StatusTodo:       "To Do",
	model.StatusInProgress: "In Progress",
	model.StatusCompleted:  "Completed",
}

// BuildBoard places tasks into status columns, keeping their order. Tasks with
// a status outside the known set land in the first column.
func BuildBoard(tasks []model.Task) Board {
	idx := make(map[model.Status]int, len(model.Statuses))
	cols := make([]Column, len(model.Statuses))
	for i, st := range model.Statuses {
		idx[st] = i
		cols[i] = Column{Status: st, Title: columnTitles[st]}
	}

	for _, task := range tasks {
		i, ok := idx[task.Status]
		if !ok {
			i = 0
		}
		cols[i].Tasks = append(cols[i].Tasks, task)
	}

	return Board{Columns: cols, Stats: service.ComputeStats(tasks)}
}

// FilterByPriority keeps only tasks of priority p; an empty p keeps everything.
func FilterByPriority(tasks []model.Task, p model.Priority) []model.Task {
	if p == "" {
		return tasks
	}
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Priority == p {
			out = append(out, task)
		}
	}
	return out
}

// ParsePriorityFilter reads a filter choice; "all" or empty means no filter.
func ParsePriorityFilter(raw string) (model.Priority, error) {
	if s := strings.ToLower(strings.TrimSpace(raw)); s == "" || s == "all" {
		return "", nil
	}
	return model.ParsePriority(raw)
}
