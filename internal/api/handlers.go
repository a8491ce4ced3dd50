package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hay-kot/criterio"

	"taskmate/internal/service"
)

// taskRequest is the body of POST and PUT /api/tasks. Pointer fields tell an
// omitted field apart from an empty one.
type taskRequest struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	Priority           *string         `json:"priority"`
	Status             *string         `json:"status"`
	DueDate            json.RawMessage `json:"dueDate"`
	IsRecurring        *bool           `json:"isRecurring"`
	RecurringFrequency *string         `json:"recurringFrequency"`
	IsAutomated        *bool           `json:"isAutomated"`
	SourceRuleID       *string         `json:"sourceRuleId"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var dueDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// parseDueDate reports whether the field was present, and its value; an explicit
// null or empty string clears the date.
func parseDueDate(raw json.RawMessage) (*time.Time, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true, criterio.NewFieldErrors("dueDate", fmt.Errorf("due date must be a string"))
	}
	if s == "" {
		return nil, true, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, true, nil
		}
	}
	return nil, true, criterio.NewFieldErrors("dueDate", fmt.Errorf("cannot parse due date %q", s))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.tasks.ListTasks(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err, "Error fetching tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(tasks),
		"tasks":   tasks,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.stats.Summary(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err, "Error fetching statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.tasks.GetTask(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err, "Error fetching task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"task":    task,
	})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	due, _, err := parseDueDate(req.DueDate)
	if err != nil {
		s.writeError(c, err, "")
		return
	}

	task, err := s.tasks.CreateTask(c.Request.Context(), currentUserID(c), service.TaskInput{
		Title:              deref(req.Title),
		Description:        deref(req.Description),
		Priority:           deref(req.Priority),
		Status:             deref(req.Status),
		DueDate:            due,
		IsRecurring:        deref(req.IsRecurring),
		RecurringFrequency: deref(req.RecurringFrequency),
		IsAutomated:        deref(req.IsAutomated),
		SourceRuleID:       deref(req.SourceRuleID),
	})
	if err != nil {
		s.writeError(c, err, "Error creating task")
		return
	}

	s.log.Info().Str("task_id", task.ID).Str("user_id", task.OwnerID).
		Bool("recurring", task.IsRecurring).Bool("automated", task.IsAutomated).Msg("task created")

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created successfully",
		"task":    task,
	})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	due, dueSet, err := parseDueDate(req.DueDate)
	if err != nil {
		s.writeError(c, err, "")
		return
	}

	patch := service.TaskPatch{
		Title:              req.Title,
		Description:        req.Description,
		Priority:           req.Priority,
		Status:             req.Status,
		DueDate:            due,
		ClearDueDate:       dueSet && due == nil,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
	}

	task, err := s.tasks.UpdateTask(c.Request.Context(), currentUserID(c), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err, "Error updating task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id := c.Param("id")
	if err := s.tasks.DeleteTask(c.Request.Context(), currentUserID(c), id); err != nil {
		s.writeError(c, err, "Error deleting task")
		return
	}

	s.log.Info().Str("task_id", id).Str("user_id", currentUserID(c)).Msg("task deleted")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully",
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, token, err := s.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(c, err, "Error registering user")
		return
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, token, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err, "Error logging in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.auth.CurrentUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err, "Error fetching user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

// writeError maps service errors to HTTP statuses. fallback is the message
// shown for unexpected failures.
func (s *Server) writeError(c *gin.Context, err error, fallback string) {
	var fieldErrs criterio.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		badRequest(c, fieldMessage(fieldErrs))
	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Task not found"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "User already exists with this email"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
	case errors.Is(err, service.ErrInvalidToken):
		abortUnauthorized(c, "Token is not valid")
	default:
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	}
}

// fieldMessage reports the first field problem, the way a form shows one error
// at a time.
func fieldMessage(errs criterio.FieldErrors) string {
	if len(errs) == 0 || errs[0].Err == nil {
		return "Invalid request"
	}
	return errs[0].Err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}
