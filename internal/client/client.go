// Package client talks to the TaskMate HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskmate/internal/model"
	"taskmate/internal/service"
)

const defaultTimeout = 15 * time.Second

// TaskPayload is the body of a create request.
type TaskPayload struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Priority           model.Priority  `json:"priority,omitempty"`
	Status             model.Status    `json:"status,omitempty"`
	DueDate            *time.Time      `json:"dueDate"`
	IsRecurring        bool            `json:"isRecurring"`
	RecurringFrequency model.Frequency `json:"recurringFrequency,omitempty"`
	IsAutomated        bool            `json:"isAutomated"`
	SourceRuleID       string          `json:"sourceRuleId,omitempty"`
}

// TaskUpdate is a partial update; nil fields are omitted from the request.
type TaskUpdate struct {
	Title              *string
	Description        *string
	Priority           *model.Priority
	Status             *model.Status
	DueDate            *time.Time
	ClearDueDate       bool
	IsRecurring        *bool
	RecurringFrequency *model.Frequency
}

func (u TaskUpdate) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if u.Title != nil {
		body["title"] = *u.Title
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Priority != nil {
		body["priority"] = *u.Priority
	}
	if u.Status != nil {
		body["status"] = *u.Status
	}
	switch {
	case u.ClearDueDate:
		body["dueDate"] = nil
	case u.DueDate != nil:
		body["dueDate"] = u.DueDate.UTC().Format(time.RFC3339)
	}
	if u.IsRecurring != nil {
		body["isRecurring"] = *u.IsRecurring
	}
	if u.RecurringFrequency != nil {
		body["recurringFrequency"] = *u.RecurringFrequency
	}
	return json.Marshal(body)
}

// Session is what the auth endpoints return.
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type envelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    *model.User   `json:"user"`
	Task    *model.Task   `json:"task"`
	Tasks   []model.Task  `json:"tasks"`
	Stats   service.Stats `json:"stats"`
}

// Client is an HTTP client for one user's session.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for baseURL (e.g. http://localhost:5000/api). A nil
// httpClient gets a default with a request timeout.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient}
}

// WithToken returns a copy of the client authenticated with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*Session, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, path, body, &env); err != nil {
		return nil, err
	}
	if env.Token == "" || env.User == nil {
		return nil, fmt.Errorf("auth response missing token or user")
	}
	return &Session{Token: env.Token, User: *env.User}, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// ListTasks returns the caller's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &env); err != nil {
		return nil, err
	}
	return env.Tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return c.taskCall(ctx, http.MethodGet, "/tasks/"+id, nil)
}

func (c *Client) CreateTask(ctx context.Context, payload TaskPayload) (*model.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/tasks", payload)
}

func (c *Client) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*model.Task, error) {
	return c.taskCall(ctx, http.MethodPut, "/tasks/"+id, update)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
}

func (c *Client) Stats(ctx context.Context) (service.Stats, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/tasks/stats", nil, &env); err != nil {
		return service.Stats{}, err
	}
	return env.Stats, nil
}

func (c *Client) taskCall(ctx context.Context, method, path string, body any) (*model.Task, error) {
	var env envelope
	if err := c.do(ctx, method, path, body, &env); err != nil {
		return nil, err
	}
	if env.Task == nil {
		return nil, fmt.Errorf("%s %s: response missing task", method, path)
	}
	return env.Task, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
