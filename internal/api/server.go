// Package api exposes the task service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"taskmate/internal/model"
	"taskmate/internal/service"
)

// Tasks is the task service the handlers drive.
type Tasks interface {
	CreateTask(ctx context.Context, ownerID string, input service.TaskInput) (*model.Task, error)
	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	GetTask(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, patch service.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error
}

// Stats computes board summaries.
type Stats interface {
	Summary(ctx context.Context, ownerID string) (service.Stats, error)
}

// Auth registers users and resolves bearer tokens.
type Auth interface {
	Register(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	VerifyToken(raw string) (string, error)
}

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins []string
}

// Server is the TaskMate API server.
type Server struct {
	tasks  Tasks
	stats  Stats
	auth   Auth
	log    zerolog.Logger
	router *gin.Engine
}

// NewServer wires routes onto a fresh gin engine.
func NewServer(tasks Tasks, stats Stats, auth Auth, log zerolog.Logger, opts Options) *Server {
	router := gin.New()

	s := &Server{
		tasks:  tasks,
		stats:  stats,
		auth:   auth,
		log:    log,
		router: router,
	}

	router.Use(gin.Recovery(), requestLogger(log), cors(opts.CORSOrigins))

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.GET("/me", s.requireAuth, s.handleMe)
	}

	tasksGroup := router.Group("/api/tasks", s.requireAuth)
	{
		tasksGroup.GET("", s.handleListTasks)
		tasksGroup.GET("/stats", s.handleStats)
		tasksGroup.GET("/:id", s.handleGetTask)
		tasksGroup.POST("", s.handleCreateTask)
		tasksGroup.PUT("/:id", s.handleUpdateTask)
		tasksGroup.DELETE("/:id", s.handleDeleteTask)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Route not found",
			"path":    c.Request.URL.Path,
		})
	})

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "TaskMate API is running",
		"status":  "active",
		"endpoints": gin.H{
			"auth":   "/api/auth",
			"tasks":  "/api/tasks",
			"health": "/health",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
