// Package server exposes the pipeline over HTTP: the scheduler trigger
// surface, reminder management, and the digest/message read surfaces.
// Session authentication is handled upstream; handlers trust the
// X-User-ID header for the acting user and a shared token for the
// scheduler.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/digest"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/pipeline"
	"github.com/nhle/taskboard/internal/store"
)

// ErrorResponse is the JSON body returned for all handler errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	cfg      model.ServerConfig
	store    store.Store
	pipeline *pipeline.Pipeline
	digests  *digest.Service
}

// New creates a server.
func New(cfg model.ServerConfig, st store.Store, p *pipeline.Pipeline, ds *digest.Service) *Server {
	return &Server{cfg: cfg, store: st, pipeline: p, digests: ds}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware())

	jobs := r.Group("/v1/jobs")
	jobs.GET("/health", s.handleJobHealth)
	jobs.POST("/reminders", s.schedulerAuth(), s.handleRunReminders)
	jobs.POST("/digests", s.schedulerAuth(), s.handleRunDigests)

	r.POST("/v1/tasks/:id/reminders", s.handleCreateReminder)
	r.GET("/v1/tasks/:id/reminders", s.handleListTaskReminders)
	r.GET("/v1/users/:id/reminders", s.handleListUserReminders)
	r.PATCH("/v1/reminders/:id", s.handleUpdateReminder)
	r.POST("/v1/reminders/:id/cancel", s.handleCancelReminder)
	r.DELETE("/v1/reminders/:id", s.handleDeleteReminder)

	r.GET("/v1/users/:id/digest", s.handleLatestDigest)

	r.GET("/v1/users/:id/messages", s.handleListMessages)
	r.POST("/v1/messages/:id/read", s.handleMarkMessageRead)

	r.POST("/v1/users/:id/subscriptions", s.handleSaveSubscription)
	r.DELETE("/v1/subscriptions/:id", s.handleDeleteSubscription)

	return r
}

// requestIDMiddleware attaches a request ID, reusing the caller's when
// present.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// schedulerAuth guards the trigger endpoints with the shared scheduler
// token. An unset token disables the triggers rather than leaving them
// open.
func (s *Server) schedulerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.SchedulerToken == "" ||
			c.GetHeader("X-Scheduler-Token") != s.cfg.SchedulerToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "invalid scheduler token",
				Code:  "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

// actorID extracts the acting user from the X-User-ID header. Returns
// false (and writes the response) when the header is missing.
func actorID(c *gin.Context) (string, bool) {
	actor := c.GetHeader("X-User-ID")
	if actor == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "missing X-User-ID header",
			Code:  "UNAUTHORIZED",
		})
		return "", false
	}
	return actor, true
}

// canManageReminders reports whether the actor may manage reminders on a
// task: its creator, its assignee, or its last editor.
func canManageReminders(task *model.Task, actor string) bool {
	if task.CreatedBy == actor {
		return true
	}
	if task.AssignedTo != nil && *task.AssignedTo == actor {
		return true
	}
	if task.LastEditedBy != nil && *task.LastEditedBy == actor {
		return true
	}
	return false
}

// requestID returns the request ID set by the middleware.
func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}
