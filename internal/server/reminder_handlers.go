package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// CreateReminderRequest is the body for POST /v1/tasks/:id/reminders.
type CreateReminderRequest struct {
	TriggerTime time.Time             `json:"trigger_time" binding:"required"`
	Channel     model.ReminderChannel `json:"channel" binding:"required"`
	Message     string                `json:"message"`

	// UserID is the explicit recipient; omitted means the task's
	// assignee at dispatch time.
	UserID *string `json:"user_id"`
}

// UpdateReminderRequest is the body for PATCH /v1/reminders/:id. Absent
// fields keep their current value.
type UpdateReminderRequest struct {
	TriggerTime *time.Time             `json:"trigger_time"`
	Channel     *model.ReminderChannel `json:"channel"`
	Message     *string                `json:"message"`
	UserID      *string                `json:"user_id"`
}

// HandleCreateReminder handles POST /v1/tasks/:id/reminders.
func (s *Server) handleCreateReminder(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "CreateReminder")

	actor, ok := actorID(c)
	if !ok {
		return
	}
	taskID := c.Param("id")

	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if !s.authorizeTask(c, taskID, actor, logger) {
		return
	}

	created, err := s.store.CreateReminder(c.Request.Context(), model.Reminder{
		TaskID:      taskID,
		UserID:      req.UserID,
		TriggerTime: req.TriggerTime,
		Channel:     req.Channel,
		Message:     req.Message,
		CreatedBy:   actor,
	})
	if err != nil {
		s.writeReminderError(c, logger, err)
		return
	}

	logger.Info("Reminder created", "reminder_id", created.ID, "task_id", taskID)
	c.JSON(http.StatusCreated, created)
}

// HandleListTaskReminders handles GET /v1/tasks/:id/reminders.
func (s *Server) handleListTaskReminders(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "ListTaskReminders")

	actor, ok := actorID(c)
	if !ok {
		return
	}
	taskID := c.Param("id")

	if !s.authorizeTask(c, taskID, actor, logger) {
		return
	}

	filter := store.ReminderFilter{TaskID: &taskID}
	if status := c.Query("status"); status != "" {
		st := model.ReminderStatus(status)
		filter.Status = &st
	}

	reminders, err := s.store.GetReminders(c.Request.Context(), filter)
	if err != nil {
		logger.Error("Listing reminders failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LIST_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders, "count": len(reminders)})
}

// HandleListUserReminders handles GET /v1/users/:id/reminders.
func (s *Server) handleListUserReminders(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "ListUserReminders")

	userID := c.Param("id")
	filter := store.ReminderFilter{UserID: &userID}
	if status := c.Query("status"); status != "" {
		st := model.ReminderStatus(status)
		filter.Status = &st
	}

	reminders, err := s.store.GetReminders(c.Request.Context(), filter)
	if err != nil {
		logger.Error("Listing reminders failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LIST_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders, "count": len(reminders)})
}

// HandleUpdateReminder handles PATCH /v1/reminders/:id (reschedule,
// channel change, message edit, recipient change).
func (s *Server) handleUpdateReminder(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "UpdateReminder")

	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	existing, ok := s.loadAuthorizedReminder(c, actor, logger)
	if !ok {
		return
	}

	updated := *existing
	if req.TriggerTime != nil {
		updated.TriggerTime = *req.TriggerTime
	}
	if req.Channel != nil {
		updated.Channel = *req.Channel
	}
	if req.Message != nil {
		updated.Message = *req.Message
	}
	if req.UserID != nil {
		updated.UserID = req.UserID
	}

	if err := s.store.UpdateReminder(c.Request.Context(), updated); err != nil {
		s.writeReminderError(c, logger, err)
		return
	}

	reminder, err := s.store.GetReminderByID(c.Request.Context(), existing.ID)
	if err != nil {
		s.writeReminderError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// HandleCancelReminder handles POST /v1/reminders/:id/cancel.
func (s *Server) handleCancelReminder(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "CancelReminder")

	actor, ok := actorID(c)
	if !ok {
		return
	}

	existing, ok := s.loadAuthorizedReminder(c, actor, logger)
	if !ok {
		return
	}

	if err := s.store.CancelReminder(c.Request.Context(), existing.ID); err != nil {
		s.writeReminderError(c, logger, err)
		return
	}

	logger.Info("Reminder cancelled", "reminder_id", existing.ID)
	c.Status(http.StatusNoContent)
}

// HandleDeleteReminder handles DELETE /v1/reminders/:id.
func (s *Server) handleDeleteReminder(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "DeleteReminder")

	actor, ok := actorID(c)
	if !ok {
		return
	}

	existing, ok := s.loadAuthorizedReminder(c, actor, logger)
	if !ok {
		return
	}

	if err := s.store.DeleteReminder(c.Request.Context(), existing.ID); err != nil {
		s.writeReminderError(c, logger, err)
		return
	}

	logger.Info("Reminder deleted", "reminder_id", existing.ID)
	c.Status(http.StatusNoContent)
}

// authorizeTask loads the task and checks the actor may manage its
// reminders. Writes the response and returns false on failure.
func (s *Server) authorizeTask(c *gin.Context, taskID, actor string, logger *slog.Logger) bool {
	task, err := s.store.GetTaskByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "task not found",
				Code:  "NOT_FOUND",
			})
			return false
		}
		logger.Error("Loading task failed", "task_id", taskID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "TASK_LOAD_FAILED",
		})
		return false
	}

	if !canManageReminders(task, actor) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "only the task's creator, assignee, or last editor may manage its reminders",
			Code:  "FORBIDDEN",
		})
		return false
	}
	return true
}

// loadAuthorizedReminder loads the reminder from the :id param and checks
// task-level authorization. Writes the response and returns false on
// failure.
func (s *Server) loadAuthorizedReminder(c *gin.Context, actor string, logger *slog.Logger) (*model.Reminder, bool) {
	reminder, err := s.store.GetReminderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeReminderError(c, logger, err)
		return nil, false
	}
	if !s.authorizeTask(c, reminder.TaskID, actor, logger) {
		return nil, false
	}
	return reminder, true
}

// writeReminderError maps store errors onto HTTP responses with
// field-level messages for validation failures.
func (s *Server) writeReminderError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrReminderTimeInPast):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "reminder time must be in the future",
			Code:  "TRIGGER_TIME_IN_PAST",
		})
	case errors.Is(err, store.ErrTaskCompleted):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "cannot add a reminder to a completed task",
			Code:  "TASK_COMPLETED",
		})
	case errors.Is(err, store.ErrReminderTerminal):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "reminder is no longer pending",
			Code:  "REMINDER_TERMINAL",
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "not found",
			Code:  "NOT_FOUND",
		})
	default:
		logger.Error("Reminder operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "REMINDER_FAILED",
		})
	}
}
