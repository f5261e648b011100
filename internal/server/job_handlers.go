package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/model"
)

// soonWindow is the horizon the health endpoint uses for "due soon".
const soonWindow = time.Hour

// HandleRunReminders handles POST /v1/jobs/reminders. Invoked by the
// external scheduler; accepts no body and returns aggregate counts.
func (s *Server) handleRunReminders(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "RunReminders")

	report, err := s.pipeline.ProcessReminders(c.Request.Context())
	if err != nil {
		logger.Error("Reminder run failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "RUN_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// HandleRunDigests handles POST /v1/jobs/digests?type=morning|afternoon.
func (s *Server) handleRunDigests(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "RunDigests")

	digestType := model.DigestType(c.Query("type"))
	if !model.ValidDigestType(digestType) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "type must be morning or afternoon",
			Code:  "INVALID_DIGEST_TYPE",
		})
		return
	}

	report, err := s.pipeline.GenerateDigests(c.Request.Context(), digestType)
	if err != nil {
		logger.Error("Digest run failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "RUN_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// HandleJobHealth handles GET /v1/jobs/health. Read-only: reports counts
// of pending and soon-due reminders without side effects.
func (s *Server) handleJobHealth(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "JobHealth")

	pending, dueSoon, err := s.store.ReminderCounts(c.Request.Context(), time.Now(), soonWindow)
	if err != nil {
		logger.Error("Health check failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "HEALTH_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending":   pending,
		"due_soon":  dueSoon,
		"timestamp": time.Now().UTC(),
	})
}
