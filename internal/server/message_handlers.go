package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// SaveSubscriptionRequest is the body for POST /v1/users/:id/subscriptions.
type SaveSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     string `json:"keys" binding:"required"`
}

// HandleListMessages handles GET /v1/users/:id/messages.
func (s *Server) handleListMessages(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "ListMessages")

	messages, err := s.store.UnreadMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		logger.Error("Listing messages failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LIST_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

// HandleMarkMessageRead handles POST /v1/messages/:id/read.
func (s *Server) handleMarkMessageRead(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "MarkMessageRead")

	err := s.store.MarkMessageRead(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "message not found",
			Code:  "NOT_FOUND",
		})
		return
	}
	if err != nil {
		logger.Error("Marking message read failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "UPDATE_FAILED",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleSaveSubscription handles POST /v1/users/:id/subscriptions.
func (s *Server) handleSaveSubscription(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "SaveSubscription")

	var req SaveSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	sub, err := s.store.SavePushSubscription(c.Request.Context(), model.PushSubscription{
		UserID:   c.Param("id"),
		Endpoint: req.Endpoint,
		Keys:     req.Keys,
	})
	if err != nil {
		logger.Error("Saving subscription failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "SAVE_FAILED",
		})
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// HandleDeleteSubscription handles DELETE /v1/subscriptions/:id.
func (s *Server) handleDeleteSubscription(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "DeleteSubscription")

	err := s.store.DeletePushSubscription(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "subscription not found",
			Code:  "NOT_FOUND",
		})
		return
	}
	if err != nil {
		logger.Error("Deleting subscription failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "DELETE_FAILED",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
