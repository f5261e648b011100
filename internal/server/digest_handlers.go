package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/taskboard/internal/model"
)

// DigestResponse is the body for GET /v1/users/:id/digest.
type DigestResponse struct {
	HasDigest bool          `json:"has_digest"`
	Digest    *model.Digest `json:"digest,omitempty"`
	NextSlot  time.Time     `json:"next_slot"`
}

// HandleLatestDigest handles GET /v1/users/:id/digest.
//
// Returns the user's current digest, generating one on demand when none
// is fresh. The fetch marks the digest read unless ?peek=1 suppresses
// it. A failed generation renders as "no recent briefing" with the next
// scheduled slot, never an error page.
func (s *Server) handleLatestDigest(c *gin.Context) {
	logger := slog.With("request_id", requestID(c), "handler", "LatestDigest")

	userID := c.Param("id")
	now := time.Now()
	peek := c.Query("peek") == "1"

	d, isNew, err := s.digests.GetOrCreate(c.Request.Context(), userID, s.digests.SlotType(now), now)
	if err != nil {
		logger.Warn("No digest available", "user_id", userID, "error", err)
		c.JSON(http.StatusOK, DigestResponse{
			HasDigest: false,
			NextSlot:  s.digests.NextSlot(now),
		})
		return
	}

	if !peek && d.ReadAt == nil {
		if err := s.digests.MarkRead(c.Request.Context(), d.ID); err != nil {
			logger.Warn("Marking digest read failed", "digest_id", d.ID, "error", err)
		} else {
			readAt := time.Now().UTC()
			d.ReadAt = &readAt
		}
	}

	logger.Info("Digest served", "user_id", userID, "digest_id", d.ID, "generated", isNew)
	c.JSON(http.StatusOK, DigestResponse{
		HasDigest: true,
		Digest:    d,
		NextSlot:  s.digests.NextSlot(now),
	})
}
