// ingest.go handles the write surface: the push endpoints an upstream
// fetcher (poller or WebSub-triggered) delivers indexed data through.
package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tubescribe/tubescribe-api/internal/ingest"
	"github.com/tubescribe/tubescribe-api/internal/models"
)

// IngestChannel creates or updates a channel record.
// POST /api/v1/ingest/channels
//
// Channels are upserted synchronously — videos referencing a channel can
// only be queued once the channel row exists.
func (h *Handler) IngestChannel(c *gin.Context) {
	var req models.IngestChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "channel_id, channel_name, and channel_url are required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !ingest.ValidChannelID(req.ChannelID) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_channel_id",
			Message: "channel_id must be a YouTube channel ID (UC...)",
			Code:    http.StatusBadRequest,
		})
		return
	}

	channel := &models.Channel{
		ChannelID:   req.ChannelID,
		ChannelName: req.ChannelName,
		ChannelURL:  req.ChannelURL,
		Description: req.Description,
	}
	if err := h.DB.UpsertChannel(c.Request.Context(), channel); err != nil {
		log.Printf("❌ Failed to upsert channel %s: %v", req.ChannelID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to store channel",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, channel)
}

// IngestVideos accepts a batch of video payloads and queues one ingest
// job per video.
// POST /api/v1/ingest/videos
//
// Each payload carries video metadata plus either transcript segments or
// a fetch-error record. The response is 202 Accepted — persistence
// happens on the worker pool, and re-pushing the same payload is safe
// (videos upsert, transcripts never overwrite).
func (h *Handler) IngestVideos(c *gin.Context) {
	var req models.IngestVideosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide 'videos' (1-500) in the request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	for i := range req.Videos {
		if !ingest.ValidVideoID(req.Videos[i].VideoID) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_video_id",
				Message: "video_id must be an 11-character YouTube video ID: " + req.Videos[i].VideoID,
				Code:    http.StatusBadRequest,
			})
			return
		}
	}

	queued := make([]gin.H, 0, len(req.Videos))
	for i := range req.Videos {
		job := ingest.Job{
			ID:        uuid.New().String(),
			Payload:   req.Videos[i],
			CreatedAt: time.Now(),
		}
		if err := h.Pool.Submit(job); err != nil {
			// Queue full: report what was accepted so the pusher can
			// resend the rest after backing off.
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":    "queue_full",
				"message":  "Ingest queue is full, resend remaining videos later",
				"accepted": len(queued),
				"jobs":     queued,
			})
			return
		}
		queued = append(queued, gin.H{"job_id": job.ID, "video_id": job.Payload.VideoID})
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": len(queued),
		"jobs":     queued,
	})
}

// RetryQueue lists a channel's videos that still lack a transcript but
// failed with a transient error — the upstream fetcher polls this to
// decide what to retry.
// GET /api/v1/ingest/channels/:channelID/retry-queue?limit=100
func (h *Handler) RetryQueue(c *gin.Context) {
	channelID := c.Param("channelID")

	channel, err := h.DB.GetChannel(c.Request.Context(), channelID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	videos, err := h.DB.ListRetryCandidates(c.Request.Context(), channel.ID, ingest.RetryableErrorTypes(), limit)
	if err != nil {
		log.Printf("❌ Failed to list retry candidates for %s: %v", channelID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to list retry candidates",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": channelID,
		"count":      len(videos),
		"videos":     videos,
	})
}
