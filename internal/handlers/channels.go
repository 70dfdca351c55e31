// channels.go handles the channel listing, channel detail, and stats
// endpoints.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tubescribe/tubescribe-api/internal/models"
)

// ListChannels returns all indexed channels with video and transcript
// counts.
// GET /api/v1/channels
func (h *Handler) ListChannels(c *gin.Context) {
	channels, err := h.DB.ListChannels(c.Request.Context())
	if err != nil {
		log.Printf("❌ Failed to list channels: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to list channels",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if channels == nil {
		channels = []models.ChannelSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// GetChannel returns one channel with its videos, transcript presence,
// and accumulated fetch errors.
// GET /api/v1/channels/:channelID
func (h *Handler) GetChannel(c *gin.Context) {
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

	videos, err := h.DB.ListChannelVideos(c.Request.Context(), channel.ID)
	if err != nil {
		log.Printf("❌ Failed to list videos for channel %s: %v", channelID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to list channel videos",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, models.ChannelDetail{
		Channel: *channel,
		Videos:  videos,
	})
}

// GetStats returns overall corpus statistics.
// GET /api/v1/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.DB.GetStats(c.Request.Context())
	if err != nil {
		log.Printf("❌ Failed to compute stats: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to compute stats",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
