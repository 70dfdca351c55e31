// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/tubescribe/tubescribe-api/internal/config"
	"github.com/tubescribe/tubescribe-api/internal/database"
	"github.com/tubescribe/tubescribe-api/internal/handlers"
	"github.com/tubescribe/tubescribe-api/internal/ingest"
	"github.com/tubescribe/tubescribe-api/internal/middleware"
	"github.com/tubescribe/tubescribe-api/internal/search"
)

// Setup creates and configures the Gin router with all routes.
func Setup(cfg *config.Config, db *database.DB, searcher *search.Service, pool *ingest.Pool, version string) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	h := handlers.NewHandler(db, searcher, pool, version)
	rateLimiter := middleware.NewRateLimiter(cfg.SearchRateLimit)

	// --- Public routes ---
	r.GET("/api/v1/health", h.HealthCheck)

	public := r.Group("/api/v1")
	public.Use(rateLimiter.RateLimit())
	{
		// Search endpoints
		public.GET("/search", h.SearchVideos)
		public.GET("/channels/:channelID/search", h.SearchChannel)
		public.POST("/search/snippets", h.BatchSnippets)
		public.GET("/videos/:videoID/matches", h.VideoMatches)

		// Browse endpoints
		public.GET("/channels", h.ListChannels)
		public.GET("/channels/:channelID", h.GetChannel)
		public.GET("/stats", h.GetStats)
	}

	// --- Ingest routes (API key required) ---
	protected := r.Group("/api/v1/ingest")
	protected.Use(middleware.IngestAuth(cfg.IngestAPIKey))
	{
		protected.POST("/channels", h.IngestChannel)
		protected.POST("/videos", h.IngestVideos)
		protected.GET("/channels/:channelID/retry-queue", h.RetryQueue)
	}

	return r
}
