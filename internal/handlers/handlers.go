// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers are grouped on a struct holding shared
// dependencies — dependency injection via fields, no globals. That keeps
// testing simple: build a Handler around fakes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tubescribe/tubescribe-api/internal/database"
	"github.com/tubescribe/tubescribe-api/internal/ingest"
	"github.com/tubescribe/tubescribe-api/internal/models"
	"github.com/tubescribe/tubescribe-api/internal/search"
)

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	DB      *database.DB
	Search  *search.Service
	Pool    *ingest.Pool
	Version string
}

// NewHandler creates a new handler with all dependencies.
func NewHandler(db *database.DB, searcher *search.Service, pool *ingest.Pool, version string) *Handler {
	return &Handler{
		DB:      db,
		Search:  searcher,
		Pool:    pool,
		Version: version,
	}
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	dbStatus := "healthy"
	if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Version:  h.Version,
		Database: dbStatus,
		Workers:  h.Pool.WorkerCount(),
	})
}
