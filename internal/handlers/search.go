// search.go handles the search endpoints: whole-corpus search,
// channel-scoped search, batch snippets, and in-video match navigation.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tubescribe/tubescribe-api/internal/models"
	"github.com/tubescribe/tubescribe-api/internal/search"
)

// searchQuery holds the query parameters shared by the search endpoints.
// Go Pattern: ShouldBindQuery reads query parameters into a struct using
// the `form` tags. MinSimilarity is a pointer so an omitted parameter is
// distinguishable from an explicit 0.
type searchQuery struct {
	Q             string   `form:"q" binding:"required"`
	Limit         int      `form:"limit"`
	ExactMatch    bool     `form:"exact_match"`
	MinSimilarity *float64 `form:"min_similarity"`
	Offset        int      `form:"offset"`
}

// params converts the bound query into search parameters, applying
// defaults and bounds.
func (q *searchQuery) params() (search.Params, bool) {
	p := search.Params{
		Query:         q.Q,
		Limit:         q.Limit,
		ExactMatch:    q.ExactMatch,
		MinSimilarity: search.DefaultMinSimilarity,
	}
	if p.Limit < 1 {
		p.Limit = 20
	} else if p.Limit > 100 {
		p.Limit = 100
	}
	if q.MinSimilarity != nil {
		if *q.MinSimilarity < 0 || *q.MinSimilarity > 1 {
			return p, false
		}
		p.MinSimilarity = *q.MinSimilarity
	}
	return p, true
}

// SearchVideos searches across transcripts, titles, and descriptions.
// GET /api/v1/search?q=rust&limit=20&exact_match=false&min_similarity=0.3
//
// Results are ranked aggregates, one per video, with snippets and
// timestamps.
func (h *Handler) SearchVideos(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_params",
			Message: "Query parameter 'q' is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	p, ok := q.params()
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_params",
			Message: "min_similarity must be between 0 and 1",
			Code:    http.StatusBadRequest,
		})
		return
	}

	results, err := h.Search.Search(c.Request.Context(), p)
	if err != nil {
		log.Printf("❌ Search failed for %q: %v", p.Query, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_failed",
			Message: "Search query failed",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   p.Query,
		"count":   len(results),
		"results": results,
	})
}

// SearchChannel searches within one channel, paginated.
// GET /api/v1/channels/:channelID/search?q=rust&limit=10&offset=0
func (h *Handler) SearchChannel(c *gin.Context) {
	channelID := c.Param("channelID")

	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_params",
			Message: "Query parameter 'q' is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	p, ok := q.params()
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_params",
			Message: "min_similarity must be between 0 and 1",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if _, err := h.DB.GetChannel(c.Request.Context(), channelID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	results, total, err := h.Search.SearchChannel(c.Request.Context(), channelID, p, q.Offset)
	if err != nil {
		log.Printf("❌ Channel search failed for %q in %s: %v", p.Query, channelID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_failed",
			Message: "Search query failed",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":       p.Query,
		"channel_id":  channelID,
		"count":       len(results),
		"total_count": total,
		"results":     results,
	})
}

// BatchSnippetsRequest is the JSON body for POST /api/v1/search/snippets.
type BatchSnippetsRequest struct {
	VideoIDs []string `json:"video_ids" binding:"required,min=1,max=100"`
	Q        string   `json:"q" binding:"required"`
}

// BatchSnippets returns the best snippet+timestamp per requested video.
// POST /api/v1/search/snippets
//
// Video ids without a transcript are simply absent from the response map.
func (h *Handler) BatchSnippets(c *gin.Context) {
	var req BatchSnippetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide 'video_ids' (1-100) and 'q' in the request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	snippets, err := h.Search.BatchSnippets(c.Request.Context(), req.VideoIDs, req.Q)
	if err != nil {
		log.Printf("❌ Batch snippets failed for %q: %v", req.Q, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_failed",
			Message: "Snippet lookup failed",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Q,
		"snippets": snippets,
	})
}

// VideoMatches returns every occurrence of the query in one video's
// transcript, chronologically, with the match highlighted.
// GET /api/v1/videos/:videoID/matches?q=rust
//
// Used for in-video navigation, not ranking. A video without a
// transcript yields an empty list.
func (h *Handler) VideoMatches(c *gin.Context) {
	videoID := c.Param("videoID")
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_params",
			Message: "Query parameter 'q' is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	matches, err := h.Search.VideoMatches(c.Request.Context(), videoID, query)
	if err != nil {
		log.Printf("❌ Video matches failed for %q in %s: %v", query, videoID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_failed",
			Message: "Match lookup failed",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id": videoID,
		"query":    query,
		"count":    len(matches),
		"matches":  matches,
	})
}
