package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/search"
)

// Searcher finds catalog seeds for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) (*search.Result, *models.LookupError)
}

// Enricher runs seeds through the enrichment pipeline. The second return
// value counts records that came back degraded.
type Enricher interface {
	Enrich(ctx context.Context, seeds []*models.ProductRecord) ([]*models.ProductRecord, int)
}

// Search handles POST /api/v1/search: discover listings for a query, then
// enrich each one synchronously.
func Search(searcher Searcher, enricher Enricher, defaultMax int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults(defaultMax)

		start := time.Now()
		result, lerr := searcher.Search(c.Request.Context(), req.Query, req.MaxResults)
		searchMs := time.Since(start).Milliseconds()
		if lerr != nil {
			c.JSON(statusFor(lerr.Code), models.SearchResponse{
				Success: false,
				Query:   req.Query,
				Error:   lerr.ToDetail(),
			})
			return
		}

		enrichStart := time.Now()
		products, _ := enricher.Enrich(c.Request.Context(), result.Seeds)
		enrichMs := time.Since(enrichStart).Milliseconds()

		c.JSON(http.StatusOK, models.SearchResponse{
			Success:     true,
			Query:       req.Query,
			Products:    products,
			Total:       len(products),
			CacheStatus: result.CacheStatus,
			Timing: &models.TimingInfo{
				TotalMs:  time.Since(start).Milliseconds(),
				SearchMs: searchMs,
				EnrichMs: enrichMs,
			},
		})
	}
}

// SearchDisabled answers for POST /api/v1/search when no discovery
// credentials are configured.
func SearchDisabled() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, models.SearchResponse{
			Success: false,
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeConfig,
				Message: "search is not configured: set LOOKUP_GOOGLE_API_KEY and LOOKUP_GOOGLE_CX",
			},
		})
	}
}

func statusFor(code string) int {
	switch code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeSearchFailed:
		return http.StatusBadGateway
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
