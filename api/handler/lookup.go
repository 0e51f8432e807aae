package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/webhook"
)

// JobStore keeps lookup jobs in memory until they expire.
type JobStore struct {
	jobs sync.Map
	ttl  time.Duration
}

// NewJobStore creates a store whose jobs expire ttl after creation.
func NewJobStore(ttl time.Duration) *JobStore {
	s := &JobStore{ttl: ttl}
	go s.cleanupLoop()
	return s
}

func (s *JobStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-s.ttl).Unix()
		s.jobs.Range(func(key, value any) bool {
			if job, ok := value.(*models.LookupJob); ok && job.CreatedAt < cutoff {
				s.jobs.Delete(key)
			}
			return true
		})
	}
}

func (s *JobStore) get(id string) (*models.LookupJob, bool) {
	value, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}
	job, ok := value.(*models.LookupJob)
	return job, ok
}

// PostLookup handles POST /api/v1/lookup: accept a batch of seed products
// and enrich them in the background.
func PostLookup(store *JobStore, enricher Enricher, hookURL, hookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		seeds := make([]*models.ProductRecord, 0, len(req.Products))
		for _, p := range req.Products {
			seeds = append(seeds, p.ToRecord())
		}

		jobID := "lookup-" + randomID()
		job := &models.LookupJob{
			ID:        jobID,
			Status:    "processing",
			Total:     len(seeds),
			CreatedAt: time.Now().Unix(),
		}
		store.jobs.Store(jobID, job)

		go runLookup(store, enricher, hookURL, hookSecret, jobID, seeds)

		c.JSON(http.StatusAccepted, models.LookupResponse{
			ID:     jobID,
			Status: job.Status,
			Total:  job.Total,
		})
	}
}

// runLookup enriches the batch and publishes a fresh job snapshot when it
// finishes, so readers never observe a half-written job.
func runLookup(store *JobStore, enricher Enricher, hookURL, hookSecret string, jobID string, seeds []*models.ProductRecord) {
	log := slog.With("component", "api", "job_id", jobID)

	prev, ok := store.get(jobID)
	if !ok {
		return
	}

	products, degraded := enricher.Enrich(context.Background(), seeds)

	status := "completed"
	switch {
	case degraded == len(seeds) && len(seeds) > 0:
		status = "failed"
	case degraded > 0:
		status = "partial"
	}

	done := &models.LookupJob{
		ID:        jobID,
		Status:    status,
		Total:     len(seeds),
		Completed: len(products),
		Products:  products,
		CreatedAt: prev.CreatedAt,
	}
	store.jobs.Store(jobID, done)

	log.Info("lookup job finished", "status", status, "total", done.Total, "degraded", degraded)

	if hookURL != "" {
		eventType := webhook.EventLookupCompleted
		if status == "failed" {
			eventType = webhook.EventLookupFailed
		}
		event := webhook.NewEvent(eventType, jobID, models.LookupStatusResponse{
			ID:        jobID,
			Status:    status,
			Completed: done.Completed,
			Total:     done.Total,
		})
		webhook.DeliverAsync(hookURL, hookSecret, event)
	}
}

// GetLookup handles GET /api/v1/lookup/:id.
func GetLookup(store *JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := store.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "lookup job not found",
				},
			})
			return
		}

		c.JSON(http.StatusOK, models.LookupStatusResponse{
			ID:        job.ID,
			Status:    job.Status,
			Completed: job.Completed,
			Total:     job.Total,
			Products:  job.Products,
		})
	}
}

func randomID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return hex.EncodeToString(b)
}
