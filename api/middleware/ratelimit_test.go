package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/config"
	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// rateRouter tags each request with the identity from X-Test-Identity so
// tests can exercise separate buckets without the auth middleware.
func rateRouter(cfg config.RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Identity"); id != "" {
			c.Set("api_key", id)
		}
		c.Next()
	})
	r.Use(RateLimit(cfg))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func performAs(r *gin.Engine, identity string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if identity != "" {
		req.Header.Set("X-Test-Identity", identity)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitBurstThenBlocks(t *testing.T) {
	// Refill is effectively zero within the test, so only the burst passes.
	r := rateRouter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		if w := performAs(r, "key-a"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}

	w := performAs(r, "key-a")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	var resp struct {
		Success bool               `json:"success"`
		Error   models.ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("Error.Code = %q, want %s", resp.Error.Code, models.ErrCodeRateLimited)
	}
}

func TestRateLimitIsolatesIdentities(t *testing.T) {
	r := rateRouter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	if w := performAs(r, "key-a"); w.Code != http.StatusOK {
		t.Fatalf("first identity: status = %d", w.Code)
	}
	if w := performAs(r, "key-a"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first identity should be exhausted, got %d", w.Code)
	}

	// A different key holds its own bucket.
	if w := performAs(r, "key-b"); w.Code != http.StatusOK {
		t.Fatalf("second identity: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	// No identity header set: all requests share the test client IP.
	r := rateRouter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	if w := performAs(r, ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w := performAs(r, ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}
