package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

func lookupRouter(store *JobStore, enricher Enricher, hookURL, hookSecret string) *gin.Engine {
	r := gin.New()
	r.POST("/lookup", PostLookup(store, enricher, hookURL, hookSecret))
	r.GET("/lookup/:id", GetLookup(store))
	return r
}

// pollJob reads the job until it leaves "processing" or the deadline hits.
func pollJob(t *testing.T, r *gin.Engine, id string) models.LookupStatusResponse {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		w := performJSON(r, http.MethodGet, "/lookup/"+id, "")
		if w.Code != http.StatusOK {
			t.Fatalf("poll status = %d, body %s", w.Code, w.Body.String())
		}
		var status models.LookupStatusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if status.Status != "processing" {
			return status
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s still processing after deadline", id)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLookupLifecycle(t *testing.T) {
	store := NewJobStore(time.Hour)
	enricher := &fakeEnricher{fn: func(seeds []*models.ProductRecord) ([]*models.ProductRecord, int) {
		for _, s := range seeds {
			s.Identifier = "P-123"
		}
		return seeds, 0
	}}
	r := lookupRouter(store, enricher, "", "")

	body := `{"products":[{"url":"https://www.fishersci.com/p/1","name":"Pipette"}]}`
	w := performJSON(r, http.MethodPost, "/lookup", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	var accepted models.LookupResponse
	if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(accepted.ID, "lookup-") {
		t.Errorf("ID = %q, want lookup- prefix", accepted.ID)
	}
	if accepted.Status != "processing" {
		t.Errorf("Status = %q, want processing", accepted.Status)
	}
	if accepted.Total != 1 {
		t.Errorf("Total = %d, want 1", accepted.Total)
	}

	final := pollJob(t, r, accepted.ID)
	if final.Status != "completed" {
		t.Errorf("final Status = %q, want completed", final.Status)
	}
	if final.Completed != 1 || final.Total != 1 {
		t.Errorf("Completed/Total = %d/%d, want 1/1", final.Completed, final.Total)
	}
	if len(final.Products) != 1 || final.Products[0].Identifier != "P-123" {
		t.Fatalf("Products = %+v, want one enriched record", final.Products)
	}
}

func TestLookupDegradedStatus(t *testing.T) {
	tests := []struct {
		name     string
		degraded int
		want     string
	}{
		{"some records degraded", 1, "partial"},
		{"all records degraded", 2, "failed"},
	}

	body := `{"products":[
		{"url":"https://www.fishersci.com/p/1","name":"First"},
		{"url":"https://www.sigmaaldrich.com/p/2","name":"Second"}
	]}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewJobStore(time.Hour)
			enricher := &fakeEnricher{fn: func(seeds []*models.ProductRecord) ([]*models.ProductRecord, int) {
				return seeds, tt.degraded
			}}
			r := lookupRouter(store, enricher, "", "")

			w := performJSON(r, http.MethodPost, "/lookup", body)
			if w.Code != http.StatusAccepted {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			var accepted models.LookupResponse
			if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			final := pollJob(t, r, accepted.ID)
			if final.Status != tt.want {
				t.Errorf("Status = %q, want %q", final.Status, tt.want)
			}
			if len(final.Products) != 2 {
				t.Errorf("len(Products) = %d, want 2 even when degraded", len(final.Products))
			}
		})
	}
}

func TestLookupRejectsBadPayload(t *testing.T) {
	var many []string
	for i := 0; i < 51; i++ {
		many = append(many, fmt.Sprintf(`{"url":"https://example.com/p/%d"}`, i))
	}

	tests := []struct {
		name string
		body string
	}{
		{"missing products", `{}`},
		{"empty products", `{"products":[]}`},
		{"seed without url", `{"products":[{"name":"Pipette"}]}`},
		{"seed with bad url", `{"products":[{"url":"not a url"}]}`},
		{"over batch cap", `{"products":[` + strings.Join(many, ",") + `]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewJobStore(time.Hour)
			enricher := &fakeEnricher{}
			r := lookupRouter(store, enricher, "", "")

			w := performJSON(r, http.MethodPost, "/lookup", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
			if enricher.callCount() != 0 {
				t.Error("enrichment ran on rejected payload")
			}
		})
	}
}

func TestGetLookupUnknownJob(t *testing.T) {
	r := lookupRouter(NewJobStore(time.Hour), &fakeEnricher{}, "", "")

	w := performJSON(r, http.MethodGet, "/lookup/lookup-ffffffffffffffff", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var resp struct {
		Success bool               `json:"success"`
		Error   models.ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("Success = true for unknown job")
	}
	if resp.Error.Code != models.ErrCodeInvalidInput {
		t.Errorf("Error.Code = %q, want %s", resp.Error.Code, models.ErrCodeInvalidInput)
	}
}

func TestLookupWebhookDelivery(t *testing.T) {
	tests := []struct {
		name      string
		degraded  int
		wantEvent string
	}{
		{"completed job", 0, "lookup.completed"},
		{"failed job", 1, "lookup.failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			type delivery struct {
				signature string
				payload   []byte
			}
			got := make(chan delivery, 1)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var d delivery
				d.signature = r.Header.Get("X-Lookup-Signature")
				d.payload, _ = io.ReadAll(r.Body)
				got <- d
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			store := NewJobStore(time.Hour)
			enricher := &fakeEnricher{fn: func(seeds []*models.ProductRecord) ([]*models.ProductRecord, int) {
				return seeds, tt.degraded
			}}
			r := lookupRouter(store, enricher, server.URL, "s3cret")

			w := performJSON(r, http.MethodPost, "/lookup", `{"products":[{"url":"https://example.com/p/1"}]}`)
			if w.Code != http.StatusAccepted {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			var accepted models.LookupResponse
			if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			select {
			case d := <-got:
				if !strings.HasPrefix(d.signature, "sha256=") {
					t.Errorf("signature = %q, want sha256= prefix", d.signature)
				}
				var event struct {
					Type  string `json:"type"`
					JobID string `json:"job_id"`
					Data  struct {
						Status string `json:"status"`
					} `json:"data"`
				}
				if err := json.Unmarshal(d.payload, &event); err != nil {
					t.Fatalf("decode event: %v", err)
				}
				if event.Type != tt.wantEvent {
					t.Errorf("event type = %q, want %q", event.Type, tt.wantEvent)
				}
				if event.JobID != accepted.ID {
					t.Errorf("event job_id = %q, want %q", event.JobID, accepted.ID)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("webhook was never delivered")
			}
		})
	}
}
