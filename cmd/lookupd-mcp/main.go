package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// productRecord mirrors the lookup API record model.
type productRecord struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Identifier  string `json:"identifier"`
	PartNumber  string `json:"part_number"`
	Brand       string `json:"brand"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Attributes  []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"attributes"`
}

// searchResponse mirrors the lookup API search response model.
type searchResponse struct {
	Success     bool            `json:"success"`
	Query       string          `json:"query"`
	Products    []productRecord `json:"products"`
	Total       int             `json:"total"`
	CacheStatus string          `json:"cache_status"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// lookupResponse mirrors the immediate lookup job response.
type lookupResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// lookupStatusResponse mirrors the lookup job status response.
type lookupStatusResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Products  []productRecord `json:"products"`
}

func main() {
	apiURL := os.Getenv("LOOKUP_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: the API runs open when no keys are configured.
	apiKey := os.Getenv("LOOKUP_API_KEY")

	s := server.NewMCPServer(
		"product-lookup",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("product_search",
		mcp.WithDescription("Search lab-supply listings for a free-text product query and return enriched product records (catalog number, part number, brand, price, description)."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text product query, e.g. 'gilson pipetman p200'"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of listings to enrich (default: server-configured, max: 10)"),
		),
	)
	s.AddTool(searchTool, handleProductSearch(apiURL, apiKey))

	lookupTool := mcp.NewTool("product_lookup",
		mcp.WithDescription("Enrich known product page URLs into structured records. Accepts up to 50 URLs and waits for the batch to finish."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of product page URLs to enrich"),
		),
	)
	s.AddTool(lookupTool, handleProductLookup(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the lookup API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			if apiKey != "" {
				req.Header.Set("X-API-Key", apiKey)
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}

// formatRecord renders one enriched record as readable text.
func formatRecord(sb *strings.Builder, i int, p productRecord) {
	fmt.Fprintf(sb, "--- [%d] %s ---\n", i+1, p.Name)
	fmt.Fprintf(sb, "URL: %s\n", p.URL)
	fmt.Fprintf(sb, "Catalog number: %s\n", p.Identifier)
	fmt.Fprintf(sb, "Part number: %s\n", p.PartNumber)
	fmt.Fprintf(sb, "Brand: %s\n", p.Brand)
	fmt.Fprintf(sb, "Price: %s\n", p.Price)
	fmt.Fprintf(sb, "Description: %s\n", p.Description)
	for _, attr := range p.Attributes {
		fmt.Fprintf(sb, "  %s: %s\n", attr.Key, attr.Value)
	}
	sb.WriteString("\n")
}

func handleProductSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	// Search enriches synchronously; a full batch can take minutes.
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		payload := map[string]interface{}{"query": query}
		if args := request.GetArguments(); args != nil {
			if maxResults, ok := args["max_results"]; ok {
				payload["max_results"] = maxResults
			}
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
		}

		var searchResp searchResponse
		if err := json.Unmarshal(respBody, &searchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse search response: %v", err)), nil
		}

		if !searchResp.Success {
			errMsg := "search failed"
			if searchResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", searchResp.Error.Code, searchResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Found %d products for %q:\n\n", searchResp.Total, searchResp.Query)
		for i, p := range searchResp.Products {
			formatRecord(&sb, i, p)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleProductLookup(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		products := make([]map[string]string, 0, len(urls))
		for _, u := range urls {
			products = append(products, map[string]string{"url": u})
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/lookup", map[string]interface{}{
			"products": products,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup request failed: %v", err)), nil
		}

		var accepted lookupResponse
		if err := json.Unmarshal(respBody, &accepted); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse lookup response: %v", err)), nil
		}
		if accepted.ID == "" {
			return mcp.NewToolResultError("lookup job creation failed: " + string(respBody)), nil
		}

		resultBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/lookup/"+accepted.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling lookup job failed: %v", err)), nil
		}

		var statusResp lookupStatusResponse
		if err := json.Unmarshal(resultBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse lookup status: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Lookup %s: %s (%d/%d completed)\n\n", statusResp.ID, statusResp.Status, statusResp.Completed, statusResp.Total)
		for i, p := range statusResp.Products {
			formatRecord(&sb, i, p)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
