package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "Lookup API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per query for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test queries covering typical lab-supply lookups.
var testQueries = []struct {
	Label string
	Query string
}{
	{"Pipette", "gilson pipetman p200"},
	{"Consumable", "eppendorf 1.5ml safe-lock tubes"},
	{"Gloves", "fisherbrand nitrile gloves medium"},
	{"Plate", "corning 96 well clear plate"},
	{"CatalogNo", "BMSP7700T bm sealing plate"},
}

// --- Request / Response types (mirrors models package) ---

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type searchResponse struct {
	Success     bool            `json:"success"`
	Query       string          `json:"query"`
	Products    []productRecord `json:"products"`
	Total       int             `json:"total"`
	CacheStatus string          `json:"cache_status"`
	Timing      *timingInfo     `json:"timing"`
	Error       *errorDetail    `json:"error,omitempty"`
}

type productRecord struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Identifier  string `json:"identifier"`
	PartNumber  string `json:"part_number"`
	Brand       string `json:"brand"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

type timingInfo struct {
	TotalMs  int64 `json:"total_ms"`
	SearchMs int64 `json:"search_ms"`
	EnrichMs int64 `json:"enrich_ms"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run         int     `json:"run"`
	TotalMs     int64   `json:"total_ms"`
	SearchMs    int64   `json:"search_ms"`
	EnrichMs    int64   `json:"enrich_ms"`
	Products    int     `json:"products"`
	FillRate    float64 `json:"fill_rate"`
	CacheStatus string  `json:"cache_status"`
	Success     bool    `json:"success"`
	Error       string  `json:"error,omitempty"`
}

type queryAverages struct {
	TotalMs  float64 `json:"total_ms"`
	SearchMs float64 `json:"search_ms"`
	EnrichMs float64 `json:"enrich_ms"`
	Products float64 `json:"products"`
	FillRate float64 `json:"fill_rate"`
}

type queryResult struct {
	Query    string         `json:"query"`
	Label    string         `json:"label"`
	Runs     []runResult    `json:"runs"`
	Averages *queryAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp    string        `json:"timestamp"`
	APIURL       string        `json:"api_url"`
	RunsPerQuery int           `json:"runs_per_query"`
	Results      []queryResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Product Lookup Benchmark Suite ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Runs/query: %d\n", *runs)
	fmt.Printf("Output:     %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the lookup server is running (e.g. make run)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		APIURL:       *apiURL,
		RunsPerQuery: *runs,
	}

	for _, t := range testQueries {
		fmt.Printf("Benchmarking [%s] %q ...\n", t.Label, t.Query)
		qr := queryResult{Query: t.Query, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkQuery(t.Query, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d products  %.0f%% fields filled  cache=%s\n",
					rr.TotalMs, rr.Products, rr.FillRate*100, rr.CacheStatus)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			qr.Runs = append(qr.Runs, rr)
		}

		qr.Averages = computeAverages(qr.Runs)
		report.Results = append(report.Results, qr)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkQuery(query string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/search", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	// One run crawls and verifies every hit; give it room.
	client := &http.Client{Timeout: 600 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.TotalMs = time.Since(start).Milliseconds()
	if sr.Timing != nil {
		rr.TotalMs = sr.Timing.TotalMs
		rr.SearchMs = sr.Timing.SearchMs
		rr.EnrichMs = sr.Timing.EnrichMs
	}
	rr.Products = sr.Total
	rr.FillRate = fillRate(sr.Products)
	rr.CacheStatus = sr.CacheStatus

	if sr.Error != nil {
		rr.Error = sr.Error.Message
	}

	return rr
}

// fillRate is the share of extraction fields carrying a real value instead
// of the "Not found" sentinel, across all records of one response.
func fillRate(products []productRecord) float64 {
	if len(products) == 0 {
		return 0
	}

	var filled, total int
	for _, p := range products {
		for _, v := range []string{p.Identifier, p.PartNumber, p.Brand, p.Price, p.Description} {
			total++
			if v != "" && v != "Not found" {
				filled++
			}
		}
	}
	return float64(filled) / float64(total)
}

func computeAverages(runs []runResult) *queryAverages {
	var successCount int
	var avg queryAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.SearchMs += float64(r.SearchMs)
		avg.EnrichMs += float64(r.EnrichMs)
		avg.Products += float64(r.Products)
		avg.FillRate += r.FillRate
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.SearchMs /= n
	avg.EnrichMs /= n
	avg.Products /= n
	avg.FillRate /= n
	return &avg
}

func printTable(results []queryResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Query\tAvg Latency\tAvg Products\tFields Filled\n")
	fmt.Fprintf(w, "─────\t───────────\t────────────\t─────────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\n", truncate(r.Query, 40))
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%.1f\t%.0f%%\n",
			truncate(r.Query, 40),
			int64(r.Averages.TotalMs),
			r.Averages.Products,
			r.Averages.FillRate*100,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
