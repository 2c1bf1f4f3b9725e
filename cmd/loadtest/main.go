// Command loadtest drives concurrent search traffic against a running search
// service and prints throughput, latency percentiles and status codes.
//
// Queries come from -queries (one per line) or a built-in mix that includes
// malformed queries, so the 400 path is exercised too.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var defaultQueries = []string{
	"cat",
	"cat AND dog",
	"cat OR dog",
	"(cat OR dog) ANDNOT fish",
	"bird AND (cat OR fish)",
	"search ANDNOT index",
	"(a OR b) AND (c OR d)",
	"cat AND",
	"(cat OR dog",
}

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Limit       int
	Queries     []string
}

type Stats struct {
	total       atomic.Int64
	transport   atomic.Int64
	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

// Record counts one request. statusCode is 0 when the request never got a
// response.
func (s *Stats) Record(d time.Duration, statusCode int) {
	s.total.Add(1)
	if statusCode == 0 {
		s.transport.Add(1)
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.statusCodes[statusCode]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	limit := flag.Int("limit", 10, "limit parameter sent with every query")
	queriesPath := flag.String("queries", "", "file with one query per line")
	flag.Parse()

	queries := defaultQueries
	if *queriesPath != "" {
		loaded, err := loadQueries(*queriesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading queries: %v\n", err)
			os.Exit(1)
		}
		queries = loaded
	}

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Limit:       *limit,
		Queries:     queries,
	}
	fmt.Println("=== Boolean Search Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n\n", len(cfg.Queries))

	stats := run(context.Background(), cfg)
	if !report(os.Stdout, stats, cfg.Duration) {
		os.Exit(1)
	}
}

func loadQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%s contains no queries", path)
	}
	return queries, nil
}

func run(ctx context.Context, cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var g errgroup.Group
	for w := 0; w < cfg.Concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				query := cfg.Queries[i%len(cfg.Queries)]
				searchURL := fmt.Sprintf("%s/api/v1/search?q=%s&limit=%d", cfg.BaseURL, url.QueryEscape(query), cfg.Limit)
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
				if err != nil {
					return err
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.Record(elapsed, 0)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.Record(elapsed, resp.StatusCode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "load test aborted: %v\n", err)
	}
	return stats
}

// report prints the summary and reports whether any request completed.
func report(w io.Writer, stats *Stats, duration time.Duration) bool {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	total := stats.total.Load()
	ok := stats.statusCodes[http.StatusOK]
	rejected := stats.statusCodes[http.StatusBadRequest]
	failed := total - ok - rejected

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "OK:              %d\n", ok)
	fmt.Fprintf(w, "Syntax errors:   %d\n", rejected)
	fmt.Fprintf(w, "Failures:        %d\n", failed)
	if total > 0 {
		fmt.Fprintf(w, "Failure Rate:    %.2f%%\n", float64(failed)/float64(total)*100)
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}

	if len(stats.latencies) > 0 {
		latencies := slices.Clone(stats.latencies)
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		fmt.Fprintln(w, "\n=== Latency ===")
		fmt.Fprintf(w, "Min: %s\n", latencies[0])
		fmt.Fprintf(w, "Avg: %s\n", avg)
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(w, "P%.0f: %s\n", p, percentile(latencies, p))
		}
		fmt.Fprintf(w, "Max: %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, stats.statusCodes[code])
	}
	if n := stats.transport.Load(); n > 0 {
		fmt.Fprintf(w, "  transport errors: %d\n", n)
	}

	if len(stats.latencies) == 0 {
		fmt.Fprintln(w, "\nWARNING: no requests completed. Is the service running?")
		return false
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
