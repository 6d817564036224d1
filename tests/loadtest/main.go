package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

const visitorHeader = "X-Visitor-ID"

var (
	baseURL      string
	numWorkers   int
	testDuration time.Duration
	numVisitors  int
)

var (
	examTypes   = []string{"JEE_MAINS", "JEE_ADVANCED"}
	institutes  = []string{"IIT Bombay", "NIT Trichy", "IIIT Hyderabad", "NIT Warangal"}
	counselings = []string{"JoSAA", "CSAB"}
	genders     = []string{"Gender-Neutral", "Female-only (including Supernumerary)"}
)

var httpClient = &http.Client{
	Timeout: 15 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	pflag.StringVar(&baseURL, "url", "http://127.0.0.1:8090", "gateway base url")
	pflag.IntVar(&numWorkers, "workers", 50, "concurrent workers")
	pflag.DurationVar(&testDuration, "duration", 10*time.Second, "duration of each phase")
	pflag.IntVar(&numVisitors, "visitors", 500, "distinct visitor ids")
	pflag.Parse()

	visitors := make([]string, numVisitors)
	for i := range visitors {
		visitors[i] = uuid.NewString()
	}

	fmt.Println("=== Predictor Gateway Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Visitors: %d\n\n", numWorkers, testDuration, numVisitors)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Rank queries (POST /predictions/rank) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doRank(rng, pick(rng, visitors))
	})

	fmt.Println("\n--- Phase 2: Browsing (queries, paging, filters, gate status) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		visitor := pick(rng, visitors)
		r := rng.Float64()
		switch {
		case r < 0.30:
			return doRank(rng, visitor)
		case r < 0.45:
			return doCollege(rng, visitor)
		case r < 0.70:
			return doPage(rng, visitor)
		case r < 0.85:
			return doFilters(rng, visitor)
		case r < 0.95:
			return doGet("/contact/status", visitor)
		default:
			return doGet("/predictions/current", visitor)
		}
	})

	fmt.Println("\n--- Phase 3: Unlock (POST /contact, then view-all) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		visitor := pick(rng, visitors)
		if rng.Float64() < 0.2 {
			return doContact(rng, visitor)
		}
		return doPost("/predictions/view-all", visitor, nil, http.StatusOK)
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-28s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 94))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-28s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 94))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doRank(rng *rand.Rand, visitor string) result {
	body := map[string]any{
		"rank":       rng.Intn(200000) + 1,
		"typeOfExam": pick(rng, examTypes),
		"category":   "all",
	}
	return doPost("/predictions/rank", visitor, body, http.StatusOK)
}

func doCollege(rng *rand.Rand, visitor string) result {
	body := map[string]any{
		"institute":      pick(rng, institutes),
		"counselingType": pick(rng, counselings),
	}
	return doPost("/predictions/college", visitor, body, http.StatusOK)
}

func doFilters(rng *rand.Rand, visitor string) result {
	body := map[string]any{
		"gender": pick(rng, genders),
		"round":  rng.Intn(6) + 1,
	}
	return doPost("/predictions/filters", visitor, body, http.StatusOK)
}

func doPage(rng *rand.Rand, visitor string) result {
	return doGet(fmt.Sprintf("/predictions/page?page=%d", rng.Intn(5)+1), visitor)
}

func doContact(rng *rand.Rand, visitor string) result {
	body := map[string]any{
		"firstName":    "Load",
		"emailId":      fmt.Sprintf("load%d@example.com", rng.Intn(100000)),
		"mobileNumber": fmt.Sprintf("9%09d", rng.Intn(1000000000)),
		"homeState":    "Karnataka",
		"city":         "Bengaluru",
	}
	return doPost("/contact", visitor, body, http.StatusOK)
}

// 202 means a newer request from the same visitor won, which is not an error.
func accepted(status, want int) bool {
	return status == want || status == http.StatusAccepted
}

func doPost(path, visitor string, body any, want int) result {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(http.MethodPost, baseURL+path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(visitorHeader, visitor)
	return send(req, "POST "+path, want)
}

func doGet(path, visitor string) result {
	req, _ := http.NewRequest(http.MethodGet, baseURL+path, nil)
	req.Header.Set(visitorHeader, visitor)
	endpoint := path
	if i := strings.IndexByte(path, '?'); i >= 0 {
		endpoint = path[:i]
	}
	return send(req, "GET "+endpoint, http.StatusOK)
}

func send(req *http.Request, endpoint string, want int) result {
	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, !accepted(resp.StatusCode, want)}
}

func pick(rng *rand.Rand, items []string) string {
	return items[rng.Intn(len(items))]
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
