package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	Total   int
	Errors  int
	ByClass map[string]int
	Elapsed time.Duration
	Profile string
}

func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "profile=%s total=%d errors=%d elapsed=%s", r.Profile, r.Total, r.Errors, r.Elapsed.Round(time.Millisecond))
	for _, class := range []string{"2xx", "3xx", "4xx", "5xx", "other"} {
		if n := r.ByClass[class]; n > 0 {
			fmt.Fprintf(&b, " %s=%d", class, n)
		}
	}
	return b.String()
}

type request struct {
	method string
	path   string
	body   string
}

// Run drives synthetic traffic at the configured rate until the duration
// elapses or ctx is cancelled. Request failures count as errors; non-2xx
// statuses are recorded but are not failures, the auth profile expects its
// share of 401s.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	profile := normalizeProfile(cfg.Profile)
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("loadgen: base URL is required")
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	result := &Result{ByClass: map[string]int{}, Profile: profile}

	nextRequest := func() request {
		mu.Lock()
		defer mu.Unlock()
		return buildRequest(profile, rng)
	}
	record := func(status int, failed bool) {
		mu.Lock()
		defer mu.Unlock()
		result.Total++
		if failed {
			result.Errors++
			return
		}
		result.ByClass[classifyStatusClass(status)]++
	}

	work := make(chan request)
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(work)
		ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				select {
				case work <- nextRequest():
				case <-ctx.Done():
					return nil
				}
			}
		}
	})

	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for req := range work {
				var body io.Reader
				if req.body != "" {
					body = bytes.NewReader([]byte(req.body))
				}
				httpReq, err := http.NewRequestWithContext(ctx, req.method, baseURL+req.path, body)
				if err != nil {
					record(0, true)
					continue
				}
				if req.body != "" {
					httpReq.Header.Set("Content-Type", "application/json")
				}
				resp, err := client.Do(httpReq)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					record(0, true)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				record(resp.StatusCode, false)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

func buildRequest(profile string, rng *rand.Rand) request {
	switch profile {
	case "auth":
		return authRequest(rng)
	case "catalog":
		return catalogRequest(rng)
	default:
		if rng.Intn(2) == 0 {
			return authRequest(rng)
		}
		return catalogRequest(rng)
	}
}

func authRequest(rng *rand.Rand) request {
	switch rng.Intn(3) {
	case 0:
		email := fmt.Sprintf("load-%d@example.com", rng.Int63())
		return request{
			method: http.MethodPost,
			path:   "/api/v1/users",
			body:   fmt.Sprintf(`{"name":"Load Tester","email":%q,"password":"L0ad!tester"}`, email),
		}
	case 1:
		return request{
			method: http.MethodPost,
			path:   "/api/v1/sessions",
			body:   fmt.Sprintf(`{"email":"load-%d@example.com","password":"Wr0ng!pass"}`, rng.Int63()),
		}
	default:
		return request{method: http.MethodPatch, path: "/api/v1/token/refresh"}
	}
}

func catalogRequest(rng *rand.Rand) request {
	if rng.Intn(4) == 0 {
		return request{method: http.MethodGet, path: "/health/ready"}
	}
	return request{method: http.MethodGet, path: "/api/v1/categories"}
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

func normalizeProfile(profile string) string {
	profile = strings.ToLower(strings.TrimSpace(profile))
	switch profile {
	case "auth", "catalog", "mixed":
		return profile
	case "":
		return "mixed"
	default:
		return "mixed"
	}
}
