package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	deepagent "github.com/smhanov/deepagent"
)

// braveKeyGate holds a per-API-key mutex and the earliest time the next
// request may fire, adapted from the teacher's search/brave.go so multiple
// Brave instances sharing a key still respect Brave's 1 req/s limit.
type braveKeyGate struct {
	mu      sync.Mutex
	readyAt time.Time
}

var (
	braveGatesMu sync.Mutex
	braveGates   = map[string]*braveKeyGate{}
)

func braveGateFor(apiKey string) *braveKeyGate {
	braveGatesMu.Lock()
	defer braveGatesMu.Unlock()
	g, ok := braveGates[apiKey]
	if !ok {
		g = &braveKeyGate{}
		braveGates[apiKey] = g
	}
	return g
}

func (g *braveKeyGate) waitAndLock(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	if wait := g.readyAt.Sub(now); wait > 0 {
		g.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		g.mu.Lock()
	}
	return nil
}

func (g *braveKeyGate) unlock(nextDelay time.Duration) {
	g.readyAt = time.Now().Add(nextDelay)
	g.mu.Unlock()
}

// Brave implements deepagent.SearchProvider against the Brave Search API.
type Brave struct {
	APIKey string
	client *http.Client
}

// NewBrave builds a Brave search provider with a 10s timeout.
func NewBrave(apiKey string) *Brave {
	return &Brave{APIKey: apiKey, client: &http.Client{Timeout: 10 * time.Second}}
}

// NewBraveWithClient allows overriding the HTTP client (tests, custom
// timeouts).
func NewBraveWithClient(apiKey string, client *http.Client) *Brave {
	return &Brave{APIKey: apiKey, client: client}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search issues a rate-gated, retried Brave search for query.
func (b *Brave) Search(ctx context.Context, query deepagent.SerpQuery) (deepagent.SearchResult, error) {
	if b.APIKey == "" {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindFatal, "brave.Search", errors.New("missing API key"))
	}
	if query.Q == "" {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindContractViolation, "brave.Search", errors.New("empty query"))
	}

	gate := braveGateFor(b.APIKey)
	if err := gate.waitAndLock(ctx); err != nil {
		return deepagent.SearchResult{}, err
	}

	endpoint := "https://api.search.brave.com/res/v1/web/search?q=" + url.QueryEscape(query.Q)
	start := time.Now()
	resp, err := retryOn429(ctx, 3, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Subscription-Token", b.APIKey)
		req.Header.Set("Accept", "application/json")
		return b.client.Do(req)
	})
	if err != nil {
		gate.unlock(time.Second)
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindTransientExternal, "brave.Search", err)
	}
	defer resp.Body.Close()

	nextDelay := braveNextDelay(resp)
	gate.unlock(nextDelay)

	if resp.StatusCode != http.StatusOK {
		return deepagent.SearchResult{}, deepagent.NewStepError(classifyStatus(resp.StatusCode), "brave.Search", fmt.Errorf("http %d", resp.StatusCode))
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindContractViolation, "brave.Search", err)
	}

	snippets := make([]deepagent.SearchSnippet, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		snippets = append(snippets, deepagent.SearchSnippet{Title: r.Title, URL: r.URL, Excerpt: r.Description})
	}
	return deepagent.SearchResult{Snippets: snippets, RawLatency: time.Since(start)}, nil
}

// braveNextDelay reads X-RateLimit-Reset/Remaining to pace the next call.
func braveNextDelay(resp *http.Response) time.Duration {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	reset := resp.Header.Get("X-RateLimit-Reset")
	if remaining == "0" && reset != "" {
		if secs, err := strconv.Atoi(reset); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}
