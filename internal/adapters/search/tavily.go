package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	deepagent "github.com/smhanov/deepagent"
)

// Tavily implements deepagent.SearchProvider against the Tavily API,
// adapted from the teacher's search/tavily.go.
type Tavily struct {
	APIKey string
	Depth  string
	client *http.Client
}

// NewTavily constructs a Tavily search provider.
func NewTavily(apiKey, depth string) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{APIKey: apiKey, Depth: depth, client: &http.Client{Timeout: 10 * time.Second}}
}

// NewTavilyWithClient allows overriding the HTTP client.
func NewTavilyWithClient(apiKey, depth string, client *http.Client) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{APIKey: apiKey, Depth: depth, client: client}
}

func (t *Tavily) Search(ctx context.Context, query deepagent.SerpQuery) (deepagent.SearchResult, error) {
	if t.APIKey == "" {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindFatal, "tavily.Search", errors.New("missing API key"))
	}

	body := map[string]any{"query": query.Q, "api_key": t.APIKey, "depth": t.Depth}
	if query.TBS != "" {
		body["time_range"] = query.TBS
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return deepagent.SearchResult{}, err
	}

	start := time.Now()
	resp, err := retryOn429(ctx, 3, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.tavily.com/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return t.client.Do(req)
	})
	if err != nil {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindTransientExternal, "tavily.Search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return deepagent.SearchResult{}, deepagent.NewStepError(classifyStatus(resp.StatusCode), "tavily.Search", fmt.Errorf("http %d", resp.StatusCode))
	}

	var response struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindContractViolation, "tavily.Search", err)
	}

	snippets := make([]deepagent.SearchSnippet, 0, len(response.Results))
	for _, r := range response.Results {
		snippets = append(snippets, deepagent.SearchSnippet{Title: r.Title, URL: r.URL, Excerpt: r.Content})
	}
	return deepagent.SearchResult{Snippets: snippets, RawLatency: time.Since(start)}, nil
}
