package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	deepagent "github.com/smhanov/deepagent"
)

// ddgRateLimit enforces the global 1 QPS limit DuckDuckGo's lite endpoint
// expects, adapted from the teacher's search/duckduckgo.go.
var ddgRateLimit struct {
	mu   sync.Mutex
	last time.Time
}

// DuckDuckGo implements deepagent.SearchProvider by scraping DuckDuckGo's
// HTML lite interface — no API key required.
type DuckDuckGo struct {
	client *http.Client
}

func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{client: &http.Client{Timeout: 15 * time.Second}}
}

func NewDuckDuckGoWithClient(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{client: client}
}

func (d *DuckDuckGo) Search(ctx context.Context, query deepagent.SerpQuery) (deepagent.SearchResult, error) {
	if strings.TrimSpace(query.Q) == "" {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindContractViolation, "duckduckgo.Search", errors.New("empty query"))
	}

	ddgRateLimit.mu.Lock()
	if wait := time.Until(ddgRateLimit.last.Add(time.Second)); wait > 0 {
		ddgRateLimit.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return deepagent.SearchResult{}, ctx.Err()
		}
		ddgRateLimit.mu.Lock()
	}
	ddgRateLimit.last = time.Now()
	ddgRateLimit.mu.Unlock()

	endpoint := "https://lite.duckduckgo.com/lite/"
	formData := url.Values{}
	formData.Set("q", query.Q)

	start := time.Now()
	resp, err := retryOn429(ctx, 3, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(formData.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", "Mozilla/5.0")
		return d.client.Do(req)
	})
	if err != nil {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindTransientExternal, "duckduckgo.Search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return deepagent.SearchResult{}, deepagent.NewStepError(classifyStatus(resp.StatusCode), "duckduckgo.Search", fmt.Errorf("http %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return deepagent.SearchResult{}, deepagent.NewStepError(deepagent.KindTransientExternal, "duckduckgo.Search", err)
	}

	snippets := parseHTMLResults(string(body))
	return deepagent.SearchResult{Snippets: snippets, RawLatency: time.Since(start)}, nil
}

var (
	ddgLinkPattern    = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	ddgSnippetPattern = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)
	ddgAnyLinkPattern = regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
)

func parseHTMLResults(html string) []deepagent.SearchSnippet {
	matches := ddgLinkPattern.FindAllStringSubmatch(html, -1)
	snippetMatches := ddgSnippetPattern.FindAllStringSubmatch(html, -1)

	var out []deepagent.SearchSnippet
	for i, m := range matches {
		if len(m) < 3 {
			continue
		}
		u := strings.TrimSpace(m[1])
		title := cleanHTML(m[2])
		if u == "" || title == "" {
			continue
		}
		excerpt := ""
		if i < len(snippetMatches) && len(snippetMatches[i]) > 1 {
			excerpt = cleanHTML(snippetMatches[i][1])
		}
		out = append(out, deepagent.SearchSnippet{Title: title, URL: u, Excerpt: excerpt})
		if len(out) >= 5 {
			break
		}
	}
	if len(out) == 0 {
		out = fallbackParse(html)
	}
	return out
}

func fallbackParse(html string) []deepagent.SearchSnippet {
	matches := ddgAnyLinkPattern.FindAllStringSubmatch(html, -1)
	seen := make(map[string]bool)
	var out []deepagent.SearchSnippet
	for _, m := range matches {
		if len(m) < 3 {
			continue
		}
		u := strings.TrimSpace(m[1])
		title := cleanHTML(m[2])
		if strings.Contains(u, "duckduckgo.com") || strings.HasPrefix(u, "/") || strings.HasPrefix(u, "#") || strings.HasPrefix(u, "javascript:") {
			continue
		}
		if len(title) < 5 || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, deepagent.SearchSnippet{Title: title, URL: u})
		if len(out) >= 5 {
			break
		}
	}
	return out
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func cleanHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", "\"", "&#39;", "'", "&nbsp;", " ").Replace(s)
	return strings.TrimSpace(s)
}
