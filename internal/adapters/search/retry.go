// Package search implements C6's search half: thin contract wrappers over
// external search vendors, adapted from the teacher's search/brave.go,
// search/tavily.go, and search/duckduckgo.go (rate gates, exponential
// backoff on 429) but rewired onto the deepagent.SearchProvider contract
// (SerpQuery in, SearchResult out) instead of the teacher's plain-string
// query and []SearchResult.
package search

import (
	"context"
	"net/http"
	"time"

	deepagent "github.com/smhanov/deepagent"
)

// retryOn429 issues do() up to maxAttempts times for as long as the
// response status is 429 Too Many Requests, matching the teacher's
// search/duckduckgo.go and search/tavily.go backoff loop in spirit. The
// wait starts at 1s and doubles after each 429 until it has reached 30s, so
// it can grow to 32s. Only 429 is retried: a transport error, a 5xx or any
// other status is returned from the first attempt that produces it. After
// maxAttempts 429 responses the last one is returned, its body already
// closed.
func retryOn429(ctx context.Context, maxAttempts int, do func() (*http.Response, error)) (*http.Response, error) {
	delay := time.Second
	var resp *http.Response
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err = do()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	return resp, nil
}

// classifyStatus maps an HTTP status code to the error taxonomy (spec.md
// 7): 5xx and 429 are transient, 4xx otherwise is permanent.
func classifyStatus(status int) deepagent.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		return deepagent.KindTransientExternal
	case status >= 400:
		return deepagent.KindPermanentExternal
	default:
		return deepagent.KindTransientExternal
	}
}
