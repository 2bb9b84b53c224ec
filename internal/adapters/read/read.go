package read

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	deepagent "github.com/smhanov/deepagent"
)

// maxReadBytes bounds how much of a document is pulled into memory,
// adapted from the teacher's fetch/http.go maxFetchBytes cap but raised
// for the reader contract's larger surface (PDFs, long articles) and
// enforced via io.LimitReader so a slow/huge response never blows up
// process memory regardless of the advertised Content-Length.
const maxReadBytes = 512 * 1024

// ErrUnsupportedContent is returned for binary content outside the
// supported set (spec.md 6): HTML, PDF, JSON, XML, plain text, Markdown.
var ErrUnsupportedContent = errors.New("read: unsupported content type")

// HTTPReader implements deepagent.ReaderProvider, dispatching on the
// response's Content-Type to the right text-extraction path.
type HTTPReader struct {
	client *http.Client
}

func NewHTTPReader() *HTTPReader {
	return &HTTPReader{client: &http.Client{Timeout: 20 * time.Second}}
}

func NewHTTPReaderWithClient(client *http.Client) *HTTPReader {
	return &HTTPReader{client: client}
}

func (r *HTTPReader) Read(ctx context.Context, url string) (deepagent.ReadResult, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return deepagent.ReadResult{}, deepagent.NewStepError(deepagent.KindContractViolation, "read.Read", errors.New("empty url"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
	if err != nil {
		return deepagent.ReadResult{}, deepagent.NewStepError(deepagent.KindContractViolation, "read.Read", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return deepagent.ReadResult{}, deepagent.NewStepError(deepagent.KindTransientExternal, "read.Read", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := deepagent.KindTransientExternal
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			kind = deepagent.KindPermanentExternal
		}
		return deepagent.ReadResult{}, deepagent.NewStepError(kind, "read.Read", fmt.Errorf("http %d", resp.StatusCode))
	}

	limited := io.LimitReader(resp.Body, maxReadBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return deepagent.ReadResult{}, deepagent.NewStepError(deepagent.KindTransientExternal, "read.Read", err)
	}
	truncated := len(raw) > maxReadBytes
	if truncated {
		raw = raw[:maxReadBytes]
	}

	contentType := resp.Header.Get("Content-Type")
	text, err := extractText(contentType, raw)
	if err != nil {
		return deepagent.ReadResult{}, deepagent.NewStepError(deepagent.KindPermanentExternal, "read.Read", err)
	}
	if truncated {
		text += "\n[TRUNCATED]"
	}

	return deepagent.ReadResult{
		Text:        text,
		BytesRead:   len(raw),
		Latency:     time.Since(start),
		ContentType: contentType,
	}, nil
}

// extractText dispatches on content type per spec.md 6's minimum support
// set: HTML, PDF, JSON, XML, plain text, Markdown. Only HTML and PDF get
// structural extraction; JSON, XML, plain text, Markdown and a missing
// content type are returned as text with runs of whitespace collapsed.
func extractText(contentType string, raw []byte) (string, error) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml"):
		return stripHTML(string(raw)), nil
	case strings.Contains(ct, "application/pdf"):
		return extractPDFText(raw)
	case strings.Contains(ct, "application/json"),
		strings.Contains(ct, "application/xml"), strings.Contains(ct, "text/xml"),
		strings.Contains(ct, "text/plain"), strings.Contains(ct, "text/markdown"),
		ct == "":
		return collapseWhitespace(string(raw)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}
}
