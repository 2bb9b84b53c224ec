package read

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deepagent "github.com/smhanov/deepagent"
)

func TestStripHTMLDropsScriptStyleNav(t *testing.T) {
	raw := `<html><head><style>.x{}</style></head><body>
		<nav>Home | About</nav>
		<script>alert(1)</script>
		<p>The quick brown fox.</p>
		<footer>copyright</footer>
	</body></html>`

	text := stripHTML(raw)

	assert.Contains(t, text, "The quick brown fox.")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "copyright")
}

func TestExtractTextDispatchesByContentType(t *testing.T) {
	html, err := extractText("text/html; charset=utf-8", []byte("<p>hello</p>"))
	require.NoError(t, err)
	assert.Equal(t, "hello", html)

	plain, err := extractText("text/plain", []byte("raw text"))
	require.NoError(t, err)
	assert.Equal(t, "raw text", plain)

	_, err = extractText("image/png", []byte{0x89, 0x50})
	assert.ErrorIs(t, err, ErrUnsupportedContent)
}

func TestReadTruncatesOversizedBodies(t *testing.T) {
	big := strings.Repeat("a", maxReadBytes+1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(big))
	}))
	defer server.Close()

	reader := NewHTTPReaderWithClient(server.Client())
	result, err := reader.Read(context.Background(), server.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.BytesRead, maxReadBytes)
	assert.Contains(t, result.Text, "[TRUNCATED]")
}

func TestReadSurfacesPermanentErrorOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	reader := NewHTTPReaderWithClient(server.Client())
	_, err := reader.Read(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, deepagent.IsPermanentExternal(err))
}
