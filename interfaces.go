package deepagent

import (
	"context"
	"time"
)

// LLMProvider is the LLM contract from spec.md 6: decide the next action
// given a prompt and the allowed-action set, or produce a structured
// evaluator judgment. Both operations must surface a schema mismatch as a
// typed StepError, never a parse panic — the adapter, not the core, owns
// that boundary.
type LLMProvider interface {
	// DecideAction asks the model for the next action. The returned
	// Action's Type must be one of allowed; if it is not, the caller
	// treats this as a contract violation (spec.md 7).
	DecideAction(ctx context.Context, prompt string, allowed ActionPermissions) (Action, Usage, error)

	// GenerateStructured asks the model for free-form text against a
	// system and user prompt pair. The agent uses it only for evaluator
	// verdicts (llmJudgeAdapter); answers come from DecideAction.
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error)
}

// Usage is the per-call token report fed to the budget tracker (C2).
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// EmbeddingProvider is spec.md 6's embedding contract: embed a batch of
// texts, preserving input order, at a declared dimension.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// SearchResult is one search response: a batch of snippets plus the
// observed latency of the call, per spec.md 6.
type SearchResult struct {
	Snippets    []SearchSnippet
	RawLatency  time.Duration
}

// SearchSnippet is one item within a SearchResult.
type SearchSnippet struct {
	Title   string
	URL     string
	Excerpt string
}

// SearchProvider is spec.md 6's search contract.
type SearchProvider interface {
	Search(ctx context.Context, query SerpQuery) (SearchResult, error)
}

// ReadResult is a fetched page/document, per spec.md 6.
type ReadResult struct {
	Text        string
	BytesRead   int
	Latency     time.Duration
	ContentType string
}

// ReaderProvider is spec.md 6's reader contract. Supported content types at
// minimum: HTML, PDF, JSON, XML, plain text, Markdown; text output must be
// UTF-8. Binary content outside that set may return an unsupported-content
// error; the bundled reader returns read.ErrUnsupportedContent
// (internal/adapters/read).
type ReaderProvider interface {
	Read(ctx context.Context, url string) (ReadResult, error)
}

// RerankProvider is the optional rerank operation from spec.md 4.6.
type RerankProvider interface {
	Rerank(ctx context.Context, query string, candidateURLs []string) ([]string, error)
}

// SandboxResult is the output of a Coding action, per spec.md 6.
type SandboxResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// SandboxProvider is spec.md 6's sandbox contract: execute code under
// wall-clock and memory limits. Out of scope per spec.md 1 ("the
// code-sandbox executor" is an external collaborator); the core only
// depends on this interface.
type SandboxProvider interface {
	Execute(ctx context.Context, code string) (SandboxResult, error)
}
