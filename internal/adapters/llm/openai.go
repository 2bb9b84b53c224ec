// Package llm provides a default, OpenAI-compatible implementation of C9's
// LLMProvider and EmbeddingProvider contracts.
//
// The retrieval pack this module was built from carries no ecosystem LLM
// client library — no repo imports an OpenAI, Anthropic, or Gemini SDK,
// only string literals naming those providers as configuration values
// (see DESIGN.md). Lacking a library to ground on, this adapter is built
// the way the teacher builds its own HTTP collaborators
// (fetch/http.go, search/*.go): a small *http.Client wrapper over
// encoding/json, matching the teacher's plain-net/http idiom rather than
// introducing an unfounded dependency.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	deepagent "github.com/smhanov/deepagent"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements deepagent.LLMProvider against an OpenAI-compatible
// chat-completions endpoint. Any self-hosted or third-party gateway
// exposing the same wire format (many do) can be pointed to via BaseURL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	temperature float64
}

// New constructs a Client against the public OpenAI API.
func New(apiKey, model string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		baseURL:     defaultBaseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: 0.2,
	}
}

// WithBaseURL points the client at a self-hosted or alternate gateway.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// WithTemperature overrides the sampling temperature used for both
// DecideAction and GenerateStructured calls.
func (c *Client) WithTemperature(t float64) *Client {
	c.temperature = t
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// decideActionJSON is the schema the model is asked to fill in for
// DecideAction. Only the fields relevant to Type are meaningful, mirroring
// domain.Action's own tagged-variant shape.
type decideActionJSON struct {
	Type         string   `json:"type"`
	Queries      []string `json:"queries,omitempty"`
	URLs         []string `json:"urls,omitempty"`
	GapQuestions []string `json:"gap_questions,omitempty"`
	AnswerText   string   `json:"answer_text,omitempty"`
	Code         string   `json:"code,omitempty"`
}

// DecideAction asks the model for the next action, constrained to
// allowed's permitted types via the system prompt, and parses the JSON
// response into a domain.Action. A schema mismatch surfaces as a
// StepError{Kind: ContractViolation} per spec.md 7, never a panic.
func (c *Client) DecideAction(ctx context.Context, prompt string, allowed deepagent.ActionPermissions) (deepagent.Action, deepagent.Usage, error) {
	system := fmt.Sprintf(
		"You are the planning step of a research agent. Respond with a single JSON object "+
			"{\"type\": one of %v, \"queries\": [...], \"urls\": [...], \"gap_questions\": [...], "+
			"\"answer_text\": \"...\", \"code\": \"...\"}. Only include the fields relevant to the "+
			"chosen type. Do not include any text outside the JSON object.",
		actionTypeNames(allowed),
	)

	raw, usage, err := c.chat(ctx, system, prompt, true)
	if err != nil {
		return deepagent.Action{}, usage, err
	}

	var parsed decideActionJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return deepagent.Action{}, usage, deepagent.NewStepError(deepagent.KindContractViolation, "llm.decide_action", fmt.Errorf("parsing action JSON: %w", err))
	}

	action := deepagent.Action{
		Type:         deepagent.ActionType(parsed.Type),
		Queries:      parsed.Queries,
		URLs:         parsed.URLs,
		GapQuestions: parsed.GapQuestions,
		AnswerText:   parsed.AnswerText,
		Code:         parsed.Code,
	}
	return action, usage, nil
}

// GenerateStructured asks the model for free-form text against a system
// and user prompt pair; the agent calls it from its evaluator judge
// adapter.
func (c *Client) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string) (string, deepagent.Usage, error) {
	return c.chat(ctx, systemPrompt, userPrompt, false)
}

func (c *Client) chat(ctx context.Context, system, user string, jsonMode bool) (string, deepagent.Usage, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}
	if jsonMode {
		req.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", deepagent.Usage{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", deepagent.Usage{}, fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", deepagent.Usage{}, deepagent.NewStepError(deepagent.KindTransientExternal, "llm.chat", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", deepagent.Usage{}, deepagent.NewStepError(deepagent.KindTransientExternal, "llm.chat", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", deepagent.Usage{}, deepagent.NewStepError(deepagent.KindTransientExternal, "llm.chat", fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}
	if resp.StatusCode >= 400 {
		return "", deepagent.Usage{}, deepagent.NewStepError(deepagent.KindPermanentExternal, "llm.chat", fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", deepagent.Usage{}, deepagent.NewStepError(deepagent.KindContractViolation, "llm.chat", fmt.Errorf("parsing response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", deepagent.Usage{}, deepagent.NewStepError(deepagent.KindContractViolation, "llm.chat", fmt.Errorf("no choices returned"))
	}

	usage := deepagent.Usage{
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		TotalTokens:      parsed.Usage.TotalTokens,
	}
	return parsed.Choices[0].Message.Content, usage, nil
}

func actionTypeNames(p deepagent.ActionPermissions) []string {
	names := make([]string, 0, len(p.Allowed()))
	for _, t := range p.Allowed() {
		names = append(names, string(t))
	}
	return names
}

// Embedder implements deepagent.EmbeddingProvider against an
// OpenAI-compatible embeddings endpoint.
type Embedder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimension  int
}

// NewEmbedder constructs an Embedder. dimension must match what the model
// actually returns (1536 for text-embedding-3-small, 3072 for -large);
// EmbeddingProvider.Dimension() reports this back to callers that size
// buffers ahead of time.
func NewEmbedder(apiKey, model string, dimension int) *Embedder {
	return &Embedder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		dimension:  dimension,
	}
}

// WithBaseURL points the embedder at a self-hosted or alternate gateway.
func (e *Embedder) WithBaseURL(baseURL string) *Embedder {
	e.baseURL = strings.TrimSuffix(baseURL, "/")
	return e
}

func (e *Embedder) Dimension() int { return e.dimension }

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed preserves input order per spec.md 6, regardless of the order the
// API returns entries in.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingsRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, deepagent.NewStepError(deepagent.KindTransientExternal, "embed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, deepagent.NewStepError(deepagent.KindTransientExternal, "embed", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, deepagent.NewStepError(deepagent.KindTransientExternal, "embed", fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}
	if resp.StatusCode >= 400 {
		return nil, deepagent.NewStepError(deepagent.KindPermanentExternal, "embed", fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, deepagent.NewStepError(deepagent.KindContractViolation, "embed", fmt.Errorf("parsing response: %w", err))
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
