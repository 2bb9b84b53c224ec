package deepagent

import (
	"time"

	"go.uber.org/zap"

	"github.com/smhanov/deepagent/internal/events"
	"github.com/smhanov/deepagent/internal/persona"
)

// Option configures an Agent at construction, following the teacher's
// functional-options pattern (WithX closures over a private options
// struct) rather than a sprawling constructor argument list.
type Option func(*options)

type options struct {
	config Config
	logger *zap.Logger

	llm       LLMProvider
	search    SearchProvider
	reader    ReaderProvider
	embedder  EmbeddingProvider
	rerank    RerankProvider
	sandbox   SandboxProvider

	personas []persona.Persona
	clock    persona.Clock
	translator persona.Translator
	targetLanguage string

	bus *events.Bus
}

func defaultOptions() *options {
	return &options{
		config:         DefaultConfig(),
		logger:         zap.NewNop(),
		clock:          defaultClock,
		translator:     persona.Identity,
		targetLanguage: "en",
		bus:            events.New(),
	}
}

// WithConfig overrides the default Config.
func WithConfig(cfg Config) Option { return func(o *options) { o.config = cfg } }

// WithLogger sets the zap.Logger used for structured logging.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithLLM sets the required LLM contract implementation.
func WithLLM(p LLMProvider) Option { return func(o *options) { o.llm = p } }

// WithSearch sets the search adapter (C6).
func WithSearch(p SearchProvider) Option { return func(o *options) { o.search = p } }

// WithReader sets the reader adapter (C6).
func WithReader(p ReaderProvider) Option { return func(o *options) { o.reader = p } }

// WithEmbedder sets the embedding contract, used by the dedup gate (C5).
func WithEmbedder(p EmbeddingProvider) Option { return func(o *options) { o.embedder = p } }

// WithRerank sets the optional rerank contract.
func WithRerank(p RerankProvider) Option { return func(o *options) { o.rerank = p } }

// WithSandbox sets the sandbox contract used by the Coding action.
func WithSandbox(p SandboxProvider) Option { return func(o *options) { o.sandbox = p } }

// WithPersonas overrides the default built-in persona set.
func WithPersonas(ps []persona.Persona) Option { return func(o *options) { o.personas = ps } }

// WithClock overrides the persona clock (tests pin this).
func WithClock(c persona.Clock) Option { return func(o *options) { o.clock = c } }

// WithTranslator overrides the Globalizer persona's translation backend.
func WithTranslator(t persona.Translator, targetLanguage string) Option {
	return func(o *options) { o.translator = t; o.targetLanguage = targetLanguage }
}

// WithEventBus overrides the default event bus, useful for tests wanting
// to inspect emitted events without a live subscriber.
func WithEventBus(b *events.Bus) Option { return func(o *options) { o.bus = b } }

func defaultClock() time.Time { return time.Now() }
