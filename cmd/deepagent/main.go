// Command deepagent drives the core reasoning engine from the terminal:
// positional question argument, a token-budget flag, verbose logging, and
// the exit-code contract spec.md 6 fixes (0 Completed, 1 Failed, 2 invalid
// usage, 3 external-service unrecoverable error). Structured like
// codenerd's cmd/nerd: a package-level rootCmd built with cobra, flags
// bound in init, RunE doing the work.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	deepagent "github.com/smhanov/deepagent"
	"github.com/smhanov/deepagent/internal/adapters/llm"
	"github.com/smhanov/deepagent/internal/adapters/read"
	"github.com/smhanov/deepagent/internal/adapters/sandbox"
	"github.com/smhanov/deepagent/internal/adapters/search"
)

var (
	tokenBudget   int
	verbose       bool
	tuiMode       bool
	compareModes  []string
	outputPath    string
	textOutputPath string
	enableCoding  bool
	searchBackend string
	llmModel      string
	embedModel    string
)

// exit codes per spec.md 6.
const (
	exitCompleted = 0
	exitFailed    = 1
	exitUsage     = 2
	exitExternal  = 3
)

var rootCmd = &cobra.Command{
	Use:   "deepagent <question>",
	Short: "Run the deep-research reasoning engine on a single question",
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return &cobraUsageError{err}
		}
		return nil
	},
	RunE: runResearch,
}

func init() {
	rootCmd.Flags().IntVar(&tokenBudget, "budget", 1_000_000, "total token budget for the run")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug-level) logging")
	rootCmd.Flags().BoolVar(&tuiMode, "tui", false, "suppress the plain-text result printout (no TUI renderer is included)")
	rootCmd.Flags().StringSliceVar(&compareModes, "compare", nil, "named comparison configurations (accepted but not run; a warning is logged)")
	rootCmd.Flags().StringVar(&outputPath, "session-out", "", "write the session JSON to this path (nothing is written when empty)")
	rootCmd.Flags().StringVar(&textOutputPath, "log-out", "", "write the human-readable session log to this path")
	rootCmd.Flags().BoolVar(&enableCoding, "enable-coding", false, "permit the Coding action for this session")
	rootCmd.Flags().StringVar(&searchBackend, "search", "duckduckgo", "search backend: duckduckgo, brave, tavily")
	rootCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "chat model name for the LLM provider")
	rootCmd.Flags().StringVar(&embedModel, "embed-model", "text-embedding-3-small", "embedding model name")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &cobraUsageError{err}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var usageErr *cobraUsageError
		if asUsageError(err, &usageErr) {
			os.Exit(exitUsage)
		}
		var externalErr *cobraExternalError
		if asExternalError(err, &externalErr) {
			os.Exit(exitExternal)
		}
		os.Exit(exitFailed)
	}
}

// cobraUsageError marks an argument/flag-parsing failure (exit 2), since
// cobra does not tag these itself; rootCmd's Args check and flag-error hook
// wrap cobra's errors in it.
type cobraUsageError struct{ err error }

func (e *cobraUsageError) Error() string { return e.err.Error() }
func (e *cobraUsageError) Unwrap() error { return e.err }

func asUsageError(err error, target **cobraUsageError) bool {
	ue, ok := err.(*cobraUsageError)
	if ok {
		*target = ue
	}
	return ok
}

// cobraExternalError marks a run that failed because a dependency
// (search/read/LLM provider) hit an unrecoverable error, mapped to exit
// code 3 so callers can distinguish it from a plain research failure.
type cobraExternalError struct{ err error }

func (e *cobraExternalError) Error() string { return e.err.Error() }
func (e *cobraExternalError) Unwrap() error { return e.err }

func asExternalError(err error, target **cobraExternalError) bool {
	ee, ok := err.(*cobraExternalError)
	if ok {
		*target = ee
	}
	return ok
}

func runResearch(cmd *cobra.Command, args []string) error {
	question := args[0]

	logger, err := newLogger(verbose)
	if err != nil {
		return &cobraUsageError{err}
	}
	defer logger.Sync()

	apiKey := os.Getenv("DEEPAGENT_LLM_API_KEY")
	if apiKey == "" {
		return &cobraUsageError{fmt.Errorf("DEEPAGENT_LLM_API_KEY is not set")}
	}

	llmClient := llm.New(apiKey, llmModel)
	embedder := llm.NewEmbedder(apiKey, embedModel, 1536)
	reader := read.NewHTTPReader()
	sandboxExec := sandbox.New(logger)
	searchProvider, err := buildSearchProvider(searchBackend)
	if err != nil {
		return &cobraUsageError{err}
	}

	cfg := deepagent.DefaultConfig()
	cfg.TokenBudget = tokenBudget
	cfg.EnableCoding = enableCoding

	agent, err := deepagent.New(question,
		deepagent.WithLLM(llmClient),
		deepagent.WithEmbedder(embedder),
		deepagent.WithSearch(searchProvider),
		deepagent.WithReader(reader),
		deepagent.WithSandbox(sandboxExec),
		deepagent.WithLogger(logger),
		deepagent.WithConfig(cfg),
	)
	if err != nil {
		return &cobraUsageError{err}
	}

	if len(compareModes) > 0 {
		logger.Warn("--compare requested more than one configuration; only the primary configuration runs in this build", zap.Strings("requested", compareModes))
	}

	recorder := deepagent.NewRecorder(agent, question)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx := ctx
	if cfg.TokenBudget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, 30*time.Minute)
		defer cancel()
	}

	state, runErr := agent.Run(runCtx)
	session := recorder.Finish(state)

	if err := writeSession(session, outputPath, textOutputPath); err != nil {
		logger.Warn("failed to persist session", zap.Error(err))
	}

	if !tuiMode {
		printResult(state, session)
	}

	switch {
	case runErr != nil && deepagent.IsPermanentExternal(runErr):
		return &cobraExternalError{fmt.Errorf("external service unrecoverable: %w", runErr)}
	case runErr != nil && deepagent.IsFatal(runErr):
		return fmt.Errorf("fatal: %w", runErr)
	case state.Kind == deepagent.StateCompleted:
		return nil
	case state.Kind == deepagent.StateFailed:
		return fmt.Errorf("run failed: %s", state.Reason)
	}
	return fmt.Errorf("run ended in unexpected state: %s", state.String())
}

func buildSearchProvider(backend string) (deepagent.SearchProvider, error) {
	switch backend {
	case "duckduckgo":
		return search.NewDuckDuckGo(), nil
	case "brave":
		key := os.Getenv("DEEPAGENT_BRAVE_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("DEEPAGENT_BRAVE_API_KEY is not set")
		}
		return search.NewBrave(key), nil
	case "tavily":
		key := os.Getenv("DEEPAGENT_TAVILY_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("DEEPAGENT_TAVILY_API_KEY is not set")
		}
		return search.NewTavily(key, "basic"), nil
	default:
		return nil, fmt.Errorf("unknown --search backend %q", backend)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

func writeSession(session deepagent.Session, jsonPath, textPath string) error {
	if jsonPath != "" {
		data, err := json.MarshalIndent(session, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return fmt.Errorf("write session json: %w", err)
		}
	}
	if textPath != "" {
		if err := os.WriteFile(textPath, []byte(session.RenderText()), 0o644); err != nil {
			return fmt.Errorf("write session log: %w", err)
		}
	}
	return nil
}

func printResult(state deepagent.AgentState, session deepagent.Session) {
	switch state.Kind {
	case deepagent.StateCompleted:
		fmt.Println(state.Answer)
		if len(session.References) > 0 {
			fmt.Println("\nReferences:")
			for _, r := range session.References {
				fmt.Println("  " + r)
			}
		}
	case deepagent.StateFailed:
		fmt.Fprintf(os.Stderr, "failed: %s\n", state.Reason)
	}
}
