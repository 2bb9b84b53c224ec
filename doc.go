// Package deepagent implements the core reasoning engine of a deep-research
// agent: given a question and a token budget, it drives an iterative loop of
// web search, page reading, reflection and answer generation, stopping when
// the answer passes a multi-dimensional evaluator or the budget runs out.
//
// The loop itself (Agent.Run) never talks to a vendor API directly. It is
// wired against small contracts — LLMProvider, EmbeddingProvider,
// SearchProvider, ReaderProvider, SandboxProvider — supplied as Options, the
// same way laconic.Agent is wired against a SearchProvider/FetchProvider/
// LLMProvider triple. Swap in real implementations (internal/adapters/...)
// or hand-rolled fakes for tests.
//
// # Basic usage
//
//	agent, err := deepagent.New(
//		"What is the boiling point of methane?",
//		deepagent.WithLLM(myLLM),
//		deepagent.WithSearch(myBrave),
//		deepagent.WithReader(myReader),
//		deepagent.WithEmbedder(myEmbedder),
//	)
//	state, err := agent.Run(ctx)
//
// The final AgentState carries the answer and references on success, or a
// failure reason and partial knowledge otherwise. Use NewRecorder to collect
// enough bookkeeping to serialize a run to the persistence format described
// by the CLI collaborator.
package deepagent
