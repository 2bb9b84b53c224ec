package domain

import "fmt"

// StateKind is the closed set of AgentState variants.
type StateKind string

const (
	StateProcessing StateKind = "processing"
	StateBeastMode  StateKind = "beast_mode"
	StateCompleted  StateKind = "completed"
	StateFailed     StateKind = "failed"
)

// AgentState is a tagged variant over the four StateKind payloads, mirroring
// spec.md's data model rather than four separate structs behind an
// interface. Only the fields relevant to Kind are meaningful.
type AgentState struct {
	Kind StateKind

	// Processing
	Step            int
	TotalStep       int
	CurrentQuestion Question
	BudgetUsed      float64

	// BeastMode
	Attempts     int
	LastFailure  string

	// Completed
	Answer     string
	References []Reference
	Trivial    bool

	// Failed
	Reason          string
	PartialKnowledge []KnowledgeItem
}

// NewProcessing constructs the initial state: Processing with step 0.
func NewProcessing(question Question) AgentState {
	return AgentState{Kind: StateProcessing, Step: 0, TotalStep: 0, CurrentQuestion: question}
}

// IsTerminal reports whether the state is Completed or Failed.
func (s AgentState) IsTerminal() bool {
	return s.Kind == StateCompleted || s.Kind == StateFailed
}

// IsProcessing reports whether the state is Processing.
func (s AgentState) IsProcessing() bool { return s.Kind == StateProcessing }

// IsBeastMode reports whether the state is BeastMode.
func (s AgentState) IsBeastMode() bool { return s.Kind == StateBeastMode }

// CanTransitionTo reports whether s -> target is one of the six transitions
// spec.md 3 enumerates exhaustively:
//
//	Processing -> Processing
//	Processing -> BeastMode
//	Processing -> Completed
//	BeastMode  -> BeastMode
//	BeastMode  -> Completed
//	BeastMode  -> Failed
func (s AgentState) CanTransitionTo(target StateKind) bool {
	switch s.Kind {
	case StateProcessing:
		switch target {
		case StateProcessing, StateBeastMode, StateCompleted:
			return true
		}
	case StateBeastMode:
		switch target {
		case StateBeastMode, StateCompleted, StateFailed:
			return true
		}
	}
	return false
}

func (s AgentState) String() string {
	switch s.Kind {
	case StateProcessing:
		return fmt.Sprintf("Processing{step=%d, total_step=%d, budget_used=%.3f}", s.Step, s.TotalStep, s.BudgetUsed)
	case StateBeastMode:
		return fmt.Sprintf("BeastMode{attempts=%d, last_failure=%q}", s.Attempts, s.LastFailure)
	case StateCompleted:
		return fmt.Sprintf("Completed{trivial=%v, references=%d}", s.Trivial, len(s.References))
	case StateFailed:
		return fmt.Sprintf("Failed{reason=%q}", s.Reason)
	default:
		return "Unknown"
	}
}
