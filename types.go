package deepagent

import "github.com/smhanov/deepagent/internal/domain"

// The types below are aliases onto internal/domain so every internal
// package (persona, knowledge, evaluator, dedup) can share one definition
// of the data model (spec.md section 3) without importing the root package
// that wires them together. From the outside this package looks like it
// declares these types directly.
type (
	QuestionOrigin    = domain.QuestionOrigin
	Question          = domain.Question
	SerpQuery         = domain.SerpQuery
	WeightedQuery     = domain.WeightedQuery
	TopicCategory     = domain.TopicCategory
	URLRecord         = domain.URLRecord
	KnowledgeType     = domain.KnowledgeType
	KnowledgeItem     = domain.KnowledgeItem
	Reference         = domain.Reference
	EvaluationType    = domain.EvaluationType
	EvaluationResult  = domain.EvaluationResult
	ActionType        = domain.ActionType
	Action            = domain.Action
	ActionPermissions = domain.ActionPermissions
	AgentState        = domain.AgentState
	StateKind         = domain.StateKind
)

const (
	OriginOriginal         = domain.OriginOriginal
	OriginGapReflection    = domain.OriginGapReflection
	OriginBeastModeRewrite = domain.OriginBeastModeRewrite

	TopicFinance    = domain.TopicFinance
	TopicNews       = domain.TopicNews
	TopicTechnology = domain.TopicTechnology
	TopicScience    = domain.TopicScience
	TopicHistory    = domain.TopicHistory
	TopicOther      = domain.TopicOther

	KnowledgeQA       = domain.KnowledgeQA
	KnowledgeSideInfo = domain.KnowledgeSideInfo
	KnowledgeError    = domain.KnowledgeError

	EvalDefinitive   = domain.EvalDefinitive
	EvalFreshness    = domain.EvalFreshness
	EvalPlurality    = domain.EvalPlurality
	EvalCompleteness = domain.EvalCompleteness
	EvalStrict       = domain.EvalStrict

	ActionSearch  = domain.ActionSearch
	ActionRead    = domain.ActionRead
	ActionReflect = domain.ActionReflect
	ActionAnswer  = domain.ActionAnswer
	ActionCoding  = domain.ActionCoding

	StateProcessing = domain.StateProcessing
	StateBeastMode  = domain.StateBeastMode
	StateCompleted  = domain.StateCompleted
	StateFailed     = domain.StateFailed
)

// EvaluationOrder is the fixed pipeline order (spec.md 4.7).
var EvaluationOrder = domain.EvaluationOrder

// NewProcessing constructs the initial AgentState: Processing with step 0.
func NewProcessing(question Question) AgentState { return domain.NewProcessing(question) }

// BeastModePermissions is the fixed permission set enforced in BeastMode:
// only Answer is allowed (spec.md 4.9).
func BeastModePermissions() ActionPermissions { return domain.BeastModePermissions() }
