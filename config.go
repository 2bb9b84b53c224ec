package deepagent

// Config carries the numeric knobs the spec pins to a fixed default while
// still leaving them overridable, following kalambet-tbyd's
// internal/config.Config-plus-defaults() shape rather than threading a new
// functional Option through Agent for each constant.
type Config struct {
	// TokenBudget is the total token ceiling for one run. Default 1,000,000
	// per the CLI surface's documented default.
	TokenBudget int

	// BeastModeThreshold is the fraction of budget used (0..1) at which the
	// run transitions Processing -> BeastMode. Spec fixes this at 0.85.
	BeastModeThreshold float64

	// MaxReflectPerStep caps gap questions added by one Reflect action.
	// Spec.md 4.8 fixes this at 5 (the original Rust source uses 2; spec.md
	// is authoritative for this engine).
	MaxReflectPerStep int

	// MaxURLsBeforeDisableSearch disables the Search action once the URL
	// store holds this many records. Spec fixes this at 50.
	MaxURLsBeforeDisableSearch int

	// MaxURLsPerStep caps how many unvisited URLs one Read action consumes.
	// Spec fixes this at 5.
	MaxURLsPerStep int

	// MaxBeastAttempts caps forced-answer attempts in BeastMode before the
	// run transitions to Failed. Spec.md 9 leaves the exact value (>=1) to
	// the implementer; 3 gives BeastMode room to retry with a stricter
	// re-prompt without dragging out a run that has already lost its
	// budget.
	MaxBeastAttempts int

	// DedupThreshold is the cosine-similarity floor at or above which a
	// candidate query/embedding is treated as a duplicate. Spec fixes this
	// at 0.86, applied with >=, not >.
	DedupThreshold float64

	// SearchTokenScaler is carried in Config but not read by the agent loop,
	// which does not bill search calls to the token budget. Spec.md 9 notes the original source disables this scaler (fixed at
	// 1) with ambiguous intent; kept at 1 and left configurable rather than
	// guessed at.
	SearchTokenScaler float64

	// AllowDirectAnswer permits an Answer action on step 1 (spec.md 4.8's
	// "the session permits direct answer").
	AllowDirectAnswer bool

	// EnableCoding permits the Coding action for this session.
	EnableCoding bool
}

// DefaultConfig returns the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		TokenBudget:                1_000_000,
		BeastModeThreshold:         0.85,
		MaxReflectPerStep:          5,
		MaxURLsBeforeDisableSearch: 50,
		MaxURLsPerStep:             5,
		MaxBeastAttempts:           3,
		DedupThreshold:             0.86,
		SearchTokenScaler:          1.0,
		AllowDirectAnswer:          true,
		EnableCoding:               false,
	}
}
