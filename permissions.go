package deepagent

// computePermissions implements C8: a deterministic function of context
// recomputed at the top of every step (spec.md 4.8). Disabling actions
// whose preconditions cannot be met prevents infinite loops and wasted LLM
// calls.
func computePermissions(ac *AgentContext, cfg Config) ActionPermissions {
	return ActionPermissions{
		Search:  ac.Store.Count() < cfg.MaxURLsBeforeDisableSearch,
		Read:    hasUnvisitedURL(ac.Store),
		Reflect: ac.gapQuestionsAddedThisStep() <= cfg.MaxReflectPerStep,
		Answer:  ac.TotalStep() > 1 || cfg.AllowDirectAnswer,
		Coding:  cfg.EnableCoding,
	}
}

func hasUnvisitedURL(store interface{ TopNUnvisited(int) []URLRecord }) bool {
	return len(store.TopNUnvisited(1)) > 0
}
