package deepagent

import (
	"fmt"
	"strings"
)

// systemPrompt is fixed for the whole run: it names the allowed action
// vocabulary and the contract the LLM must honor, mirroring the teacher's
// plannerSystemPrompt/synthesizerSystemPrompt constants but generalized to
// this engine's five actions instead of laconic's two.
const systemPrompt = "You are a research agent working through a question step by step. " +
	"Each turn you must emit exactly one action, chosen only from the allowed set given to you. " +
	"Ground every claim in collected knowledge; never answer from unstated internal knowledge when search or read is available. " +
	"An action's parameters must match its type: queries for search, urls for read, gap_questions for reflect, answer text and references for answer, code for coding."

// buildStepPrompt renders the per-step prompt from {Original question,
// current question, knowledge, diary, permissions}, per spec.md 4.9 step 3.
func buildStepPrompt(ac *AgentContext, current Question, perms ActionPermissions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original question: %s\n", ac.Original.Text)
	if current.Text != ac.Original.Text {
		fmt.Fprintf(&b, "Current question (%s): %s\n", current.Origin, current.Text)
	}
	fmt.Fprintf(&b, "\nAllowed actions: %s\n", allowedActionNames(perms))
	b.WriteString("\nKnowledge collected so far:\n")
	b.WriteString(ac.Store.FormatForPrompt())
	b.WriteString("\n\nDiary:\n")
	b.WriteString(ac.Diary.FormatForPrompt())
	return b.String()
}

// buildStrictStepPrompt renders the re-prompt issued after a contract
// violation (spec.md 7): the previous attempt's problem is stated plainly
// and the allowed-action vocabulary is repeated with no room for freelance
// fields, since the model already had its one chance at the relaxed prompt.
func buildStrictStepPrompt(ac *AgentContext, current Question, perms ActionPermissions, violation string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your previous response was rejected: %s\n", violation)
	fmt.Fprintf(&b, "You must respond with exactly one action from this allowed set, matching its schema exactly: %s\n\n", allowedActionNames(perms))
	b.WriteString(buildStepPrompt(ac, current, perms))
	return b.String()
}

func allowedActionNames(perms ActionPermissions) string {
	names := make([]string, 0, 5)
	for _, t := range perms.Allowed() {
		names = append(names, string(t))
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

// beastModeSystemPrompt is used once the run has exhausted its normal
// budget: elevated temperature is the adapter's concern (the model name and
// temperature are LLMProvider construction parameters, per spec.md 6), this
// prompt just states the constraint.
const beastModeSystemPrompt = "Budget is nearly exhausted. Produce the best possible final answer from the knowledge already collected. " +
	"Do not ask for more search or reading time; none remains. State uncertainty plainly rather than fabricating specifics."

func buildBeastModePrompt(ac *AgentContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original question: %s\n\n", ac.Original.Text)
	b.WriteString("Knowledge collected so far:\n")
	b.WriteString(ac.Store.FormatForPrompt())
	return b.String()
}
