package deepagent

import (
	"regexp"
	"strings"
)

// topicKeywords buckets a question into a TopicCategory for the Freshness
// evaluator's threshold lookup and the Globalizer persona's region hint
// (spec.md 4.4, 4.7). Grounded on the same deterministic
// keyword-and-structure style internal/evaluator's required.go uses for
// determine_required_evaluations, rather than an LLM call, since topic
// classification here only needs to be a coarse bucket.
var topicKeywords = map[TopicCategory]*regexp.Regexp{
	TopicFinance:    regexp.MustCompile(`(?i)\b(stock|market|price|earnings|revenue|inflation|interest rate|currency|crypto|bond|dividend)\b`),
	TopicNews:       regexp.MustCompile(`(?i)\b(breaking|today|yesterday|announced|election|headline)\b`),
	TopicTechnology: regexp.MustCompile(`(?i)\b(software|hardware|ai|algorithm|programming|framework|library|api|chip|processor)\b`),
	TopicScience:    regexp.MustCompile(`(?i)\b(research|study|hypothesis|experiment|physics|chemistry|biology|astronomy)\b`),
	TopicHistory:    regexp.MustCompile(`(?i)\b(history|historical|century|ancient|dynasty|war of|founded in)\b`),
}

// classifyTopic returns the first matching category in a fixed priority
// order, or TopicOther if nothing matches.
func classifyTopic(question string) TopicCategory {
	q := strings.TrimSpace(question)
	for _, topic := range []TopicCategory{TopicFinance, TopicNews, TopicTechnology, TopicScience, TopicHistory} {
		if topicKeywords[topic].MatchString(q) {
			return topic
		}
	}
	return TopicOther
}
