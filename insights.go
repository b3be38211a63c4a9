package main

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

const insightsMaxTokens = 1024
const llmErrMaxLen = 120

var genericRecommendations = []string{
	"Review high-priority items",
	"Investigate recurring issues",
	"Follow up with affected users",
}

// ComposeInsights asks the LLM for a narrative reading of the aggregate
// stats. ok=false means the section should be omitted entirely (zero records
// or no provider configured); the provider is never called in that case.
// A failed or unusable call still returns ok=true with a short user-visible
// fallback string, since a missing narrative is not a run failure.
func ComposeInsights(cfg Config, stats AggregateStats, windowLabel string) (string, bool) {
	if stats.Total == 0 || !cfg.InferenceConfigured() {
		return "", false
	}

	systemPrompt := `You are a product analyst summarizing user feedback statistics.
Write a short narrative with:
1. Key findings on sentiment and priority trends.
2. Top 3 actionable recommendations.
3. Critical-attention items, if any.
Format each section as bullet points.`

	var b strings.Builder
	fmt.Fprintf(&b, "Feedback statistics for %s:\n", windowLabel)
	fmt.Fprintf(&b, "Total records: %d\n", stats.Total)
	fmt.Fprintf(&b, "Last 7 days: %d\n", stats.Last7Days)
	b.WriteString(renderDistribution("By priority", stats.ByPriority))
	b.WriteString(renderDistribution("By sentiment", stats.BySentiment))
	b.WriteString(renderDistribution("By category", stats.ByCategory))

	raw, err := completeFn(cfg, systemPrompt, b.String(), insightsMaxTokens)
	if err != nil {
		log.Printf("insights llm error: %v", err)
		return fmt.Sprintf("Insights unavailable: %s", truncateErr(err)), true
	}

	text, ok := extractResponseText(raw)
	if !ok {
		log.Printf("insights unusable llm response size=%d", len(raw))
		return "Insights unavailable: inference service returned an unusable response", true
	}
	return text, true
}

func renderDistribution(label string, m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(label + ":\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %d\n", k, m[k])
	}
	return b.String()
}

// RecommendActions asks for 3-4 imperative actions given the top recurring
// issues. Any failure substitutes the fixed generic recommendations.
func RecommendActions(cfg Config, issues []TopIssue) []string {
	if len(issues) == 0 {
		return nil
	}
	if !cfg.InferenceConfigured() {
		return genericRecommendations
	}

	var b strings.Builder
	b.WriteString("Top recurring feedback issues:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %q (%d reports, %s sentiment)\n", issue.Summary, issue.Count, keyOr(issue.Sentiment, unknownKey))
	}
	b.WriteString("\nGive 3-4 recommended actions as a numbered list. Each action is one short imperative sentence. No other output.")

	raw, err := completeFn(cfg, "You advise a product team on acting on user feedback.", b.String(), insightsMaxTokens)
	if err != nil {
		log.Printf("recommend llm error, using generic actions: %v", err)
		return genericRecommendations
	}

	actions := parseNumberedList(raw)
	if len(actions) == 0 {
		log.Printf("recommend unusable llm response size=%d, using generic actions", len(raw))
		return genericRecommendations
	}
	if len(actions) > 4 {
		actions = actions[:4]
	}
	return actions
}

// parseNumberedList pulls the items out of a numbered or bulleted reply.
func parseNumberedList(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		orig := line
		line = strings.TrimLeft(line, "0123456789")
		if len(line) < len(orig) {
			// A bare leading number ("24 hours of downtime") is prose, not
			// a list item: the digit run must end in a delimiter.
			if !strings.HasPrefix(line, ".") && !strings.HasPrefix(line, ")") {
				continue
			}
			line = strings.TrimSpace(strings.TrimLeft(line, ".)"))
		} else if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			line = strings.TrimSpace(line[2:])
		} else {
			continue
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func truncateErr(err error) string {
	msg := err.Error()
	if len(msg) > llmErrMaxLen {
		msg = msg[:llmErrMaxLen] + "..."
	}
	return msg
}
