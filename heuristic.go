package main

import (
	"fmt"
	"strings"
)

const summaryMaxLen = 120

// HeuristicClassify is the deterministic fallback classifier: fixed keyword
// scans over the lower-cased text. It always returns a fully populated
// LabelSet, so offline and test runs still produce usable labels.
func HeuristicClassify(text string, table KeywordTable) LabelSet {
	lower := strings.ToLower(text)

	sentiment := SentimentNeutral
	if containsAny(lower, table.NegativeWords) {
		sentiment = SentimentNegative
	} else if containsAny(lower, table.PositiveWords) {
		sentiment = SentimentPositive
	}

	// Priority walks the tiers top down; the first match wins.
	priority := PriorityP3
	fromSeverity := false
	switch {
	case containsAny(lower, table.OutageWords):
		priority = PriorityP0
		fromSeverity = true
	case containsAny(lower, table.CrashWords):
		priority = PriorityP1
		fromSeverity = true
	case containsAny(lower, table.Categories["performance"]):
		priority = PriorityP1
	case containsAny(lower, table.FeatureWords):
		priority = PriorityP3
	}

	category := ""
	for _, name := range []string{"performance", "docs", "billing", "ux"} {
		if containsAny(lower, table.Categories[name]) {
			category = name
			break
		}
	}
	if category == "" {
		if fromSeverity {
			category = "bug"
		} else if containsAny(lower, table.FeatureWords) {
			category = "feature"
		} else {
			category = otherCategoryKey
		}
	}

	return LabelSet{
		Sentiment:      sentiment,
		Priority:       priority,
		Category:       category,
		Summary:        truncateSummary(text),
		PriorityReason: fmt.Sprintf("Keyword heuristic: %s sentiment, %s issue", sentiment, category),
	}
}
