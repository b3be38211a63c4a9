package main

const (
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"

	PriorityP0 = "P0"
	PriorityP1 = "P1"
	PriorityP2 = "P2"
	PriorityP3 = "P3"

	// Sentinel keys for records with missing labels.
	unknownKey       = "unknown"
	otherCategoryKey = "other"
)

// Sentiments and Priorities are the fixed vocabularies shared by the
// classifier, aggregator and report formatting. Order matters for rendering.
var Sentiments = []string{SentimentNegative, SentimentNeutral, SentimentPositive}

var Priorities = []string{PriorityP0, PriorityP1, PriorityP2, PriorityP3}

// KnownCategories is advisory: the classifier may emit other short labels and
// the aggregator keeps whatever it sees, bucketing empty values under "other".
var KnownCategories = []string{"bug", "feature", "performance", "ux", "docs", "billing", "other"}

// ValidSentiment reports whether s is exactly one of the taxonomy values.
// No trimming or case folding: "Negative" or " positive " are rejected so the
// classifier nulls them instead of coercing.
func ValidSentiment(s string) bool {
	for _, v := range Sentiments {
		if s == v {
			return true
		}
	}
	return false
}

func ValidPriority(p string) bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// IsUrgent reports whether a priority value marks a record as an urgent item.
func IsUrgent(priority string) bool {
	return priority == PriorityP0 || priority == PriorityP1
}
