package main

import (
	"time"
	"unicode/utf8"
)

// FeedbackRecord is one piece of user feedback. CreatedAt is kept as the raw
// RFC3339 string the caller supplied; downstream consumers parse it and treat
// malformed values as "not recent" rather than failing. Label fields are empty
// strings until classification, and are never mutated after insert.
type FeedbackRecord struct {
	ID             string `json:"id"`
	Source         string `json:"source"`
	RawText        string `json:"raw_text"`
	CreatedAt      string `json:"created_at"`
	Sentiment      string `json:"sentiment,omitempty"`
	Priority       string `json:"priority,omitempty"`
	Category       string `json:"category,omitempty"`
	Summary        string `json:"summary,omitempty"`
	PriorityReason string `json:"priority_reason,omitempty"`
}

// LabelSet is the classifier output for one record. Empty string means the
// field could not be determined; callers keep whatever subset is present.
type LabelSet struct {
	Sentiment      string `json:"sentiment"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Summary        string `json:"summary"`
	PriorityReason string `json:"priority_reason"`
}

// Empty reports whether no field was determined.
func (l LabelSet) Empty() bool {
	return l.Sentiment == "" && l.Priority == "" && l.Category == "" &&
		l.Summary == "" && l.PriorityReason == ""
}

// WordCount is one entry of the ranked keyword list.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// AggregateStats is the derived dashboard payload. Every record contributes
// exactly one count to each of the three maps, so each map sums to Total.
type AggregateStats struct {
	Total       int            `json:"total"`
	ByPriority  map[string]int `json:"byPriority"`
	BySentiment map[string]int `json:"bySentiment"`
	ByCategory  map[string]int `json:"byCategory"`
	Last7Days   int            `json:"last7Days"`
	TopWords    []WordCount    `json:"topWords"`
}

// TopIssue groups records sharing identical summary text.
type TopIssue struct {
	Summary   string `json:"summary"`
	Count     int    `json:"count"`
	Sentiment string `json:"sentiment"`
}

// AnalysisResult is produced once per daily run.
type AnalysisResult struct {
	TotalFeedback   int              `json:"total_feedback"`
	ByPriority      map[string]int   `json:"by_priority"`
	BySentiment     map[string]int   `json:"by_sentiment"`
	ByCategory      map[string]int   `json:"by_category"`
	TopIssues       []TopIssue       `json:"top_issues"`
	Recommendations []string         `json:"recommendations"`
	UrgentItems     []FeedbackRecord `json:"urgent_items"`
	UrgentCount     int              `json:"urgent_count"`
}

// AnalysisLogEntry is one append-only audit row per daily run. Data holds the
// full AnalysisResult serialized as JSON.
type AnalysisLogEntry struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	TotalFeedback int       `json:"total_feedback"`
	NegativeCount int       `json:"negative_count"`
	P0Count       int       `json:"p0_count"`
	P1Count       int       `json:"p1_count"`
	Data          string    `json:"data"`
	CreatedAt     time.Time `json:"created_at"`
}

// truncateSummary caps s at summaryMaxLen characters. Counting is per rune so
// multibyte text is never cut mid-character.
func truncateSummary(s string) string {
	if utf8.RuneCountInString(s) <= summaryMaxLen {
		return s
	}
	return string([]rune(s)[:summaryMaxLen])
}

// parseCreatedAt parses a record timestamp, accepting RFC3339 with or without
// sub-second precision plus the bare ISO form some clients send.
func parseCreatedAt(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeCreatedAt returns the canonical stored form of a caller-supplied
// timestamp: UTC RFC3339, defaulting to now when absent or unparseable.
func normalizeCreatedAt(s string, now time.Time) string {
	if t, ok := parseCreatedAt(s); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return now.UTC().Format(time.RFC3339)
}
