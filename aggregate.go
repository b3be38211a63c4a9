package main

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

const topWordsCap = 50
const trailingWindow = 7 * 24 * time.Hour

var tokenRe = regexp.MustCompile(`[a-z]{3,}`)

// Aggregate computes distribution stats over a record set. Pure function:
// no I/O, deterministic for a given input, table and clock. Empty input
// yields zero-valued stats. Records with missing labels land under the
// "unknown"/"other" sentinel keys so each map still sums to Total.
func Aggregate(records []FeedbackRecord, table KeywordTable, now time.Time) AggregateStats {
	stats := AggregateStats{
		Total:       len(records),
		ByPriority:  make(map[string]int),
		BySentiment: make(map[string]int),
		ByCategory:  make(map[string]int),
		TopWords:    []WordCount{},
	}

	cutoff := now.Add(-trailingWindow)
	stopwords := table.stopwordSet()
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, rec := range records {
		stats.ByPriority[keyOr(rec.Priority, unknownKey)]++
		stats.BySentiment[keyOr(rec.Sentiment, unknownKey)]++
		stats.ByCategory[keyOr(rec.Category, otherCategoryKey)]++

		// Malformed timestamps are simply not recent.
		if t, ok := parseCreatedAt(rec.CreatedAt); ok && t.After(cutoff) {
			stats.Last7Days++
		}

		text := rec.Summary
		if text == "" {
			text = rec.RawText
		}
		for _, token := range tokenRe.FindAllString(strings.ToLower(text), -1) {
			if stopwords[token] {
				continue
			}
			if _, seen := firstSeen[token]; !seen {
				firstSeen[token] = order
				order++
			}
			counts[token]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	// Ties keep first-occurrence order so repeated runs rank identically.
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})
	if len(words) > topWordsCap {
		words = words[:topWordsCap]
	}
	for _, w := range words {
		stats.TopWords = append(stats.TopWords, WordCount{Word: w, Count: counts[w]})
	}

	return stats
}

func keyOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
