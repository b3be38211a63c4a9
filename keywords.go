package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordTable holds the word lists driving the heuristic classifier and the
// aggregator's stopword filter. The built-in defaults are English-only and
// deliberately ad hoc; deployments tune them via an optional yaml file.
type KeywordTable struct {
	NegativeWords []string            `yaml:"negative_words"`
	PositiveWords []string            `yaml:"positive_words"`
	OutageWords   []string            `yaml:"outage_words"`
	CrashWords    []string            `yaml:"crash_words"`
	FeatureWords  []string            `yaml:"feature_words"`
	Categories    map[string][]string `yaml:"categories"`
	Stopwords     []string            `yaml:"stopwords"`
}

func defaultKeywordTable() KeywordTable {
	return KeywordTable{
		NegativeWords: []string{
			"crash", "broken", "terrible", "awful", "hate", "bug", "error",
			"fail", "slow", "unusable", "down", "worst", "annoying",
			"frustrating", "useless", "losing",
		},
		PositiveWords: []string{
			"love", "great", "awesome", "excellent", "amazing", "perfect",
			"fantastic", "helpful", "smooth", "thanks", "wonderful",
		},
		OutageWords: []string{
			"down", "outage", "data loss", "lost data", "lost my data",
			"security", "breach", "hacked", "payment failed", "can't pay",
			"cannot pay",
		},
		CrashWords: []string{
			"crash", "blocked", "can't log", "cannot log", "broken", "stuck",
		},
		FeatureWords: []string{
			"feature", "request", "wish", "would be nice", "please add",
			"suggestion", "could you add",
		},
		Categories: map[string][]string{
			"performance": {"slow", "lag", "latency", "performance", "timeout"},
			"docs":        {"docs", "documentation", "tutorial", "guide", "readme"},
			"billing":     {"billing", "invoice", "charge", "charged", "payment", "refund", "subscription", "price"},
			"ux":          {"confusing", "ugly", "layout", "design", "hard to find", "unintuitive"},
		},
		Stopwords: []string{
			"the", "and", "for", "are", "but", "not", "you", "all", "your",
			"can", "had", "has", "have", "was", "were", "one", "our", "out",
			"this", "that", "with", "they", "them", "then", "than", "its",
			"it's", "from", "when", "will", "would", "there", "their", "what",
			"about", "which", "into", "just", "some", "very", "also", "been",
			"being", "does", "doing", "don't", "cant", "can't", "get", "got",
			"how", "too", "use", "used", "using", "still", "after", "before",
			"because", "while", "where", "who", "why", "any", "app", "more",
			"only", "other", "over", "such", "like", "need", "want", "really",
		},
	}
}

// LoadKeywordTable reads a yaml table from path. Lists present in the file
// replace the corresponding defaults; absent lists keep the built-ins, so a
// file can override just one concern.
func LoadKeywordTable(path string) (KeywordTable, error) {
	table := defaultKeywordTable()
	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("read keyword table: %w", err)
	}
	var loaded KeywordTable
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return table, fmt.Errorf("parse keyword table yaml: %w", err)
	}
	if len(loaded.NegativeWords) > 0 {
		table.NegativeWords = loaded.NegativeWords
	}
	if len(loaded.PositiveWords) > 0 {
		table.PositiveWords = loaded.PositiveWords
	}
	if len(loaded.OutageWords) > 0 {
		table.OutageWords = loaded.OutageWords
	}
	if len(loaded.CrashWords) > 0 {
		table.CrashWords = loaded.CrashWords
	}
	if len(loaded.FeatureWords) > 0 {
		table.FeatureWords = loaded.FeatureWords
	}
	if len(loaded.Categories) > 0 {
		table.Categories = loaded.Categories
	}
	if len(loaded.Stopwords) > 0 {
		table.Stopwords = loaded.Stopwords
	}
	return table, nil
}

func (t KeywordTable) stopwordSet() map[string]bool {
	set := make(map[string]bool, len(t.Stopwords))
	for _, w := range t.Stopwords {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return set
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}
