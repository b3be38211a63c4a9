package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

const classifyMaxTokens = 512

// Classifier assigns a LabelSet to raw feedback text. Two variants sit behind
// it: the LLM-backed classifier and the keyword heuristic, selected by the
// configured mode. Classify never returns an error; any failure degrades to
// the heuristic (mode auto/heuristic) or to an empty LabelSet (mode off or
// provider unconfigured).
type Classifier struct {
	cfg      Config
	keywords KeywordTable
}

func NewClassifier(cfg Config, keywords KeywordTable) *Classifier {
	return &Classifier{cfg: cfg, keywords: keywords}
}

func (c *Classifier) Classify(source, text string) LabelSet {
	switch {
	case c.cfg.ClassifierMode == ClassifierModeHeuristic:
		return HeuristicClassify(text, c.keywords)
	case !c.cfg.InferenceConfigured():
		// Unclassified, not an error: callers store the record unlabeled.
		return LabelSet{}
	}

	systemPrompt, userPrompt := buildClassifyPrompts(source, text)
	raw, err := completeFn(c.cfg, systemPrompt, userPrompt, classifyMaxTokens)
	if err != nil {
		log.Printf("classify llm error, using heuristic: %v", err)
		return HeuristicClassify(text, c.keywords)
	}

	labels, ok := parseClassifyResponse(raw)
	if !ok {
		log.Printf("classify unparseable llm response size=%d, using heuristic", len(raw))
		return HeuristicClassify(text, c.keywords)
	}
	return labels
}

func buildClassifyPrompts(source, text string) (string, string) {
	systemPrompt := fmt.Sprintf(`You label user feedback for a product team.
Respond with a single JSON object with exactly these keys: sentiment, priority, category, priority_reason, summary.

Allowed values:
- sentiment: %s
- priority: %s

Priority tiers:
- P0: outage, data loss, security issue, or payment failure.
- P1: a major feature is broken and blocks many users.
- P2: significant problem but a workaround exists.
- P3: minor or cosmetic issue, or a feature request.

category is a short lowercase label, typically one of: %s.
summary is at most 120 characters.
priority_reason is one sentence justifying the priority.

Respond with the JSON object only — no markdown, no commentary.`,
		strings.Join(Sentiments, ", "),
		strings.Join(Priorities, ", "),
		strings.Join(KnownCategories, ", "),
	)

	userPrompt := fmt.Sprintf("Source channel: %s\n\nFeedback:\n%s", source, text)
	return systemPrompt, userPrompt
}

type classifyPayload struct {
	Sentiment      string `json:"sentiment"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Summary        string `json:"summary"`
	PriorityReason string `json:"priority_reason"`
}

// parseClassifyResponse extracts the first JSON object from the reply and
// validates it field by field. A field failing validation is dropped, not an
// error: the record stays partially labeled. ok=false only when no object can
// be parsed at all.
func parseClassifyResponse(raw string) (LabelSet, bool) {
	obj, found := extractJSONObject(raw)
	if !found {
		return LabelSet{}, false
	}

	var payload classifyPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return LabelSet{}, false
	}

	var labels LabelSet
	if ValidSentiment(payload.Sentiment) {
		labels.Sentiment = payload.Sentiment
	}
	if ValidPriority(payload.Priority) {
		labels.Priority = payload.Priority
	}
	if v := strings.TrimSpace(payload.Category); v != "" {
		labels.Category = v
	}
	if v := strings.TrimSpace(payload.Summary); v != "" {
		labels.Summary = truncateSummary(v)
	}
	if v := strings.TrimSpace(payload.PriorityReason); v != "" {
		labels.PriorityReason = v
	}
	return labels, true
}

// applyOverrides merges caller-supplied label fields over classifier output.
// Any field the caller set wins; unset fields take the classifier value.
func applyOverrides(classified, overrides LabelSet) LabelSet {
	out := classified
	if overrides.Sentiment != "" {
		out.Sentiment = overrides.Sentiment
	}
	if overrides.Priority != "" {
		out.Priority = overrides.Priority
	}
	if overrides.Category != "" {
		out.Category = overrides.Category
	}
	if overrides.Summary != "" {
		out.Summary = overrides.Summary
	}
	if overrides.PriorityReason != "" {
		out.PriorityReason = overrides.PriorityReason
	}
	return out
}
