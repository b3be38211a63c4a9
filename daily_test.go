package main

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/slack-go/slack"
)

func stubDeliver(t *testing.T, fn func(url string, msg *slack.WebhookMessage) error) {
	t.Helper()
	orig := deliverFn
	deliverFn = fn
	t.Cleanup(func() { deliverFn = orig })
}

func heuristicConfig() Config {
	return Config{
		ClassifierMode:  ClassifierModeHeuristic,
		LLMProvider:     "anthropic",
		SlackWebhookURL: "https://hooks.slack.com/services/T000/B000/XXX",
	}
}

func TestBuildAnalysisResultDistributionsAndUrgent(t *testing.T) {
	now := time.Now()
	priorities := []string{
		PriorityP0, PriorityP0,
		PriorityP1, PriorityP1, PriorityP1,
		PriorityP2, PriorityP2, PriorityP2, PriorityP2,
		PriorityP3,
	}
	var records []FeedbackRecord
	for i, p := range priorities {
		records = append(records, FeedbackRecord{
			ID: fmt.Sprintf("r%d", i), RawText: fmt.Sprintf("text %d", i),
			CreatedAt: rfc3339(now), Priority: p, Summary: fmt.Sprintf("issue %d", i),
		})
	}

	result := BuildAnalysisResult(records, defaultKeywordTable(), now)

	want := map[string]int{PriorityP0: 2, PriorityP1: 3, PriorityP2: 4, PriorityP3: 1}
	for p, n := range want {
		if result.ByPriority[p] != n {
			t.Fatalf("byPriority[%s]=%d, want %d", p, result.ByPriority[p], n)
		}
	}
	if result.UrgentCount != 5 {
		t.Fatalf("expected urgent count 5 (P0+P1), got %d", result.UrgentCount)
	}
	if len(result.UrgentItems) != 5 {
		t.Fatalf("expected 5 urgent items, got %d", len(result.UrgentItems))
	}
}

func TestBuildAnalysisResultUrgentItemsCapped(t *testing.T) {
	now := time.Now()
	var records []FeedbackRecord
	for i := 0; i < 8; i++ {
		records = append(records, FeedbackRecord{
			ID: fmt.Sprintf("u%d", i), RawText: "urgent", CreatedAt: rfc3339(now),
			Priority: PriorityP0, Summary: "same issue",
		})
	}

	result := BuildAnalysisResult(records, defaultKeywordTable(), now)
	if result.UrgentCount != 8 {
		t.Fatalf("true urgent count must be retained, got %d", result.UrgentCount)
	}
	if len(result.UrgentItems) != urgentItemsCap {
		t.Fatalf("urgent items must cap at %d, got %d", urgentItemsCap, len(result.UrgentItems))
	}
}

func TestBuildAnalysisResultTopIssueGrouping(t *testing.T) {
	now := time.Now()
	records := []FeedbackRecord{
		{ID: "1", Summary: "Checkout fails", Sentiment: SentimentNegative, CreatedAt: rfc3339(now)},
		{ID: "2", Summary: "Checkout fails", Sentiment: SentimentNegative, CreatedAt: rfc3339(now)},
		{ID: "3", Summary: "Checkout fails", Sentiment: SentimentNeutral, CreatedAt: rfc3339(now)},
		{ID: "4", Summary: "Dark mode please", Sentiment: SentimentPositive, CreatedAt: rfc3339(now)},
		{ID: "5", Summary: "Dark mode please", Sentiment: SentimentPositive, CreatedAt: rfc3339(now)},
		{ID: "6", RawText: "Unlabeled grumbling", CreatedAt: rfc3339(now)},
	}

	result := BuildAnalysisResult(records, defaultKeywordTable(), now)

	if len(result.TopIssues) != 3 {
		t.Fatalf("expected 3 issue groups, got %d: %+v", len(result.TopIssues), result.TopIssues)
	}
	top := result.TopIssues[0]
	if top.Summary != "Checkout fails" || top.Count != 3 || top.Sentiment != SentimentNegative {
		t.Fatalf("unexpected top issue: %+v", top)
	}
	second := result.TopIssues[1]
	if second.Summary != "Dark mode please" || second.Count != 2 || second.Sentiment != SentimentPositive {
		t.Fatalf("unexpected second issue: %+v", second)
	}
	// Records without a summary group under their raw text.
	if result.TopIssues[2].Summary != "Unlabeled grumbling" {
		t.Fatalf("unexpected third issue: %+v", result.TopIssues[2])
	}
}

func TestBuildAnalysisResultTopIssuesCapped(t *testing.T) {
	now := time.Now()
	var records []FeedbackRecord
	for i := 0; i < 9; i++ {
		records = append(records, FeedbackRecord{
			ID: fmt.Sprintf("i%d", i), Summary: fmt.Sprintf("distinct issue %d", i),
			CreatedAt: rfc3339(now),
		})
	}
	result := BuildAnalysisResult(records, defaultKeywordTable(), now)
	if len(result.TopIssues) != topIssuesCap {
		t.Fatalf("top issues must cap at %d, got %d", topIssuesCap, len(result.TopIssues))
	}
}

func TestRunDailyAnalysisEmptyWindow(t *testing.T) {
	db := newTestDB(t)
	stubDeliver(t, func(_ string, _ *slack.WebhookMessage) error {
		t.Fatal("delivery must not be attempted for an empty window")
		return nil
	})

	now := time.Now()
	result, err := RunDailyAnalysis(heuristicConfig(), db, defaultKeywordTable(), now)
	if err != nil {
		t.Fatalf("RunDailyAnalysis failed: %v", err)
	}
	if result.TotalFeedback != 0 {
		t.Fatalf("expected zero-valued result, got %+v", result)
	}

	logs, err := GetAnalysisLogsSince(db, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetAnalysisLogsSince failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("empty run must still write exactly one log entry, got %d", len(logs))
	}
	if logs[0].TotalFeedback != 0 || logs[0].P0Count != 0 {
		t.Fatalf("expected zero-valued log entry: %+v", logs[0])
	}
}

func TestRunDailyAnalysisDeliveryFailureStillLogs(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	insertTestRecord(t, db, FeedbackRecord{
		Source: "web", RawText: "it broke",
		CreatedAt: rfc3339(now.Add(-time.Hour)),
		Sentiment: SentimentNegative, Priority: PriorityP0, Summary: "It broke",
	})

	stubDeliver(t, func(_ string, _ *slack.WebhookMessage) error {
		return fmt.Errorf("webhook 500")
	})

	result, err := RunDailyAnalysis(heuristicConfig(), db, defaultKeywordTable(), now)
	if err != nil {
		t.Fatalf("delivery failure must not fail the run: %v", err)
	}

	logs, err := GetAnalysisLogsSince(db, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetAnalysisLogsSince failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(logs))
	}

	var stored AnalysisResult
	if err := json.Unmarshal([]byte(logs[0].Data), &stored); err != nil {
		t.Fatalf("stored data is not a serialized result: %v", err)
	}
	if stored.TotalFeedback != result.TotalFeedback || stored.UrgentCount != result.UrgentCount {
		t.Fatalf("stored result must match the computed result:\nstored: %+v\ncomputed: %+v", stored, result)
	}
	if logs[0].P0Count != 1 || logs[0].NegativeCount != 1 {
		t.Fatalf("log counts must reflect the analysis: %+v", logs[0])
	}
}

func TestRunDailyAnalysisDeliversOnce(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	insertTestRecord(t, db, FeedbackRecord{
		Source: "web", RawText: "checkout is broken",
		CreatedAt: rfc3339(now.Add(-time.Hour)),
		Priority:  PriorityP1, Summary: "Checkout broken", Sentiment: SentimentNegative,
	})

	calls := 0
	var delivered *slack.WebhookMessage
	stubDeliver(t, func(_ string, msg *slack.WebhookMessage) error {
		calls++
		delivered = msg
		return nil
	})

	if _, err := RunDailyAnalysis(heuristicConfig(), db, defaultKeywordTable(), now); err != nil {
		t.Fatalf("RunDailyAnalysis failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
	if delivered == nil || delivered.Blocks == nil {
		t.Fatalf("expected a block-formatted message")
	}
}

func TestTriggerDailyRunDedup(t *testing.T) {
	db := newTestDB(t)
	stubDeliver(t, func(_ string, _ *slack.WebhookMessage) error { return nil })

	now := time.Now()
	_, ran, err := TriggerDailyRun(heuristicConfig(), db, defaultKeywordTable(), now)
	if err != nil || !ran {
		t.Fatalf("first trigger should run: ran=%t err=%v", ran, err)
	}
	_, ran, err = TriggerDailyRun(heuristicConfig(), db, defaultKeywordTable(), now)
	if err != nil {
		t.Fatalf("second trigger errored: %v", err)
	}
	if ran {
		t.Fatalf("second trigger for the same day must be a no-op")
	}

	logs, err := GetAnalysisLogsSince(db, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetAnalysisLogsSince failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("dedup must leave exactly one log entry, got %d", len(logs))
	}
}

func TestRunDailyAnalysisUsesGenericRecommendationsOffline(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	insertTestRecord(t, db, FeedbackRecord{
		Source: "web", RawText: "slow search",
		CreatedAt: rfc3339(now.Add(-time.Hour)), Summary: "Slow search",
	})
	stubDeliver(t, func(_ string, _ *slack.WebhookMessage) error { return nil })

	result, err := RunDailyAnalysis(heuristicConfig(), db, defaultKeywordTable(), now)
	if err != nil {
		t.Fatalf("RunDailyAnalysis failed: %v", err)
	}
	if len(result.Recommendations) != 3 || result.Recommendations[0] != "Review high-priority items" {
		t.Fatalf("offline run must use the generic recommendations, got %v", result.Recommendations)
	}
}
