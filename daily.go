package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	topIssuesCap   = 5
	urgentItemsCap = 5
	dailyWindow    = 24 * time.Hour
)

// BuildAnalysisResult is the analysis stage of the daily run: distribution
// maps, top recurring issues (records grouped by identical summary text) and
// urgent items. Pure given the records, table and clock.
func BuildAnalysisResult(records []FeedbackRecord, table KeywordTable, now time.Time) AnalysisResult {
	stats := Aggregate(records, table, now)
	result := AnalysisResult{
		TotalFeedback: stats.Total,
		ByPriority:    stats.ByPriority,
		BySentiment:   stats.BySentiment,
		ByCategory:    stats.ByCategory,
		TopIssues:     []TopIssue{},
		UrgentItems:   []FeedbackRecord{},
	}

	type issueGroup struct {
		count      int
		sentiments map[string]int
		firstSeen  int
	}
	groups := make(map[string]*issueGroup)
	var keys []string
	for i, rec := range records {
		key := rec.Summary
		if key == "" {
			key = truncateSummary(rec.RawText)
		}
		g, ok := groups[key]
		if !ok {
			g = &issueGroup{sentiments: make(map[string]int), firstSeen: i}
			groups[key] = g
			keys = append(keys, key)
		}
		g.count++
		g.sentiments[keyOr(rec.Sentiment, unknownKey)]++

		if IsUrgent(rec.Priority) {
			result.UrgentCount++
			if len(result.UrgentItems) < urgentItemsCap {
				result.UrgentItems = append(result.UrgentItems, rec)
			}
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		gi, gj := groups[keys[i]], groups[keys[j]]
		if gi.count != gj.count {
			return gi.count > gj.count
		}
		return gi.firstSeen < gj.firstSeen
	})
	for _, key := range keys {
		if len(result.TopIssues) >= topIssuesCap {
			break
		}
		result.TopIssues = append(result.TopIssues, TopIssue{
			Summary:   key,
			Count:     groups[key].count,
			Sentiment: dominantSentiment(groups[key].sentiments),
		})
	}

	return result
}

func dominantSentiment(counts map[string]int) string {
	best := unknownKey
	bestCount := -1
	// Walk a fixed order so ties resolve deterministically.
	for _, s := range append(append([]string{}, Sentiments...), unknownKey) {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}

// RunDailyAnalysis executes one full run: fetch the trailing 24h window,
// analyze, compose recommendations, deliver, and always write exactly one
// audit log row. Delivery failure does not abort the run; only fetch and
// result serialization can error out before the log is written.
func RunDailyAnalysis(cfg Config, db *sql.DB, table KeywordTable, now time.Time) (AnalysisResult, error) {
	from := now.Add(-dailyWindow)
	records, err := GetFeedbackByDateRange(db, from, now)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("fetching daily window: %w", err)
	}
	log.Printf("daily-run fetched=%d window=%s..%s", len(records),
		from.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))

	result := BuildAnalysisResult(records, table, now)

	if len(result.TopIssues) > 0 {
		result.Recommendations = RecommendActions(cfg, result.TopIssues)
	}

	// Empty window: log a zero-valued result, never attempt delivery.
	if len(records) > 0 {
		DeliverDailyReport(cfg, result, now, now)
	}

	if err := writeAnalysisLog(db, result, now); err != nil {
		// The log is advisory: a failed write never rolls back the run.
		log.Printf("daily-run log write error (non-fatal): %v", err)
	}

	return result, nil
}

func writeAnalysisLog(db *sql.DB, result AnalysisResult, now time.Time) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("serializing analysis result: %w", err)
	}
	return InsertAnalysisLog(db, AnalysisLogEntry{
		Timestamp:     now.UTC(),
		TotalFeedback: result.TotalFeedback,
		NegativeCount: result.BySentiment[SentimentNegative],
		P0Count:       result.ByPriority[PriorityP0],
		P1Count:       result.ByPriority[PriorityP1],
		Data:          string(data),
	})
}

// TriggerDailyRun claims the run id for now's UTC calendar date and, when the
// claim wins, executes the run. A lost claim is a no-op: at most one run is
// created per day regardless of how many triggers fire.
func TriggerDailyRun(cfg Config, db *sql.DB, table KeywordTable, now time.Time) (AnalysisResult, bool, error) {
	runDate := utcRunDate(now)
	claimed, err := ClaimAnalysisRun(db, runDate)
	if err != nil {
		return AnalysisResult{}, false, fmt.Errorf("claiming run %s: %w", runDate, err)
	}
	if !claimed {
		log.Printf("daily-run skipped: run already claimed for %s", runDate)
		return AnalysisResult{}, false, nil
	}
	result, err := RunDailyAnalysis(cfg, db, table, now)
	return result, true, err
}

// StartDailyScheduler fires the daily run on a standard 5-field cron
// expression. Examples: "0 9 * * *" (daily 9am), "30 17 * * 1-5" (weekdays).
func StartDailyScheduler(cfg Config, db *sql.DB, table KeywordTable) {
	schedule := strings.TrimSpace(cfg.DailySchedule)
	if schedule == "" {
		log.Println("Daily analysis disabled (daily_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid daily_schedule '%s': %v, daily analysis disabled", schedule, err)
		return
	}

	log.Printf("Daily analysis scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next daily analysis at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			if _, ran, err := TriggerDailyRun(cfg, db, table, time.Now()); err != nil {
				log.Printf("Daily analysis error: %v", err)
			} else if ran {
				log.Println("Daily analysis complete")
			}
		}
	}()
}
