package main

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

const (
	notifyTopIssues   = 3
	notifyRecs        = 3
	notifyUrgentItems = 3
)

// ValidateWebhookURL accepts only a Slack incoming-webhook shaped target.
// Anything else disables delivery rather than sending payloads to an
// arbitrary host.
func ValidateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("webhook url must be https, got %q", u.Scheme)
	}
	if u.Host != "hooks.slack.com" {
		return fmt.Errorf("webhook host must be hooks.slack.com, got %q", u.Host)
	}
	if !strings.HasPrefix(u.Path, "/services/") {
		return fmt.Errorf("webhook path must start with /services/, got %q", u.Path)
	}
	return nil
}

// FormatDailyMessage builds the webhook payload: header, metrics, top issues,
// recommendations, urgent items (only when any exist) and a dashboard link.
func FormatDailyMessage(result AnalysisResult, reportDate time.Time, dashboardURL string, now time.Time) *slack.WebhookMessage {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType,
			fmt.Sprintf("Daily Feedback Report — %s", reportDate.Format("Jan 2, 2006")), false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Total:* %d  |  *Negative:* %d  |  *P0:* %d  |  *P1:* %d",
				result.TotalFeedback,
				result.BySentiment[SentimentNegative],
				result.ByPriority[PriorityP0],
				result.ByPriority[PriorityP1]), false, false), nil, nil),
	}

	if len(result.TopIssues) > 0 {
		var lines []string
		for i, issue := range result.TopIssues {
			if i >= notifyTopIssues {
				break
			}
			lines = append(lines, fmt.Sprintf("• %s (%dx)", issue.Summary, issue.Count))
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
			"*Top issues*\n"+strings.Join(lines, "\n"), false, false), nil, nil))
	}

	if len(result.Recommendations) > 0 {
		var lines []string
		for i, rec := range result.Recommendations {
			if i >= notifyRecs {
				break
			}
			lines = append(lines, "• "+rec)
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
			"*Recommendations*\n"+strings.Join(lines, "\n"), false, false), nil, nil))
	}

	if result.UrgentCount > 0 {
		var lines []string
		for i, rec := range result.UrgentItems {
			if i >= notifyUrgentItems {
				break
			}
			summary := rec.Summary
			if summary == "" {
				summary = truncateSummary(rec.RawText)
			}
			lines = append(lines, fmt.Sprintf("• [%s] %s — %s, %s",
				rec.Priority, summary, rec.Source, relativeTime(rec.CreatedAt, now)))
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Urgent items (%d)*\n%s", result.UrgentCount, strings.Join(lines, "\n")), false, false), nil, nil))
	}

	if dashboardURL != "" {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("<%s|Open dashboard>", dashboardURL), false, false), nil, nil))
	}

	return &slack.WebhookMessage{
		Text:   fmt.Sprintf("Daily feedback report: %d items, %d urgent", result.TotalFeedback, result.UrgentCount),
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

// deliverFn sends one webhook message; package-level so tests can capture the
// payload without a network call.
var deliverFn = func(webhookURL string, msg *slack.WebhookMessage) error {
	return slack.PostWebhookCustomHTTP(webhookURL, outboundClient, msg)
}

// DeliverDailyReport sends the formatted message once. Errors are logged, not
// returned: delivery is at-least-once with logged failures, and a failed send
// never aborts the run.
func DeliverDailyReport(cfg Config, result AnalysisResult, reportDate time.Time, now time.Time) bool {
	if cfg.SlackWebhookURL == "" {
		log.Println("daily-report delivery skipped: webhook not configured")
		return false
	}
	msg := FormatDailyMessage(result, reportDate, cfg.DashboardURL, now)
	if err := deliverFn(cfg.SlackWebhookURL, msg); err != nil {
		log.Printf("daily-report delivery error: %v", err)
		return false
	}
	log.Printf("daily-report delivered total=%d urgent=%d", result.TotalFeedback, result.UrgentCount)
	return true
}

// relativeTime renders a record age for the urgent section.
func relativeTime(createdAt string, now time.Time) string {
	t, ok := parseCreatedAt(createdAt)
	if !ok {
		return "unknown age"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
