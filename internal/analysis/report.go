package analysis

import (
	"fmt"
	"strings"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

const (
	arrowUp   = "↑"
	arrowDown = "↓"
	arrowFlat = "→"
)

// FormatReport renders a DailyReport into the fixed daily-summary text layout.
// It is pure presentation: no value is recomputed, and a well-formed report
// always renders, including the empty one.
func FormatReport(report models.DailyReport) string {
	date := report.WindowEnd.UTC().Format("2006-01-02")

	if report.TotalItems == 0 {
		return fmt.Sprintf("Daily Bonk Sentiment Summary\n%s\n\nNo data available for this period.\n", date)
	}
	if report.RelevantCount == 0 {
		return fmt.Sprintf("Daily Bonk Sentiment Summary\n%s\n\nNo Bonk-related posts found in this period.\n", date)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Daily Bonk Sentiment Summary\n%s\n\n", date)

	fmt.Fprintf(&b, "VOLUME METRICS:\n")
	fmt.Fprintf(&b, "Bonk-Related Posts/Comments: %d\n", report.RelevantCount)
	fmt.Fprintf(&b, "Average Engagement Score: %.2f\n", report.AvgEngagement)
	fmt.Fprintf(&b, "Peak Engagement Score: %.2f\n", report.MaxEngagement)
	fmt.Fprintf(&b, "Active Communities: %d\n\n", len(report.CommunityBreakdown))

	fmt.Fprintf(&b, "SENTIMENT ANALYSIS:\n")
	fmt.Fprintf(&b, "Raw Sentiment Distribution (with trend):\n")
	for _, s := range []models.Sentiment{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative} {
		fmt.Fprintf(&b, "- %s: %.1f%% %s\n", titleCase(s), report.SentimentDistribution[s]*100, trendArrow(report.Trend, s))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Engagement-Weighted Sentiment:\n")
	for _, s := range []models.Sentiment{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative} {
		fmt.Fprintf(&b, "- %s: %.1f%%\n", titleCase(s), report.WeightedSentiment[s]*100)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "KEY DISCUSSION THEMES:\n")
	for _, theme := range report.Themes {
		fmt.Fprintf(&b, "- %s: %.1f%% of discussions\n", strings.Title(theme.Name), theme.Percentage)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "COMMUNITY ACTIVITY:\n")
	fmt.Fprintf(&b, "Most Active Communities:\n")
	for _, cc := range report.CommunityBreakdown {
		fmt.Fprintf(&b, "- r/%s: %d items\n", cc.Community, cc.Count)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "TOP BONK POSTS BY ENGAGEMENT:\n")
	for i, item := range report.TopItems {
		title := item.Title
		if title == "" {
			title = truncate(item.Text, 70)
		}
		fmt.Fprintf(&b, "%d. [r/%s] %s (engagement %.1f)\n", i+1, item.Community, title, item.EngagementScore)
		fmt.Fprintf(&b, "   %s\n", item.URL)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "HOURLY ACTIVITY:\n")
	fmt.Fprintf(&b, "Peak Hours (UTC): %s\n", formatHours(report.PeakHours))

	return b.String()
}

// trendArrow renders up for a positive delta, down for negative, flat for
// zero or when the trend is unknown.
func trendArrow(trend map[models.Sentiment]float64, s models.Sentiment) string {
	if trend == nil {
		return arrowFlat
	}
	switch {
	case trend[s] > 0:
		return arrowUp
	case trend[s] < 0:
		return arrowDown
	default:
		return arrowFlat
	}
}

func titleCase(s models.Sentiment) string {
	return strings.Title(string(s))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func formatHours(hours []int) string {
	if len(hours) == 0 {
		return "none"
	}
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%02d:00", h)
	}
	return strings.Join(parts, ", ")
}
