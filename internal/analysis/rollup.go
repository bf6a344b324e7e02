package analysis

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

// ErrEmptyWindow signals that the requested window contains no valid batch
// summaries at all. It is distinct from a window that has data but no
// topic-relevant items, which yields a valid zero-valued report.
var ErrEmptyWindow = errors.New("no batch summaries in window")

// RelevanceFilter decides whether an item belongs to the tracked topic. It is
// an interface so a richer relevance signal can replace the keyword heuristic
// without touching the aggregation logic.
type RelevanceFilter interface {
	IsRelevant(item models.ClassifiedItem) bool
}

// KeywordRelevance matches when the item already carries the upstream
// relevance flag or when its title/text contains any configured keyword
// (case-insensitive substring).
type KeywordRelevance struct {
	keywords []string
}

var _ RelevanceFilter = (*KeywordRelevance)(nil)

func NewKeywordRelevance(keywords []string) *KeywordRelevance {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &KeywordRelevance{keywords: lowered}
}

func (f *KeywordRelevance) IsRelevant(item models.ClassifiedItem) bool {
	if item.Relevant {
		return true
	}
	content := strings.ToLower(item.Title + " " + item.Text)
	for _, keyword := range f.keywords {
		if strings.Contains(content, keyword) {
			return true
		}
	}
	return false
}

// ThemeDef names a discussion theme and the keywords that indicate it.
// Declaration order is the tie-break order for equal percentages.
type ThemeDef struct {
	Name     string
	Keywords []string
}

// DefaultThemes is the built-in theme table for crypto discussions.
var DefaultThemes = []ThemeDef{
	{Name: "price", Keywords: []string{"price", "ath", "support", "resistance", "$"}},
	{Name: "technical", Keywords: []string{"trend", "momentum", "volume", "analysis"}},
	{Name: "community", Keywords: []string{"holder", "community", "governance", "milestone"}},
	{Name: "development", Keywords: []string{"feature", "roadmap", "update", "partnership"}},
	{Name: "market", Keywords: []string{"exchange", "listing", "trading", "market"}},
}

// Aggregator merges batch summaries of a lookback window into a DailyReport.
type Aggregator struct {
	relevance RelevanceFilter
	themes    []ThemeDef
	topN      int
	// maxBatches caps how many summaries one rollup scans, newest first.
	maxBatches int
}

// NewAggregator creates an aggregator. topN <= 0 defaults to 3 ranked items;
// maxBatches <= 0 means unbounded.
func NewAggregator(relevance RelevanceFilter, themes []ThemeDef, topN, maxBatches int) *Aggregator {
	if topN <= 0 {
		topN = 3
	}
	if len(themes) == 0 {
		themes = DefaultThemes
	}
	return &Aggregator{relevance: relevance, themes: themes, topN: topN, maxBatches: maxBatches}
}

// Rollup produces the daily report for [windowStart, windowEnd). Batches that
// fall into the immediately preceding equal-length window feed the trend
// computation only. Identical inputs always produce an identical report.
//
// The averaged distributions weight each batch equally regardless of its item
// count. A flat recount would be more statistically sound, but the trend
// deltas downstream depend on this exact normalization, so it is preserved.
func (a *Aggregator) Rollup(batches []models.BatchSummary, windowStart, windowEnd time.Time) (models.DailyReport, error) {
	windowStart, windowEnd = windowStart.UTC(), windowEnd.UTC()
	report := models.DailyReport{
		WindowStart:           windowStart,
		WindowEnd:             windowEnd,
		SentimentDistribution: zeroFractions(),
		WeightedSentiment:     zeroFractions(),
		Themes:                []models.Theme{},
		TopItems:              []models.ClassifiedItem{},
		CommunityBreakdown:    []models.CommunityCount{},
		PeakHours:             []int{},
	}

	current := a.selectValid(batches, windowStart, windowEnd)
	if len(current) == 0 {
		// The window itself is empty; the zero report is still returned so
		// callers can render an explicit no-data message.
		return report, ErrEmptyWindow
	}

	var relevantItems []models.ClassifiedItem
	var relevantBatches []models.BatchSummary
	for _, batch := range current {
		report.TotalItems += batch.ItemCount
		matched := a.relevantOf(batch)
		if len(matched) == 0 {
			continue
		}
		relevantItems = append(relevantItems, matched...)
		relevantBatches = append(relevantBatches, batch)
	}

	report.RelevantCount = len(relevantItems)
	if report.RelevantCount == 0 {
		return report, nil
	}

	report.AvgEngagement, report.MaxEngagement = engagementStats(relevantBatches)
	report.SentimentDistribution = averageFractions(relevantBatches, normalizedDistribution)
	report.WeightedSentiment = averageFractions(relevantBatches, func(b models.BatchSummary) map[models.Sentiment]float64 {
		return b.WeightedSentiment
	})

	report.Trend = a.trend(report.SentimentDistribution, batches, windowStart, windowEnd)
	report.Themes = a.extractThemes(relevantItems)
	report.TopItems = topByEngagement(relevantItems, a.topN)
	report.CommunityBreakdown = communityBreakdown(relevantItems, 5)
	report.PeakHours = peakHours(relevantItems, 3)

	return report, nil
}

// selectValid picks the batches inside [start, end), newest first, skipping
// malformed summaries and applying the scan cap.
func (a *Aggregator) selectValid(batches []models.BatchSummary, start, end time.Time) []models.BatchSummary {
	var selected []models.BatchSummary
	for _, batch := range batches {
		ts := batch.Timestamp.UTC()
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		if err := validateSummary(batch); err != nil {
			logrus.Warnf("Skipping malformed batch summary %s: %v", batch.ID, err)
			continue
		}
		selected = append(selected, batch)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Timestamp.After(selected[j].Timestamp)
	})
	if a.maxBatches > 0 && len(selected) > a.maxBatches {
		selected = selected[:a.maxBatches]
	}
	return selected
}

func validateSummary(b models.BatchSummary) error {
	if b.ItemCount < 0 {
		return errors.New("negative item count")
	}
	if b.SentimentDistribution == nil || b.WeightedSentiment == nil {
		return errors.New("missing sentiment distribution")
	}
	counted := 0
	for _, s := range models.Sentiments {
		if b.SentimentDistribution[s] < 0 {
			return errors.New("negative sentiment count")
		}
		counted += b.SentimentDistribution[s]
	}
	if counted != b.ItemCount {
		return errors.New("sentiment counts do not sum to item count")
	}
	return nil
}

func (a *Aggregator) relevantOf(batch models.BatchSummary) []models.ClassifiedItem {
	var matched []models.ClassifiedItem
	for _, item := range batch.Items {
		if a.relevance.IsRelevant(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

// trend computes the per-class delta of the current window's averaged raw
// distribution against the preceding equal-length window. Nil when the
// previous window has no relevant data.
func (a *Aggregator) trend(currentDist map[models.Sentiment]float64, batches []models.BatchSummary, windowStart, windowEnd time.Time) map[models.Sentiment]float64 {
	previousStart := windowStart.Add(-windowEnd.Sub(windowStart))
	previous := a.selectValid(batches, previousStart, windowStart)

	var previousRelevant []models.BatchSummary
	for _, batch := range previous {
		if len(a.relevantOf(batch)) > 0 {
			previousRelevant = append(previousRelevant, batch)
		}
	}
	if len(previousRelevant) == 0 {
		return nil
	}

	previousDist := averageFractions(previousRelevant, normalizedDistribution)
	delta := make(map[models.Sentiment]float64, len(models.Sentiments))
	for _, s := range models.Sentiments {
		delta[s] = currentDist[s] - previousDist[s]
	}
	return delta
}

// extractThemes returns the percentage of relevant items mentioning each
// theme, descending; equal percentages keep declaration order.
func (a *Aggregator) extractThemes(items []models.ClassifiedItem) []models.Theme {
	themes := make([]models.Theme, 0, len(a.themes))
	for _, def := range a.themes {
		mentions := 0
		for _, item := range items {
			text := strings.ToLower(item.Text)
			for _, keyword := range def.Keywords {
				if strings.Contains(text, strings.ToLower(keyword)) {
					mentions++
					break
				}
			}
		}
		themes = append(themes, models.Theme{
			Name:       def.Name,
			Percentage: float64(mentions) / float64(len(items)) * 100,
		})
	}

	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].Percentage > themes[j].Percentage
	})
	return themes
}

// topByEngagement ranks items by engagement score descending; equal scores
// rank the earlier-created item first.
func topByEngagement(items []models.ClassifiedItem, n int) []models.ClassifiedItem {
	ranked := make([]models.ClassifiedItem, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].EngagementScore != ranked[j].EngagementScore {
			return ranked[i].EngagementScore > ranked[j].EngagementScore
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func communityBreakdown(items []models.ClassifiedItem, top int) []models.CommunityCount {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Community]++
	}

	breakdown := make([]models.CommunityCount, 0, len(counts))
	for community, count := range counts {
		breakdown = append(breakdown, models.CommunityCount{Community: community, Count: count})
	}

	sort.SliceStable(breakdown, func(i, j int) bool {
		if breakdown[i].Count != breakdown[j].Count {
			return breakdown[i].Count > breakdown[j].Count
		}
		return breakdown[i].Community < breakdown[j].Community
	})

	if len(breakdown) > top {
		breakdown = breakdown[:top]
	}
	return breakdown
}

// peakHours returns the UTC hours with the highest item volume, descending;
// equal volumes rank the lower hour first.
func peakHours(items []models.ClassifiedItem, top int) []int {
	var volume [24]int
	for _, item := range items {
		volume[item.CreatedAt.UTC().Hour()]++
	}

	hours := make([]int, 0, 24)
	for hour, count := range volume {
		if count > 0 {
			hours = append(hours, hour)
		}
	}

	sort.SliceStable(hours, func(i, j int) bool {
		if volume[hours[i]] != volume[hours[j]] {
			return volume[hours[i]] > volume[hours[j]]
		}
		return hours[i] < hours[j]
	})

	if len(hours) > top {
		hours = hours[:top]
	}
	return hours
}

func engagementStats(batches []models.BatchSummary) (avg, max float64) {
	var total float64
	for _, b := range batches {
		total += b.TotalEngagement
		if b.TotalEngagement > max {
			max = b.TotalEngagement
		}
	}
	return total / float64(len(batches)), max
}

// normalizedDistribution converts a batch's raw counts into fractions of its
// item count. Empty batches yield all zeros.
func normalizedDistribution(b models.BatchSummary) map[models.Sentiment]float64 {
	fractions := zeroFractions()
	if b.ItemCount == 0 {
		return fractions
	}
	for _, s := range models.Sentiments {
		fractions[s] = float64(b.SentimentDistribution[s]) / float64(b.ItemCount)
	}
	return fractions
}

// averageFractions takes the arithmetic mean of a per-batch fraction mapping,
// weighting every batch equally regardless of size.
func averageFractions(batches []models.BatchSummary, pick func(models.BatchSummary) map[models.Sentiment]float64) map[models.Sentiment]float64 {
	averaged := zeroFractions()
	if len(batches) == 0 {
		return averaged
	}
	for _, batch := range batches {
		fractions := pick(batch)
		for _, s := range models.Sentiments {
			averaged[s] += fractions[s]
		}
	}
	for _, s := range models.Sentiments {
		averaged[s] /= float64(len(batches))
	}
	return averaged
}

func zeroFractions() map[models.Sentiment]float64 {
	return map[models.Sentiment]float64{
		models.SentimentNegative: 0,
		models.SentimentNeutral:  0,
		models.SentimentPositive: 0,
	}
}
