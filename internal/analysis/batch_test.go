package analysis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/sqryxz/bonk-sentiment-bot/internal/classifier"
	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

// stubClassifier returns a canned sentiment per text, with a plausible
// probability vector for it.
type stubClassifier struct {
	bySentence map[string]models.Sentiment
	err        error
}

func (s *stubClassifier) Classify(text string) (classifier.Result, error) {
	if s.err != nil {
		return classifier.Result{}, s.err
	}
	label, ok := s.bySentence[text]
	if !ok {
		label = models.SentimentNeutral
	}
	probs := map[models.Sentiment]float64{
		models.SentimentNegative: 0.1,
		models.SentimentNeutral:  0.1,
		models.SentimentPositive: 0.1,
	}
	probs[label] = 0.8
	return classifier.Result{Label: label, Confidence: 0.8, Probabilities: probs}, nil
}

func likes(n int) models.Engagement {
	return models.Engagement{LikeCount: n}
}

func TestAnalyzer_ScenarioWeightedSentiment(t *testing.T) {
	stub := &stubClassifier{bySentence: map[string]models.Sentiment{
		"first":  models.SentimentPositive,
		"second": models.SentimentPositive,
		"third":  models.SentimentNegative,
	}}
	analyzer := NewAnalyzer(stub, 2, clockwork.NewFakeClock())

	// Engagement scores 10, 5 and 100 via the like weighting.
	items := []models.Item{
		{ID: "1", Community: "solana", Text: "first", Engagement: likes(10)},
		{ID: "2", Community: "solana", Text: "second", Engagement: likes(5)},
		{ID: "3", Community: "solana", Text: "third", Engagement: likes(100)},
	}

	summary, err := analyzer.Analyze(context.Background(), items)
	assert.NoError(t, err)

	assert.Equal(t, 3, summary.ItemCount)
	assert.Equal(t, 2, summary.SentimentDistribution[models.SentimentPositive])
	assert.Equal(t, 0, summary.SentimentDistribution[models.SentimentNeutral])
	assert.Equal(t, 1, summary.SentimentDistribution[models.SentimentNegative])

	assert.InDelta(t, 115.0, summary.TotalEngagement, 1e-9)
	assert.InDelta(t, 15.0/115.0, summary.WeightedSentiment[models.SentimentPositive], 1e-9)
	assert.InDelta(t, 0.0, summary.WeightedSentiment[models.SentimentNeutral], 1e-9)
	assert.InDelta(t, 100.0/115.0, summary.WeightedSentiment[models.SentimentNegative], 1e-9)
}

func TestAnalyzer_CountsSumToItemCount(t *testing.T) {
	stub := &stubClassifier{bySentence: map[string]models.Sentiment{}}
	analyzer := NewAnalyzer(stub, 4, clockwork.NewFakeClock())

	var items []models.Item
	for i := 0; i < 50; i++ {
		items = append(items, models.Item{
			ID:        fmt.Sprintf("%d", i),
			Community: "solana",
			Text:      fmt.Sprintf("item %d", i),
		})
	}

	summary, err := analyzer.Analyze(context.Background(), items)
	assert.NoError(t, err)

	total := 0
	for _, s := range models.Sentiments {
		total += summary.SentimentDistribution[s]
	}
	assert.Equal(t, summary.ItemCount, total)
}

func TestAnalyzer_ZeroEngagement(t *testing.T) {
	stub := &stubClassifier{bySentence: map[string]models.Sentiment{
		"happy": models.SentimentPositive,
	}}
	analyzer := NewAnalyzer(stub, 1, clockwork.NewFakeClock())

	items := []models.Item{
		{ID: "1", Community: "solana", Text: "happy"},
		{ID: "2", Community: "solana", Text: "plain"},
	}

	summary, err := analyzer.Analyze(context.Background(), items)
	assert.NoError(t, err)

	assert.Zero(t, summary.TotalEngagement)
	for _, s := range models.Sentiments {
		assert.Zero(t, summary.WeightedSentiment[s], "weighted fraction for %s must be 0, not NaN", s)
	}
}

func TestAnalyzer_EmptyBatch(t *testing.T) {
	analyzer := NewAnalyzer(&stubClassifier{}, 2, clockwork.NewFakeClock())

	summary, err := analyzer.Analyze(context.Background(), nil)
	assert.NoError(t, err)

	assert.Zero(t, summary.ItemCount)
	assert.Zero(t, summary.TotalEngagement)
	for _, s := range models.Sentiments {
		assert.Zero(t, summary.SentimentDistribution[s])
		assert.Zero(t, summary.WeightedSentiment[s])
	}
}

func TestAnalyzer_ClassifierFailureAbortsBatch(t *testing.T) {
	stub := &stubClassifier{err: classifier.ErrModelUnavailable}
	analyzer := NewAnalyzer(stub, 2, clockwork.NewFakeClock())

	items := []models.Item{{ID: "1", Community: "solana", Text: "anything"}}

	_, err := analyzer.Analyze(context.Background(), items)
	assert.ErrorIs(t, err, classifier.ErrModelUnavailable)
}

func TestAnalyzer_TimestampFromClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	analyzer := NewAnalyzer(&stubClassifier{}, 1, clock)

	summary, err := analyzer.Analyze(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, now, summary.Timestamp)
}

func TestEngagementScore(t *testing.T) {
	e := models.Engagement{Score: 10, LikeCount: 4, ReplyCount: 2}
	assert.InDelta(t, 10*2.0+4*1.0+2*1.5, EngagementScore(e), 1e-9)
}
