package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/classifier"
	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

// Engagement weighting policy: an upvote-style score counts double, replies
// count 1.5x, likes count once (sources that don't separate likes report 0).
const (
	scoreWeight = 2.0
	likeWeight  = 1.0
	replyWeight = 1.5
)

// EngagementScore derives the weighted engagement of a single item.
func EngagementScore(e models.Engagement) float64 {
	return float64(e.Score)*scoreWeight + float64(e.LikeCount)*likeWeight + float64(e.ReplyCount)*replyWeight
}

// Analyzer classifies every item of a batch and reduces the results into a
// BatchSummary. Classification runs on a bounded worker pool; the reduction is
// a plain associative sum, so item order never affects the summary.
type Analyzer struct {
	classifier classifier.Classifier
	workers    int
	clock      clockwork.Clock
}

// NewAnalyzer creates an analyzer around the given classifier. workers <= 0
// defaults to the number of CPUs.
func NewAnalyzer(c classifier.Classifier, workers int, clock clockwork.Clock) *Analyzer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Analyzer{classifier: c, workers: workers, clock: clock}
}

// Analyze classifies the batch and produces its summary. A classifier failure
// aborts the whole batch: a summary built on default labels would be
// meaningless.
func (a *Analyzer) Analyze(ctx context.Context, items []models.Item) (models.BatchSummary, error) {
	classified := make([]models.ClassifiedItem, len(items))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Keep draining after a failure so the feeder never blocks.
				mu.Lock()
				failed := firstErr != nil
				mu.Unlock()
				if failed {
					continue
				}

				result, err := a.classifier.Classify(items[i].Text)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("classify item %s: %w", items[i].ID, err)
					}
					mu.Unlock()
					continue
				}
				classified[i] = models.ClassifiedItem{
					Item:            items[i],
					Sentiment:       result.Label,
					Confidence:      result.Confidence,
					Probabilities:   result.Probabilities,
					EngagementScore: EngagementScore(items[i].Engagement),
				}
			}
		}()
	}

feed:
	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return models.BatchSummary{}, err
	}
	if firstErr != nil {
		return models.BatchSummary{}, firstErr
	}

	summary := a.reduce(classified)
	logrus.Infof("Analyzed batch %s: %d items, total engagement %.1f", summary.ID, summary.ItemCount, summary.TotalEngagement)
	return summary, nil
}

func (a *Analyzer) reduce(items []models.ClassifiedItem) models.BatchSummary {
	distribution := make(map[models.Sentiment]int, len(models.Sentiments))
	engagementBySentiment := make(map[models.Sentiment]float64, len(models.Sentiments))
	weighted := make(map[models.Sentiment]float64, len(models.Sentiments))

	var totalEngagement float64
	for _, s := range models.Sentiments {
		distribution[s] = 0
		engagementBySentiment[s] = 0
	}

	for _, item := range items {
		distribution[item.Sentiment]++
		engagementBySentiment[item.Sentiment] += item.EngagementScore
		totalEngagement += item.EngagementScore
	}

	// Zero total engagement yields all-zero fractions, never a division.
	for _, s := range models.Sentiments {
		if totalEngagement > 0 {
			weighted[s] = engagementBySentiment[s] / totalEngagement
		} else {
			weighted[s] = 0
		}
	}

	return models.BatchSummary{
		ID:                    uuid.NewString(),
		Timestamp:             a.clock.Now().UTC(),
		ItemCount:             len(items),
		TotalEngagement:       totalEngagement,
		SentimentDistribution: distribution,
		WeightedSentiment:     weighted,
		Items:                 items,
	}
}
