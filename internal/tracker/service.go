package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/analysis"
	"github.com/sqryxz/bonk-sentiment-bot/internal/config"
	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
	"github.com/sqryxz/bonk-sentiment-bot/internal/notifications"
	"github.com/sqryxz/bonk-sentiment-bot/internal/sources"
	"github.com/sqryxz/bonk-sentiment-bot/internal/storage"
)

// Service drives the two pipelines: the hourly collection run (fetch →
// normalize → classify → persist) and the daily summary run (load window →
// rollup → format → deliver).
type Service struct {
	config        *config.Config
	summaries     storage.SummaryRepository
	notifications notifications.NotificationInterface
	analyzer      *analysis.Analyzer
	aggregator    *analysis.Aggregator
	sources       []sources.Source
	clock         clockwork.Clock

	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds the state of the most recent runs.
type Metrics struct {
	LastRun            time.Time      `json:"last_run"`
	LastRunDuration    string         `json:"last_run_duration"`
	LastBatchItems     int            `json:"last_batch_items"`
	SourceMetrics      map[string]int `json:"source_metrics"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
	ErrorCount         int            `json:"error_count"`
}

// NewService creates the tracker service.
func NewService(cfg *config.Config, summaries storage.SummaryRepository, notifier notifications.NotificationInterface,
	analyzer *analysis.Analyzer, aggregator *analysis.Aggregator, srcs []sources.Source, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		config:        cfg,
		summaries:     summaries,
		notifications: notifier,
		analyzer:      analyzer,
		aggregator:    aggregator,
		sources:       srcs,
		clock:         clock,
		metrics: &Metrics{
			SourceMetrics:      make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
	}
}

// RunCollection performs one collection and analysis run.
func (s *Service) RunCollection(ctx context.Context) error {
	start := s.clock.Now()
	logrus.Info("Starting collection run")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	var wg sync.WaitGroup
	itemsChan := make(chan fetchResult, len(s.sources))

	for _, source := range s.sources {
		if !source.IsEnabled() {
			logrus.Debugf("Source %s disabled, skipping", source.GetName())
			continue
		}

		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()

			logrus.Infof("Fetching items from %s (window: %v)", src.GetName(), s.config.CollectionWindow)
			items, err := src.FetchItems(ctx, s.config.CollectionWindow)
			itemsChan <- fetchResult{source: src.GetName(), items: items, err: err}
		}(source)
	}

	go func() {
		wg.Wait()
		close(itemsChan)
	}()

	var allItems []models.Item
	sourceCounts := make(map[string]int)
	errorCount := 0
	for result := range itemsChan {
		if result.err != nil {
			logrus.Errorf("Error fetching from %s: %v", result.source, result.err)
			errorCount++
			continue
		}
		logrus.Infof("Found %d items from %s", len(result.items), result.source)
		sourceCounts[result.source] = len(result.items)
		allItems = append(allItems, result.items...)
	}

	normalized := analysis.Normalize(allItems)
	if len(normalized) == 0 {
		logrus.Info("No items collected in this run")
		s.updateMetrics(models.BatchSummary{Timestamp: s.clock.Now()}, sourceCounts, s.clock.Since(start), errorCount)
		return nil
	}

	summary, err := s.analyzer.Analyze(ctx, normalized)
	if err != nil {
		return fmt.Errorf("batch analysis failed: %w", err)
	}

	if err := s.summaries.SaveSummary(ctx, summary); err != nil {
		return fmt.Errorf("failed to persist batch summary: %w", err)
	}

	s.updateMetrics(summary, sourceCounts, s.clock.Since(start), errorCount)
	logrus.Infof("Collection run completed in %v (%d items)", s.clock.Since(start), summary.ItemCount)
	return nil
}

type fetchResult struct {
	source string
	items  []models.Item
	err    error
}

// BuildDailyReport computes the report for the lookback window ending now.
// An empty window still yields a formattable zero report alongside
// analysis.ErrEmptyWindow.
func (s *Service) BuildDailyReport(ctx context.Context) (models.DailyReport, error) {
	end := s.clock.Now().UTC()
	start := end.Add(-s.config.LookbackWindow)

	// The preceding window is loaded too so the rollup can compute a trend.
	batches, err := s.summaries.ListSummaries(ctx, start.Add(-s.config.LookbackWindow), end)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("failed to load batch summaries: %w", err)
	}

	return s.aggregator.Rollup(batches, start, end)
}

// RunDailySummary builds, formats and delivers the daily report. A report
// with no data is still delivered as an explicit no-data notice.
func (s *Service) RunDailySummary(ctx context.Context) error {
	logrus.Info("Generating daily summary")

	report, err := s.BuildDailyReport(ctx)
	if err != nil && !errors.Is(err, analysis.ErrEmptyWindow) {
		return err
	}

	body := analysis.FormatReport(report)
	subject := fmt.Sprintf("Daily Bonk Sentiment Report - %s", report.WindowEnd.Format("2006-01-02"))

	if err := s.notifications.SendSummary(subject, body); err != nil {
		return fmt.Errorf("failed to deliver daily summary: %w", err)
	}

	logrus.Infof("Daily summary delivered (%d relevant items)", report.RelevantCount)
	return nil
}

func (s *Service) updateMetrics(summary models.BatchSummary, sourceCounts map[string]int, duration time.Duration, errorCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastRun = summary.Timestamp
	s.metrics.LastRunDuration = duration.String()
	s.metrics.LastBatchItems = summary.ItemCount
	s.metrics.ErrorCount = errorCount
	s.metrics.SourceMetrics = sourceCounts

	s.metrics.SentimentBreakdown = make(map[string]int)
	for sentiment, count := range summary.SentimentDistribution {
		s.metrics.SentimentBreakdown[string(sentiment)] = count
	}
}

// GetMetrics returns current metrics as JSON.
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
