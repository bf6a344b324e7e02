package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sqryxz/bonk-sentiment-bot/internal/analysis"
	"github.com/sqryxz/bonk-sentiment-bot/internal/classifier"
	"github.com/sqryxz/bonk-sentiment-bot/internal/config"
	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
	"github.com/sqryxz/bonk-sentiment-bot/internal/sources"
)

type mockSummaryRepo struct {
	mock.Mock
}

func (m *mockSummaryRepo) SaveSummary(ctx context.Context, summary models.BatchSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *mockSummaryRepo) ListSummaries(ctx context.Context, start, end time.Time) ([]models.BatchSummary, error) {
	args := m.Called(ctx, start, end)
	if batches := args.Get(0); batches != nil {
		return batches.([]models.BatchSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendSummary(subject, body string) error {
	args := m.Called(subject, body)
	return args.Error(0)
}

type stubSource struct {
	name    string
	enabled bool
	items   []models.Item
	err     error
}

func (s *stubSource) GetName() string { return s.name }
func (s *stubSource) IsEnabled() bool { return s.enabled }
func (s *stubSource) FetchItems(ctx context.Context, window time.Duration) ([]models.Item, error) {
	return s.items, s.err
}

type neutralClassifier struct{}

func (neutralClassifier) Classify(text string) (classifier.Result, error) {
	return classifier.Result{
		Label:      models.SentimentNeutral,
		Confidence: 1,
		Probabilities: map[models.Sentiment]float64{
			models.SentimentNegative: 0,
			models.SentimentNeutral:  1,
			models.SentimentPositive: 0,
		},
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		TopicKeywords:    []string{"bonk"},
		CollectionWindow: time.Hour,
		LookbackWindow:   24 * time.Hour,
		TopItems:         3,
	}
}

func testItem(id string) models.Item {
	return models.Item{
		ID:        id,
		Kind:      models.KindPost,
		Title:     "bonk update",
		Text:      "bonk is moving",
		Community: "solana",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Relevant:  true,
	}
}

func newTestService(repo *mockSummaryRepo, notifier *mockNotifier, srcs []*stubSource, clock clockwork.Clock) *Service {
	cfg := testConfig()
	analyzer := analysis.NewAnalyzer(neutralClassifier{}, 2, clock)
	aggregator := analysis.NewAggregator(analysis.NewKeywordRelevance(cfg.TopicKeywords), nil, cfg.TopItems, 0)

	srcList := make([]sources.Source, 0, len(srcs))
	for _, s := range srcs {
		srcList = append(srcList, s)
	}
	return NewService(cfg, repo, notifier, analyzer, aggregator, srcList, clock)
}

func TestRunCollection_PersistsSummary(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC))
	repo := new(mockSummaryRepo)
	notifier := new(mockNotifier)

	repo.On("SaveSummary", mock.Anything, mock.MatchedBy(func(s models.BatchSummary) bool {
		return s.ItemCount == 2
	})).Return(nil)

	svc := newTestService(repo, notifier, []*stubSource{
		{name: "reddit", enabled: true, items: []models.Item{testItem("a"), testItem("b")}},
	}, clock)

	err := svc.RunCollection(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRunCollection_NoItemsSkipsPersistence(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC))
	repo := new(mockSummaryRepo)
	notifier := new(mockNotifier)

	svc := newTestService(repo, notifier, []*stubSource{
		{name: "reddit", enabled: true},
	}, clock)

	err := svc.RunCollection(context.Background())
	require.NoError(t, err)
	repo.AssertNotCalled(t, "SaveSummary", mock.Anything, mock.Anything)
}

func TestRunCollection_FailingSourceDoesNotBlockOthers(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC))
	repo := new(mockSummaryRepo)
	notifier := new(mockNotifier)

	repo.On("SaveSummary", mock.Anything, mock.MatchedBy(func(s models.BatchSummary) bool {
		return s.ItemCount == 1
	})).Return(nil)

	svc := newTestService(repo, notifier, []*stubSource{
		{name: "twitter", enabled: true, err: fmt.Errorf("rate limited")},
		{name: "reddit", enabled: true, items: []models.Item{testItem("a")}},
	}, clock)

	err := svc.RunCollection(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)

	assert.Contains(t, svc.GetMetrics(), `"error_count": 1`)
}

func TestRunCollection_DisabledSourcesSkipped(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC))
	repo := new(mockSummaryRepo)
	notifier := new(mockNotifier)

	svc := newTestService(repo, notifier, []*stubSource{
		{name: "twitter", enabled: false, items: []models.Item{testItem("a")}},
	}, clock)

	err := svc.RunCollection(context.Background())
	require.NoError(t, err)
	repo.AssertNotCalled(t, "SaveSummary", mock.Anything, mock.Anything)
}

func TestRunDailySummary_DeliversReport(t *testing.T) {
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	repo := new(mockSummaryRepo)
	notifier := new(mockNotifier)

	batch := models.BatchSummary{
		ID:        "b1",
		Timestamp: now.Add(-2 * time.Hour),
		ItemCount: 1,
		SentimentDistribution: map[models.Sentiment]int{
			models.SentimentNegative: 0,
			models.SentimentNeutral:  0,
			models.SentimentPositive: 1,
		},
		WeightedSentiment: map[models.Sentiment]float64{
			models.SentimentNegative: 0,
			models.SentimentNeutral:  0,
			models.SentimentPositive: 1,
		},
		TotalEngagement: 10,
		Items: []models.ClassifiedItem{{
			Item:            testItem("a"),
			Sentiment:       models.SentimentPositive,
			Confidence:      0.9,
			EngagementScore: 10,
		}},
	}

	// The repository window spans two lookbacks so the rollup can compute a
	// trend against the previous day.
	repo.On("ListSummaries", mock.Anything, now.Add(-48*time.Hour), now).
		Return([]models.BatchSummary{batch}, nil)
	notifier.On("SendSummary", "Daily Bonk Sentiment Report - 2025-06-02", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "Daily Bonk Sentiment Summary")
	})).Return(nil)

	svc := newTestService(repo, notifier, nil, clock)

	err := svc.RunDailySummary(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestRunDailySummary_EmptyWindowStillDelivered(t *testing.T) {
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	repo := new(mockSummaryRepo)
	notifier := new(mockNotifier)

	repo.On("ListSummaries", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.BatchSummary{}, nil)

	var delivered string
	notifier.On("SendSummary", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		delivered = args.String(1)
	}).Return(nil)

	svc := newTestService(repo, notifier, nil, clock)

	err := svc.RunDailySummary(context.Background())
	require.NoError(t, err)
	assert.Contains(t, delivered, "No data available for this period.")
}

func TestRunDailySummary_RepositoryErrorPropagates(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	repo := new(mockSummaryRepo)
	notifier := new(mockNotifier)

	repo.On("ListSummaries", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("storage offline"))

	svc := newTestService(repo, notifier, nil, clock)

	err := svc.RunDailySummary(context.Background())
	require.Error(t, err)
	notifier.AssertNotCalled(t, "SendSummary", mock.Anything, mock.Anything)
}

func TestGetMetrics_ReflectsLastRun(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC))
	repo := new(mockSummaryRepo)
	notifier := new(mockNotifier)

	repo.On("SaveSummary", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, notifier, []*stubSource{
		{name: "reddit", enabled: true, items: []models.Item{testItem("a")}},
	}, clock)

	require.NoError(t, svc.RunCollection(context.Background()))

	metrics := svc.GetMetrics()
	assert.Contains(t, metrics, `"last_batch_items": 1`)
	assert.Contains(t, metrics, `"neutral": 1`)
}
