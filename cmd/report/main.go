package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/analysis"
	"github.com/sqryxz/bonk-sentiment-bot/internal/config"
	"github.com/sqryxz/bonk-sentiment-bot/internal/storage"
)

// Renders the sentiment report for the lookback window ending now (or at
// -end) from the persisted batch summaries, without sending notifications.
func main() {
	endFlag := flag.String("end", "", "window end as RFC3339 (default: now)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}
	logrus.SetLevel(logrus.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	end := time.Now().UTC()
	if *endFlag != "" {
		end, err = time.Parse(time.RFC3339, *endFlag)
		if err != nil {
			log.Fatalf("Invalid -end value: %v", err)
		}
		end = end.UTC()
	}
	start := end.Add(-cfg.LookbackWindow)

	ctx := context.Background()
	summaries, cleanup, err := openSummaryRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer cleanup()

	batches, err := summaries.ListSummaries(ctx, start.Add(-cfg.LookbackWindow), end)
	if err != nil {
		log.Fatalf("Failed to load batch summaries: %v", err)
	}

	aggregator := analysis.NewAggregator(analysis.NewKeywordRelevance(cfg.TopicKeywords), nil, cfg.TopItems, cfg.MaxBatches)
	report, err := aggregator.Rollup(batches, start, end)
	if err != nil && !errors.Is(err, analysis.ErrEmptyWindow) {
		log.Fatalf("Failed to build report: %v", err)
	}

	fmt.Fprintln(os.Stdout, analysis.FormatReport(report))
}

func openSummaryRepository(ctx context.Context, cfg *config.Config) (storage.SummaryRepository, func(), error) {
	if cfg.DatabaseURL != "" {
		repo, err := storage.NewPostgresSummaryRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}

	if cfg.StorageAccount != "" {
		blob, err := storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewBlobSummaryRepository(blob), func() {}, nil
	}

	local, err := storage.NewLocalStorage(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewBlobSummaryRepository(local), func() {}, nil
}
