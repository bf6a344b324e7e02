package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

const (
	summaryPrefix  = "summaries/"
	summaryTimeFmt = "20060102T150405Z"
)

// SummaryRepository persists batch summaries and lists them back by window.
// A persisted document that no longer decodes is skipped with a warning, so
// one bad record never poisons a rollup.
type SummaryRepository interface {
	SaveSummary(ctx context.Context, summary models.BatchSummary) error
	ListSummaries(ctx context.Context, start, end time.Time) ([]models.BatchSummary, error)
}

// BlobSummaryRepository stores each summary as one JSON document named by its
// timestamp, on top of any StorageInterface backend.
type BlobSummaryRepository struct {
	storage StorageInterface
}

var _ SummaryRepository = (*BlobSummaryRepository)(nil)

func NewBlobSummaryRepository(storage StorageInterface) *BlobSummaryRepository {
	return &BlobSummaryRepository{storage: storage}
}

func summaryFilename(summary models.BatchSummary) string {
	return fmt.Sprintf("%s%s-%s.json", summaryPrefix, summary.Timestamp.UTC().Format(summaryTimeFmt), summary.ID)
}

func (r *BlobSummaryRepository) SaveSummary(_ context.Context, summary models.BatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal batch summary: %w", err)
	}
	return r.storage.Store(summaryFilename(summary), data)
}

func (r *BlobSummaryRepository) ListSummaries(_ context.Context, start, end time.Time) ([]models.BatchSummary, error) {
	names, err := r.storage.List(summaryPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	var summaries []models.BatchSummary
	for _, name := range names {
		ts, ok := parseSummaryTimestamp(name)
		if !ok {
			logrus.Warnf("Skipping summary document with unparseable name %q", name)
			continue
		}
		if ts.Before(start) || !ts.Before(end) {
			continue
		}

		data, err := r.storage.Retrieve(name)
		if err != nil {
			logrus.Warnf("Skipping unreadable summary document %s: %v", name, err)
			continue
		}

		var summary models.BatchSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			logrus.Warnf("Skipping malformed summary document %s: %v", name, err)
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.Before(summaries[j].Timestamp)
	})
	return summaries, nil
}

func parseSummaryTimestamp(name string) (time.Time, bool) {
	name = strings.TrimPrefix(name, summaryPrefix)
	if len(name) < len(summaryTimeFmt) {
		return time.Time{}, false
	}
	ts, err := time.Parse(summaryTimeFmt, name[:len(summaryTimeFmt)])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
