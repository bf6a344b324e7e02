package analysis

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

// Normalize shapes raw collected records into the canonical item schema.
// Records that cannot be repaired (missing identifier or community) are
// dropped with a data-quality warning; nothing here aborts the batch.
func Normalize(items []models.Item) []models.Item {
	normalized := make([]models.Item, 0, len(items))

	for _, item := range items {
		if item.ID == "" || item.Community == "" {
			logrus.Warnf("Skipping malformed item (id=%q community=%q)", item.ID, item.Community)
			continue
		}

		if item.Kind != models.KindPost && item.Kind != models.KindComment {
			item.Kind = models.KindPost
		}

		// Posts with an empty body fall back to their title so the
		// classifier always sees the content that readers react to.
		item.Text = strings.TrimSpace(item.Text)
		if item.Text == "" && item.Kind == models.KindPost {
			item.Text = strings.TrimSpace(item.Title)
		}

		if item.Engagement.ReplyCount < 0 {
			item.Engagement.ReplyCount = 0
		}
		if item.Engagement.LikeCount < 0 {
			item.Engagement.LikeCount = 0
		}
		if r := item.Engagement.UpvoteRatio; r != nil && (*r < 0 || *r > 1) {
			logrus.Warnf("Dropping out-of-range upvote ratio %.3f on item %s", *r, item.ID)
			item.Engagement.UpvoteRatio = nil
		}

		item.CreatedAt = item.CreatedAt.UTC()
		normalized = append(normalized, item)
	}

	return normalized
}
