package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

func TestNormalize(t *testing.T) {
	ratio := 1.5
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	items := []models.Item{
		{ID: "", Community: "solana", Text: "missing id"},
		{ID: "1", Community: "", Text: "missing community"},
		{ID: "2", Community: "solana", Kind: models.KindPost, Title: "BONK hits ATH", Text: "   ", CreatedAt: created},
		{ID: "3", Community: "solana", Kind: models.KindComment, Text: "nice", Engagement: models.Engagement{ReplyCount: -2}},
		{ID: "4", Community: "solana", Text: "bad ratio", Engagement: models.Engagement{UpvoteRatio: &ratio}},
	}

	normalized := Normalize(items)
	assert.Len(t, normalized, 3)

	// Empty post body falls back to the title.
	assert.Equal(t, "BONK hits ATH", normalized[0].Text)
	assert.Equal(t, time.UTC, normalized[0].CreatedAt.Location())

	// Negative reply counts are clamped, out-of-range ratios dropped.
	assert.Zero(t, normalized[1].Engagement.ReplyCount)
	assert.Nil(t, normalized[2].Engagement.UpvoteRatio)

	// Unknown kinds default to post.
	assert.Equal(t, models.KindPost, normalized[2].Kind)
}
