package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

func TestRedditSource_MatchesKeywords(t *testing.T) {
	source := NewRedditSource([]string{"solana"}, []string{"bonk", "$bonk", "bonkcoin"})

	tests := []struct {
		name     string
		content  string
		expected bool
	}{
		{"Plain mention", "BONK just hit a new milestone", true},
		{"Ticker mention", "loading up on $BONK today", true},
		{"Unrelated", "daily SOL discussion thread", false},
		{"Substring of another word", "bonkcoin is trending", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, source.matchesKeywords(tt.content))
		})
	}
}

func TestDeduplicate(t *testing.T) {
	items := []models.Item{
		{ID: "1", Kind: models.KindPost, Community: "solana"},
		{ID: "1", Kind: models.KindPost, Community: "solana"},
		{ID: "1", Kind: models.KindComment, Community: "solana"},
		{ID: "1", Kind: models.KindPost, Community: "memecoin"},
	}

	unique := deduplicate(items)
	assert.Len(t, unique, 3, "same id may repeat across kind and community but not within")
}

func TestDisabledSourcesReturnNothing(t *testing.T) {
	twitter := NewTwitterSource("")
	assert.False(t, twitter.IsEnabled())

	items, err := twitter.FetchItems(context.Background(), time.Hour)
	assert.NoError(t, err)
	assert.Nil(t, items)

	reddit := NewRedditSource(nil, []string{"bonk"})
	assert.False(t, reddit.IsEnabled())

	items, err = reddit.FetchItems(context.Background(), time.Hour)
	assert.NoError(t, err)
	assert.Nil(t, items)
}
