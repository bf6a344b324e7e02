package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

const twitterSearchQuery = "(#bonk OR $bonk OR bonkcoin) -is:retweet lang:en"

// TwitterSource collects recent tweets matching the topic query through the
// v2 recent-search endpoint.
type TwitterSource struct {
	bearerToken string
	client      *resty.Client
}

var _ Source = (*TwitterSource)(nil)

type twitterSearchResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			LikeCount    int `json:"like_count"`
			ReplyCount   int `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// NewTwitterSource creates a Twitter collector.
func NewTwitterSource(bearerToken string) *TwitterSource {
	return &TwitterSource{
		bearerToken: bearerToken,
		client:      resty.New().SetTimeout(30 * time.Second),
	}
}

func (t *TwitterSource) GetName() string {
	return "twitter"
}

func (t *TwitterSource) IsEnabled() bool {
	return t.bearerToken != ""
}

// FetchItems returns tweets created within the window. Every tweet already
// matches the topic query, so items come back flagged relevant.
func (t *TwitterSource) FetchItems(ctx context.Context, window time.Duration) ([]models.Item, error) {
	if !t.IsEnabled() {
		logrus.Debug("Twitter source disabled - missing bearer token")
		return nil, nil
	}

	startTime := time.Now().UTC().Add(-window)

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.bearerToken).
		SetQueryParams(map[string]string{
			"query":        twitterSearchQuery,
			"start_time":   startTime.Format(time.RFC3339),
			"max_results":  "100",
			"tweet.fields": "created_at,public_metrics,author_id",
		}).
		Get("https://api.twitter.com/2/tweets/search/recent")
	if err != nil {
		return nil, fmt.Errorf("twitter search failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("twitter API returned status %d", resp.StatusCode())
	}

	var search twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &search); err != nil {
		return nil, fmt.Errorf("failed to decode twitter response: %w", err)
	}

	items := make([]models.Item, 0, len(search.Data))
	for _, tweet := range search.Data {
		items = append(items, models.Item{
			ID:        tweet.ID,
			Kind:      models.KindPost,
			Text:      tweet.Text,
			Author:    tweet.AuthorID,
			Community: "twitter",
			URL:       fmt.Sprintf("https://twitter.com/i/web/status/%s", tweet.ID),
			CreatedAt: tweet.CreatedAt.UTC(),
			Engagement: models.Engagement{
				Score:      tweet.PublicMetrics.RetweetCount,
				LikeCount:  tweet.PublicMetrics.LikeCount,
				ReplyCount: tweet.PublicMetrics.ReplyCount,
			},
			Relevant: true,
		})
	}

	return items, nil
}
