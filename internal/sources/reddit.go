package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

const redditUserAgent = "BonkSentimentBot/1.0 (Script)"

// RedditSource collects recent posts and their comments from a set of
// subreddits via Reddit's public JSON listings, keeping only items that
// mention one of the topic keywords.
type RedditSource struct {
	subreddits []string
	keywords   []string
	client     *resty.Client
}

var _ Source = (*RedditSource)(nil)

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditThing `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditThing struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Selftext    string   `json:"selftext"`
	Body        string   `json:"body"`
	Author      string   `json:"author"`
	Subreddit   string   `json:"subreddit"`
	Permalink   string   `json:"permalink"`
	Created     float64  `json:"created_utc"`
	Score       int      `json:"score"`
	UpvoteRatio *float64 `json:"upvote_ratio"`
	NumComments int      `json:"num_comments"`
}

// NewRedditSource creates a Reddit collector over the given subreddits.
func NewRedditSource(subreddits, keywords []string) *RedditSource {
	return &RedditSource{
		subreddits: subreddits,
		keywords:   keywords,
		client:     resty.New().SetTimeout(30 * time.Second),
	}
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return len(r.subreddits) > 0
}

// FetchItems collects keyword-matching posts created within the window, plus
// the comments under them. A failing subreddit is logged and skipped.
func (r *RedditSource) FetchItems(ctx context.Context, window time.Duration) ([]models.Item, error) {
	if !r.IsEnabled() {
		return nil, nil
	}

	cutoff := time.Now().UTC().Add(-window)
	var all []models.Item

	for _, subreddit := range r.subreddits {
		items, err := r.fetchSubreddit(ctx, subreddit, cutoff)
		if err != nil {
			logrus.Errorf("Failed to fetch r/%s: %v", subreddit, err)
			continue
		}
		all = append(all, items...)
	}

	return deduplicate(all), nil
}

func (r *RedditSource) fetchSubreddit(ctx context.Context, subreddit string, cutoff time.Time) ([]models.Item, error) {
	listingURL := fmt.Sprintf("https://www.reddit.com/r/%s/new.json?limit=100", subreddit)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", redditUserAgent).
		Get(listingURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var listing redditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, err
	}

	var items []models.Item
	for _, child := range listing.Data.Children {
		post := child.Data
		if !r.matchesKeywords(post.Title + " " + post.Selftext) {
			continue
		}

		createdAt := time.Unix(int64(post.Created), 0).UTC()
		if createdAt.Before(cutoff) {
			continue
		}

		text := post.Selftext
		if strings.TrimSpace(text) == "" {
			text = post.Title
		}

		items = append(items, models.Item{
			ID:        post.ID,
			Kind:      models.KindPost,
			Title:     post.Title,
			Text:      text,
			Author:    post.Author,
			Community: subreddit,
			URL:       fmt.Sprintf("https://reddit.com%s", post.Permalink),
			CreatedAt: createdAt,
			Engagement: models.Engagement{
				Score:       post.Score,
				ReplyCount:  post.NumComments,
				UpvoteRatio: post.UpvoteRatio,
			},
			Relevant: true,
		})

		comments, err := r.fetchComments(ctx, subreddit, post, cutoff)
		if err != nil {
			logrus.Warnf("Failed to fetch comments for post %s: %v", post.ID, err)
			continue
		}
		items = append(items, comments...)
	}

	return items, nil
}

func (r *RedditSource) fetchComments(ctx context.Context, subreddit string, post redditThing, cutoff time.Time) ([]models.Item, error) {
	commentsURL := fmt.Sprintf("https://www.reddit.com/r/%s/comments/%s.json", subreddit, post.ID)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", redditUserAgent).
		Get(commentsURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	// The comments endpoint returns a two-element array: the post listing
	// followed by the comment listing.
	var listings []redditListing
	if err := json.Unmarshal(resp.Body(), &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var items []models.Item
	for _, child := range listings[1].Data.Children {
		comment := child.Data
		if comment.ID == "" || strings.TrimSpace(comment.Body) == "" {
			continue
		}

		createdAt := time.Unix(int64(comment.Created), 0).UTC()
		if createdAt.Before(cutoff) {
			continue
		}

		items = append(items, models.Item{
			ID:        comment.ID,
			Kind:      models.KindComment,
			Text:      comment.Body,
			Author:    comment.Author,
			Community: subreddit,
			URL:       fmt.Sprintf("https://reddit.com%s%s/", post.Permalink, comment.ID),
			CreatedAt: createdAt,
			Engagement: models.Engagement{
				Score: comment.Score,
			},
			Relevant: r.matchesKeywords(comment.Body),
		})
	}

	return items, nil
}

func (r *RedditSource) matchesKeywords(content string) bool {
	content = strings.ToLower(content)
	for _, keyword := range r.keywords {
		if strings.Contains(content, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func deduplicate(items []models.Item) []models.Item {
	seen := make(map[string]bool)
	var unique []models.Item
	for _, item := range items {
		key := string(item.Kind) + "/" + item.Community + "/" + item.ID
		if !seen[key] {
			seen[key] = true
			unique = append(unique, item)
		}
	}
	return unique
}
