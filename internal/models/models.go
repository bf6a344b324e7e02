package models

import "time"

// ItemKind distinguishes top-level posts from comments.
type ItemKind string

const (
	KindPost    ItemKind = "post"
	KindComment ItemKind = "comment"
)

// Sentiment is one of the three classification labels.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments lists all labels in model output order (negative, neutral, positive).
var Sentiments = []Sentiment{SentimentNegative, SentimentNeutral, SentimentPositive}

// Engagement holds the raw engagement metrics of an item. UpvoteRatio is nil
// for comments, which don't carry one.
type Engagement struct {
	Score       int      `json:"score"`
	ReplyCount  int      `json:"reply_count"`
	LikeCount   int      `json:"like_count"`
	UpvoteRatio *float64 `json:"upvote_ratio,omitempty"`
}

// Item represents one collected post or comment.
type Item struct {
	ID         string     `json:"id"`
	Kind       ItemKind   `json:"kind"`
	Title      string     `json:"title"`
	Text       string     `json:"text"`
	Author     string     `json:"author"`
	Community  string     `json:"community"`
	URL        string     `json:"url"`
	CreatedAt  time.Time  `json:"created_at"`
	Engagement Engagement `json:"engagement"`
	// Relevant is set upstream when the collector already matched topic
	// keywords, so the rollup doesn't have to re-scan the text.
	Relevant bool `json:"relevant,omitempty"`
}

// ClassifiedItem is an Item plus its sentiment classification.
type ClassifiedItem struct {
	Item
	Sentiment       Sentiment             `json:"sentiment"`
	Confidence      float64               `json:"confidence"`
	Probabilities   map[Sentiment]float64 `json:"class_probabilities"`
	EngagementScore float64               `json:"engagement_score"`
}

// BatchSummary is the write-once result of analyzing one collection run.
type BatchSummary struct {
	ID                    string                `json:"id"`
	Timestamp             time.Time             `json:"timestamp"`
	ItemCount             int                   `json:"item_count"`
	TotalEngagement       float64               `json:"total_engagement"`
	SentimentDistribution map[Sentiment]int     `json:"sentiment_distribution"`
	WeightedSentiment     map[Sentiment]float64 `json:"weighted_sentiment"`
	Items                 []ClassifiedItem      `json:"items,omitempty"`
}

// Theme is one named discussion theme with the percentage of relevant items
// mentioning it.
type Theme struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// CommunityCount pairs a community with its item volume.
type CommunityCount struct {
	Community string `json:"community"`
	Count     int    `json:"count"`
}

// DailyReport is a derived, disposable view over the batch summaries of a
// lookback window. It is never a source of truth.
type DailyReport struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	// TotalItems counts every classified item seen in the window;
	// RelevantCount counts only those that passed the topic filter. Both zero
	// means the window itself was empty.
	TotalItems    int     `json:"total_items"`
	RelevantCount int     `json:"relevant_count"`
	AvgEngagement float64 `json:"avg_engagement"`
	MaxEngagement float64 `json:"max_engagement"`

	// SentimentDistribution and WeightedSentiment are per-batch-averaged
	// fractions here, unlike the raw counts on BatchSummary.
	SentimentDistribution map[Sentiment]float64 `json:"sentiment_distribution"`
	WeightedSentiment     map[Sentiment]float64 `json:"weighted_sentiment"`

	// Trend is nil when the previous window has no data; callers must treat
	// that as unknown, not zero.
	Trend map[Sentiment]float64 `json:"trend,omitempty"`

	Themes             []Theme          `json:"themes"`
	TopItems           []ClassifiedItem `json:"top_items"`
	CommunityBreakdown []CommunityCount `json:"community_breakdown"`
	PeakHours          []int            `json:"peak_hours"`
}
