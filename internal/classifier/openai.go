package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

const openAIPrompt = `Classify the sentiment of the following social media text about a cryptocurrency.
Return ONLY a JSON object of class probabilities summing to 1.0, like:
{"negative": 0.1, "neutral": 0.2, "positive": 0.7}

Text: %s`

// OpenAIClassifier delegates classification to a chat-completion model. It
// satisfies the same contract as the lexicon model; inference failures surface
// as ErrModelUnavailable rather than a silent default label.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

var _ Classifier = (*OpenAIClassifier)(nil)

// NewOpenAIClassifier creates a classifier backed by the OpenAI API.
func NewOpenAIClassifier(apiKey, model string) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrModelUnavailable)
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClassifier{client: openai.NewClient(apiKey), model: model}, nil
}

type openAIProbabilities struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

func (c *OpenAIClassifier) Classify(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return NeutralResult(), nil
	}

	resp, err := c.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(openAIPrompt, truncateRunes(text, 2000))},
		},
		MaxTokens:   64,
		Temperature: 0,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty completion", ErrModelUnavailable)
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.Trim(raw, "` \n")

	var p openAIProbabilities
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		logrus.Warnf("Unparseable classifier response: %q", raw)
		return Result{}, fmt.Errorf("%w: malformed response: %v", ErrModelUnavailable, err)
	}

	sum := p.Negative + p.Neutral + p.Positive
	if sum <= 0 {
		return Result{}, fmt.Errorf("%w: degenerate probability vector", ErrModelUnavailable)
	}

	probs := map[models.Sentiment]float64{
		models.SentimentNegative: p.Negative / sum,
		models.SentimentNeutral:  p.Neutral / sum,
		models.SentimentPositive: p.Positive / sum,
	}
	label, confidence := argmax(probs)
	return Result{Label: label, Confidence: confidence, Probabilities: probs}, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
