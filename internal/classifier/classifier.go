package classifier

import (
	"errors"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

// ErrModelUnavailable is returned when the underlying model cannot be loaded
// or fails during inference. Callers must treat it as a hard failure rather
// than falling back to a default label.
var ErrModelUnavailable = errors.New("sentiment model unavailable")

// Result is the outcome of classifying a single text.
type Result struct {
	Label         models.Sentiment
	Confidence    float64
	Probabilities map[models.Sentiment]float64
}

// Classifier maps one text to a sentiment label with per-class probabilities.
// Implementations load their model once at construction and must be safe for
// concurrent use.
type Classifier interface {
	Classify(text string) (Result, error)
}

// NeutralResult is the defined outcome for text that is empty after
// normalization: neutral with zero confidence, without invoking the model.
func NeutralResult() Result {
	return Result{
		Label:      models.SentimentNeutral,
		Confidence: 0,
		Probabilities: map[models.Sentiment]float64{
			models.SentimentNegative: 0,
			models.SentimentNeutral:  0,
			models.SentimentPositive: 0,
		},
	}
}

// argmax picks the winning label. Iteration follows models.Sentiments so exact
// ties resolve deterministically (negative < neutral < positive, first wins).
func argmax(probs map[models.Sentiment]float64) (models.Sentiment, float64) {
	best := models.Sentiments[0]
	bestProb := probs[best]
	for _, s := range models.Sentiments[1:] {
		if probs[s] > bestProb {
			best = s
			bestProb = probs[s]
		}
	}
	return best, bestProb
}
