package classifier

import (
	"math"
	"strings"
	"unicode"

	"github.com/sqryxz/bonk-sentiment-bot/internal/models"
)

// maxTokens is the model input cutoff; excess tokens are discarded from the
// tail, matching the 128-token truncation of the bertweet sentiment model.
const maxTokens = 128

// neutralBias is the standing evidence for the neutral class. A single weak
// sentiment word is enough to tip the label, but the softmax keeps its
// confidence modest.
const neutralBias = 0.5

// LexiconClassifier scores text against a fixed sentiment lexicon and turns
// the class evidence into a probability vector with a softmax. It is a pure
// function of its input: the lexicon is built once at construction and never
// mutated, so a single instance is safe to share across goroutines.
type LexiconClassifier struct {
	weights map[string]float64
}

// NewLexiconClassifier builds the classifier with the built-in lexicon.
func NewLexiconClassifier() *LexiconClassifier {
	weights := make(map[string]float64, len(positiveTerms)+len(negativeTerms))
	for term, w := range positiveTerms {
		weights[term] = w
	}
	for term, w := range negativeTerms {
		weights[term] = -w
	}
	return &LexiconClassifier{weights: weights}
}

var positiveTerms = map[string]float64{
	"good": 1, "great": 1.5, "excellent": 2, "love": 1.5, "awesome": 1.5,
	"amazing": 1.5, "fantastic": 2, "helpful": 1, "works": 0.5, "solved": 1,
	"success": 1, "win": 1, "winning": 1, "profit": 1, "gains": 1,
	"bullish": 2, "moon": 1.5, "mooning": 2, "pump": 1, "pumping": 1.5,
	"ath": 1.5, "rally": 1, "surge": 1, "breakout": 1, "milestone": 1,
	"strong": 0.5, "hodl": 0.5, "buy": 0.5, "undervalued": 1, "optimistic": 1.5,
	"partnership": 0.5, "listed": 0.5, "listing": 0.5, "adoption": 1,
}

var negativeTerms = map[string]float64{
	"bad": 1, "terrible": 2, "awful": 2, "hate": 1.5, "broken": 1,
	"error": 0.5, "fail": 1, "failed": 1, "problem": 0.5, "issue": 0.5,
	"scam": 2, "rug": 2, "rugpull": 2.5, "rugged": 2, "dump": 1,
	"dumping": 1.5, "crash": 1.5, "crashing": 2, "bearish": 2, "loss": 1,
	"losses": 1, "rekt": 1.5, "fud": 1, "worthless": 2, "dead": 1,
	"sell": 0.5, "selling": 0.5, "overvalued": 1, "panic": 1.5, "fear": 1,
	"drop": 0.5, "dropping": 1, "plummet": 2, "bleed": 1, "bleeding": 1.5,
}

// Classify scores text and returns the softmax probability over the three
// classes. Empty or whitespace-only text yields the defined neutral result
// without scoring.
func (c *LexiconClassifier) Classify(text string) (Result, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return NeutralResult(), nil
	}
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	var posScore, negScore float64
	for _, tok := range tokens {
		w, ok := c.weights[tok]
		if !ok {
			continue
		}
		if w > 0 {
			posScore += w
		} else {
			negScore -= w
		}
	}

	probs := softmax(negScore, neutralBias, posScore)
	label, confidence := argmax(probs)
	return Result{Label: label, Confidence: confidence, Probabilities: probs}, nil
}

func softmax(neg, neu, pos float64) map[models.Sentiment]float64 {
	// Shift by the max logit for numerical stability.
	max := neg
	if neu > max {
		max = neu
	}
	if pos > max {
		max = pos
	}

	eNeg := math.Exp(neg - max)
	eNeu := math.Exp(neu - max)
	ePos := math.Exp(pos - max)
	sum := eNeg + eNeu + ePos

	return map[models.Sentiment]float64{
		models.SentimentNegative: eNeg / sum,
		models.SentimentNeutral:  eNeu / sum,
		models.SentimentPositive: ePos / sum,
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '$' && r != '#'
	})
}
