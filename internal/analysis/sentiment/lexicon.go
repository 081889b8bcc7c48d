// Package sentiment scores free text with a small local lexicon. It is the
// deterministic fallback path behind the sentiment service and shares its
// result contract, so callers never need to know which path produced a
// score.
package sentiment

import "strings"

// Result is the sentiment contract both scoring paths expose.
type Result struct {
	Score      float64 `json:"score"`
	Magnitude  float64 `json:"magnitude"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback,omitempty"`
}

var positiveWords = []string{
	"happy", "good", "great", "wonderful", "amazing", "love", "joy",
	"excited", "grateful", "blessed", "peaceful", "calm", "content",
	"proud", "hopeful",
}

var negativeWords = []string{
	"sad", "bad", "terrible", "awful", "hate", "angry", "frustrated",
	"worried", "anxious", "stressed", "overwhelmed", "hopeless", "tired",
	"exhausted",
}

// Score counts positive and negative word matches and normalizes by word
// count. Scores land in [-1, 1]; magnitude is the matched fraction of the
// text.
func Score(text string) Result {
	words := strings.Fields(strings.ToLower(text))

	var positive, negative int
	for _, word := range words {
		if matchesAny(word, positiveWords) {
			positive++
		}
		if matchesAny(word, negativeWords) {
			negative++
		}
	}

	total := positive + negative
	score := 0.0
	if total > 0 {
		score = float64(positive-negative) / float64(total)
	}

	magnitude := 0.0
	if len(words) > 0 {
		magnitude = float64(total) / float64(len(words))
	}

	return Result{
		Score:      clamp(score),
		Magnitude:  magnitude,
		Label:      labelFor(score, 0.1),
		Confidence: abs(score),
		Fallback:   true,
	}
}

// labelFor buckets a score in [-1,1] into positive/negative/neutral around
// the given threshold.
func labelFor(score, threshold float64) string {
	switch {
	case score > threshold:
		return "positive"
	case score < -threshold:
		return "negative"
	default:
		return "neutral"
	}
}

func matchesAny(word string, lexicon []string) bool {
	for _, entry := range lexicon {
		if strings.Contains(word, entry) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
