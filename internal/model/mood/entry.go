package mood

import "time"

// Intensity bounds for a check-in.
const (
	MinIntensity = 1
	MaxIntensity = 10
)

// validMoods is the fixed check-in vocabulary, in the order clients present
// it.
var validMoods = []string{
	"very_happy", "happy", "content", "neutral", "sad", "very_sad",
	"excited", "calm", "anxious", "angry", "frustrated", "grateful",
	"hopeful", "overwhelmed", "peaceful", "energetic", "tired", "stressed",
}

// Entry is a single mood check-in.
type Entry struct {
	ID                 string   `json:"id"`
	Mood               string   `json:"mood"`
	Intensity          int      `json:"intensity"`
	Notes              string   `json:"notes,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	SentimentScore     *float64 `json:"sentimentScore,omitempty"`
	SentimentMagnitude *float64 `json:"sentimentMagnitude,omitempty"`
	Insight            string   `json:"insight,omitempty"`
}

// IsValid reports whether mood is in the fixed vocabulary.
func IsValid(mood string) bool {
	for _, m := range validMoods {
		if m == mood {
			return true
		}
	}
	return false
}

// ValidMoods returns a copy of the vocabulary for error responses and the
// options endpoint.
func ValidMoods() []string {
	return append([]string(nil), validMoods...)
}

// ClampIntensity forces intensity into the 1..10 scale, defaulting to the
// midpoint when unset.
func ClampIntensity(intensity int) int {
	if intensity == 0 {
		return 5
	}
	if intensity < MinIntensity {
		return MinIntensity
	}
	if intensity > MaxIntensity {
		return MaxIntensity
	}
	return intensity
}
