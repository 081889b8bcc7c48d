// Package mood derives trend and analytics signals from a session's mood
// check-ins. Everything here is pure computation over entries the caller
// already holds; staleness tolerance and storage live with the service.
package mood

import "time"

// Trend classifies the direction of a mood series.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// Sample is the slice of a mood entry the analytics need.
type Sample struct {
	Mood      string
	Intensity int
	Timestamp time.Time
}

// TrendResult pairs the classification with a user-facing message.
type TrendResult struct {
	Trend   Trend  `json:"trend"`
	Message string `json:"message"`
}

// baselines maps each mood to an ordinal baseline on a 1..10 scale.
var baselines = map[string]float64{
	"very_sad": 1, "sad": 2, "frustrated": 3, "angry": 3, "anxious": 3,
	"overwhelmed": 3, "stressed": 3, "tired": 4, "neutral": 5,
	"content": 6, "calm": 7, "peaceful": 7, "grateful": 8,
	"happy": 8, "hopeful": 8, "excited": 9, "energetic": 9, "very_happy": 10,
}

// EntryScore converts a categorical mood plus intensity into a single
// per-entry score: the ordinal baseline shifted by (intensity-5)*0.5.
func EntryScore(mood string, intensity int) float64 {
	base, ok := baselines[mood]
	if !ok {
		base = 5
	}
	return base + float64(intensity-5)*0.5
}

// ClassifyTrend compares the mean score of the five most recent entries
// against the five before them. Entries must be newest first. A gap above 1
// is improving, below -1 declining, anything between stable. Fewer than two
// entries cannot support a comparison at all.
func ClassifyTrend(entries []Sample) TrendResult {
	if len(entries) < 2 {
		return TrendResult{
			Trend:   TrendInsufficientData,
			Message: "Need more data points to analyze trends",
		}
	}

	if len(entries) > 10 {
		entries = entries[:10]
	}

	split := 5
	if split > len(entries) {
		split = len(entries)
	}

	recentMean := meanScore(entries[:split])
	earlierMean := recentMean
	if len(entries) > split {
		earlierMean = meanScore(entries[split:])
	}

	switch diff := recentMean - earlierMean; {
	case diff > 1:
		return TrendResult{
			Trend:   TrendImproving,
			Message: "Your mood seems to be improving recently",
		}
	case diff < -1:
		return TrendResult{
			Trend:   TrendDeclining,
			Message: "Your mood seems to be declining. Consider self-care or reaching out for support",
		}
	default:
		return TrendResult{
			Trend:   TrendStable,
			Message: "Your mood has been relatively stable",
		}
	}
}

func meanScore(entries []Sample) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += EntryScore(e.Mood, e.Intensity)
	}
	return sum / float64(len(entries))
}
