package mood

import "math"

// minDistinctHours gates the hourly breakdown: with three or fewer distinct
// hours the buckets would effectively fingerprint a user's daily routine, so
// they are withheld entirely.
const minDistinctHours = 3

// Analytics summarizes a window of mood entries.
type Analytics struct {
	TotalEntries     int            `json:"totalEntries"`
	AverageIntensity float64        `json:"averageIntensity"`
	MostCommonMood   string         `json:"mostCommonMood"`
	MoodDistribution map[string]int `json:"moodDistribution"`
	HourlyPatterns   map[int][]int  `json:"hourlyPatterns,omitempty"`
}

// Summarize computes entry count, mean intensity, the dominant mood, the
// mood frequency distribution and (cardinality permitting) per-hour
// intensity buckets.
func Summarize(entries []Sample) Analytics {
	if len(entries) == 0 {
		return Analytics{MoodDistribution: map[string]int{}}
	}

	distribution := make(map[string]int, len(entries))
	// Ties on the dominant mood break toward the mood reaching the maximum
	// first in entry order. The ordering carries no meaning, it just keeps
	// the result deterministic.
	var seen []string
	var intensitySum int
	hourly := make(map[int][]int)

	for _, e := range entries {
		if distribution[e.Mood] == 0 {
			seen = append(seen, e.Mood)
		}
		distribution[e.Mood]++
		intensitySum += e.Intensity

		hour := e.Timestamp.Hour()
		hourly[hour] = append(hourly[hour], e.Intensity)
	}

	mostCommon := seen[0]
	for _, mood := range seen {
		if distribution[mood] > distribution[mostCommon] {
			mostCommon = mood
		}
	}

	avg := float64(intensitySum) / float64(len(entries))

	out := Analytics{
		TotalEntries:     len(entries),
		AverageIntensity: math.Round(avg*10) / 10,
		MostCommonMood:   mostCommon,
		MoodDistribution: distribution,
	}
	if len(hourly) > minDistinctHours {
		out.HourlyPatterns = hourly
	}
	return out
}

// PersonalInsights derives gentle observations from the window: time-of-day
// contrasts and recent improvement. Sparse data yields only an
// encouragement to keep tracking.
func PersonalInsights(entries []Sample) []string {
	if len(entries) < 3 {
		return []string{"Keep tracking your mood to discover personal patterns and insights."}
	}

	var insights []string

	var morning, evening []Sample
	for _, e := range entries {
		switch hour := e.Timestamp.Hour(); {
		case hour < 12:
			morning = append(morning, e)
		case hour >= 18:
			evening = append(evening, e)
		}
	}

	if len(morning) > 2 && len(evening) > 2 {
		morningAvg := meanIntensity(morning)
		eveningAvg := meanIntensity(evening)
		if morningAvg > eveningAvg+1 {
			insights = append(insights, "You tend to feel better in the mornings. Consider tackling important tasks early in the day.")
		} else if eveningAvg > morningAvg+1 {
			insights = append(insights, "Your mood tends to improve throughout the day. Gentle morning routines might help.")
		}
	}

	half := len(entries) / 2
	recent, older := entries[:half], entries[half:]
	if len(recent) > 0 && len(older) > 0 {
		if meanIntensity(recent) > meanIntensity(older)+0.5 {
			insights = append(insights, "Your mood has been improving recently. Keep up the positive momentum!")
		}
	}

	if len(insights) == 0 {
		insights = append(insights, "Continue tracking to discover more about your mood patterns.")
	}
	return insights
}

func meanIntensity(entries []Sample) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum int
	for _, e := range entries {
		sum += e.Intensity
	}
	return float64(sum) / float64(len(entries))
}
