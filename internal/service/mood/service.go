// Package mood records check-ins and serves trend, analytics and insight
// views over them. Entries live a month in the ephemeral store; all
// analysis is computed on read from whatever is still alive.
package mood

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	analysis "github.com/haven-space/sanctum-backend/internal/analysis/mood"
	sentimentanalysis "github.com/haven-space/sanctum-backend/internal/analysis/sentiment"
	"github.com/haven-space/sanctum-backend/internal/model/mood"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
	"github.com/haven-space/sanctum-backend/internal/store"
)

// Validation errors surfaced to the transport layer.
var (
	ErrMissingMood    = errors.New("mood is required")
	ErrMissingSession = errors.New("session id is required")
	ErrInvalidMood    = errors.New("invalid mood")
)

// Analyzer scores free text. The sentiment service satisfies it; tests
// substitute fakes.
type Analyzer interface {
	Analyze(ctx context.Context, text string) sentimentanalysis.Result
}

// trendWindow caps how many recent entries feed the trend classifier.
const trendWindow = 10

// PublicEntry is the check-in view returned to clients.
type PublicEntry struct {
	ID             string    `json:"id"`
	Mood           string    `json:"mood"`
	Intensity      int       `json:"intensity"`
	Notes          string    `json:"notes,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	SentimentScore *float64  `json:"sentimentScore,omitempty"`
}

// SentimentSummary is the sentiment slice of a check-in response.
type SentimentSummary struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// CheckInResult is the full outcome of recording a check-in.
type CheckInResult struct {
	Entry     PublicEntry          `json:"entry"`
	Trend     analysis.TrendResult `json:"trend"`
	Insight   string               `json:"insight,omitempty"`
	Sentiment *SentimentSummary    `json:"sentiment,omitempty"`
}

// HistoryResult is a windowed view of past check-ins with their summary.
type HistoryResult struct {
	Entries   []PublicEntry      `json:"entries"`
	Analytics analysis.Analytics `json:"analytics"`
	Period    string             `json:"period"`
	Total     int                `json:"total"`
}

// AnalyticsResult pairs the summary with personal pattern insights.
type AnalyticsResult struct {
	Analytics  analysis.Analytics `json:"analytics"`
	Insights   []string           `json:"insights"`
	Period     string             `json:"period"`
	DataPoints int                `json:"dataPoints"`
}

// Service wires the analyzer and the store into the check-in flow.
type Service struct {
	store    store.Store
	analyzer Analyzer
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewService(st store.Store, analyzer Analyzer, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{
		store:    st,
		analyzer: analyzer,
		ttl:      ttl,
		log:      log.With("service", "mood"),
		now:      time.Now,
	}
}

// SetClock replaces the time source. Tests use it.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CheckIn validates and stores one check-in, then answers with the trend
// over the freshest entries. Notes, when present, get a sentiment score
// and a one-line insight.
func (s *Service) CheckIn(ctx context.Context, sessionID, moodName string, intensity int, notes string) (*CheckInResult, error) {
	if moodName == "" {
		return nil, ErrMissingMood
	}
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if !mood.IsValid(moodName) {
		return nil, ErrInvalidMood
	}

	intensity = mood.ClampIntensity(intensity)
	notes = strings.TrimSpace(notes)

	entry := mood.Entry{
		ID:        uuid.NewString(),
		Mood:      moodName,
		Intensity: intensity,
		Notes:     notes,
		Timestamp: s.now().UTC(),
	}

	var sentimentSummary *SentimentSummary
	if notes != "" && s.analyzer != nil {
		result := s.analyzer.Analyze(ctx, notes)
		score, magnitude := result.Score, result.Magnitude
		entry.SentimentScore = &score
		entry.SentimentMagnitude = &magnitude
		entry.Insight = insightFor(moodName, intensity, &result)
		sentimentSummary = &SentimentSummary{
			Score:      result.Score,
			Label:      result.Label,
			Confidence: result.Confidence,
		}
	} else if notes != "" {
		entry.Insight = insightFor(moodName, intensity, nil)
	}

	key := sessionID + ":" + entry.ID
	if err := s.store.Put(ctx, store.NamespaceMood, key, entry, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save mood entry: %w", err)
	}

	entries, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mood entries: %w", err)
	}
	if len(entries) > trendWindow {
		entries = entries[:trendWindow]
	}

	return &CheckInResult{
		Entry:     publicView(entry),
		Trend:     analysis.ClassifyTrend(samples(entries)),
		Insight:   entry.Insight,
		Sentiment: sentimentSummary,
	}, nil
}

// History returns check-ins within the day window, newest first, with the
// summary computed over the returned entries.
func (s *Service) History(ctx context.Context, sessionID string, days, limit int) (*HistoryResult, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if days <= 0 {
		days = 30
	}
	if limit <= 0 {
		limit = 50
	}

	entries, err := s.loadSince(ctx, sessionID, days)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	views := make([]PublicEntry, len(entries))
	for i, entry := range entries {
		views[i] = publicView(entry)
	}

	return &HistoryResult{
		Entries:   views,
		Analytics: analysis.Summarize(samples(entries)),
		Period:    fmt.Sprintf("%d days", days),
		Total:     len(views),
	}, nil
}

// Analytics summarizes the period and derives personal pattern insights.
func (s *Service) Analytics(ctx context.Context, sessionID string, days int) (*AnalyticsResult, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if days <= 0 {
		days = 7
	}

	entries, err := s.loadSince(ctx, sessionID, days)
	if err != nil {
		return nil, err
	}

	series := samples(entries)
	return &AnalyticsResult{
		Analytics:  analysis.Summarize(series),
		Insights:   analysis.PersonalInsights(series),
		Period:     fmt.Sprintf("%d days", days),
		DataPoints: len(entries),
	}, nil
}

// load returns the session's live entries newest first.
func (s *Service) load(ctx context.Context, sessionID string) ([]mood.Entry, error) {
	records, err := s.store.ScanPrefix(ctx, store.NamespaceMood, sessionID+":")
	if err != nil {
		return nil, err
	}

	entries := make([]mood.Entry, 0, len(records))
	for _, record := range records {
		var entry mood.Entry
		if err := record.Decode(&entry); err != nil {
			s.log.Warn("skipping undecodable mood record", "key", record.Key, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) loadSince(ctx context.Context, sessionID string, days int) ([]mood.Entry, error) {
	entries, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days)
	filtered := entries[:0]
	for _, entry := range entries {
		if !entry.Timestamp.Before(cutoff) {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

func publicView(entry mood.Entry) PublicEntry {
	return PublicEntry{
		ID:             entry.ID,
		Mood:           entry.Mood,
		Intensity:      entry.Intensity,
		Notes:          entry.Notes,
		Timestamp:      entry.Timestamp,
		SentimentScore: entry.SentimentScore,
	}
}

func samples(entries []mood.Entry) []analysis.Sample {
	out := make([]analysis.Sample, len(entries))
	for i, entry := range entries {
		out[i] = analysis.Sample{
			Mood:      entry.Mood,
			Intensity: entry.Intensity,
			Timestamp: entry.Timestamp,
		}
	}
	return out
}

// insightFor picks the first matching one-liner for the check-in, the same
// ladder the response tiers have always used: mood first, then sentiment,
// then raw intensity.
func insightFor(moodName string, intensity int, sentiment *sentimentanalysis.Result) string {
	switch {
	case strings.Contains(moodName, "sad") && intensity > 7:
		return "I notice you're experiencing deep sadness. Remember that it's okay to feel this way, and these feelings will pass."
	case strings.Contains(moodName, "anxious") && intensity > 6:
		return "Anxiety can feel overwhelming. Try some deep breathing exercises or grounding techniques."
	case strings.Contains(moodName, "happy") || moodName == "grateful":
		return "It's wonderful that you're feeling positive! Take a moment to appreciate this feeling."
	case sentiment != nil && sentiment.Score < -0.5:
		return "Your notes suggest you're going through a challenging time. Consider reaching out to someone you trust."
	case sentiment != nil && sentiment.Score > 0.5:
		return "Your notes reflect a positive mindset. That's a great strength to recognize."
	case intensity >= 8:
		return "You're experiencing intense emotions. Remember to be gentle with yourself during this time."
	default:
		return "Thank you for checking in with your emotions. Self-awareness is an important step in mental wellness."
	}
}
