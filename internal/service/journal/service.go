// Package journal handles private reflection entries: a lenient moderation
// policy, per-session storage with a day-long TTL and model-generated
// writing prompts with a canned fallback pool.
package journal

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/haven-space/sanctum-backend/internal/model/journal"
	"github.com/haven-space/sanctum-backend/internal/model/support"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
	"github.com/haven-space/sanctum-backend/internal/service/safety"
	"github.com/haven-space/sanctum-backend/internal/store"
)

// Validation and policy errors surfaced to the transport layer.
var (
	ErrEmptyContent   = errors.New("content is required")
	ErrMissingSession = errors.New("session id is required")
	ErrContentTooLong = fmt.Errorf("content must be %d characters or less", journal.MaxContentLength)
	ErrBlocked        = errors.New("entry violates community guidelines")
	ErrNotFound       = errors.New("journal entry not found or expired")
)

// PromptGenerator produces a reflection prompt. The AI service satisfies
// it; a nil generator keeps the service on the canned prompt pool.
type PromptGenerator interface {
	GenerateJournalPrompt(ctx context.Context, mood string) (string, error)
}

// CreateResult is a stored entry plus the tiered supportive message.
type CreateResult struct {
	Entry          journal.Public          `json:"entry"`
	SupportMessage *support.JournalMessage `json:"supportMessage,omitempty"`
}

// Prompt is one generated or canned journaling prompt.
type Prompt struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Category string `json:"category"`
	Mood     string `json:"mood,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// EntriesResult is a session's entries with their aggregate stats.
type EntriesResult struct {
	Entries []journal.Public `json:"entries"`
	Stats   journal.Stats    `json:"stats"`
}

// Service wires the gate, the prompt generator and the store into the
// journaling flow.
type Service struct {
	store     store.Store
	gate      *safety.Service
	generator PromptGenerator
	ttl       time.Duration
	timeout   time.Duration
	log       *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand

	now func() time.Time
}

func NewService(st store.Store, gate *safety.Service, generator PromptGenerator, ttl, timeout time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		store:     st,
		gate:      gate,
		generator: generator,
		ttl:       ttl,
		timeout:   timeout,
		log:       log.With("service", "journal"),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// SetRand replaces the random source used for canned prompts. Tests use it.
func (s *Service) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

// SetClock replaces the time source. Tests use it.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates and stores an entry. Journaling uses the lenient
// policy: only the most severe moderation classes block, and crisis
// signals only shape the supportive message that rides along.
func (s *Service) Create(ctx context.Context, sessionID, content, mood, prompt string) (*CreateResult, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyContent
	}
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if utf8.RuneCountInString(content) > journal.MaxContentLength {
		return nil, ErrContentTooLong
	}

	verdict := s.gate.Moderate(ctx, trimmed)
	if !s.gate.AllowJournal(verdict) {
		s.log.Info("journal entry blocked by moderation", "fallbackVerdict", verdict.Fallback)
		return nil, ErrBlocked
	}

	assessment := s.gate.DetectCrisis(trimmed)

	entry := journal.Entry{
		ID:             uuid.NewString(),
		Content:        trimmed,
		Mood:           strings.TrimSpace(mood),
		Prompt:         strings.TrimSpace(prompt),
		Timestamp:      s.now().UTC(),
		WordCount:      len(strings.Fields(trimmed)),
		CrisisDetected: assessment.NeedsSupport,
		Severity:       assessment.Severity,
	}

	key := sessionID + ":" + entry.ID
	if err := s.store.Put(ctx, store.NamespaceJournal, key, entry, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	message := supportMessageFor(assessment.ImmediateCrisis, assessment.EmotionalDistress)
	return &CreateResult{Entry: entry.PublicView(), SupportMessage: &message}, nil
}

// Entries returns a session's live entries newest first with aggregate
// stats over the returned window.
func (s *Service) Entries(ctx context.Context, sessionID string, limit int) (*EntriesResult, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if limit <= 0 {
		limit = 50
	}

	records, err := s.store.ScanPrefix(ctx, store.NamespaceJournal, sessionID+":")
	if err != nil {
		return nil, err
	}

	entries := make([]journal.Public, 0, limit)
	totalWords := 0
	for _, record := range records {
		if len(entries) == limit {
			break
		}
		var entry journal.Entry
		if err := record.Decode(&entry); err != nil {
			s.log.Warn("skipping undecodable journal record", "key", record.Key, "error", err)
			continue
		}
		entries = append(entries, entry.PublicView())
		totalWords += entry.WordCount
	}

	stats := journal.Stats{
		TotalEntries: len(entries),
		TotalWords:   totalWords,
	}
	if len(entries) > 0 {
		stats.AverageWordsPerEntry = int(float64(totalWords)/float64(len(entries)) + 0.5)
	}

	return &EntriesResult{Entries: entries, Stats: stats}, nil
}

// Entry fetches one entry by id within a session.
func (s *Service) Entry(ctx context.Context, sessionID, entryID string) (*journal.Public, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}

	var entry journal.Entry
	err := s.store.Get(ctx, store.NamespaceJournal, sessionID+":"+entryID, &entry)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	view := entry.PublicView()
	return &view, nil
}

// GeneratePrompt asks the model for a reflection prompt and degrades to
// the canned pool on any failure.
func (s *Service) GeneratePrompt(ctx context.Context, mood string) Prompt {
	mood = strings.TrimSpace(mood)

	if s.generator != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		text, err := s.generator.GenerateJournalPrompt(ctx, mood)
		if err == nil && strings.TrimSpace(text) != "" {
			return Prompt{
				ID:       uuid.NewString(),
				Prompt:   text,
				Category: categorize(text),
				Mood:     mood,
			}
		}
		if err != nil {
			s.log.Warn("prompt generation failed, using canned prompt", "error", err)
		}
	}

	text := s.cannedPrompt()
	return Prompt{
		ID:       uuid.NewString(),
		Prompt:   text,
		Category: categorize(text),
		Mood:     mood,
		Fallback: true,
	}
}

// GeneratePrompts returns up to maxPromptBatch prompts in one call.
func (s *Service) GeneratePrompts(ctx context.Context, mood string, count int) []Prompt {
	const maxPromptBatch = 10
	if count <= 0 {
		count = 3
	}
	if count > maxPromptBatch {
		count = maxPromptBatch
	}

	prompts := make([]Prompt, 0, count)
	for i := 0; i < count; i++ {
		prompts = append(prompts, s.GeneratePrompt(ctx, mood))
	}
	return prompts
}

func (s *Service) cannedPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cannedPrompts[s.rng.Intn(len(cannedPrompts))]
}

func supportMessageFor(immediateCrisis, distress bool) support.JournalMessage {
	switch {
	case immediateCrisis:
		return support.JournalCrisis()
	case distress:
		return support.JournalDistress()
	default:
		return support.JournalEncouragement()
	}
}

// categorize buckets a prompt by its dominant theme for clients that group
// prompts.
func categorize(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "grateful") || strings.Contains(lower, "thankful"):
		return "gratitude"
	case strings.Contains(lower, "goal") || strings.Contains(lower, "future") || strings.Contains(lower, "dream"):
		return "goals"
	case strings.Contains(lower, "emotion") || strings.Contains(lower, "feeling") || strings.Contains(lower, "feel"):
		return "emotions"
	case strings.Contains(lower, "relationship") || strings.Contains(lower, "friend") || strings.Contains(lower, "family"):
		return "relationships"
	case strings.Contains(lower, "self") || strings.Contains(lower, "identity") || strings.Contains(lower, "personal"):
		return "self-reflection"
	case strings.Contains(lower, "challenge") || strings.Contains(lower, "difficult") || strings.Contains(lower, "overcome"):
		return "challenges"
	case strings.Contains(lower, "memory") || strings.Contains(lower, "remember") || strings.Contains(lower, "past"):
		return "memories"
	default:
		return "general"
	}
}

var cannedPrompts = []string{
	"What is one thing you're grateful for today, and how did it make you feel?",
	"Describe a moment recently when you felt peaceful or content. What contributed to that feeling?",
	"What would you say to a friend who was going through what you're experiencing right now?",
	"Write about a small accomplishment from this week, no matter how minor it might seem.",
	"What emotions are you carrying today, and what do they need from you?",
	"If today was a color, what would it be and why?",
	"What is one way you've grown or learned something about yourself recently?",
	"Describe something in nature that brings you comfort or peace.",
	"What does self-compassion look like for you right now?",
	"Write about a person, place, or activity that brings you joy.",
}
