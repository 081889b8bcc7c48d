package journal_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
	"github.com/haven-space/sanctum-backend/internal/service/journal"
	"github.com/haven-space/sanctum-backend/internal/service/safety"
	"github.com/haven-space/sanctum-backend/internal/store"
)

type fakePromptGenerator struct {
	prompt string
	err    error
}

func (f *fakePromptGenerator) GenerateJournalPrompt(context.Context, string) (string, error) {
	return f.prompt, f.err
}

func newService(t *testing.T, generator journal.PromptGenerator) (*journal.Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	// No moderation client: the keyword fallback moderates, which also
	// exercises the lenient journal policy against self-harm flags.
	gate := safety.NewService(nil, crisis.NewDetector(), time.Second, logger.NewNop())
	svc := journal.NewService(st, gate, generator, 24*time.Hour, time.Second, logger.NewNop())
	svc.SetRand(rand.New(rand.NewSource(42)))
	return svc, st
}

func TestCreateAndFetch(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	result, err := svc.Create(ctx, "session-1", "Today felt lighter than yesterday. I took a walk.", "calm", "")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if result.Entry.WordCount != 9 {
		t.Fatalf("unexpected word count: %d", result.Entry.WordCount)
	}
	if result.SupportMessage == nil || result.SupportMessage.Type != "encouragement" {
		t.Fatalf("expected encouragement message, got %+v", result.SupportMessage)
	}

	got, err := svc.Entry(ctx, "session-1", result.Entry.ID)
	if err != nil {
		t.Fatalf("Entry err: %v", err)
	}
	if got.ID != result.Entry.ID {
		t.Fatalf("fetched wrong entry: %q", got.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "session-1", "  ", "", ""); !errors.Is(err, journal.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := svc.Create(ctx, "", "something", "", ""); !errors.Is(err, journal.ErrMissingSession) {
		t.Fatalf("expected ErrMissingSession, got %v", err)
	}

	long := make([]byte, 5001)
	for i := range long {
		long[i] = 'y'
	}
	if _, err := svc.Create(ctx, "session-1", string(long), "", ""); !errors.Is(err, journal.ErrContentTooLong) {
		t.Fatalf("expected ErrContentTooLong, got %v", err)
	}
}

func TestCreateToleratesSelfHarmFlags(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	// Fallback moderation flags this as self-harm; the lenient journal
	// policy must still store it and answer with the crisis message.
	result, err := svc.Create(ctx, "session-1", "some days i feel worthless and want to give up", "", "")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if result.SupportMessage == nil || result.SupportMessage.Type != "crisis" {
		t.Fatalf("expected crisis support message, got %+v", result.SupportMessage)
	}
	if len(result.SupportMessage.Resources) == 0 {
		t.Fatal("crisis message must carry resources")
	}
}

func TestCreateDistressMessage(t *testing.T) {
	svc, _ := newService(t, nil)

	result, err := svc.Create(context.Background(), "session-1", "feeling anxious and overwhelmed about everything", "", "")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if result.SupportMessage == nil || result.SupportMessage.Type != "support" {
		t.Fatalf("expected support message, got %+v", result.SupportMessage)
	}
}

func TestEntriesStatsAndIsolation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "session-1", "one two three", "", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if _, err := svc.Create(ctx, "session-1", "four five six seven", "", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if _, err := svc.Create(ctx, "session-2", "other session entry", "", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	result, err := svc.Entries(ctx, "session-1", 0)
	if err != nil {
		t.Fatalf("Entries err: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Stats.TotalWords != 7 {
		t.Fatalf("expected 7 total words, got %d", result.Stats.TotalWords)
	}
	if result.Stats.AverageWordsPerEntry != 4 {
		t.Fatalf("expected average 4, got %d", result.Stats.AverageWordsPerEntry)
	}
}

func TestEntryMissing(t *testing.T) {
	svc, _ := newService(t, nil)

	if _, err := svc.Entry(context.Background(), "session-1", "nope"); !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEntriesExpire(t *testing.T) {
	st := store.NewMemoryStore()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return base })
	gate := safety.NewService(nil, crisis.NewDetector(), time.Second, logger.NewNop())
	svc := journal.NewService(st, gate, nil, 24*time.Hour, time.Second, logger.NewNop())
	svc.SetClock(func() time.Time { return base })
	ctx := context.Background()

	if _, err := svc.Create(ctx, "session-1", "a passing thought", "", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	st.SetClock(func() time.Time { return base.Add(25 * time.Hour) })

	result, err := svc.Entries(ctx, "session-1", 0)
	if err != nil {
		t.Fatalf("Entries err: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("expired entries must not be returned, got %d", len(result.Entries))
	}
}

func TestGeneratePromptFromModel(t *testing.T) {
	gen := &fakePromptGenerator{prompt: "What are you grateful for this morning?"}
	svc, _ := newService(t, gen)

	prompt := svc.GeneratePrompt(context.Background(), "hopeful")
	if prompt.Fallback {
		t.Fatal("model prompt must not be marked fallback")
	}
	if prompt.Category != "gratitude" {
		t.Fatalf("expected gratitude category, got %q", prompt.Category)
	}
	if prompt.Mood != "hopeful" {
		t.Fatalf("mood not carried: %q", prompt.Mood)
	}
}

func TestGeneratePromptFallsBack(t *testing.T) {
	gen := &fakePromptGenerator{err: errors.New("model down")}
	svc, _ := newService(t, gen)

	prompt := svc.GeneratePrompt(context.Background(), "")
	if !prompt.Fallback {
		t.Fatal("expected canned prompt marked fallback")
	}
	if prompt.Prompt == "" || prompt.Category == "" {
		t.Fatalf("incomplete prompt: %+v", prompt)
	}
}

func TestGeneratePromptsCapsCount(t *testing.T) {
	svc, _ := newService(t, nil)

	prompts := svc.GeneratePrompts(context.Background(), "", 25)
	if len(prompts) != 10 {
		t.Fatalf("expected batch capped at 10, got %d", len(prompts))
	}

	prompts = svc.GeneratePrompts(context.Background(), "", 0)
	if len(prompts) != 3 {
		t.Fatalf("expected default batch of 3, got %d", len(prompts))
	}
}
