package chat_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
	chatmodel "github.com/haven-space/sanctum-backend/internal/model/chat"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
	chat "github.com/haven-space/sanctum-backend/internal/service/chat"
	"github.com/haven-space/sanctum-backend/internal/service/safety"
	"github.com/haven-space/sanctum-backend/internal/store"
)

type fakeGenerator struct {
	reply   string
	err     error
	lastUrg bool
	history []chatmodel.Message
}

func (f *fakeGenerator) GenerateReply(_ context.Context, _ string, history []chatmodel.Message, urgent bool) (string, error) {
	f.lastUrg = urgent
	f.history = history
	return f.reply, f.err
}

// safeModClient reports every input as safe so tests reach the flow past
// the moderation gate.
type safeModClient struct{}

func (safeModClient) Moderations(context.Context, openai.ModerationRequest) (openai.ModerationResponse, error) {
	return openai.ModerationResponse{Results: []openai.Result{{}}}, nil
}

func newService(t *testing.T, generator chat.ReplyGenerator) (*chat.Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	gate := safety.NewService(safeModClient{}, crisis.NewDetector(), time.Second, logger.NewNop())
	svc := chat.NewService(st, gate, generator, time.Hour, time.Second, logger.NewNop())
	svc.SetRand(rand.New(rand.NewSource(42)))
	return svc, st
}

func TestSendMessageRoundtrip(t *testing.T) {
	gen := &fakeGenerator{reply: "That sounds hard. I'm here with you."}
	svc, _ := newService(t, gen)
	ctx := context.Background()

	exchange, err := svc.SendMessage(ctx, "", "had a rough day at work")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if exchange.SessionID == "" {
		t.Fatal("expected a minted session id")
	}
	if exchange.Reply.Content != gen.reply {
		t.Fatalf("unexpected reply: %q", exchange.Reply.Content)
	}
	if exchange.Reply.Fallback {
		t.Fatal("generated reply must not be marked fallback")
	}
	if exchange.CrisisAlert != nil || exchange.SupportResources != nil {
		t.Fatal("benign message should not attach support bundles")
	}

	history, err := svc.History(ctx, exchange.SessionID, 0)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages in history, got %d", len(history))
	}
	if history[0].Role != chatmodel.RoleUser || history[1].Role != chatmodel.RoleAssistant {
		t.Fatalf("history out of order: %s then %s", history[0].Role, history[1].Role)
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.SendMessage(ctx, "", "   "); !errors.Is(err, chat.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	long := make([]byte, chatmodel.MaxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := svc.SendMessage(ctx, "", string(long)); !errors.Is(err, chat.ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
}

func TestSendMessageBlockedNotStored(t *testing.T) {
	// No moderation client, so the keyword fallback gates the message.
	st := store.NewMemoryStore()
	gate := safety.NewService(nil, crisis.NewDetector(), time.Second, logger.NewNop())
	svc := chat.NewService(st, gate, nil, time.Hour, time.Second, logger.NewNop())
	svc.SetRand(rand.New(rand.NewSource(7)))
	ctx := context.Background()

	greeting := svc.NewSession()
	_, err := svc.SendMessage(ctx, greeting.SessionID, "i will hurt you with a weapon")
	if !errors.Is(err, chat.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}

	history, err := svc.History(ctx, greeting.SessionID, 0)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("blocked message must not be stored, got %d messages", len(history))
	}
}

func TestSendMessageCrisisAttachesAlert(t *testing.T) {
	gen := &fakeGenerator{reply: "Please stay with me. Help is available."}
	svc, _ := newService(t, gen)
	ctx := context.Background()

	exchange, err := svc.SendMessage(ctx, "", "i want to end it all")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if exchange.CrisisAlert == nil {
		t.Fatal("expected crisis alert bundle")
	}
	if !gen.lastUrg {
		t.Fatal("generator must be told the message is urgent")
	}
	if !exchange.UserMessage.CrisisDetected || exchange.UserMessage.Severity != crisis.SeverityHigh {
		t.Fatalf("user message missing crisis flags: %+v", exchange.UserMessage)
	}
}

func TestSendMessageDistressAttachesResources(t *testing.T) {
	gen := &fakeGenerator{reply: "I'm listening."}
	svc, _ := newService(t, gen)

	exchange, err := svc.SendMessage(context.Background(), "", "i feel so alone and overwhelmed")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if exchange.CrisisAlert != nil {
		t.Fatal("distress must not escalate to a crisis alert")
	}
	if exchange.SupportResources == nil {
		t.Fatal("expected support resources bundle")
	}
	if gen.lastUrg {
		t.Fatal("distress without immediate crisis is not urgent")
	}
}

func TestSendMessageGeneratorFailureUsesCannedReply(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}
	svc, _ := newService(t, gen)

	exchange, err := svc.SendMessage(context.Background(), "", "feeling a bit low today")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if !exchange.Reply.Fallback {
		t.Fatal("canned reply must be marked fallback")
	}
	if exchange.Reply.Content == "" {
		t.Fatal("canned reply must not be empty")
	}
}

func TestSendMessageNilGeneratorAlwaysCanned(t *testing.T) {
	svc, _ := newService(t, nil)

	exchange, err := svc.SendMessage(context.Background(), "", "just checking in")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if !exchange.Reply.Fallback {
		t.Fatal("replies without a generator must be marked fallback")
	}
}

func TestHistoryLimitKeepsMostRecent(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := newService(t, gen)
	ctx := context.Background()

	session := svc.NewSession().SessionID
	for _, msg := range []string{"first", "second", "third"} {
		if _, err := svc.SendMessage(ctx, session, msg); err != nil {
			t.Fatalf("SendMessage err: %v", err)
		}
	}

	history, err := svc.History(ctx, session, 2)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Content != "third" {
		t.Fatalf("expected the latest user message first in the window, got %q", history[0].Content)
	}
}

func TestExpiredSessionReadsAsNew(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	st := store.NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return base })

	gate := safety.NewService(nil, crisis.NewDetector(), time.Second, logger.NewNop())
	svc := chat.NewService(st, gate, gen, time.Hour, time.Second, logger.NewNop())
	svc.SetRand(rand.New(rand.NewSource(1)))
	ctx := context.Background()

	exchange, err := svc.SendMessage(ctx, "", "hello there")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}

	st.SetClock(func() time.Time { return base.Add(2 * time.Hour) })

	history, err := svc.History(ctx, exchange.SessionID, 0)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expired transcript must read empty, got %d messages", len(history))
	}
}

func TestEndSessionDropsTranscript(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := newService(t, gen)
	ctx := context.Background()

	exchange, err := svc.SendMessage(ctx, "", "hello")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}

	if err := svc.EndSession(ctx, exchange.SessionID); err != nil {
		t.Fatalf("EndSession err: %v", err)
	}

	history, err := svc.History(ctx, exchange.SessionID, 0)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty transcript after EndSession, got %d", len(history))
	}
}

func TestBreathingAndGroundingPicks(t *testing.T) {
	svc, _ := newService(t, nil)

	exercise := svc.BreathingExercise()
	if exercise.Name == "" || len(exercise.Steps) == 0 {
		t.Fatalf("incomplete exercise: %+v", exercise)
	}

	technique := svc.GroundingTechnique()
	if technique.Name == "" || technique.Type == "" {
		t.Fatalf("incomplete technique: %+v", technique)
	}
}
