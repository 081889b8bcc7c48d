// Package chat orchestrates the anonymous support conversation: it gates
// each message, runs crisis detection, generates the companion's reply and
// keeps the short-lived transcript in the ephemeral store.
package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/haven-space/sanctum-backend/internal/model/chat"
	"github.com/haven-space/sanctum-backend/internal/model/support"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
	"github.com/haven-space/sanctum-backend/internal/service/safety"
	"github.com/haven-space/sanctum-backend/internal/store"
)

// Validation and policy errors surfaced to the transport layer.
var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = fmt.Errorf("message must be %d characters or less", chat.MaxMessageLength)
	ErrBlocked        = errors.New("message violates community guidelines")
)

// ReplyGenerator produces the companion's answer. The AI service satisfies
// it; tests substitute fakes and a nil generator keeps the service on the
// canned reply pools.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, userMessage string, history []chat.Message, urgent bool) (string, error)
}

// Exchange is the full outcome of one message turn.
type Exchange struct {
	SessionID        string          `json:"sessionId"`
	UserMessage      chat.Message    `json:"userMessage"`
	Reply            chat.Message    `json:"aiResponse"`
	CrisisAlert      *support.Bundle `json:"crisisAlert,omitempty"`
	SupportResources *support.Bundle `json:"supportResources,omitempty"`
}

// SessionGreeting is returned when a client opens a fresh session.
type SessionGreeting struct {
	SessionID      string `json:"sessionId"`
	Message        string `json:"message"`
	WelcomeMessage string `json:"welcomeMessage"`
}

// Service wires the gate, the generator and the store into the
// conversation flow.
type Service struct {
	store     store.Store
	gate      *safety.Service
	generator ReplyGenerator
	ttl       time.Duration
	timeout   time.Duration
	log       *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
	seq atomic.Uint64

	now func() time.Time
}

// NewService builds the orchestrator. A nil generator means every reply
// comes from the canned pools, which is how the service runs without model
// credentials.
func NewService(st store.Store, gate *safety.Service, generator ReplyGenerator, ttl, timeout time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
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
		log:       log.With("service", "chat"),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// SetRand replaces the random source used for canned picks. Tests use it
// for determinism.
func (s *Service) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

// SetClock replaces the time source. Tests use it.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// NewSession mints a fresh session token. Nothing is persisted until the
// first message arrives, so an unused session costs nothing.
func (s *Service) NewSession() SessionGreeting {
	return SessionGreeting{
		SessionID:      uuid.NewString(),
		Message:        "New chat session created. I'm here to listen and support you.",
		WelcomeMessage: "Hi! I'm Sol, your mental health support companion. You can share your feelings with me in complete confidence. How are you doing today?",
	}
}

// SendMessage runs one conversation turn end to end. Moderation rejections
// surface as ErrBlocked before anything is stored.
func (s *Service) SendMessage(ctx context.Context, sessionID, message string) (*Exchange, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > chat.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	verdict := s.gate.Moderate(ctx, trimmed)
	if !s.gate.AllowPublic(verdict) {
		s.log.Info("message blocked by moderation", "sessionId", sessionID, "fallbackVerdict", verdict.Fallback)
		return nil, ErrBlocked
	}

	assessment := s.gate.DetectCrisis(trimmed)

	history, err := s.History(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	userMessage := chat.Message{
		ID:             uuid.NewString(),
		Role:           chat.RoleUser,
		Content:        trimmed,
		Timestamp:      s.now().UTC(),
		CrisisDetected: assessment.NeedsSupport,
		Severity:       assessment.Severity,
	}
	if err := s.append(ctx, sessionID, userMessage); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	replyText, fallback := s.generateReply(ctx, trimmed, history, assessment.ImmediateCrisis)

	reply := chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleAssistant,
		Content:   replyText,
		Timestamp: s.now().UTC(),
		Fallback:  fallback,
	}
	if err := s.append(ctx, sessionID, reply); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}

	exchange := &Exchange{
		SessionID:   sessionID,
		UserMessage: userMessage,
		Reply:       reply,
	}
	switch {
	case assessment.ImmediateCrisis:
		alert := support.CrisisAlert()
		exchange.CrisisAlert = &alert
	case assessment.EmotionalDistress:
		resources := support.GeneralSupport()
		exchange.SupportResources = &resources
	}

	return exchange, nil
}

// History returns the session transcript oldest first. A limit above zero
// keeps only the most recent messages. An unknown or expired session reads
// as an empty transcript.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	records, err := s.store.ScanPrefix(ctx, store.NamespaceChat, sessionID+":")
	if err != nil {
		return nil, err
	}

	// Scans come back newest first; transcripts read oldest first.
	messages := make([]chat.Message, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		var msg chat.Message
		if err := records[i].Decode(&msg); err != nil {
			s.log.Warn("skipping undecodable chat record", "key", records[i].Key, "error", err)
			continue
		}
		messages = append(messages, msg)
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// EndSession drops the whole transcript immediately instead of waiting for
// the TTL.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	return s.store.DeletePrefix(ctx, store.NamespaceChat, sessionID+":")
}

// append stores one message under a key that sorts in arrival order within
// the session. The sequence suffix keeps keys unique when two messages land
// on the same nanosecond.
func (s *Service) append(ctx context.Context, sessionID string, msg chat.Message) error {
	key := fmt.Sprintf("%s:%020d-%06d", sessionID, msg.Timestamp.UnixNano(), s.seq.Add(1))
	return s.store.Put(ctx, store.NamespaceChat, key, msg, s.ttl)
}

// generateReply asks the model and degrades to the canned pools on any
// failure. The second return reports whether the canned path answered.
func (s *Service) generateReply(ctx context.Context, message string, history []chat.Message, urgent bool) (string, bool) {
	if s.generator == nil {
		return s.cannedReply(urgent), true
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.generator.GenerateReply(ctx, message, history, urgent)
	if err != nil {
		s.log.Warn("reply generation failed, using canned reply", "error", err)
		return s.cannedReply(urgent), true
	}
	return reply, false
}

func (s *Service) cannedReply(urgent bool) string {
	pool := supportiveReplies
	if urgent {
		pool = crisisReplies
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return pool[s.rng.Intn(len(pool))]
}

// crisisReplies answer when crisis indicators fired but no model reply is
// available. They always steer toward crisis resources.
var crisisReplies = []string{
	"I hear that you're going through something really difficult right now. Your feelings are valid, and you don't have to face this alone. Have you considered reaching out to a crisis helpline? They have trained counselors available 24/7.",
	"It sounds like you're in a lot of pain right now. Please know that there are people who want to help. Crisis support is available - would it be helpful if I shared some resources with you?",
	"I'm concerned about how you're feeling. Your life has value, and there are people trained to help during these difficult moments. Would you like me to share some immediate support resources?",
}

var supportiveReplies = []string{
	"Thank you for sharing how you're feeling. It takes courage to express your emotions. Remember that it's okay to feel what you're feeling, and these emotions will pass.",
	"I hear you, and your feelings are completely valid. Sometimes it helps to take a few deep breaths - try breathing in for 4 counts, holding for 4, and exhaling for 6.",
	"It sounds like you're going through something challenging. Would it help to write down what you're feeling right now? Sometimes putting thoughts on paper can provide clarity.",
	"Your emotions are important and deserve to be acknowledged. Consider taking a moment to do something kind for yourself today, even something small.",
	"Thank you for trusting me with your feelings. Remember that seeking support is a sign of strength, not weakness. How are you taking care of yourself today?",
}
