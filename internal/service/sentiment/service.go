// Package sentiment classifies mood note text with the chat model and
// falls back to the local lexicon whenever the model is unavailable,
// times out, or answers with something unparseable.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/haven-space/sanctum-backend/internal/analysis/sentiment"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
)

const classifierSystemPrompt = `You are a sentiment analyst for short personal reflections. Read the text and return ONLY a JSON object with these fields: score (a number between -1 and 1, negative for negative sentiment), magnitude (a number between 0 and 1 for emotional intensity), label (exactly one of "positive", "negative", "neutral"), confidence (a number between 0 and 1). No extra text.`

const classifierUserPrompt = `Text to analyze:
{text}

Return the JSON.`

// Service scores text through a compiled classifier chain. A nil chat
// model leaves the service in permanent lexicon mode.
type Service struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
	log        *logger.Logger
}

// NewService compiles the classifier chain when a model is available.
func NewService(ctx context.Context, chatModel model.ChatModel, log *logger.Logger) (*Service, error) {
	svc := &Service{log: log.With("service", "sentiment")}
	if chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile sentiment classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the model-backed path is available.
func (s *Service) Enabled() bool {
	return s != nil && s.classifier != nil
}

// Analyze scores the text. It never returns an error: any model failure
// degrades to the lexicon scorer, whose result is marked as a fallback.
func (s *Service) Analyze(ctx context.Context, text string) analysis.Result {
	if !s.Enabled() {
		return analysis.Score(text)
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{"text": text})
	if err != nil {
		s.log.Warn("classifier invoke failed, using lexicon", "error", err)
		return analysis.Score(text)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return analysis.Score(text)
	}

	result, err := parseClassifierOutput(msg.Content)
	if err != nil {
		s.log.Warn("classifier output parse failed, using lexicon", "error", err)
		return analysis.Score(text)
	}

	return *result
}

// parseClassifierOutput extracts the JSON object from the model's answer
// and normalizes its fields into the shared result contract.
func parseClassifierOutput(content string) (*analysis.Result, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	var payload struct {
		Score      float64 `json:"score"`
		Magnitude  float64 `json:"magnitude"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return nil, err
	}

	label := strings.ToLower(strings.TrimSpace(payload.Label))
	switch label {
	case "positive", "negative", "neutral":
	default:
		return nil, fmt.Errorf("unknown label %q", payload.Label)
	}

	confidence := payload.Confidence
	if confidence <= 0 {
		confidence = 0.6
	}
	if confidence > 1 {
		confidence = 1
	}

	return &analysis.Result{
		Score:      clampUnit(payload.Score),
		Magnitude:  clampMagnitude(payload.Magnitude),
		Label:      label,
		Confidence: confidence,
	}, nil
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func clampMagnitude(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
