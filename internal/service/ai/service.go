package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/haven-space/sanctum-backend/internal/model/chat"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
)

// historyLimit caps how many prior messages travel with each completion.
const historyLimit = 6

const baseSystemPrompt = `You are Sol, a compassionate mental health support companion. Your role is to:

1. Provide empathetic, non-judgmental responses
2. Offer gentle affirmations and validation
3. Suggest healthy coping strategies like breathing exercises, journaling prompts, or mindfulness
4. NEVER provide medical advice or diagnosis
5. Encourage professional help when appropriate
6. Keep responses concise but warm (2-3 sentences max)

Guidelines:
- Use gentle, supportive language
- Acknowledge their feelings without minimizing them
- Offer practical, immediate coping strategies
- Suggest journaling prompts or reflection questions
- Mention breathing exercises or grounding techniques when relevant`

const crisisSystemSuffix = `

IMPORTANT: Crisis indicators detected. Your response should:
- Acknowledge their pain with deep empathy
- Gently encourage reaching out to crisis resources
- Provide immediate coping strategies
- Reassure them that help is available
- Do NOT dismiss or minimize their feelings`

const journalPromptSystem = `Generate a thoughtful, non-invasive journaling prompt for mental health reflection. The prompt should:
- Be open-ended and encouraging
- Help process emotions constructively
- Not be too heavy or triggering
- Encourage self-compassion
- Be suitable for any mental health level

Provide just the prompt, nothing else. Keep it to 1-2 sentences.`

// Service runs language model completions for the chat companion and the
// journal prompt generator. Both run through compiled chains sharing one
// underlying chat model.
type Service struct {
	chatModel   model.ChatModel
	replyChain  compose.Runnable[map[string]any, *schema.Message]
	promptChain compose.Runnable[map[string]any, *schema.Message]
	log         *logger.Logger
}

// NewService compiles the completion chains. The chat model comes from
// configuration so deployments choose provider and model there.
func NewService(ctx context.Context, chatModel model.ChatModel, log *logger.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("ai service requires a chat model")
	}

	replyTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	replyChain := compose.NewChain[map[string]any, *schema.Message]()
	replyChain.AppendChatTemplate(replyTemplate)
	replyChain.AppendChatModel(chatModel)

	reply, err := replyChain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(journalPromptSystem),
		schema.UserMessage("{context}"),
	)

	promptChain := compose.NewChain[map[string]any, *schema.Message]()
	promptChain.AppendChatTemplate(promptTemplate)
	promptChain.AppendChatModel(chatModel)

	journal, err := promptChain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile journal prompt chain: %w", err)
	}

	return &Service{
		chatModel:   chatModel,
		replyChain:  reply,
		promptChain: journal,
		log:         log.With("service", "ai"),
	}, nil
}

// GenerateReply produces the companion's answer to a user message. When
// urgent is set the system prompt carries crisis handling instructions.
func (s *Service) GenerateReply(ctx context.Context, userMessage string, history []chat.Message, urgent bool) (string, error) {
	input := map[string]any{
		"system":  buildSystemPrompt(urgent),
		"history": buildHistoryMessages(history),
		"query":   userMessage,
	}

	response, err := s.replyChain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", fmt.Errorf("model returned empty reply")
	}

	s.log.Debug("generated reply", "urgent", urgent, "length", len(content))
	return content, nil
}

// GenerateJournalPrompt produces a reflection prompt, optionally shaped by
// the user's current mood.
func (s *Service) GenerateJournalPrompt(ctx context.Context, mood string) (string, error) {
	input := map[string]any{
		"context": buildPromptContext(mood),
	}

	response, err := s.promptChain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run journal prompt chain: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", fmt.Errorf("model returned empty prompt")
	}
	return content, nil
}

func buildSystemPrompt(urgent bool) string {
	if urgent {
		return baseSystemPrompt + crisisSystemSuffix
	}
	return baseSystemPrompt
}

func buildPromptContext(mood string) string {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return "Write a journaling prompt."
	}
	return fmt.Sprintf("The user's current mood is: %s. Write a journaling prompt.", mood)
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
