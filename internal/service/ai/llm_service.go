package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mindease/backend/internal/model/chat"
)

// ErrEmptyCompletion is returned when the model answers without any text.
var ErrEmptyCompletion = errors.New("completion returned no content")

// Service turns a transcript plus a new message into a model reply.
type Service struct {
	chatModel model.BaseChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the completion chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{message}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
	}, nil
}

// Complete asks the model for the next assistant turn.
func (s *Service) Complete(ctx context.Context, history []chat.Entry, message string) (string, error) {
	response, err := s.chain.Invoke(ctx, buildChainInput(history, message))
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	if response == nil || response.Content == "" {
		return "", ErrEmptyCompletion
	}

	slog.DebugContext(ctx, "completion generated", slog.Int("turns", len(history)+1), slog.Int("length", len(response.Content)))
	return response.Content, nil
}

// Stream is Complete with incremental output.
func (s *Service) Stream(ctx context.Context, history []chat.Entry, message string) (*schema.StreamReader[*schema.Message], error) {
	stream, err := s.chain.Stream(ctx, buildChainInput(history, message))
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat chain output: %w", err)
	}
	return stream, nil
}

func buildChainInput(history []chat.Entry, message string) map[string]any {
	return map[string]any{
		"history": BuildHistory(history),
		"message": strings.TrimSpace(message),
	}
}

// BuildHistory maps transcript entries to model turns in order. Entries sent
// by the user become user turns, everything else an assistant turn; content
// is trimmed.
func BuildHistory(entries []chat.Entry) []*schema.Message {
	if len(entries) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(entries))
	for _, entry := range entries {
		content := strings.TrimSpace(entry.Message)
		if entry.FromUser() {
			history = append(history, schema.UserMessage(content))
		} else {
			history = append(history, schema.AssistantMessage(content, nil))
		}
	}
	return history
}
