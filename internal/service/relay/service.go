package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mindease/backend/internal/analysis/emotion"
	"github.com/mindease/backend/internal/model/chat"
	"github.com/mindease/backend/internal/service/classifier"
)

// ErrNoLabels is returned when the classifier produced an empty score list.
var ErrNoLabels = errors.New("classifier returned no labels")

// Completer produces the assistant reply for a transcript and a new message.
type Completer interface {
	Complete(ctx context.Context, history []chat.Entry, message string) (string, error)
}

// Assessment is the outcome of classifying one message.
type Assessment struct {
	Emotion emotion.Score
	// Crisis is set when the safety policy short-circuits the conversation;
	// Reply then holds the crisis-support text.
	Crisis bool
	Reply  string
}

// Service relays a chat message through the classifier and, unless the safety
// policy intervenes, the conversational model. It holds no per-request state.
type Service struct {
	classifier classifier.Classifier
	completer  Completer
	policy     emotion.SafetyPolicy
}

// NewService wires the relay.
func NewService(c classifier.Classifier, completer Completer, policy emotion.SafetyPolicy) *Service {
	return &Service{
		classifier: c,
		completer:  completer,
		policy:     policy,
	}
}

// Assess classifies message, picks the top label and applies the safety policy.
func (s *Service) Assess(ctx context.Context, message string) (Assessment, error) {
	scores, err := s.classifier.Classify(ctx, message)
	if err != nil {
		return Assessment{}, fmt.Errorf("classify message: %w", err)
	}

	top, ok := emotion.Top(scores)
	if !ok {
		return Assessment{}, ErrNoLabels
	}
	top = top.Normalized()

	if s.policy.Triggers(top) {
		slog.InfoContext(ctx, "safety policy triggered", slog.String("emotion", top.Label), slog.Float64("score", top.Score))
		return Assessment{Emotion: top, Crisis: true, Reply: s.policy.Message()}, nil
	}
	return Assessment{Emotion: top}, nil
}

// Reply runs the whole relay for one request.
func (s *Service) Reply(ctx context.Context, req chat.Request) (chat.Reply, error) {
	assessment, err := s.Assess(ctx, req.Message)
	if err != nil {
		return chat.Reply{}, err
	}
	if assessment.Crisis {
		return chat.Reply{Reply: assessment.Reply, Emotion: assessment.Emotion.Label}, nil
	}

	text, err := s.completer.Complete(ctx, req.History, req.Message)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("complete conversation: %w", err)
	}

	return chat.Reply{Reply: text, Emotion: assessment.Emotion.Label}, nil
}
