package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mindease/backend/internal/analysis/emotion"
)

// GoEmotionsLabels is the label set of the go_emotions taxonomy.
var GoEmotionsLabels = []string{
	"admiration", "amusement", "anger", "annoyance", "approval", "caring",
	"confusion", "curiosity", "desire", "disappointment", "disapproval", "disgust",
	"embarrassment", "excitement", "fear", "gratitude", "grief", "joy",
	"love", "nervousness", "optimism", "pride", "realization", "relief",
	"remorse", "sadness", "surprise", "neutral",
}

// LLM asks a chat model to score the message and parses the JSON it returns.
// Unlike the hosted classifier it only reports the labels the model chose.
type LLM struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	labels map[string]struct{}
}

// NewLLM compiles the scoring chain around chatModel.
func NewLLM(ctx context.Context, chatModel model.BaseChatModel) (*LLM, error) {
	if chatModel == nil {
		return nil, errors.New("llm classifier requires a chat model")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(llmSystemPrompt),
		schema.UserMessage("{message}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	labels := make(map[string]struct{}, len(GoEmotionsLabels))
	for _, l := range GoEmotionsLabels {
		labels[l] = struct{}{}
	}

	return &LLM{chain: runnable, labels: labels}, nil
}

func (c *LLM) Classify(ctx context.Context, text string) ([]emotion.Score, error) {
	msg, err := c.chain.Invoke(ctx, map[string]any{"message": strings.TrimSpace(text)})
	if err != nil {
		return nil, fmt.Errorf("invoke emotion classifier: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("%w: empty model output", ErrMalformedResponse)
	}

	return c.parse(msg.Content)
}

type llmPayload struct {
	Emotions []emotion.Score `json:"emotions"`
}

// parse reads the first JSON object in content. Unknown labels are dropped
// and scores are clamped into [0,1].
func (c *LLM) parse(content string) ([]emotion.Score, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: missing json object", ErrMalformedResponse)
	}

	var payload llmPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	scores := make([]emotion.Score, 0, len(payload.Emotions))
	for _, s := range payload.Emotions {
		s = s.Normalized()
		if _, ok := c.labels[s.Label]; !ok {
			continue
		}
		s.Score = min(max(s.Score, 0), 1)
		scores = append(scores, s)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no known labels", ErrMalformedResponse)
	}
	return scores, nil
}

const llmSystemPrompt = "You rate the emotions expressed in a single chat message using the go_emotions labels: " +
	"admiration, amusement, anger, annoyance, approval, caring, confusion, curiosity, desire, disappointment, " +
	"disapproval, disgust, embarrassment, excitement, fear, gratitude, grief, joy, love, nervousness, optimism, " +
	"pride, realization, relief, remorse, sadness, surprise, neutral.\n" +
	"Reply with one JSON object only. It has a single key \"emotions\" holding an array of objects with a \"label\" " +
	"string and a \"score\" number between 0 and 1. List at most five labels, highest score first. No other text."
