package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"github.com/mindease/backend/internal/analysis/emotion"
	"github.com/mindease/backend/internal/config"
)

var (
	ErrMalformedResponse = errors.New("classifier returned an unexpected payload")
	ErrUpstreamStatus    = errors.New("classifier returned a non-success status")
)

// Classifier scores a message against emotion labels.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]emotion.Score, error)
}

// New returns the classifier selected by cfg.Provider. chatModel is only
// used by the llm provider.
func New(ctx context.Context, cfg config.ClassifierConfig, chatModel model.BaseChatModel) (Classifier, error) {
	switch cfg.Provider {
	case config.ClassifierHuggingFace, "":
		return NewHuggingFace(cfg), nil
	case config.ClassifierKeyword:
		return Keyword{}, nil
	case config.ClassifierLLM:
		c, err := NewLLM(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported classifier provider %q", cfg.Provider)
	}
}

// Keyword classifies offline with the keyword heuristic.
type Keyword struct{}

// Classify never fails.
func (Keyword) Classify(_ context.Context, text string) ([]emotion.Score, error) {
	return emotion.Analyze(text), nil
}
