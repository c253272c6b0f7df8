package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mindease/backend/internal/analysis/emotion"
	"github.com/mindease/backend/internal/config"
)

const maxErrorBody = 512

// HuggingFace calls a hosted text-classification model on the HF inference API.
type HuggingFace struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHuggingFace builds the client. A zero Timeout leaves calls bounded only
// by the caller's context.
func NewHuggingFace(cfg config.ClassifierConfig) *HuggingFace {
	return &HuggingFace{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// Classify posts the text and returns the first result array of the
// response, which holds the label/score pairs for that input.
func (c *HuggingFace) Classify(ctx context.Context, text string) ([]emotion.Score, error) {
	payload, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %d %s", ErrUpstreamStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var batches [][]emotion.Score
	if err := json.Unmarshal(body, &batches); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(batches) == 0 || len(batches[0]) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrMalformedResponse)
	}

	return batches[0], nil
}
