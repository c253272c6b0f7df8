// Package client talks to the relay's POST /chat endpoint and keeps the local
// transcript.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mindease/backend/internal/model/chat"
)

// FallbackReply is shown in place of the assistant's answer when a request fails.
const FallbackReply = "Sorry, something went wrong."

var ErrEmptyMessage = errors.New("message is empty")

// Client holds one conversation. Send may be called concurrently; replies are
// appended in completion order and rapid submits are not de-duplicated.
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu         sync.Mutex
	transcript []chat.Entry
}

// New targets baseURL/chat. A nil httpClient gets a 60s timeout client.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/chat",
		httpClient: httpClient,
	}
}

// Send appends the user's message, posts it together with the transcript and
// appends the reply. On any failure the fallback reply is appended and the
// cause returned alongside it.
func (c *Client) Send(ctx context.Context, text string) (chat.Entry, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Entry{}, ErrEmptyMessage
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, chat.Entry{Sender: chat.SenderUser, Message: text})
	history := make([]chat.Entry, len(c.transcript))
	copy(history, c.transcript)
	c.mu.Unlock()

	reply, err := c.post(ctx, chat.Request{Message: text, History: history})
	entry := chat.Entry{Sender: chat.SenderAssistant, Message: reply}
	if err != nil {
		entry.Message = FallbackReply
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, entry)
	c.mu.Unlock()

	return entry, err
}

// Transcript returns a copy of the conversation so far.
func (c *Client) Transcript() []chat.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]chat.Entry, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *Client) post(ctx context.Context, payload chat.Request) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var reply chat.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode chat reply: %w", err)
	}
	return reply.Reply, nil
}
