package chat

import (
	"bytes"
	"encoding/json"
)

// FailureReply is the only text a caller ever sees when the relay fails.
const FailureReply = "Sorry, something went wrong. Try again later."

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser      Sender = "You"
	SenderAssistant Sender = "Bot"
)

// Entry is one turn of a transcript as exchanged with the client.
type Entry struct {
	Sender  Sender `json:"sender"`
	Message string `json:"message"`
}

// FromUser reports whether the entry was typed by the user. Any other sender
// is treated as the assistant.
func (e Entry) FromUser() bool {
	return e.Sender == SenderUser
}

// History is the transcript sent alongside a new message.
type History []Entry

// UnmarshalJSON accepts only arrays; any other JSON value decodes to an empty history.
func (h *History) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*h = nil
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return err
	}
	*h = entries
	return nil
}

// Request is the inbound chat payload.
type Request struct {
	Message string  `json:"message"`
	History History `json:"history"`
}

// Reply is the outbound chat payload. Emotion is omitted on failure.
type Reply struct {
	Reply   string `json:"reply"`
	Emotion string `json:"emotion,omitempty"`
}
