package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindease/backend/internal/analysis/emotion"
	"github.com/mindease/backend/internal/model/chat"
	"github.com/mindease/backend/internal/service/relay"
)

type stubAssessor struct {
	assessment relay.Assessment
	err        error
}

func (s stubAssessor) Assess(context.Context, string) (relay.Assessment, error) {
	return s.assessment, s.err
}

type stubStreamer struct {
	chunks []string
	err    error
	calls  int
}

func (s *stubStreamer) Stream(context.Context, []chat.Entry, string) (*schema.StreamReader[*schema.Message], error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	msgs := make([]*schema.Message, 0, len(s.chunks))
	for _, c := range s.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

type sseEvent struct {
	name string
	data StreamResponse
}

func parseEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		lines := strings.Split(block, "\n")
		require.Len(t, lines, 2, block)
		var ev sseEvent
		ev.name = strings.TrimPrefix(lines[0], "event: ")
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &ev.data))
		events = append(events, ev)
	}
	return events
}

func names(events []sseEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.name
	}
	return out
}

func serve(h *Handler, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestStreamCompletion(t *testing.T) {
	streamer := &stubStreamer{chunks: []string{"Hello", "", " there"}}
	h := New(stubAssessor{assessment: relay.Assessment{Emotion: emotion.Score{Label: "joy", Score: 0.9}}}, streamer)

	resp := serve(h, `{"message":"hi","history":[]}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))

	events := parseEvents(t, resp.Body.String())
	assert.Equal(t, []string{"start", "delta", "delta", "message", "emotion", "end"}, names(events))
	assert.Equal(t, "Hello", events[1].data.Content)
	assert.Equal(t, " there", events[2].data.Content)
	assert.Equal(t, "Hello there", events[3].data.Content)
	assert.Equal(t, "joy", events[4].data.Emotion)
	assert.InDelta(t, 0.9, events[4].data.Score, 1e-9)
	assert.True(t, events[5].data.Finished)
	assert.Equal(t, 1, streamer.calls)
}

func TestStreamCrisisSkipsCompletion(t *testing.T) {
	streamer := &stubStreamer{chunks: []string{"unused"}}
	h := New(stubAssessor{assessment: relay.Assessment{
		Emotion: emotion.Score{Label: "sadness", Score: 0.6},
		Crisis:  true,
		Reply:   emotion.CrisisMessage,
	}}, streamer)

	resp := serve(h, `{"message":"I feel so hopeless"}`)

	events := parseEvents(t, resp.Body.String())
	assert.Equal(t, []string{"start", "message", "emotion", "end"}, names(events))
	assert.Equal(t, emotion.CrisisMessage, events[1].data.Content)
	assert.True(t, events[1].data.Crisis)
	assert.Equal(t, "sadness", events[2].data.Emotion)
	assert.Zero(t, streamer.calls)
}

func TestStreamErrors(t *testing.T) {
	joy := relay.Assessment{Emotion: emotion.Score{Label: "joy", Score: 0.9}}

	tests := []struct {
		name     string
		assessor stubAssessor
		streamer *stubStreamer
		want     []string
	}{
		{"classifier fails", stubAssessor{err: errors.New("boom")}, &stubStreamer{}, []string{"error"}},
		{"stream fails", stubAssessor{assessment: joy}, &stubStreamer{err: errors.New("401")}, []string{"start", "error"}},
		{"stream empty", stubAssessor{assessment: joy}, &stubStreamer{}, []string{"start", "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := serve(New(tt.assessor, tt.streamer), `{"message":"hi"}`)
			events := parseEvents(t, resp.Body.String())
			assert.Equal(t, tt.want, names(events))
			assert.Equal(t, chat.FailureReply, events[len(events)-1].data.Error)
		})
	}
}

func TestStreamInvalidRequestCollapsesToApology(t *testing.T) {
	for _, body := range []string{`{"message":""}`, `{"message":"hi","history":[{"sender":1}]}`, `{not json`} {
		resp := serve(New(stubAssessor{}, &stubStreamer{}), body)
		assert.Equal(t, http.StatusInternalServerError, resp.Code, body)
		assert.JSONEq(t, `{"reply":"Sorry, something went wrong. Try again later."}`, resp.Body.String())
		assert.NotContains(t, resp.Body.String(), "event:")
	}
}
