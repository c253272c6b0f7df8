package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindease/backend/internal/analysis/emotion"
	"github.com/mindease/backend/internal/service/ai"
	"github.com/mindease/backend/internal/service/relay"
)

type stubClassifier struct {
	scores []emotion.Score
	err    error
}

func (s stubClassifier) Classify(context.Context, string) ([]emotion.Score, error) {
	return s.scores, s.err
}

// recordingModel captures the turns handed to the conversational model.
type recordingModel struct {
	reply string
	err   error
	calls [][]*schema.Message
}

func (m *recordingModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls = append(m.calls, input)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *recordingModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func setupRouter(t *testing.T, cls stubClassifier, chatModel *recordingModel) *chi.Mux {
	t.Helper()
	aiSvc, err := ai.NewService(context.Background(), chatModel)
	require.NoError(t, err)

	r := chi.NewRouter()
	New(relay.NewService(cls, aiSvc, emotion.DefaultSafetyPolicy())).RegisterRoutes(r)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatCrisisReply(t *testing.T) {
	chatModel := &recordingModel{reply: "unused"}
	r := setupRouter(t, stubClassifier{scores: []emotion.Score{{Label: "sadness", Score: 0.6}}}, chatModel)

	resp := post(r, `{"message":"I feel so hopeless","history":[]}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"reply":"`+emotion.CrisisMessage+`","emotion":"sadness"}`, resp.Body.String())
	assert.Empty(t, chatModel.calls)
}

func TestChatCompletionReply(t *testing.T) {
	chatModel := &recordingModel{reply: "That sounds heavy. Want to talk about it?"}
	r := setupRouter(t, stubClassifier{scores: []emotion.Score{{Label: "joy", Score: 0.9}}}, chatModel)

	resp := post(r, `{"message":"I feel so hopeless","history":[]}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"reply":"That sounds heavy. Want to talk about it?","emotion":"joy"}`, resp.Body.String())
	require.Len(t, chatModel.calls, 1)
	require.Len(t, chatModel.calls[0], 1)
	assert.Equal(t, schema.User, chatModel.calls[0][0].Role)
	assert.Equal(t, "I feel so hopeless", chatModel.calls[0][0].Content)
}

func TestChatHistoryRolesAndTrimming(t *testing.T) {
	chatModel := &recordingModel{reply: "ok"}
	r := setupRouter(t, stubClassifier{scores: []emotion.Score{{Label: "neutral", Score: 0.8}}}, chatModel)

	body := `{"message":" and you? ","history":[{"sender":"You","message":" hi "},{"sender":"Bot","message":"hello "},{"sender":"Mum","message":"dinner"}]}`
	resp := post(r, body)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, chatModel.calls, 1)
	turns := chatModel.calls[0]
	require.Len(t, turns, 4)

	assert.Equal(t, schema.User, turns[0].Role)
	assert.Equal(t, "hi", turns[0].Content)
	assert.Equal(t, schema.Assistant, turns[1].Role)
	assert.Equal(t, "hello", turns[1].Content)
	assert.Equal(t, schema.Assistant, turns[2].Role)
	assert.Equal(t, schema.User, turns[3].Role)
	assert.Equal(t, "and you?", turns[3].Content)
}

func TestChatNonArrayHistoryIsEmpty(t *testing.T) {
	chatModel := &recordingModel{reply: "ok"}
	r := setupRouter(t, stubClassifier{scores: []emotion.Score{{Label: "joy", Score: 0.9}}}, chatModel)

	resp := post(r, `{"message":"hello","history":"nope"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, chatModel.calls, 1)
	assert.Len(t, chatModel.calls[0], 1)
}

func TestChatFailuresCollapseToApology(t *testing.T) {
	const apology = `{"reply":"Sorry, something went wrong. Try again later."}`

	tests := []struct {
		name      string
		cls       stubClassifier
		chatModel *recordingModel
	}{
		{
			name:      "classifier unreachable",
			cls:       stubClassifier{err: errors.New("dial tcp: connection refused")},
			chatModel: &recordingModel{reply: "unused"},
		},
		{
			name:      "classifier returned nothing",
			cls:       stubClassifier{},
			chatModel: &recordingModel{reply: "unused"},
		},
		{
			name:      "completion rejected",
			cls:       stubClassifier{scores: []emotion.Score{{Label: "joy", Score: 0.9}}},
			chatModel: &recordingModel{err: errors.New("status 429")},
		},
		{
			name:      "completion empty",
			cls:       stubClassifier{scores: []emotion.Score{{Label: "joy", Score: 0.9}}},
			chatModel: &recordingModel{reply: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(setupRouter(t, tt.cls, tt.chatModel), `{"message":"hello","history":[]}`)
			assert.Equal(t, http.StatusInternalServerError, resp.Code)
			assert.JSONEq(t, apology, resp.Body.String())
			assert.NotContains(t, resp.Body.String(), "emotion")
		})
	}
}

func TestChatInvalidRequestCollapsesToApology(t *testing.T) {
	chatModel := &recordingModel{reply: "unused"}
	r := setupRouter(t, stubClassifier{scores: []emotion.Score{{Label: "joy", Score: 0.9}}}, chatModel)

	for _, body := range []string{`{not json`, `{"message":"","history":[]}`, `{"message":"   "}`, `{"message":"hi","history":[{"sender":1}]}`} {
		resp := post(r, body)
		assert.Equal(t, http.StatusInternalServerError, resp.Code, body)
		assert.JSONEq(t, `{"reply":"Sorry, something went wrong. Try again later."}`, resp.Body.String())
	}
	assert.Empty(t, chatModel.calls)
}
