package ai

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeModel records every call and answers with a fixed reply.
type fakeModel struct {
	mu     sync.Mutex
	reply  string
	chunks []string
	err    error
	calls  [][]*schema.Message
}

func (f *fakeModel) record(input []*schema.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]*schema.Message(nil), input...))
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.record(input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.record(input)
	if f.err != nil {
		return nil, f.err
	}
	chunks := make([]*schema.Message, 0, len(f.chunks))
	for _, c := range f.chunks {
		chunks = append(chunks, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}
