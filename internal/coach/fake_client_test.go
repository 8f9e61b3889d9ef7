package coach

import (
	"context"
	"strings"

	"github.com/capitalize-ai/leadership-coach/internal/llm"
)

// fakeClient is an llm.Client that replays configured deltas.
type fakeClient struct {
	deltas    []string
	content   string
	err       error
	startErr  error
	lastReq   *llm.CompletionRequest
	completed bool
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, handler llm.StreamHandler) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.startErr != nil {
		return nil, f.startErr
	}
	for _, d := range f.deltas {
		if err := handler(llm.StreamEvent{Kind: llm.EventDelta, Text: d}); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if err := handler(llm.StreamEvent{Kind: llm.EventCompleted}); err != nil {
		return nil, err
	}
	f.completed = true
	return &llm.CompletionResponse{Content: strings.Join(f.deltas, "")}, nil
}
