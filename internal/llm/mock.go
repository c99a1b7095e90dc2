package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockClient is a deterministic client for tests and demos. Its first turn
// requests a code execution; the second produces a final answer.
type MockClient struct {
	mu    sync.Mutex
	calls int
}

// NewMockClient returns a simple mock.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Create(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.calls == 1 && len(req.Tools) > 0 {
		args, _ := json.Marshal(map[string]any{"code": "console.log(6 * 7)"})
		return Response{ToolCalls: []ToolCall{{ID: "call_1", Name: "CodeInterpreter", Arguments: args}}}, nil
	}
	return Response{Content: "The computed value is 42. [tool:CodeInterpreter]"}, nil
}

func (m *MockClient) Stream(ctx context.Context, req Request, onDelta func(string)) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := Response{Content: "The computed value is 42. [tool:CodeInterpreter]"}
	if onDelta != nil {
		onDelta(resp.Content)
	}
	return resp, nil
}
