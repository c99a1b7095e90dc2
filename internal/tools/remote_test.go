package tools

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeRunner struct {
	gotName   string
	gotInput  any
	gotConfig map[string]any
	result    map[string]any
	err       error
}

func (f *fakeRunner) RunTool(ctx context.Context, name string, input any, config map[string]any) (map[string]any, error) {
	f.gotName = name
	f.gotInput = input
	f.gotConfig = config
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestRemoteToolStructuredArguments(t *testing.T) {
	runner := &fakeRunner{result: map[string]any{"output": "found it"}}
	descriptor := RemoteToolDescriptor{
		Name: "RAGQuery",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []string{"query"},
		},
	}
	tool := NewUtilityAgentTool(descriptor, runner, map[string]any{"vectorIndexId": "vi-1"}, "")

	out, err := tool.Invoke(context.Background(), map[string]any{"query": "policy limits"})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if out != "found it" {
		t.Fatalf("unexpected output %q", out)
	}
	want := map[string]any{"query": "policy limits"}
	if !reflect.DeepEqual(runner.gotInput, want) {
		t.Fatalf("structured args must pass through unchanged, got %v", runner.gotInput)
	}
	if runner.gotConfig["vectorIndexId"] != "vi-1" {
		t.Fatalf("expected config to reach the runner")
	}
}

func TestRemoteToolFreeFormArgument(t *testing.T) {
	runner := &fakeRunner{result: map[string]any{"output": "results"}}
	tool := NewUtilityAgentTool(RemoteToolDescriptor{Name: "GoogleSearch"}, runner, nil, "")

	schema := tool.Schema()
	properties, _ := schema["properties"].(map[string]any)
	if _, ok := properties["input"]; !ok {
		t.Fatalf("schemaless descriptor must expose an implicit input field")
	}

	if _, err := tool.Invoke(context.Background(), map[string]any{"input": "loan rates"}); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if runner.gotInput != "loan rates" {
		t.Fatalf("expected sole free-form value, got %v", runner.gotInput)
	}
}

func TestRemoteToolMissingOutputField(t *testing.T) {
	runner := &fakeRunner{result: map[string]any{"data": "nope"}}
	tool := NewUtilityAgentTool(RemoteToolDescriptor{Name: "GoogleSearch"}, runner, nil, "")

	_, err := tool.Invoke(context.Background(), map[string]any{"input": "q"})
	var adapterErr *RemoteAdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("expected RemoteAdapterError, got %v", err)
	}
}

func TestRemoteToolCallFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("gateway timeout")}
	tool := NewUtilityAgentTool(RemoteToolDescriptor{Name: "GoogleSearch"}, runner, nil, "")

	_, err := tool.Invoke(context.Background(), map[string]any{"input": "q"})
	var adapterErr *RemoteAdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("expected RemoteAdapterError, got %v", err)
	}
	if !errors.Is(err, runner.err) {
		t.Fatalf("expected wrapped cause")
	}
}

func TestRemoteToolStructuredOutputRendered(t *testing.T) {
	runner := &fakeRunner{result: map[string]any{"output": map[string]any{"hits": 3}}}
	tool := NewUtilityAgentTool(RemoteToolDescriptor{Name: "GoogleSearch"}, runner, nil, "")

	out, err := tool.Invoke(context.Background(), map[string]any{"input": "q"})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if out != `{"hits":3}` {
		t.Fatalf("expected JSON rendering, got %q", out)
	}
}

func TestRemoteToolDescriptionPrecedence(t *testing.T) {
	descriptor := RemoteToolDescriptor{Name: "RAGQuery", Description: "plain", AgentDescription: "for agents"}
	if got := NewUtilityAgentTool(descriptor, nil, nil, "override").Description(); got != "override" {
		t.Fatalf("override must win, got %q", got)
	}
	if got := NewUtilityAgentTool(descriptor, nil, nil, "").Description(); got != "for agents" {
		t.Fatalf("agent description must beat plain, got %q", got)
	}
	descriptor.AgentDescription = ""
	if got := NewUtilityAgentTool(descriptor, nil, nil, "").Description(); got != "plain" {
		t.Fatalf("plain description is the fallback, got %q", got)
	}
}
