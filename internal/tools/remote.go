package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// RemoteToolDescriptor is the read-only description of an external capability.
// Absence of InputSchema selects the free-form argument convention.
type RemoteToolDescriptor struct {
	Name             string
	Description      string
	AgentDescription string
	InputSchema      map[string]any
}

// RemoteToolRunner invokes a named external capability and returns its raw
// result mapping.
type RemoteToolRunner interface {
	RunTool(ctx context.Context, name string, input any, config map[string]any) (map[string]any, error)
}

// defaultRemoteSchema is used when the remote descriptor carries no schema:
// a single free-form input string.
func defaultRemoteSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"input": map[string]any{"type": "string", "description": "input for the tool"},
		},
		"required": []string{"input"},
	}
}

// UtilityAgentTool adapts a remote capability behind the Tool contract.
type UtilityAgentTool struct {
	descriptor  RemoteToolDescriptor
	runner      RemoteToolRunner
	config      map[string]any
	description string
}

// NewUtilityAgentTool wraps a remote descriptor. overrideDescription, when
// non-empty, takes precedence over the descriptor's own description fields.
func NewUtilityAgentTool(descriptor RemoteToolDescriptor, runner RemoteToolRunner, config map[string]any, overrideDescription string) *UtilityAgentTool {
	description := overrideDescription
	if description == "" {
		description = descriptor.AgentDescription
	}
	if description == "" {
		description = descriptor.Description
	}
	return &UtilityAgentTool{descriptor: descriptor, runner: runner, config: config, description: description}
}

func (t *UtilityAgentTool) Name() string { return t.descriptor.Name }

func (t *UtilityAgentTool) Description() string { return t.description }

func (t *UtilityAgentTool) Schema() map[string]any {
	if t.descriptor.InputSchema != nil {
		return t.descriptor.InputSchema
	}
	return defaultRemoteSchema()
}

// Invoke forwards arguments to the remote runner. With a declared schema the
// keyword arguments pass through unchanged as a structured payload; without
// one the implicit "input" value travels alone. The remote result must carry
// an "output" field.
func (t *UtilityAgentTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	var input any = args
	if t.descriptor.InputSchema == nil {
		input = args["input"]
	}

	result, err := t.runner.RunTool(ctx, t.descriptor.Name, input, t.config)
	if err != nil {
		return "", &RemoteAdapterError{Tool: t.descriptor.Name, Reason: "remote call failed", Err: err}
	}
	output, ok := result["output"]
	if !ok {
		return "", &RemoteAdapterError{Tool: t.descriptor.Name, Reason: "result has no output field"}
	}
	return textValue(output), nil
}

func textValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
