package tools

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

// Tool is the uniform contract every agent-callable capability implements.
// Failures of the user's own code come back as result text; only
// infrastructure failures surface through the error return.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Toolkit is the ordered tool list made available to one agent configuration.
// Order is fixed at assembly time and significant: identical configurations
// produce identical listings.
type Toolkit struct {
	tools []Tool
	index map[string]Tool
}

// NewToolkit builds a toolkit preserving item order. A duplicate name is a
// configuration error, never a silent overwrite.
func NewToolkit(items ...Tool) (*Toolkit, error) {
	kit := &Toolkit{index: map[string]Tool{}}
	for _, item := range items {
		if _, exists := kit.index[item.Name()]; exists {
			return nil, fmt.Errorf("duplicate tool name: %s", item.Name())
		}
		kit.index[item.Name()] = item
		kit.tools = append(kit.tools, item)
	}
	return kit, nil
}

// Get returns a tool by name.
func (k *Toolkit) Get(name string) (Tool, bool) {
	tool, ok := k.index[name]
	return tool, ok
}

// Names returns tool names in assembly order.
func (k *Toolkit) Names() []string {
	names := make([]string, 0, len(k.tools))
	for _, tool := range k.tools {
		names = append(names, tool.Name())
	}
	return names
}

// Tools returns the ordered tool list.
func (k *Toolkit) Tools() []Tool {
	out := make([]Tool, len(k.tools))
	copy(out, k.tools)
	return out
}

// Len returns the number of tools.
func (k *Toolkit) Len() int { return len(k.tools) }

// OpenAITools converts tool definitions to the OpenAI function-tool schema,
// preserving assembly order.
func (k *Toolkit) OpenAITools() []openai.ChatCompletionToolUnionParam {
	var defs []openai.ChatCompletionToolUnionParam
	for _, tool := range k.tools {
		defs = append(defs, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        tool.Name(),
					Description: param.NewOpt(tool.Description()),
					Parameters:  tool.Schema(),
				},
			},
		})
	}
	return defs
}
