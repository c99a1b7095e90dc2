package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

// GraniteClient implements Client against a watsonx.ai Granite deployment
// through its OpenAI-compatible chat endpoint, authenticated with an IAM
// bearer token.
type GraniteClient struct {
	client openai.Client
}

// NewGraniteClient constructs a client for the given endpoint. projectID, when
// set, scopes every request to that watsonx project.
func NewGraniteClient(bearerToken, baseURL, projectID string) *GraniteClient {
	opts := []option.RequestOption{option.WithAPIKey(bearerToken)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if projectID != "" {
		opts = append(opts, option.WithQuery("project_id", projectID))
	}
	client := openai.NewClient(opts...)
	return &GraniteClient{client: client}
}

func (c *GraniteClient) Create(ctx context.Context, req Request) (Response, error) {
	resp, err := c.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		return Response{}, err
	}
	return parseChatCompletion(resp)
}

func (c *GraniteClient) Stream(ctx context.Context, req Request, onDelta func(string)) (Response, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, buildParams(req))
	var builder strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			delta := choice.Delta.Content
			if delta != "" {
				builder.WriteString(delta)
				if onDelta != nil {
					onDelta(delta)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return Response{}, err
	}
	return Response{Content: builder.String()}, nil
}

func buildParams(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    req.Messages,
		Tools:       req.Tools,
		ToolChoice:  req.ToolChoice,
		Temperature: param.NewOpt(req.Parameters.Temperature),
		TopP:        param.NewOpt(req.Parameters.TopP),
	}
	if req.Parameters.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(int64(req.Parameters.MaxTokens))
	}
	if req.Parameters.FrequencyPenalty != 0 {
		params.FrequencyPenalty = param.NewOpt(req.Parameters.FrequencyPenalty)
	}
	if req.Parameters.PresencePenalty != 0 {
		params.PresencePenalty = param.NewOpt(req.Parameters.PresencePenalty)
	}
	return params
}

func parseChatCompletion(resp *openai.ChatCompletion) (Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("empty response")
	}
	msg := resp.Choices[0].Message
	response := Response{Content: msg.Content}
	for _, toolCall := range msg.ToolCalls {
		if toolCall.Type != "function" {
			continue
		}
		fn := toolCall.AsFunction()
		args := json.RawMessage(fn.Function.Arguments)
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:        fn.ID,
			Name:      fn.Function.Name,
			Arguments: args,
		})
	}
	return response, nil
}
