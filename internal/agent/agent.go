package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/config"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/events"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/llm"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/render"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/tools"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/util"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/version"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared/constant"
	"go.uber.org/zap"
)

// RunResult captures run output for JSON mode and governance records.
type RunResult struct {
	RunID       string           `json:"run_id"`
	StartedAt   time.Time        `json:"timestamp_start"`
	FinishedAt  time.Time        `json:"timestamp_end"`
	Question    string           `json:"question"`
	Model       string           `json:"model"`
	StepsUsed   int              `json:"steps_used"`
	Status      string           `json:"status"`
	FinalAnswer string           `json:"final_answer"`
	ToolCalls   []ToolCallRecord `json:"tool_calls"`
	Events      []events.Event   `json:"events"`
}

// ToolCallRecord records tool call history.
type ToolCallRecord struct {
	ToolName   string    `json:"tool_name"`
	Input      any       `json:"input"`
	Output     any       `json:"output"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Agent runs the orchestration loop.
type Agent struct {
	client   llm.Client
	toolkit  *tools.Toolkit
	renderer render.Renderer
	logger   *zap.Logger
	cfg      config.Config
}

// NewAgent constructs an Agent.
func NewAgent(client llm.Client, toolkit *tools.Toolkit, renderer render.Renderer, logger *zap.Logger, cfg config.Config) *Agent {
	return &Agent{client: client, toolkit: toolkit, renderer: renderer, logger: logger, cfg: cfg}
}

// Run executes the agent loop. Malformed tool arguments are reported back to
// the model as tool output so it can retry with corrected arguments; remote
// infrastructure failures abort the run.
func (a *Agent) Run(ctx context.Context, question string) (RunResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	result := RunResult{
		RunID:     runID,
		StartedAt: started,
		Question:  question,
		Model:     a.cfg.Model,
		Status:    "failure",
	}

	emit := func(event events.Event) {
		result.Events = append(result.Events, event)
		if a.renderer != nil {
			a.renderer.Emit(event)
		}
	}

	emit(events.Event{Type: events.RunStarted, Timestamp: time.Now(), Payload: events.RunStartedPayload{
		Version:   version.Version,
		Model:     a.cfg.Model,
		RunID:     runID,
		Tools:     a.toolkit.Names(),
		StartedAt: started,
	}})

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(DefaultInstructions),
		openai.DeveloperMessage(developerPrompt(a.toolkit.Names())),
		openai.UserMessage(question),
	}

	toolDefs := a.toolkit.OpenAITools()
	toolChoice := openai.ChatCompletionToolChoiceOptionUnionParam{}
	if len(toolDefs) > 0 {
		toolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: param.NewOpt("auto")}
	}
	params := llm.Parameters{
		Temperature:      a.cfg.Parameters.Temperature,
		TopP:             a.cfg.Parameters.TopP,
		MaxTokens:        a.cfg.Parameters.MaxTokens,
		FrequencyPenalty: a.cfg.Parameters.FrequencyPenalty,
		PresencePenalty:  a.cfg.Parameters.PresencePenalty,
	}

	steps := 0
	for steps < a.cfg.MaxSteps {
		steps++
		response, err := a.client.Create(ctx, llm.Request{Model: a.cfg.Model, Messages: messages, Tools: toolDefs, ToolChoice: toolChoice, Parameters: params})
		if err != nil {
			a.logger.Error("model request failed", zap.Error(err))
			emit(events.Event{Type: events.RunError, Timestamp: time.Now(), Payload: events.RunErrorPayload{Message: err.Error()}})
			result.StepsUsed = steps
			result.FinishedAt = time.Now()
			return result, err
		}

		if len(response.ToolCalls) == 0 {
			finalAnswer := strings.TrimSpace(response.Content)
			if !a.cfg.JSON {
				streamed, err := a.streamFinal(ctx, llm.Request{Model: a.cfg.Model, Messages: messages, Tools: toolDefs, ToolChoice: toolChoice, Parameters: params}, emit)
				if err != nil {
					a.logger.Error("streaming failed", zap.Error(err))
				} else if strings.TrimSpace(streamed) != "" {
					finalAnswer = streamed
				}
			}
			result.FinalAnswer = strings.TrimSpace(finalAnswer)
			result.Status = "success"
			result.StepsUsed = steps
			result.FinishedAt = time.Now()
			emit(events.Event{Type: events.FinalAnswerReady, Timestamp: time.Now(), Payload: events.FinalAnswerPayload{Answer: result.FinalAnswer}})
			emit(events.Event{Type: events.RunFinished, Timestamp: time.Now(), Payload: events.RunFinishedPayload{Status: result.Status, FinishedAt: result.FinishedAt}})
			return result, nil
		}

		messages = append(messages, assistantToolCalls(response.ToolCalls))

		for _, call := range response.ToolCalls {
			tool, ok := a.toolkit.Get(call.Name)
			if !ok {
				messages = a.rejectCall(&result, messages, emit, call, fmt.Errorf("unknown tool: %s", call.Name))
				continue
			}

			inputSanitized := sanitizeInput(call.Arguments)
			start := time.Now()
			emit(events.Event{Type: events.ToolCallStarted, Timestamp: start, Payload: events.ToolCallStartedPayload{ToolName: call.Name, Input: inputSanitized, StartedAt: start}})

			args, err := tools.ParseArgs(call.Arguments)
			if err == nil {
				err = tools.ValidateArgs(tool.Schema(), args)
			}
			if err != nil {
				messages = a.rejectCall(&result, messages, emit, call, err)
				continue
			}

			text, err := tool.Invoke(ctx, args)
			duration := time.Since(start).Milliseconds()
			if err != nil {
				a.logger.Error("tool invocation failed", zap.String("tool", call.Name), zap.Error(err))
				record := ToolCallRecord{ToolName: call.Name, Input: inputSanitized, Output: err.Error(), Status: "error", StartedAt: start, DurationMs: duration}
				result.ToolCalls = append(result.ToolCalls, record)
				emit(events.Event{Type: events.ToolCallFailed, Timestamp: time.Now(), Payload: events.ToolCallFinishedPayload{ToolName: call.Name, Status: "error", Preview: err.Error(), ByteCount: len(err.Error()), DurationMs: duration}})
				emit(events.Event{Type: events.RunError, Timestamp: time.Now(), Payload: events.RunErrorPayload{Message: err.Error()}})
				result.StepsUsed = steps
				result.FinishedAt = time.Now()
				return result, err
			}

			text = util.RedactSecrets(text)
			text, truncated := util.TruncateBytes(text, a.cfg.ToolLimits.ToolMaxBytes)

			record := ToolCallRecord{ToolName: call.Name, Input: inputSanitized, Output: text, Status: "success", StartedAt: start, DurationMs: duration}
			result.ToolCalls = append(result.ToolCalls, record)
			emit(events.Event{Type: events.ToolCallFinished, Timestamp: time.Now(), Payload: events.ToolCallFinishedPayload{
				ToolName:   call.Name,
				Status:     "success",
				Preview:    util.Preview(text, 6, 2000),
				ByteCount:  len(text),
				Truncated:  truncated,
				DurationMs: duration,
			}})
			messages = append(messages, openai.ToolMessage(text, call.ID))
		}
	}

	// max steps reached
	warning := "Max steps reached. Provide the best possible partial answer and include a warning."
	messages = append(messages, openai.DeveloperMessage(warning))
	finalAnswer := "Max steps reached; unable to complete."
	if !a.cfg.JSON {
		streamed, err := a.streamFinal(ctx, llm.Request{Model: a.cfg.Model, Messages: messages, Tools: toolDefs, ToolChoice: toolChoice, Parameters: params}, emit)
		if err == nil && strings.TrimSpace(streamed) != "" {
			finalAnswer = streamed
		}
	}
	if !strings.Contains(strings.ToLower(finalAnswer), "max steps") {
		finalAnswer = "Max steps reached. " + finalAnswer
	}
	result.FinalAnswer = strings.TrimSpace(finalAnswer)
	result.Status = "partial"
	result.StepsUsed = steps
	result.FinishedAt = time.Now()
	emit(events.Event{Type: events.FinalAnswerReady, Timestamp: time.Now(), Payload: events.FinalAnswerPayload{Answer: result.FinalAnswer}})
	emit(events.Event{Type: events.RunFinished, Timestamp: time.Now(), Payload: events.RunFinishedPayload{Status: result.Status, FinishedAt: result.FinishedAt}})
	return result, errors.New("max steps reached")
}

// rejectCall records a recoverable tool-call failure and feeds the error back
// to the model as tool output.
func (a *Agent) rejectCall(result *RunResult, messages []openai.ChatCompletionMessageParamUnion, emit func(events.Event), call llm.ToolCall, callErr error) []openai.ChatCompletionMessageParamUnion {
	a.logger.Warn("tool call rejected", zap.String("tool", call.Name), zap.Error(callErr))
	record := ToolCallRecord{ToolName: call.Name, Input: sanitizeInput(call.Arguments), Output: callErr.Error(), Status: "error", StartedAt: time.Now()}
	result.ToolCalls = append(result.ToolCalls, record)
	emit(events.Event{Type: events.ToolCallFailed, Timestamp: time.Now(), Payload: events.ToolCallFinishedPayload{ToolName: call.Name, Status: "error", Preview: callErr.Error(), ByteCount: len(callErr.Error())}})
	payloadBytes, _ := json.Marshal(map[string]string{"error": callErr.Error()})
	return append(messages, openai.ToolMessage(string(payloadBytes), call.ID))
}

func assistantToolCalls(calls []llm.ToolCall) openai.ChatCompletionMessageParamUnion {
	toolCallParams := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(calls))
	for _, call := range calls {
		toolCallParams = append(toolCallParams, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
				Type: constant.Function("function"),
			},
		})
	}
	assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCallParams}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func (a *Agent) streamFinal(ctx context.Context, req llm.Request, emit func(events.Event)) (string, error) {
	var builder strings.Builder
	_, err := a.client.Stream(ctx, req, func(delta string) {
		emit(events.Event{Type: events.ModelDelta, Timestamp: time.Now(), Payload: events.ModelDeltaPayload{Delta: delta}})
		builder.WriteString(delta)
	})
	return builder.String(), err
}

func sanitizeInput(args json.RawMessage) any {
	if len(args) == 0 {
		return map[string]any{}
	}
	var data any
	if err := json.Unmarshal(args, &data); err != nil {
		return map[string]any{"raw": util.RedactSecrets(string(args))}
	}
	if bytes, err := json.Marshal(data); err == nil {
		return util.RedactSecrets(string(bytes))
	}
	return data
}
