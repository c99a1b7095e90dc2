package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	codeInterpreterName = "CodeInterpreter"

	// imageSentinelPrefix marks captured output that carries an encoded figure
	// instead of text. The full line is sentinel:<id>:<base64 payload>.
	imageSentinelPrefix = "base64image"

	imageResultFormat    = "Result of executing generated code is an image:\n\nIMAGE(%s)"
	executionErrorPrefix = "Error while executing code:\n\n"
)

const codeInterpreterDescription = "Run JavaScript code and return the console output. Use for isolated calculations, " +
	"computations or data manipulation. Use console.log to print results. Use plot.line(xs, ys) followed by plot.show() " +
	"to draw charts. Do not attempt to import or require libraries -- it will not work. Do not use this tool multiple " +
	"times in a row, always write the full code you want to run in a single invocation. If you get an error running " +
	"code, try to generate a better one that will pass. If the tool returns a result that starts with IMAGE(, follow " +
	"instructions for rendering images."

// sandboxPrelude is run in every fresh runtime before caller code. It defines
// the result wrapper the sandbox recognizes through the "_" binding.
const sandboxPrelude = `
function ExecutionResult(output, imageUrl) {
	return {
		__executionResult: true,
		output: output === undefined || output === null ? "" : String(output),
		imageUrl: imageUrl === undefined || imageUrl === null ? "" : String(imageUrl)
	};
}
`

// ImageUploader turns an encoded figure into a durable reference URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, name, base64Content string) (string, error)
}

// ExecutionResult is the structured value a snippet may leave in the "_"
// binding. It exists only for the duration of one invocation.
type ExecutionResult struct {
	Output   string
	ImageURL string
}

// AsText renders the result, preferring the image-embedding form.
func (r ExecutionResult) AsText() string {
	if r.ImageURL != "" {
		return fmt.Sprintf(imageResultFormat, r.ImageURL)
	}
	return r.Output
}

// FormatImageSentinel encodes an id and a base64 payload as a sentinel line.
func FormatImageSentinel(id, payload string) string {
	return imageSentinelPrefix + ":" + id + ":" + payload
}

// ParseImageSentinel splits a sentinel line on its first two delimiters.
// The payload may itself contain ':' characters.
func ParseImageSentinel(line string) (id, payload string, ok bool) {
	if !strings.HasPrefix(line, imageSentinelPrefix+":") {
		return "", "", false
	}
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// CodeInterpreterTool executes untrusted JavaScript snippets in an embedded
// goja runtime. Every invocation gets its own runtime and its own in-memory
// output sink, so concurrent executions never contend over process state.
type CodeInterpreterTool struct {
	uploader ImageUploader
	logger   *zap.Logger

	preludeOnce sync.Once
	prelude     *goja.Program
	preludeErr  error
}

// NewCodeInterpreterTool constructs the sandbox tool.
func NewCodeInterpreterTool(uploader ImageUploader, logger *zap.Logger) *CodeInterpreterTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeInterpreterTool{uploader: uploader, logger: logger}
}

func (t *CodeInterpreterTool) Name() string { return codeInterpreterName }

func (t *CodeInterpreterTool) Description() string { return codeInterpreterDescription }

func (t *CodeInterpreterTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{"type": "string", "description": "Code to be executed."},
		},
		"required":             []string{"code"},
		"additionalProperties": false,
	}
}

func (t *CodeInterpreterTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	code, _ := args["code"].(string)
	return t.Execute(ctx, code)
}

// Execute runs an arbitrary code string and returns its textual result.
// Parse and runtime failures of the snippet itself are absorbed into the
// returned text; only infrastructure failures (figure upload) come back as
// errors.
func (t *CodeInterpreterTool) Execute(ctx context.Context, code string) (string, error) {
	if _, err := parser.ParseFile(nil, "agent_code", code, 0); err != nil {
		return absorbError(&CompilationError{Tool: codeInterpreterName, Reason: "source does not parse", Err: err}), nil
	}

	t.preludeOnce.Do(func() {
		t.prelude, t.preludeErr = goja.Compile("prelude", sandboxPrelude, false)
	})
	if t.preludeErr != nil {
		return "", fmt.Errorf("install sandbox prelude: %w", t.preludeErr)
	}

	program, err := goja.Compile("agent_code", code, false)
	if err != nil {
		return absorbError(&CompilationError{Tool: codeInterpreterName, Reason: "source does not compile", Err: err}), nil
	}

	var captured bytes.Buffer
	rt := goja.New()
	fig := &figure{}
	if err := t.installBindings(rt, &captured, fig); err != nil {
		return "", err
	}
	if _, err := rt.RunProgram(t.prelude); err != nil {
		return "", fmt.Errorf("run sandbox prelude: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			rt.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	if _, err := rt.RunProgram(program); err != nil {
		t.logger.Debug("sandboxed code failed", zap.Error(err))
		return absorbError(&ExecutionError{Err: err}), nil
	}

	value := captured.String()
	if strings.HasPrefix(value, imageSentinelPrefix) {
		id, payload, ok := ParseImageSentinel(strings.TrimSpace(value))
		if !ok {
			return value, nil
		}
		if t.uploader == nil {
			return "", errors.New("figure produced but no image uploader is configured")
		}
		url, err := t.uploader.UploadImage(ctx, id, payload)
		if err != nil {
			return "", fmt.Errorf("upload figure %s: %w", id, err)
		}
		return ExecutionResult{ImageURL: url}.AsText(), nil
	}

	if result, ok := lastResult(rt); ok {
		return result.AsText(), nil
	}
	return value, nil
}

// installBindings exposes the sanctioned names: a console writing to the
// per-invocation sink, the plot hook, and nothing else.
func (t *CodeInterpreterTool) installBindings(rt *goja.Runtime, sink io.Writer, fig *figure) error {
	console := rt.NewObject()
	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		fmt.Fprintln(sink, strings.Join(parts, " "))
		return goja.Undefined()
	}
	if err := console.Set("log", logFn); err != nil {
		return err
	}
	if err := console.Set("error", logFn); err != nil {
		return err
	}
	if err := rt.Set("console", console); err != nil {
		return err
	}

	plot := rt.NewObject()
	if err := plot.Set("line", func(xs, ys []float64) {
		fig.Line(xs, ys)
	}); err != nil {
		return err
	}
	if err := plot.Set("show", func() {
		if err := t.showFigure(sink, fig); err != nil {
			panic(rt.ToValue("plot.show: " + err.Error()))
		}
	}); err != nil {
		return err
	}
	return rt.Set("plot", plot)
}

// showFigure serializes the current figure through a temporary file, emits
// the sentinel line into the sink, and clears the figure so the next plot in
// the same invocation starts blank. The temporary file is removed before the
// surrounding Execute returns, whether or not encoding succeeds.
func (t *CodeInterpreterTool) showFigure(sink io.Writer, fig *figure) error {
	data, err := fig.Render()
	if err != nil {
		return err
	}

	name := fmt.Sprintf("plt-%s.png", strings.ReplaceAll(uuid.NewString(), "-", ""))
	path := filepath.Join(os.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	defer os.Remove(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	fmt.Fprintln(sink, FormatImageSentinel(name, encoded))
	fig.Reset()
	return nil
}

func lastResult(rt *goja.Runtime) (ExecutionResult, bool) {
	v := rt.Get("_")
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ExecutionResult{}, false
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return ExecutionResult{}, false
	}
	marker := obj.Get("__executionResult")
	if marker == nil || !marker.ToBoolean() {
		return ExecutionResult{}, false
	}
	result := ExecutionResult{}
	if out := obj.Get("output"); out != nil && !goja.IsUndefined(out) && !goja.IsNull(out) {
		result.Output = out.String()
	}
	if img := obj.Get("imageUrl"); img != nil && !goja.IsUndefined(img) && !goja.IsNull(img) {
		result.ImageURL = img.String()
	}
	return result, true
}

// absorbError renders a snippet failure as ordinary result text so one bad
// tool call never aborts the agent turn.
func absorbError(err error) string {
	var compileErr *CompilationError
	var execErr *ExecutionError
	switch {
	case errors.As(err, &compileErr):
		return executionErrorPrefix + compileErr.Err.Error()
	case errors.As(err, &execErr):
		return executionErrorPrefix + describeThrow(execErr.Err)
	}
	return executionErrorPrefix + err.Error()
}

func describeThrow(err error) string {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.Value().String()
	}
	return err.Error()
}
