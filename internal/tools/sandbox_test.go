package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeUploader struct {
	name    string
	payload string
	url     string
	err     error
}

func (f *fakeUploader) UploadImage(ctx context.Context, name, base64Content string) (string, error) {
	f.name = name
	f.payload = base64Content
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func TestExecuteCapturesConsoleOutput(t *testing.T) {
	tool := NewCodeInterpreterTool(nil, nil)
	out, err := tool.Execute(context.Background(), `console.log("hello"); console.log(1 + 2);`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello\n3\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExecuteAbsorbsRuntimeError(t *testing.T) {
	tool := NewCodeInterpreterTool(nil, nil)
	out, err := tool.Execute(context.Background(), `throw new Error("boom")`)
	if err != nil {
		t.Fatalf("runtime failure must not propagate: %v", err)
	}
	if !strings.HasPrefix(out, executionErrorPrefix) {
		t.Fatalf("expected error text, got %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected boom in %q", out)
	}
}

func TestExecuteAbsorbsParseError(t *testing.T) {
	tool := NewCodeInterpreterTool(nil, nil)
	out, err := tool.Execute(context.Background(), `function {`)
	if err != nil {
		t.Fatalf("parse failure must not propagate: %v", err)
	}
	if !strings.HasPrefix(out, executionErrorPrefix) {
		t.Fatalf("expected error text, got %q", out)
	}
}

func TestExecuteLeavesStdoutUntouched(t *testing.T) {
	before := os.Stdout
	tool := NewCodeInterpreterTool(nil, nil)
	for _, code := range []string{`console.log("ok")`, `throw new Error("boom")`, `function {`} {
		if _, err := tool.Execute(context.Background(), code); err != nil {
			t.Fatalf("unexpected error for %q: %v", code, err)
		}
		if os.Stdout != before {
			t.Fatalf("stdout was replaced while executing %q", code)
		}
	}
}

func TestExecuteLastResultBinding(t *testing.T) {
	tool := NewCodeInterpreterTool(nil, nil)

	out, err := tool.Execute(context.Background(), `_ = ExecutionResult("forty-two")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "forty-two" {
		t.Fatalf("expected structured output, got %q", out)
	}

	out, err = tool.Execute(context.Background(), `_ = ExecutionResult("", "https://example.com/fig.png")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != fmt.Sprintf(imageResultFormat, "https://example.com/fig.png") {
		t.Fatalf("expected image form, got %q", out)
	}
}

func TestExecutePlotProducesImage(t *testing.T) {
	uploader := &fakeUploader{url: "https://example.com/fig.png"}
	tool := NewCodeInterpreterTool(uploader, nil)

	out, err := tool.Execute(context.Background(), `plot.line([0, 1, 2], [0, 1, 4]); plot.show();`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out, "IMAGE(") != 1 {
		t.Fatalf("expected exactly one image marker, got %q", out)
	}
	if !strings.Contains(out, "IMAGE(https://example.com/fig.png)") {
		t.Fatalf("expected upload URL in %q", out)
	}

	raw, decErr := base64.StdEncoding.DecodeString(uploader.payload)
	if decErr != nil {
		t.Fatalf("payload is not base64: %v", decErr)
	}
	if len(raw) < 8 || string(raw[1:4]) != "PNG" {
		t.Fatalf("payload is not a PNG")
	}

	if _, statErr := os.Stat(filepath.Join(os.TempDir(), uploader.name)); !os.IsNotExist(statErr) {
		t.Fatalf("temporary figure file was not removed")
	}
}

func TestExecutePlotNonFinitePointsStillReturns(t *testing.T) {
	for _, code := range []string{
		`plot.line([0, 1], [0, Infinity]); plot.show();`,
		`plot.line([0, 0/0], [0, 1]); plot.show();`,
	} {
		uploader := &fakeUploader{url: "https://example.com/fig.png"}
		tool := NewCodeInterpreterTool(uploader, nil)

		var out string
		var err error
		done := make(chan struct{})
		go func() {
			out, err = tool.Execute(context.Background(), code)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Fatalf("Execute did not return for %q", code)
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", code, err)
		}
		if !strings.Contains(out, "IMAGE(https://example.com/fig.png)") {
			t.Fatalf("expected image result for %q, got %q", code, out)
		}
	}
}

func TestExecutePlotOnlyNonFinitePoints(t *testing.T) {
	tool := NewCodeInterpreterTool(&fakeUploader{url: "unused"}, nil)
	out, err := tool.Execute(context.Background(), `plot.line([NaN, Infinity], [0, 1]); plot.show();`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, executionErrorPrefix) {
		t.Fatalf("expected absorbed error text, got %q", out)
	}
	if !strings.Contains(out, "nothing to plot") {
		t.Fatalf("expected empty-figure message in %q", out)
	}
}

func TestExecuteUploadFailurePropagates(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("service unavailable")}
	tool := NewCodeInterpreterTool(uploader, nil)

	_, err := tool.Execute(context.Background(), `plot.line([0, 1], [1, 2]); plot.show();`)
	if err == nil {
		t.Fatalf("expected upload failure to propagate")
	}
}

func TestExecuteHonorsContextDeadline(t *testing.T) {
	tool := NewCodeInterpreterTool(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	out, err := tool.Execute(ctx, `while (true) {}`)
	if err != nil {
		t.Fatalf("interrupt must be absorbed, got error: %v", err)
	}
	if !strings.HasPrefix(out, executionErrorPrefix) {
		t.Fatalf("expected error text, got %q", out)
	}
}

func TestSentinelRoundTrip(t *testing.T) {
	payload := "aGVsbG86d29ybGQ6Zm9v" // contains ':' once decoded and stays intact either way
	line := FormatImageSentinel("plt-1234.png", payload+":extra:colons")
	id, got, ok := ParseImageSentinel(line)
	if !ok {
		t.Fatalf("expected sentinel to parse")
	}
	if id != "plt-1234.png" {
		t.Fatalf("unexpected id %q", id)
	}
	if got != payload+":extra:colons" {
		t.Fatalf("payload mangled: %q", got)
	}
}

func TestParseImageSentinelRejectsPlainText(t *testing.T) {
	if _, _, ok := ParseImageSentinel("just some output"); ok {
		t.Fatalf("expected plain text to be rejected")
	}
	if _, _, ok := ParseImageSentinel("base64image only-one-part"); ok {
		t.Fatalf("expected malformed sentinel to be rejected")
	}
}

func TestInvokeValidatedBySchemaShape(t *testing.T) {
	tool := NewCodeInterpreterTool(nil, nil)
	schema := tool.Schema()
	if err := ValidateArgs(schema, map[string]any{"code": "console.log(1)"}); err != nil {
		t.Fatalf("valid args rejected: %v", err)
	}
	if err := ValidateArgs(schema, map[string]any{}); err == nil {
		t.Fatalf("expected missing code to be rejected")
	}
}
