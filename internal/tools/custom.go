package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// CustomToolDefinition describes a tool whose behavior is supplied as a
// source snippet. Consumed exactly once by CompileCustomTool.
type CustomToolDefinition struct {
	Name         string
	Description  string
	Source       string
	InputSchema  map[string]any
	StaticParams map[string]any
}

// customTool binds a compiled snippet's entry-point function. The underlying
// runtime is not safe for concurrent calls, so invocations serialize on mu.
type customTool struct {
	def        CustomToolDefinition
	mu         sync.Mutex
	rt         *goja.Runtime
	fn         goja.Callable
	paramNames []string
}

// CompileCustomTool turns a definition into an invocable tool. The snippet's
// first top-level function declaration is the entry point; later declarations
// are ignored. Static params are pre-bound into the namespace before the
// source runs, once, at compile time.
func CompileCustomTool(def CustomToolDefinition) (Tool, error) {
	program, err := parser.ParseFile(nil, "custom_tool", def.Source, 0)
	if err != nil {
		return nil, &CompilationError{Tool: def.Name, Reason: "source does not parse", Err: err}
	}

	entry := firstFunctionDeclaration(program)
	if entry == nil {
		return nil, &CompilationError{Tool: def.Name, Reason: "no function defined"}
	}
	entryName := entry.Function.Name.Name.String()
	paramNames := declaredParams(entry.Function)

	compiled, err := goja.Compile("custom_tool", def.Source, false)
	if err != nil {
		return nil, &CompilationError{Tool: def.Name, Reason: "source does not compile", Err: err}
	}

	rt := goja.New()
	for name, value := range def.StaticParams {
		if err := rt.Set(name, value); err != nil {
			return nil, &CompilationError{Tool: def.Name, Reason: "bind static param " + name, Err: err}
		}
	}
	if _, err := rt.RunProgram(compiled); err != nil {
		return nil, &CompilationError{Tool: def.Name, Reason: "source failed to evaluate", Err: err}
	}

	fn, ok := goja.AssertFunction(rt.Get(entryName))
	if !ok {
		return nil, &CompilationError{Tool: def.Name, Reason: "entry point " + entryName + " is not callable"}
	}

	return &customTool{def: def, rt: rt, fn: fn, paramNames: paramNames}, nil
}

func (t *customTool) Name() string { return t.def.Name }

func (t *customTool) Description() string { return t.def.Description }

func (t *customTool) Schema() map[string]any { return t.def.InputSchema }

// Invoke calls the entry point with the supplied keyword arguments mapped
// onto its declared parameters. Arguments are assumed schema-valid; the
// caller validates before invoking. A keyword argument sharing a name with a
// static param wins, because it is passed directly to the call rather than
// read from the namespace.
func (t *customTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			t.rt.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	callArgs := make([]goja.Value, 0, len(t.paramNames))
	for _, name := range t.paramNames {
		if value, ok := args[name]; ok {
			callArgs = append(callArgs, t.rt.ToValue(value))
		} else {
			callArgs = append(callArgs, goja.Undefined())
		}
	}

	value, err := t.fn(goja.Undefined(), callArgs...)
	if err != nil {
		return absorbError(&ExecutionError{Err: err}), nil
	}
	return renderValue(value), nil
}

func firstFunctionDeclaration(program *ast.Program) *ast.FunctionDeclaration {
	for _, stmt := range program.Body {
		if decl, ok := stmt.(*ast.FunctionDeclaration); ok {
			return decl
		}
	}
	return nil
}

func declaredParams(fn *ast.FunctionLiteral) []string {
	if fn.ParameterList == nil {
		return nil
	}
	names := make([]string, 0, len(fn.ParameterList.List))
	for _, binding := range fn.ParameterList.List {
		if id, ok := binding.Target.(*ast.Identifier); ok {
			names = append(names, id.Name.String())
		}
	}
	return names
}

// renderValue coerces a snippet return value to text: strings verbatim,
// anything else as JSON.
func renderValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	exported := v.Export()
	if s, ok := exported.(string); ok {
		return s
	}
	data, err := json.Marshal(exported)
	if err != nil {
		return v.String()
	}
	return string(data)
}
