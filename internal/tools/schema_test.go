package tools

import (
	"errors"
	"testing"
)

func objectSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":    map[string]any{"type": "integer"},
			"name": map[string]any{"type": "string"},
			"flag": map[string]any{"type": "boolean"},
		},
		"required":             []string{"x"},
		"additionalProperties": false,
	}
}

func TestValidateArgs(t *testing.T) {
	cases := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{name: "valid", args: map[string]any{"x": float64(3), "name": "a", "flag": true}},
		{name: "missing required", args: map[string]any{"name": "a"}, wantErr: true},
		{name: "unlisted field", args: map[string]any{"x": float64(1), "extra": "no"}, wantErr: true},
		{name: "integer accepts whole float", args: map[string]any{"x": float64(7)}},
		{name: "integer rejects fraction", args: map[string]any{"x": 1.5}, wantErr: true},
		{name: "string mismatch", args: map[string]any{"x": float64(1), "name": 4}, wantErr: true},
		{name: "boolean mismatch", args: map[string]any{"x": float64(1), "flag": "yes"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateArgs(objectSchema(), tc.args)
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation failure")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil {
				var schemaErr *SchemaValidationError
				if !errors.As(err, &schemaErr) {
					t.Fatalf("expected SchemaValidationError, got %T", err)
				}
			}
		})
	}
}

func TestValidateArgsNilSchema(t *testing.T) {
	if err := ValidateArgs(nil, map[string]any{"anything": 1}); err != nil {
		t.Fatalf("nil schema must accept anything: %v", err)
	}
}

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs([]byte(`{"x": 2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args["x"] != float64(2) {
		t.Fatalf("unexpected args: %v", args)
	}

	if _, err := ParseArgs([]byte(`[1, 2]`)); err == nil {
		t.Fatalf("expected non-object arguments to be rejected")
	}

	empty, err := ParseArgs(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input must produce empty args, got %v %v", empty, err)
	}
}
